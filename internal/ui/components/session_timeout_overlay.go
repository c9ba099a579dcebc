// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/greenshare/greenshare-tui/internal/session"
	"github.com/greenshare/greenshare-tui/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// SessionTimeoutOverlay is the inactivity warning dialog. It is shown while
// the inactivity controller is in its warning state and offers two choices:
// continue the session or log out now. Other keys are ignored so a stray
// keystroke cannot dismiss it.
type SessionTimeoutOverlay struct {
	visible       bool
	expired       bool
	timeRemaining time.Duration
	leadTime      time.Duration
	idleFor       time.Duration

	keys OverlayKeyMap

	width  int
	height int
}

// OverlayKeyMap holds the overlay's bindings.
type OverlayKeyMap struct {
	Continue key.Binding
	Logout   key.Binding
}

// DefaultOverlayKeyMap returns c/enter to continue and l to log out.
func DefaultOverlayKeyMap() OverlayKeyMap {
	return OverlayKeyMap{
		Continue: key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "continue session")),
		Logout:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log out")),
	}
}

// NewSessionTimeoutOverlay creates a hidden overlay.
func NewSessionTimeoutOverlay() SessionTimeoutOverlay {
	return SessionTimeoutOverlay{keys: DefaultOverlayKeyMap()}
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *SessionTimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// Show displays the warning with remaining time left out of lead.
func (o *SessionTimeoutOverlay) Show(remaining, lead time.Duration) {
	o.visible = true
	o.expired = false
	o.timeRemaining = remaining
	o.leadTime = lead
}

// ShowExpired switches to the expired view. idle is the inactivity period
// that ended the session.
func (o *SessionTimeoutOverlay) ShowExpired(idle time.Duration) {
	o.visible = true
	o.expired = true
	o.timeRemaining = 0
	o.idleFor = idle
}

// Hide hides the overlay.
func (o *SessionTimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// UpdateTime refreshes the countdown.
func (o *SessionTimeoutOverlay) UpdateTime(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	o.timeRemaining = remaining
}

func (o *SessionTimeoutOverlay) IsVisible() bool { return o.visible }
func (o *SessionTimeoutOverlay) IsExpired() bool { return o.expired }
func (o *SessionTimeoutOverlay) TimeRemaining() time.Duration { return o.timeRemaining }

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// SessionTimeoutTickMsg drives the countdown redraw.
type SessionTimeoutTickMsg struct {
	Time time.Time
}

// SessionContinueMsg is emitted when the investor chooses to stay signed in.
type SessionContinueMsg struct{}

// SessionLogoutMsg is emitted when the investor chooses to log out.
type SessionLogoutMsg struct{}

// SessionTimeoutTickCmd schedules the next countdown redraw.
func SessionTimeoutTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return SessionTimeoutTickMsg{Time: t}
	})
}

// Update handles messages for the overlay.
func (o SessionTimeoutOverlay) Update(msg tea.Msg) (SessionTimeoutOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if !o.visible || o.expired {
			return o, nil
		}
		switch {
		case key.Matches(msg, o.keys.Continue):
			return o, func() tea.Msg { return SessionContinueMsg{} }
		case key.Matches(msg, o.keys.Logout):
			return o, func() tea.Msg { return SessionLogoutMsg{} }
		}
	}
	return o, nil
}

// View renders the overlay, or "" when hidden.
func (o SessionTimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}
	if o.expired {
		return o.place(o.viewExpired(), styles.Rose)
	}
	return o.place(o.viewWarning(), styles.Amber)
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (o SessionTimeoutOverlay) contentWidth() int {
	w := o.width - 8
	if w < 40 {
		w = 40
	}
	if w > 60 {
		w = 60
	}
	return w
}

func (o SessionTimeoutOverlay) viewWarning() string {
	w := o.contentWidth()
	center := lipgloss.NewStyle().Width(w - 6).Align(lipgloss.Center)

	title := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true).
		Render(styles.StatusIndicators.Warning + " Session about to expire")
	countdown := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true).
		Render(session.FormatCountdown(o.timeRemaining))
	msg := lipgloss.NewStyle().Foreground(styles.TextPrimary).
		Render("You will be signed out for inactivity in " + countdown)

	fraction := 0.0
	if o.leadTime > 0 {
		fraction = float64(o.timeRemaining) / float64(o.leadTime)
	}
	gauge := lipgloss.NewStyle().Foreground(styles.Amber).Render(styles.RenderBar(w-10, fraction))

	keyStyle := lipgloss.NewStyle().Foreground(styles.Leaf).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	choices := keyStyle.Render("[c]") + descStyle.Render(" Continue session") + "    " +
		keyStyle.Render("[l]") + descStyle.Render(" Log out")

	return lipgloss.JoinVertical(lipgloss.Center,
		center.Render(title),
		"",
		center.Render(msg),
		"",
		center.Render(gauge),
		"",
		center.Render(choices),
	)
}

func (o SessionTimeoutOverlay) viewExpired() string {
	w := o.contentWidth()
	center := lipgloss.NewStyle().Width(w - 6).Align(lipgloss.Center)

	title := lipgloss.NewStyle().Foreground(styles.Rose).Bold(true).
		Render(styles.StatusIndicators.Error + " Session expired")
	text := "You have been signed out due to inactivity."
	if o.idleFor > 0 {
		text = "You have been signed out after " + session.FormatDuration(o.idleFor) + " of inactivity."
	}
	msg := lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(text)
	hint := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).
		Render("Sign in again to continue.")

	return lipgloss.JoinVertical(lipgloss.Center,
		center.Render(title),
		"",
		center.Render(msg),
		"",
		center.Render(hint),
	)
}

func (o SessionTimeoutOverlay) place(content string, border lipgloss.AdaptiveColor) string {
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Padding(1, 3).
		Width(o.contentWidth()).
		Align(lipgloss.Center).
		Render(content)

	width, height := o.width, o.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 24
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim))
}
