// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/greenshare/greenshare-tui/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

// ToastKind is the severity of a toast.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// Auto-dismiss durations; errors stay up longer.
const (
	DefaultToastDuration = 4 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

// Toast is a non-blocking notification.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// ToastStack holds the visible toasts, newest first. It is owned by a single
// Bubble Tea model and is not safe for concurrent use.
type ToastStack struct {
	toasts []Toast
	nextID int
	max    int
	now    func() time.Time
}

// NewToastStack creates a stack showing at most three toasts.
func NewToastStack() *ToastStack {
	return &ToastStack{nextID: 1, max: 3, now: time.Now}
}

// SetNow replaces the stack's time source.
func (s *ToastStack) SetNow(now func() time.Time) { s.now = now }

// Push adds a toast and returns its id.
func (s *ToastStack) Push(kind ToastKind, message string) int {
	d := DefaultToastDuration
	if kind == ToastError {
		d = ErrorToastDuration
	}
	t := Toast{ID: s.nextID, Message: message, Kind: kind, CreatedAt: s.now(), Duration: d}
	s.nextID++

	s.toasts = append([]Toast{t}, s.toasts...)
	if len(s.toasts) > s.max {
		s.toasts = s.toasts[:s.max]
	}
	return t.ID
}

// Dismiss removes the toast with id.
func (s *ToastStack) Dismiss(id int) {
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return
		}
	}
}

// Prune drops expired toasts and reports whether any remain.
func (s *ToastStack) Prune() bool {
	now := s.now()
	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if now.Sub(t.CreatedAt) < t.Duration {
			kept = append(kept, t)
		}
	}
	s.toasts = kept
	return len(s.toasts) > 0
}

// Toasts returns a copy of the visible toasts.
func (s *ToastStack) Toasts() []Toast {
	out := make([]Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

// ToastTickMsg prunes expired toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd schedules the next prune.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// View renders the stack right-aligned, newest at the bottom.
func (s *ToastStack) View(width int) string {
	if len(s.toasts) == 0 {
		return ""
	}
	maxWidth := 60
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}

	lines := make([]string, 0, len(s.toasts))
	for i := len(s.toasts) - 1; i >= 0; i-- {
		lines = append(lines, renderToast(s.toasts[i], maxWidth))
	}
	out := lipgloss.JoinVertical(lipgloss.Right, lines...)
	if width > 0 {
		out = lipgloss.PlaceHorizontal(width, lipgloss.Right, out)
	}
	return out
}

func renderToast(t Toast, maxWidth int) string {
	var color lipgloss.AdaptiveColor
	var icon string
	switch t.Kind {
	case ToastError:
		color, icon = styles.Rose, styles.StatusIndicators.Error
	case ToastWarning:
		color, icon = styles.Amber, styles.StatusIndicators.Warning
	case ToastSuccess:
		color, icon = styles.Leaf, styles.StatusIndicators.Success
	default:
		color, icon = styles.Sky, styles.StatusIndicators.Info
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon) + " " + t.Message)
}
