// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard provides the investor dashboard: portfolio, open
// projects, production history and impact, guarded by the inactivity
// controller.
package dashboard

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/greenshare/greenshare-tui/internal/audit"
	"github.com/greenshare/greenshare-tui/internal/auth"
	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/session"
	"github.com/greenshare/greenshare-tui/internal/ui/components"
	"github.com/greenshare/greenshare-tui/internal/ui/styles"
	"github.com/greenshare/greenshare-tui/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Tab identifies a dashboard page.
type Tab int

const (
	TabPortfolio Tab = iota
	TabProjects
	TabProduction
	TabImpact
	tabCount
)

var tabNames = [...]string{"Portfolio", "Projects", "Production", "Impact"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "Unknown"
	}
	return tabNames[t]
}

// ExitReason records why the dashboard closed.
type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitQuit
	ExitLogout
	ExitTimeout
)

func (r ExitReason) String() string {
	switch r {
	case ExitQuit:
		return "quit"
	case ExitLogout:
		return "logout"
	case ExitTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// Result is what the dashboard reports once the program ends.
type Result struct {
	Reason ExitReason
	// SignOutErr is set when the remote sign-out failed.
	SignOutErr error
}

// DefaultExpiredExitDelay is how long the expired notice stays up before exit.
const DefaultExpiredExitDelay = 2 * time.Second

// Deps are the dashboard's collaborators.
type Deps struct {
	Portfolio  *portfolio.Service
	Auth       *auth.Service
	Session    auth.Session
	Controller *session.Controller
	Bus        *session.Bus
	Clock      session.Clock
	Audit      audit.Sink
	Theme      *styles.Theme
	Logger     *log.Logger

	// Debug shows raw error text instead of the generic message.
	Debug bool
	// ExpiredExitDelay overrides DefaultExpiredExitDelay.
	ExpiredExitDelay time.Duration
}

// Model is the dashboard's Bubble Tea model.
type Model struct {
	deps Deps
	keys KeyMap

	theme   *styles.Theme
	help    help.Model
	spinner spinner.Model
	overlay components.SessionTimeoutOverlay
	toasts  *components.ToastStack

	tab         Tab
	loading     bool
	loadErr     error
	data        *portfolio.Dashboard
	investments table.Model
	projects    table.Model
	production  table.Model

	buying     bool
	buyProject portfolio.Project
	qtyInput   textinput.Model

	width  int
	height int

	closing bool
	result  Result
}

// New creates the dashboard model.
func New(deps Deps) Model {
	if deps.Clock == nil {
		deps.Clock = session.SystemClock
	}
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Theme == nil {
		deps.Theme = styles.NewTheme(styles.ModeAuto)
	}
	if deps.ExpiredExitDelay == 0 {
		deps.ExpiredExitDelay = DefaultExpiredExitDelay
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	qty := textinput.New()
	qty.Placeholder = "number of shares"
	qty.CharLimit = 6
	qty.Width = 20

	m := Model{
		deps:        deps,
		keys:        DefaultKeyMap(),
		theme:       deps.Theme,
		help:        help.New(),
		spinner:     sp,
		overlay:     components.NewSessionTimeoutOverlay(),
		toasts:      components.NewToastStack(),
		loading:     true,
		investments: newTable(investmentColumns),
		projects:    newTable(projectColumns),
		production:  newTable(productionColumns),
		qtyInput:    qty,
	}
	m.toasts.SetNow(deps.Clock.Now)
	m.applyTableStyles()
	m.focusActiveTable()
	return m
}

// Result returns why the dashboard closed.
func (m Model) Result() Result { return m.result }

// ActiveTab returns the current tab.
func (m Model) ActiveTab() Tab { return m.tab }

// Init starts loading data.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick, components.ToastTickCmd())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.overlay.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.resizeTables()
		return m, nil

	case tea.KeyMsg:
		m.recordActivity(session.KindKeyPress)
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.recordActivity(mouseKind(msg))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Prune()
		return m, components.ToastTickCmd()

	case dashboardLoadedMsg:
		return m.handleLoaded(msg)

	case purchaseResultMsg:
		return m.handlePurchaseResult(msg)

	case WarningMsg:
		return m.handleWarning()

	case components.SessionTimeoutTickMsg:
		return m.handleCountdownTick()

	case components.SessionContinueMsg:
		return m.handleContinue()

	case components.SessionLogoutMsg:
		return m.beginSignOut(ExitLogout)

	case TimeoutMsg:
		return m.handleTimeout()

	case TimersChangedMsg:
		return m.handleTimersChanged(msg)

	case logoutResultMsg:
		return m.handleLogoutResult(msg)

	case exitMsg:
		return m, tea.Quit
	}
	return m, nil
}

// recordActivity publishes an interaction to the activity bus.
func (m Model) recordActivity(kind session.Kind) {
	if m.deps.Bus == nil {
		return
	}
	m.deps.Bus.Publish(session.Activity{Kind: kind, At: m.deps.Clock.Now()})
}

func mouseKind(msg tea.MouseMsg) session.Kind {
	switch msg.Type {
	case tea.MouseWheelUp, tea.MouseWheelDown, tea.MouseWheelLeft, tea.MouseWheelRight:
		return session.KindScroll
	case tea.MouseMotion:
		return session.KindPointerMove
	case tea.MouseRelease:
		return session.KindClick
	default:
		return session.KindPointerDown
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.closing {
		return m, nil
	}
	if msg.Type == tea.KeyCtrlC {
		return m.beginSignOut(ExitQuit)
	}

	// The warning dialog is modal.
	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}

	if m.buying {
		return m.handleBuyKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.beginSignOut(ExitQuit)
	case key.Matches(msg, m.keys.Logout):
		return m.beginSignOut(ExitLogout)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		m.focusActiveTable()
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		m.focusActiveTable()
		return m, nil
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '4':
		m.tab = Tab(msg.Runes[0] - '1')
		m.focusActiveTable()
		return m, nil
	case m.tab == TabProjects && key.Matches(msg, m.keys.Buy):
		return m.startBuy()
	}

	var cmd tea.Cmd
	switch m.tab {
	case TabPortfolio:
		m.investments, cmd = m.investments.Update(msg)
	case TabProjects:
		m.projects, cmd = m.projects.Update(msg)
	case TabProduction:
		m.production, cmd = m.production.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// DATA
// =============================================================================

func (m Model) loadCmd() tea.Cmd {
	svc, userID := m.deps.Portfolio, m.deps.Session.UserID
	return func() tea.Msg {
		if svc == nil {
			return dashboardLoadedMsg{err: errors.New("portfolio service unavailable")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		d, err := svc.LoadDashboard(ctx, userID)
		return dashboardLoadedMsg{dashboard: d, err: err}
	}
}

func (m Model) handleLoaded(msg dashboardLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.loadErr = msg.err
		m.deps.Logger.Printf("DASHBOARD_LOAD_FAILED | session=%s error=%v", m.deps.Session.ID, msg.err)
		m.toasts.Push(components.ToastError, util.SafeMessage(msg.err, m.deps.Debug))
		return m, nil
	}
	m.loadErr = nil
	m.data = msg.dashboard
	m.refreshTables()
	if msg.dashboard.Seeded {
		m.toasts.Push(components.ToastInfo, "A starter portfolio was added to your account")
	}
	return m, nil
}

// =============================================================================
// BUY FLOW
// =============================================================================

func (m Model) startBuy() (tea.Model, tea.Cmd) {
	if m.data == nil || len(m.data.Projects) == 0 {
		return m, nil
	}
	idx := m.projects.Cursor()
	if idx < 0 || idx >= len(m.data.Projects) {
		return m, nil
	}
	m.buying = true
	m.buyProject = m.data.Projects[idx]
	m.qtyInput.SetValue("")
	m.qtyInput.Focus()
	m.projects.Blur()
	return m, textinput.Blink
}

func (m Model) handleBuyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.endBuy()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		qty, err := strconv.Atoi(strings.TrimSpace(m.qtyInput.Value()))
		if err != nil || qty <= 0 {
			m.toasts.Push(components.ToastWarning, "Enter a whole number of shares")
			return m, nil
		}
		if err := portfolio.ValidatePurchase(m.buyProject, qty); err != nil {
			m.toasts.Push(components.ToastWarning, util.SafeMessage(err, m.deps.Debug))
			return m, nil
		}
		project := m.buyProject
		m.endBuy()
		return m, m.purchaseCmd(project, qty)
	}

	var cmd tea.Cmd
	m.qtyInput, cmd = m.qtyInput.Update(msg)
	return m, cmd
}

func (m *Model) endBuy() {
	m.buying = false
	m.qtyInput.Blur()
	m.focusActiveTable()
}

func (m Model) purchaseCmd(project portfolio.Project, qty int) tea.Cmd {
	svc, userID := m.deps.Portfolio, m.deps.Session.UserID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		inv, err := svc.Buy(ctx, userID, project.ID, qty)
		return purchaseResultMsg{project: project, qty: qty, investment: inv, err: err}
	}
}

func (m Model) handlePurchaseResult(msg purchaseResultMsg) (tea.Model, tea.Cmd) {
	meta := map[string]string{
		"project": msg.project.ID,
		"qty":     strconv.Itoa(msg.qty),
	}
	if msg.err != nil {
		m.deps.Audit.LogFailure(m.deps.Session.ID, audit.EventPurchaseFailed, msg.err, meta)
		m.toasts.Push(components.ToastError, util.SafeMessage(msg.err, m.deps.Debug))
		return m, nil
	}
	meta["total"] = util.FloatToStringPrec(msg.investment.TotalPrice, 2)
	m.deps.Audit.LogEvent(m.deps.Session.ID, audit.EventSharesPurchased, meta)
	m.toasts.Push(components.ToastSuccess,
		"Bought "+strconv.Itoa(msg.qty)+" shares of "+msg.project.Name+" for "+util.FormatEuro(msg.investment.TotalPrice))
	m.loading = true
	return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
}

// =============================================================================
// SESSION TIMEOUT
// =============================================================================

func (m Model) handleWarning() (tea.Model, tea.Cmd) {
	ctrl := m.deps.Controller
	// A warning that raced with Extend is stale by the time it arrives.
	if ctrl == nil || !ctrl.IsWarning() || m.closing {
		return m, nil
	}
	remaining := ctrl.Remaining()
	m.endBuyIfActive()
	m.overlay.Show(remaining, remaining)
	m.deps.Audit.LogEvent(m.deps.Session.ID, audit.EventTimeoutWarning, map[string]string{
		"remaining": remaining.String(),
	})
	return m, components.SessionTimeoutTickCmd()
}

func (m *Model) endBuyIfActive() {
	if m.buying {
		m.endBuy()
	}
}

func (m Model) handleCountdownTick() (tea.Model, tea.Cmd) {
	if !m.overlay.IsVisible() || m.overlay.IsExpired() || m.deps.Controller == nil {
		return m, nil
	}
	m.overlay.UpdateTime(m.deps.Controller.Remaining())
	return m, components.SessionTimeoutTickCmd()
}

func (m Model) handleContinue() (tea.Model, tea.Cmd) {
	if m.deps.Controller == nil {
		return m, nil
	}
	if err := m.deps.Controller.Extend(); err != nil {
		// Expired in the meantime; TimeoutMsg takes over.
		return m, nil
	}
	m.overlay.Hide()
	m.deps.Audit.LogEvent(m.deps.Session.ID, audit.EventSessionExtended, nil)
	m.toasts.Push(components.ToastSuccess, "Session extended")
	return m, nil
}

func (m Model) handleTimeout() (tea.Model, tea.Cmd) {
	if m.closing {
		return m, nil
	}
	idle := time.Duration(0)
	if m.deps.Controller != nil {
		idle = m.deps.Controller.TotalTimeout()
	}
	m.endBuyIfActive()
	m.overlay.ShowExpired(idle)
	m.deps.Audit.LogEvent(m.deps.Session.ID, audit.EventSessionTimeout, map[string]string{
		"idle": idle.String(),
	})
	return m.beginSignOut(ExitTimeout)
}

func (m Model) handleTimersChanged(msg TimersChangedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.toasts.Push(components.ToastWarning, "Config reload ignored: "+util.SafeMessage(msg.Err, true))
		return m, nil
	}
	m.toasts.Push(components.ToastInfo,
		"Inactivity timeout set to "+session.FormatDuration(msg.Timers.TotalTimeout)+" from the next reset")
	return m, nil
}

// =============================================================================
// SIGN OUT
// =============================================================================

// beginSignOut stops the inactivity controller and signs the session out.
// The program exits once the sign-out result arrives.
func (m Model) beginSignOut(reason ExitReason) (tea.Model, tea.Cmd) {
	if m.closing {
		return m, nil
	}
	m.closing = true
	m.result.Reason = reason
	if m.deps.Controller != nil {
		m.deps.Controller.Stop()
	}

	authSvc, sessionID := m.deps.Auth, m.deps.Session.ID
	return m, func() tea.Msg {
		if authSvc == nil {
			return logoutResultMsg{reason: reason}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return logoutResultMsg{reason: reason, err: authSvc.SignOut(ctx, sessionID)}
	}
}

func (m Model) handleLogoutResult(msg logoutResultMsg) (tea.Model, tea.Cmd) {
	meta := map[string]string{"reason": msg.reason.String()}
	if msg.err != nil {
		m.result.SignOutErr = msg.err
		m.deps.Audit.LogFailure(m.deps.Session.ID, audit.EventLogoutFailed, msg.err, meta)
		m.toasts.Push(components.ToastError, "Sign-out could not be confirmed: "+util.SafeMessage(msg.err, m.deps.Debug))
	} else {
		m.deps.Audit.LogEvent(m.deps.Session.ID, audit.EventLogout, meta)
	}

	if msg.reason == ExitTimeout {
		return m, tea.Tick(m.deps.ExpiredExitDelay, func(time.Time) tea.Msg { return exitMsg{} })
	}
	return m, tea.Quit
}
