// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/greenshare/greenshare-tui/internal/session"
)

// Options configures an App. Controller and Bus in Deps are built by
// NewApp and any values set there are replaced.
type Options struct {
	Deps

	Timers           session.TimerConfig
	ActivityThrottle time.Duration
	Mouse            bool

	// ProgramOptions are appended to the defaults, e.g. tea.WithInput in tests.
	ProgramOptions []tea.ProgramOption
}

// App is a dashboard program with its inactivity controller attached.
type App struct {
	program    *tea.Program
	controller *session.Controller
	notifier   *Notifier
}

// NewApp wires the activity bus, the inactivity controller and the
// Bubble Tea program together.
func NewApp(opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = session.SystemClock
	}

	bus := session.NewBus()
	notifier := &Notifier{}

	ctrlOpts := []session.Option{
		session.WithClock(opts.Clock),
		session.WithWarning(notifier.Warning),
		session.WithActivitySource(bus),
		session.WithActivityThrottle(opts.ActivityThrottle),
	}
	if opts.Logger != nil {
		ctrlOpts = append(ctrlOpts, session.WithLogger(opts.Logger))
	}
	ctrl, err := session.New(opts.Timers, notifier.Timeout, ctrlOpts...)
	if err != nil {
		return nil, fmt.Errorf("create inactivity controller: %w", err)
	}

	deps := opts.Deps
	deps.Controller = ctrl
	deps.Bus = bus

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	progOpts = append(progOpts, opts.ProgramOptions...)

	p := tea.NewProgram(New(deps), progOpts...)
	notifier.Attach(p.Send)

	return &App{program: p, controller: ctrl, notifier: notifier}, nil
}

// Controller returns the inactivity controller.
func (a *App) Controller() *session.Controller { return a.controller }

// Run starts the countdown and blocks until the dashboard exits.
func (a *App) Run() (Result, error) {
	a.controller.Start()
	defer a.controller.Stop()

	final, err := a.program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("run dashboard: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Result{}, nil
	}
	return m.Result(), nil
}

// SetTimers applies new timer settings from the next reset and tells the
// user about it.
func (a *App) SetTimers(cfg session.TimerConfig) error {
	err := a.controller.SetTimerConfig(cfg)
	a.program.Send(TimersChangedMsg{Timers: cfg, Err: err})
	return err
}

// ReportConfigError shows a config reload failure to the user.
func (a *App) ReportConfigError(err error) {
	a.program.Send(TimersChangedMsg{Err: err})
}
