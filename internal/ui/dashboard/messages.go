// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// WarningMsg is delivered when the inactivity controller enters Warning.
type WarningMsg struct{}

// TimeoutMsg is delivered when the inactivity controller expires.
type TimeoutMsg struct{}

// TimersChangedMsg reports new timer settings picked up from the config file.
type TimersChangedMsg struct {
	Timers session.TimerConfig
	Err    error
}

type dashboardLoadedMsg struct {
	dashboard *portfolio.Dashboard
	err       error
}

type purchaseResultMsg struct {
	project    portfolio.Project
	qty        int
	investment portfolio.Investment
	err        error
}

type logoutResultMsg struct {
	reason ExitReason
	err    error
}

type exitMsg struct{}

// =============================================================================
// NOTIFIER
// =============================================================================

// Notifier hands controller callbacks to a running tea.Program. Callbacks
// fire on timer goroutines, so they never touch the model directly; they
// post a message and the model reacts inside Update. Messages posted before
// Attach are queued and flushed on attach.
type Notifier struct {
	mu    sync.Mutex
	send  func(tea.Msg)
	queue []tea.Msg
}

// Attach sets the delivery function, normally (*tea.Program).Send.
func (n *Notifier) Attach(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	queued := n.queue
	n.queue = nil
	n.mu.Unlock()

	for _, msg := range queued {
		send(msg)
	}
}

// Post delivers msg, or queues it until Attach.
func (n *Notifier) Post(msg tea.Msg) {
	n.mu.Lock()
	send := n.send
	if send == nil {
		n.queue = append(n.queue, msg)
	}
	n.mu.Unlock()

	if send != nil {
		send(msg)
	}
}

// Warning is the controller's warning callback.
func (n *Notifier) Warning() { n.Post(WarningMsg{}) }

// Timeout is the controller's timeout callback.
func (n *Notifier) Timeout() { n.Post(TimeoutMsg{}) }
