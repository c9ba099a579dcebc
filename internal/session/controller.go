// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidConfig is wrapped by every construction-time validation failure.
	ErrInvalidConfig = errors.New("invalid inactivity timer config")

	// ErrExpired is returned when extending a session that already timed out.
	// The host has to Start the controller again after re-authentication.
	ErrExpired = errors.New("session already expired")

	// ErrNotRunning is returned when resetting a controller that was never
	// started or has been stopped.
	ErrNotRunning = errors.New("inactivity controller not running")
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// TimerConfig holds the two durations that drive the countdown.
type TimerConfig struct {
	// TotalTimeout is the idle duration after which the session expires.
	TotalTimeout time.Duration

	// WarningLeadTime is how long before expiry the warning stage starts.
	// Zero disables the warning stage: no warning callback fires and the
	// session goes straight from Active to Expired at TotalTimeout, rather
	// than warning at the instant of expiry.
	WarningLeadTime time.Duration
}

// DefaultTimerConfig returns a 5 minute timeout with a 30 second warning.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		TotalTimeout:    5 * time.Minute,
		WarningLeadTime: 30 * time.Second,
	}
}

// Validate checks 0 <= WarningLeadTime <= TotalTimeout and TotalTimeout > 0.
func (c TimerConfig) Validate() error {
	switch {
	case c.TotalTimeout <= 0:
		return fmt.Errorf("%w: total timeout must be positive, got %v", ErrInvalidConfig, c.TotalTimeout)
	case c.WarningLeadTime < 0:
		return fmt.Errorf("%w: warning lead time must not be negative, got %v", ErrInvalidConfig, c.WarningLeadTime)
	case c.WarningLeadTime > c.TotalTimeout:
		return fmt.Errorf("%w: warning lead time %v exceeds total timeout %v",
			ErrInvalidConfig, c.WarningLeadTime, c.TotalTimeout)
	}
	return nil
}

// WarningAfter returns the idle duration at which the warning stage begins.
func (c TimerConfig) WarningAfter() time.Duration {
	return c.TotalTimeout - c.WarningLeadTime
}

// =============================================================================
// STATE
// =============================================================================

// State is the phase of the inactivity countdown.
type State int

const (
	// Active means the countdown runs and no warning is shown.
	Active State = iota
	// Warning means expiry is within the warning lead time.
	Warning
	// Expired means the timeout fired. Terminal until Start is called again.
	Expired
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Warning:
		return "WARNING"
	case Expired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithActivitySource attaches the source whose signals reset the countdown.
func WithActivitySource(src ActivitySource) Option {
	return func(c *Controller) { c.source = src }
}

// WithWarning sets the callback fired once per entry into Warning.
func WithWarning(fn func()) Option {
	return func(c *Controller) { c.onWarning = fn }
}

// WithActivityThrottle limits how often activity re-arms the timers. Every
// signal still moves the deadline to its own arrival time; signals inside
// the interval are folded in when the pending trigger comes due. A
// non-positive interval re-arms on every signal.
func WithActivityThrottle(every time.Duration) Option {
	return func(c *Controller) {
		if every > 0 {
			c.rearm = rate.NewLimiter(rate.Every(every), 1)
		} else {
			c.rearm = nil
		}
	}
}

// WithLogger routes controller log lines to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller tracks user activity and signals a warning and then a timeout
// after a period of inactivity.
//
// Activity while Active restarts the countdown. Activity during Warning is
// ignored so residual input cannot dismiss the warning; only Extend does.
type Controller struct {
	mu sync.Mutex

	cfg     TimerConfig
	pending *TimerConfig // applied at the next rearm

	clock  Clock
	source ActivitySource
	logger *log.Logger
	rearm  *rate.Limiter

	onWarning func()
	onTimeout func()

	state        State
	running      bool
	gen          uint64
	deadline     time.Time
	armedAt      time.Time // reset point of the armed triggers
	lastActivity time.Time // latest signal, may be newer than armedAt

	warnTimer   Timer
	expireTimer Timer
	unsubscribe func()
}

// New validates cfg and creates a stopped Controller. onTimeout is required.
func New(cfg TimerConfig, onTimeout func(), opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if onTimeout == nil {
		return nil, fmt.Errorf("%w: timeout callback is required", ErrInvalidConfig)
	}

	c := &Controller{
		cfg:       cfg,
		clock:     SystemClock,
		logger:    log.Default(),
		onTimeout: onTimeout,
		state:     Active,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = SystemClock
	}
	return c, nil
}

// Start arms both triggers and attaches to the activity source. On a
// running controller it does nothing. On an expired or stopped controller
// it is the explicit restart.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running && c.state != Expired {
		return
	}
	c.running = true
	c.state = Active
	c.armLocked()

	if c.source != nil && c.unsubscribe == nil {
		c.unsubscribe = c.source.Subscribe(c.handleActivity)
	}
	c.logf("SESSION_TIMER_START | timeout=%v warning_before=%v", c.cfg.TotalTimeout, c.cfg.WarningLeadTime)
}

// Reset cancels both pending triggers, returns to Active and rearms from now.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return ErrNotRunning
	}
	if c.state == Expired {
		return ErrExpired
	}
	c.state = Active
	c.armLocked()
	return nil
}

// Extend is the explicit "continue session" action. It behaves like Reset
// and is the only way out of Warning short of expiry.
func (c *Controller) Extend() error {
	if err := c.Reset(); err != nil {
		return err
	}
	c.logf("SESSION_EXTENDED | timeout=%v", c.TotalTimeout())
	return nil
}

// Stop cancels both triggers and detaches from the activity source.
// Safe to call any number of times.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running && c.unsubscribe == nil {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.cancelLocked()
	c.gen++
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// SetTimerConfig validates cfg and applies it from the next rearm on.
func (c *Controller) SetTimerConfig(cfg TimerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &cfg
	return nil
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsWarning reports whether the warning stage is active.
func (c *Controller) IsWarning() bool {
	return c.State() == Warning
}

// IsExpired reports whether the timeout has fired.
func (c *Controller) IsExpired() bool {
	return c.State() == Expired
}

// IsRunning reports whether the controller is started and not stopped.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Deadline returns the instant the current countdown expires.
func (c *Controller) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

// Remaining returns the time left before expiry, or 0 when expired or stopped.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.state == Expired {
		return 0
	}
	remaining := c.deadline.Sub(c.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TotalTimeout returns the timeout currently in force.
func (c *Controller) TotalTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.TotalTimeout
}

// =============================================================================
// INTERNALS
// =============================================================================

// handleActivity is the activity source subscriber.
func (c *Controller) handleActivity(a Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.state != Active {
		return
	}
	now := c.clock.Now()
	c.lastActivity = now
	if c.rearm == nil || c.rearm.AllowN(now, 1) {
		c.armLocked()
		return
	}
	// Triggers stay armed; they re-arm from lastActivity when they fire.
	c.deadline = now.Add(c.cfg.TotalTimeout)
}

// deferredLocked reports whether activity arrived after the armed reset
// point and, if so, re-arms from it. Called by a firing trigger.
func (c *Controller) deferredLocked() bool {
	if !c.lastActivity.After(c.armedAt) {
		return false
	}
	c.armFromLocked(c.lastActivity)
	return true
}

// armLocked cancels both handles and schedules fresh ones from now.
func (c *Controller) armLocked() {
	c.armFromLocked(c.clock.Now())
}

// armFromLocked schedules both triggers measured from the reset point from.
func (c *Controller) armFromLocked(from time.Time) {
	c.cancelLocked()

	if c.pending != nil {
		c.cfg = *c.pending
		c.pending = nil
	}

	c.gen++
	gen := c.gen
	now := c.clock.Now()
	c.armedAt = from
	c.lastActivity = from
	c.deadline = from.Add(c.cfg.TotalTimeout)

	if c.cfg.WarningLeadTime > 0 {
		warnIn := nonNegative(from.Add(c.cfg.WarningAfter()).Sub(now))
		c.warnTimer = c.clock.AfterFunc(warnIn, func() { c.fireWarning(gen) })
	}
	c.expireTimer = c.clock.AfterFunc(nonNegative(c.deadline.Sub(now)), func() { c.fireTimeout(gen) })
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func (c *Controller) cancelLocked() {
	if c.warnTimer != nil {
		c.warnTimer.Stop()
		c.warnTimer = nil
	}
	if c.expireTimer != nil {
		c.expireTimer.Stop()
		c.expireTimer = nil
	}
}

// fireWarning runs on the clock's goroutine. gen guards against a callback
// that was already in flight when its timer was cancelled.
func (c *Controller) fireWarning(gen uint64) {
	c.mu.Lock()
	if !c.running || gen != c.gen || c.state != Active || c.deferredLocked() {
		c.mu.Unlock()
		return
	}
	c.state = Warning
	c.warnTimer = nil
	remaining := c.deadline.Sub(c.clock.Now())
	cb := c.onWarning
	c.mu.Unlock()

	c.logf("SESSION_WARNING | remaining=%v", remaining)
	if cb != nil {
		cb()
	}
}

func (c *Controller) fireTimeout(gen uint64) {
	c.mu.Lock()
	if !c.running || gen != c.gen || c.state == Expired {
		c.mu.Unlock()
		return
	}
	if c.state == Active && c.deferredLocked() {
		c.mu.Unlock()
		return
	}
	c.state = Expired
	c.cancelLocked()
	cb := c.onTimeout
	c.mu.Unlock()

	c.logf("SESSION_TIMEOUT | idle=%v", c.TotalTimeout())
	cb()
}

func (c *Controller) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
