// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testEpoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type callbackRecorder struct {
	mu       sync.Mutex
	warnings int
	timeouts int
	order    []string
}

func (r *callbackRecorder) warning() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings++
	r.order = append(r.order, "warning")
}

func (r *callbackRecorder) timeout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts++
	r.order = append(r.order, "timeout")
}

func (r *callbackRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings, r.timeouts
}

type harness struct {
	ctrl  *Controller
	clock *ManualClock
	bus   *Bus
	rec   *callbackRecorder
}

func newHarness(t *testing.T, cfg TimerConfig) *harness {
	t.Helper()
	h := &harness{
		clock: NewManualClock(testEpoch),
		bus:   NewBus(),
		rec:   &callbackRecorder{},
	}
	ctrl, err := New(cfg, h.rec.timeout,
		WithClock(h.clock),
		WithActivitySource(h.bus),
		WithWarning(h.rec.warning),
		WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.ctrl = ctrl
	t.Cleanup(ctrl.Stop)
	return h
}

func (h *harness) expectCounts(t *testing.T, wantWarnings, wantTimeouts int) {
	t.Helper()
	w, to := h.rec.counts()
	if w != wantWarnings {
		t.Errorf("warnings = %d, want %d", w, wantWarnings)
	}
	if to != wantTimeouts {
		t.Errorf("timeouts = %d, want %d", to, wantTimeouts)
	}
}

func (h *harness) activity() {
	h.bus.Publish(Activity{Kind: KindPointerMove, At: h.clock.Now()})
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultTimerConfig(t *testing.T) {
	cfg := DefaultTimerConfig()
	if cfg.TotalTimeout != 5*time.Minute {
		t.Errorf("TotalTimeout = %v, want 5m", cfg.TotalTimeout)
	}
	if cfg.WarningLeadTime != 30*time.Second {
		t.Errorf("WarningLeadTime = %v, want 30s", cfg.WarningLeadTime)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestTimerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TimerConfig
		wantErr bool
	}{
		{"typical", TimerConfig{5 * time.Minute, 30 * time.Second}, false},
		{"no warning", TimerConfig{time.Minute, 0}, false},
		{"warning equals timeout", TimerConfig{time.Minute, time.Minute}, false},
		{"zero timeout", TimerConfig{0, 0}, true},
		{"negative timeout", TimerConfig{-time.Second, 0}, true},
		{"negative warning", TimerConfig{time.Minute, -time.Second}, true},
		{"warning exceeds timeout", TimerConfig{time.Minute, 2 * time.Minute}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	if _, err := New(TimerConfig{time.Minute, 2 * time.Minute}, func() {}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New with warning > timeout: error = %v, want ErrInvalidConfig", err)
	}
	if _, err := New(DefaultTimerConfig(), nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New with nil timeout callback: error = %v, want ErrInvalidConfig", err)
	}
}

func TestNew_DoesNotArmUntilStart(t *testing.T) {
	h := newHarness(t, DefaultTimerConfig())

	h.clock.Advance(time.Hour)
	h.expectCounts(t, 0, 0)
	if h.ctrl.IsRunning() {
		t.Error("controller should not run before Start")
	}
	if err := h.ctrl.Reset(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Reset before Start: error = %v, want ErrNotRunning", err)
	}
}

// =============================================================================
// TRIGGER TESTS
// =============================================================================

func TestController_WarningFiresOnceAtLeadTime(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: ms(300000), WarningLeadTime: ms(30000)}
	h := newHarness(t, cfg)
	h.ctrl.Start()

	h.clock.Advance(ms(269999))
	h.expectCounts(t, 0, 0)
	if got := h.ctrl.State(); got != Active {
		t.Errorf("State = %v, want ACTIVE", got)
	}

	h.clock.Advance(ms(1))
	h.expectCounts(t, 1, 0)
	if !h.ctrl.IsWarning() {
		t.Errorf("State = %v, want WARNING", h.ctrl.State())
	}

	h.clock.Advance(ms(29999))
	h.expectCounts(t, 1, 0)
}

func TestController_TimeoutFiresOnceAndExpires(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: ms(300000), WarningLeadTime: ms(30000)}
	h := newHarness(t, cfg)
	h.ctrl.Start()

	h.clock.Advance(ms(300000))
	h.expectCounts(t, 1, 1)
	if !h.ctrl.IsExpired() {
		t.Errorf("State = %v, want EXPIRED", h.ctrl.State())
	}
	if got := h.ctrl.Remaining(); got != 0 {
		t.Errorf("Remaining = %v, want 0", got)
	}

	h.clock.Advance(time.Hour)
	h.expectCounts(t, 1, 1)

	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	if len(h.rec.order) != 2 || h.rec.order[0] != "warning" || h.rec.order[1] != "timeout" {
		t.Errorf("callback order = %v, want [warning timeout]", h.rec.order)
	}
}

func TestController_ZeroLeadTimeSkipsWarning(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute})
	h.ctrl.Start()

	h.clock.Advance(time.Minute)
	h.expectCounts(t, 0, 1)
}

func TestController_LeadEqualsTimeoutWarnsImmediately(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute, WarningLeadTime: time.Minute})
	h.ctrl.Start()

	h.clock.Advance(0)
	h.expectCounts(t, 1, 0)

	h.clock.Advance(time.Minute)
	h.expectCounts(t, 1, 1)
}

func TestController_Remaining(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: 10 * time.Minute, WarningLeadTime: time.Minute})
	h.ctrl.Start()

	h.clock.Advance(4 * time.Minute)
	if got := h.ctrl.Remaining(); got != 6*time.Minute {
		t.Errorf("Remaining = %v, want 6m", got)
	}
	if got, want := h.ctrl.Deadline(), testEpoch.Add(10*time.Minute); !got.Equal(want) {
		t.Errorf("Deadline = %v, want %v", got, want)
	}
}

// =============================================================================
// RESET AND ACTIVITY TESTS
// =============================================================================

func TestController_ResetRestartsBothDelays(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: ms(300000), WarningLeadTime: ms(30000)}
	h := newHarness(t, cfg)
	h.ctrl.Start()

	h.clock.Advance(ms(100000))
	if err := h.ctrl.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	// Original warning point (t=270s) passes without a warning.
	h.clock.Advance(ms(269999))
	h.expectCounts(t, 0, 0)

	h.clock.Advance(ms(1))
	h.expectCounts(t, 1, 0)
}

func TestController_ActivityWhileActiveResets(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: time.Minute, WarningLeadTime: 10 * time.Second}
	h := newHarness(t, cfg)
	h.ctrl.Start()

	for i := 0; i < 10; i++ {
		h.clock.Advance(40 * time.Second)
		h.activity()
	}
	h.expectCounts(t, 0, 0)

	h.clock.Advance(50 * time.Second)
	h.expectCounts(t, 1, 0)
}

func TestController_ActivityDuringWarningIgnored(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: ms(300000), WarningLeadTime: ms(30000)}
	h := newHarness(t, cfg)
	h.ctrl.Start()

	h.clock.Advance(ms(270000))
	h.expectCounts(t, 1, 0)
	deadline := h.ctrl.Deadline()

	for i := 0; i < 5; i++ {
		h.clock.Advance(time.Second)
		h.activity()
	}
	if !h.ctrl.IsWarning() {
		t.Errorf("State = %v, want WARNING after ambient activity", h.ctrl.State())
	}
	if !h.ctrl.Deadline().Equal(deadline) {
		t.Error("ambient activity during warning must not reschedule the deadline")
	}

	h.clock.Advance(ms(25000))
	h.expectCounts(t, 1, 1)
}

func TestController_ActivityAfterExpiryIgnored(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute})
	h.ctrl.Start()
	h.clock.Advance(time.Minute)

	h.activity()
	if !h.ctrl.IsExpired() {
		t.Errorf("State = %v, want EXPIRED", h.ctrl.State())
	}
	if h.clock.Pending() != 0 {
		t.Errorf("Pending timers = %d, want 0", h.clock.Pending())
	}
}

// =============================================================================
// EXTEND TESTS
// =============================================================================

func TestController_ExtendDuringWarning(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: ms(300000), WarningLeadTime: ms(30000)}
	h := newHarness(t, cfg)
	h.ctrl.Start()

	// t=270000: warning
	h.clock.Advance(ms(270000))
	h.expectCounts(t, 1, 0)

	// t=271000: user continues
	h.clock.Advance(ms(1000))
	if err := h.ctrl.Extend(); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if got := h.ctrl.State(); got != Active {
		t.Errorf("State after Extend = %v, want ACTIVE", got)
	}

	// t=300000: original deadline passes silently
	h.clock.Advance(ms(29000))
	h.expectCounts(t, 1, 0)

	// t=570999: still no second warning
	h.clock.Advance(ms(270999))
	h.expectCounts(t, 1, 0)

	// t=571000: second warning
	h.clock.Advance(ms(1))
	h.expectCounts(t, 2, 0)

	// t=601000: timeout
	h.clock.Advance(ms(30000))
	h.expectCounts(t, 2, 1)
}

func TestController_ExtendAfterExpiry(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute, WarningLeadTime: 10 * time.Second})
	h.ctrl.Start()
	h.clock.Advance(time.Minute)

	if err := h.ctrl.Extend(); !errors.Is(err, ErrExpired) {
		t.Fatalf("Extend after expiry: error = %v, want ErrExpired", err)
	}
	if !h.ctrl.IsExpired() {
		t.Errorf("State = %v, want EXPIRED", h.ctrl.State())
	}

	h.clock.Advance(time.Hour)
	h.expectCounts(t, 1, 1)
}

func TestController_StartRestartsAfterExpiry(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute, WarningLeadTime: 10 * time.Second})
	h.ctrl.Start()
	h.clock.Advance(time.Minute)
	h.expectCounts(t, 1, 1)

	h.ctrl.Start()
	if got := h.ctrl.State(); got != Active {
		t.Fatalf("State after restart = %v, want ACTIVE", got)
	}

	h.activity()
	h.clock.Advance(time.Minute)
	h.expectCounts(t, 2, 2)
}

func TestController_StartTwiceIsNoop(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute, WarningLeadTime: 10 * time.Second})
	h.ctrl.Start()
	h.clock.Advance(30 * time.Second)
	h.ctrl.Start()

	h.clock.Advance(20 * time.Second)
	h.expectCounts(t, 1, 0)
	if h.bus.Subscribers() != 1 {
		t.Errorf("Subscribers = %d, want 1", h.bus.Subscribers())
	}
}

// =============================================================================
// TEARDOWN TESTS
// =============================================================================

func TestController_StopBeforeTriggers(t *testing.T) {
	h := newHarness(t, DefaultTimerConfig())
	h.ctrl.Start()
	h.clock.Advance(time.Minute)

	h.ctrl.Stop()
	h.ctrl.Stop()

	h.clock.Advance(24 * time.Hour)
	h.activity()
	h.expectCounts(t, 0, 0)

	if h.clock.Pending() != 0 {
		t.Errorf("Pending timers = %d, want 0", h.clock.Pending())
	}
	if h.bus.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", h.bus.Subscribers())
	}
	if err := h.ctrl.Extend(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Extend after Stop: error = %v, want ErrNotRunning", err)
	}
	if got := h.ctrl.Remaining(); got != 0 {
		t.Errorf("Remaining after Stop = %v, want 0", got)
	}
}

func TestController_StopDuringWarning(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute, WarningLeadTime: 30 * time.Second})
	h.ctrl.Start()
	h.clock.Advance(30 * time.Second)
	h.expectCounts(t, 1, 0)

	h.ctrl.Stop()
	h.clock.Advance(time.Hour)
	h.expectCounts(t, 1, 0)
}

func TestController_ResetLeavesNoOrphanTimers(t *testing.T) {
	h := newHarness(t, DefaultTimerConfig())
	h.ctrl.Start()

	for i := 0; i < 50; i++ {
		if err := h.ctrl.Reset(); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
	}
	if got := h.clock.Pending(); got != 2 {
		t.Errorf("Pending timers = %d, want 2", got)
	}
}

// =============================================================================
// RECONFIGURATION TESTS
// =============================================================================

func TestController_SetTimerConfigAppliesOnNextReset(t *testing.T) {
	h := newHarness(t, TimerConfig{TotalTimeout: time.Minute, WarningLeadTime: 10 * time.Second})
	h.ctrl.Start()

	if err := h.ctrl.SetTimerConfig(TimerConfig{TotalTimeout: time.Second, WarningLeadTime: 2 * time.Second}); err == nil {
		t.Fatal("SetTimerConfig should reject warning > timeout")
	}
	if err := h.ctrl.SetTimerConfig(TimerConfig{TotalTimeout: 2 * time.Minute, WarningLeadTime: 20 * time.Second}); err != nil {
		t.Fatalf("SetTimerConfig() error = %v", err)
	}
	if got := h.ctrl.TotalTimeout(); got != time.Minute {
		t.Errorf("TotalTimeout before reset = %v, want 1m", got)
	}

	h.activity()
	if got := h.ctrl.TotalTimeout(); got != 2*time.Minute {
		t.Errorf("TotalTimeout after reset = %v, want 2m", got)
	}

	h.clock.Advance(100 * time.Second)
	h.expectCounts(t, 1, 0)
}

// =============================================================================
// SYSTEM CLOCK
// =============================================================================

func TestController_SystemClock(t *testing.T) {
	warned := make(chan struct{}, 1)
	expired := make(chan struct{}, 1)

	ctrl, err := New(TimerConfig{TotalTimeout: 60 * time.Millisecond, WarningLeadTime: 40 * time.Millisecond},
		func() { expired <- struct{}{} },
		WithWarning(func() { warned <- struct{}{} }),
		WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctrl.Start()
	defer ctrl.Stop()

	select {
	case <-warned:
	case <-expired:
		t.Fatal("timeout fired before warning")
	case <-time.After(2 * time.Second):
		t.Fatal("warning never fired")
	}
	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}
	if !ctrl.IsExpired() {
		t.Errorf("State = %v, want EXPIRED", ctrl.State())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{Active: "ACTIVE", Warning: "WARNING", Expired: "EXPIRED", State(9): "UNKNOWN"}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
