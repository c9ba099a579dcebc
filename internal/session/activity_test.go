// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()
	var got []Kind

	unsubscribe := bus.Subscribe(func(a Activity) { got = append(got, a.Kind) })
	bus.Publish(Activity{Kind: KindKeyPress})
	bus.Publish(Activity{Kind: KindScroll})

	unsubscribe()
	unsubscribe()
	bus.Publish(Activity{Kind: KindClick})

	assert.Equal(t, []Kind{KindKeyPress, KindScroll}, got)
	assert.Equal(t, 0, bus.Subscribers())
}

func TestBus_SubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	calls := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(Activity) {
		calls++
		unsubscribe()
	})

	bus.Publish(Activity{})
	bus.Publish(Activity{})
	assert.Equal(t, 1, calls)
}

func newThrottledController(t *testing.T, cfg TimerConfig, every time.Duration) (*Controller, *ManualClock, *Bus, *callbackRecorder) {
	t.Helper()
	clock := NewManualClock(testEpoch)
	bus := NewBus()
	rec := &callbackRecorder{}
	ctrl, err := New(cfg, rec.timeout,
		WithClock(clock),
		WithActivitySource(bus),
		WithActivityThrottle(every),
		WithWarning(rec.warning),
		WithLogger(log.New(io.Discard, "", 0)),
	)
	require.NoError(t, err)
	t.Cleanup(ctrl.Stop)
	return ctrl, clock, bus, rec
}

func TestController_ThrottledBurstKeepsSessionAlive(t *testing.T) {
	ctrl, clock, bus, rec := newThrottledController(t, TimerConfig{TotalTimeout: 10 * time.Second}, time.Second)
	ctrl.Start()

	for i := 0; i < 30; i++ {
		clock.Advance(500 * time.Millisecond)
		bus.Publish(Activity{Kind: KindPointerMove, At: clock.Now()})
	}
	_, timeouts := rec.counts()
	require.Equal(t, 0, timeouts)
	assert.Equal(t, clock.Now().Add(10*time.Second), ctrl.Deadline())

	clock.Advance(10*time.Second - time.Millisecond)
	_, timeouts = rec.counts()
	require.Equal(t, 0, timeouts, "expiry must be measured from the last signal")

	clock.Advance(time.Millisecond)
	_, timeouts = rec.counts()
	assert.Equal(t, 1, timeouts)
}

func TestController_ThrottledSignalStillMovesDeadline(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: 300 * time.Second, WarningLeadTime: 30 * time.Second}
	ctrl, clock, bus, rec := newThrottledController(t, cfg, 250*time.Millisecond)
	ctrl.Start()

	bus.Publish(Activity{Kind: KindKeyPress, At: clock.Now()})
	clock.Advance(200 * time.Millisecond)
	last := clock.Now()
	bus.Publish(Activity{Kind: KindPointerMove, At: last})

	assert.Equal(t, last.Add(300*time.Second), ctrl.Deadline())

	clock.Advance(270*time.Second - time.Millisecond)
	warnings, _ := rec.counts()
	require.Equal(t, 0, warnings, "warning must wait for last activity + 270s")
	clock.Advance(time.Millisecond)
	warnings, _ = rec.counts()
	require.Equal(t, 1, warnings)

	clock.Advance(30*time.Second - time.Millisecond)
	_, timeouts := rec.counts()
	require.Equal(t, 0, timeouts)
	assert.Equal(t, time.Millisecond, ctrl.Remaining())

	clock.Advance(time.Millisecond)
	_, timeouts = rec.counts()
	assert.Equal(t, 1, timeouts)
	assert.True(t, ctrl.IsExpired())
}

func TestController_ThrottleIgnoresWarningInput(t *testing.T) {
	cfg := TimerConfig{TotalTimeout: 10 * time.Second, WarningLeadTime: 3 * time.Second}
	ctrl, clock, bus, rec := newThrottledController(t, cfg, 250*time.Millisecond)
	ctrl.Start()

	clock.Advance(7 * time.Second)
	require.True(t, ctrl.IsWarning())

	// The continue key reaches the bus before the host calls Extend.
	bus.Publish(Activity{Kind: KindKeyPress, At: clock.Now()})
	require.NoError(t, ctrl.Extend())

	clock.Advance(100 * time.Millisecond)
	bus.Publish(Activity{Kind: KindPointerMove, At: clock.Now()})
	assert.Equal(t, clock.Now().Add(10*time.Second), ctrl.Deadline())
	assert.Equal(t, 10*time.Second, ctrl.Remaining())

	clock.Advance(10*time.Second - time.Millisecond)
	_, timeouts := rec.counts()
	require.Equal(t, 0, timeouts)
	clock.Advance(time.Millisecond)
	warnings, timeouts := rec.counts()
	assert.Equal(t, 2, warnings)
	assert.Equal(t, 1, timeouts)
}

func TestController_ZeroThrottleRearmsEverySignal(t *testing.T) {
	ctrl, clock, bus, _ := newThrottledController(t, TimerConfig{TotalTimeout: 10 * time.Second}, 0)
	ctrl.Start()

	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Millisecond)
		bus.Publish(Activity{At: clock.Now()})
		assert.Equal(t, clock.Now().Add(10*time.Second), ctrl.Deadline())
	}
	assert.Equal(t, 1, clock.Pending(), "only the expiry trigger stays armed")
}

func TestKind_String(t *testing.T) {
	kinds := map[Kind]string{
		KindPointerDown: "pointer_down",
		KindPointerMove: "pointer_move",
		KindKeyPress:    "key_press",
		KindScroll:      "scroll",
		KindTouchStart:  "touch_start",
		KindClick:       "click",
		Kind(42):        "unknown",
	}
	for k, want := range kinds {
		assert.Equal(t, want, k.String())
	}
}
