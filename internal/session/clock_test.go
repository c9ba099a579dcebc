// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"reflect"
	"testing"
	"time"
)

func TestManualClock_FiresInDeadlineOrder(t *testing.T) {
	c := NewManualClock(testEpoch)
	var fired []string

	c.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	c.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b2") })

	c.Advance(2 * time.Second)
	if want := []string{"a", "b", "b2"}; !reflect.DeepEqual(fired, want) {
		t.Errorf("fired = %v, want %v", fired, want)
	}
	if got := c.Now(); !got.Equal(testEpoch.Add(2 * time.Second)) {
		t.Errorf("Now = %v, want epoch+2s", got)
	}

	c.Advance(time.Second)
	if len(fired) != 4 {
		t.Errorf("fired = %v, want 4 entries", fired)
	}
}

func TestManualClock_Stop(t *testing.T) {
	c := NewManualClock(testEpoch)
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	if !timer.Stop() {
		t.Error("first Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	c.Advance(time.Minute)
	if called {
		t.Error("stopped timer fired")
	}
	if c.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", c.Pending())
	}
}

func TestManualClock_CallbackSchedulesWithinWindow(t *testing.T) {
	c := NewManualClock(testEpoch)
	var at []time.Time

	c.AfterFunc(time.Second, func() {
		at = append(at, c.Now())
		c.AfterFunc(time.Second, func() { at = append(at, c.Now()) })
	})

	c.Advance(5 * time.Second)
	if len(at) != 2 {
		t.Fatalf("callbacks = %d, want 2", len(at))
	}
	if !at[1].Equal(testEpoch.Add(2 * time.Second)) {
		t.Errorf("nested callback ran at %v, want epoch+2s", at[1])
	}
}

func TestManualClock_Set(t *testing.T) {
	c := NewManualClock(testEpoch)
	called := false
	c.AfterFunc(time.Minute, func() { called = true })

	c.Set(testEpoch.Add(-time.Hour))
	if called || !c.Now().Equal(testEpoch) {
		t.Error("Set to the past should be ignored")
	}
	c.Set(testEpoch.Add(time.Minute))
	if !called {
		t.Error("Set should fire due timers")
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{500 * time.Millisecond, "0:01"},
		{30 * time.Second, "0:30"},
		{90 * time.Second, "1:30"},
		{5 * time.Minute, "5:00"},
	}
	for _, tt := range tests {
		if got := FormatCountdown(tt.in); got != tt.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{5 * time.Minute, "5m"},
		{5*time.Minute + 30*time.Second, "5m 30s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
