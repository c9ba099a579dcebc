// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the inactivity timeout that guards an investor
// session.
//
// A Controller counts down from the last activity signal. When the warning
// lead time is reached it enters Warning and calls the warning callback;
// when the full timeout is reached it enters Expired and calls the timeout
// callback. Both triggers are measured from the same reset point, so the
// warning always comes first.
//
// # Key Types
//
//   - Controller: the countdown and its Active/Warning/Expired state
//   - TimerConfig: total timeout and warning lead time
//   - ActivitySource, Bus: where activity signals come from
//   - Clock, ManualClock: timer scheduling, virtual time for tests
//
// # Usage
//
//	bus := session.NewBus()
//	ctrl, err := session.New(session.DefaultTimerConfig(), signOut,
//	    session.WithActivitySource(bus),
//	    session.WithWarning(showWarning),
//	)
//	if err != nil {
//	    return err
//	}
//	ctrl.Start()
//	defer ctrl.Stop()
//
//	bus.Publish(session.Activity{Kind: session.KindKeyPress, At: time.Now()})
//
// While the warning is showing, activity signals are ignored. The host
// calls Extend when the user chooses to continue.
package session
