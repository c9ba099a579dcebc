// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable Bubble Tea widgets for the investor
dashboard.

# Session Timeout Overlay

SessionTimeoutOverlay (session_timeout_overlay.go) is the modal shown while
the inactivity controller is warning. It counts down once per second and
resolves only through its own keys:

	overlay := components.NewSessionTimeoutOverlay()
	overlay.Show(remaining, lead)
	overlay, cmd = overlay.Update(msg) // emits SessionContinueMsg or SessionLogoutMsg

After a timeout, ShowExpired swaps the countdown for a signed-out notice.

# Toasts

ToastStack (toast.go) holds short-lived notifications. The clock is
injectable so tests can age toasts without sleeping:

	toasts := components.NewToastStack()
	toasts.SetNow(clock.Now)
	toasts.Push(components.ToastSuccess, "Session extended")
	toasts.Prune() // on every ToastTickMsg
*/
package components
