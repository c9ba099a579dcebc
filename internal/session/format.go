// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/greenshare/greenshare-tui/internal/util"
)

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return util.IntToString(secs) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}

// FormatCountdown formats a duration as M:SS for a live countdown.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	// Round up so the display reaches 0:00 only at expiry.
	totalSecs := int((d + time.Second - 1) / time.Second)
	mins := totalSecs / 60
	secs := totalSecs % 60
	s := util.IntToString(secs)
	if secs < 10 {
		s = "0" + s
	}
	return util.IntToString(mins) + ":" + s
}
