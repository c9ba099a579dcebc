// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "strings"

// Bar characters for text charts and the countdown gauge.
var (
	BarFull    = "#"
	BarEmpty   = "-"
	BarPartial = []string{".", ":", "+"}
)

// RenderBar draws a width-column bar filled to fraction (0..1).
func RenderBar(width int, fraction float64) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := fraction * float64(width)
	full := int(filled)
	partial := int((filled - float64(full)) * float64(len(BarPartial)+1))

	var sb strings.Builder
	sb.Grow(width)
	sb.WriteString(strings.Repeat(BarFull, full))
	if full < width && partial > 0 {
		sb.WriteString(BarPartial[partial-1])
		full++
	}
	sb.WriteString(strings.Repeat(BarEmpty, width-full))
	return sb.String()
}
