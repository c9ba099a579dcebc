// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the greenshare TUI.
//
// Colors are lipgloss.AdaptiveColor values so the same palette reads on
// light and dark terminals. Theme bundles the composed styles; NewTheme
// takes the configured mode ("auto", "dark" or "light").
//
// Status text always carries an ASCII marker ([OK], [X], [!], [i]) next to
// its color.
package styles
