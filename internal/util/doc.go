// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across greenshare.
//
// # Key Functions
//
// Display:
//   - TruncateWidth, StringWidth, PadRight: column-aware text fitting
//   - FormatEuro, GroupThousands: money and quantity formatting
//
// Errors:
//   - SafeMessage: strips internal detail from errors shown to the user
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	cell := util.TruncateWidth(project.Name, 24)
//	total := util.FormatEuro(inv.TotalPrice)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
