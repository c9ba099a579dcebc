// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the greenshare command line and runs its commands.
//
// # Commands
//
//   - tui (default): the investor dashboard with inactivity sign-out
//   - landing: the public landing page rendered as markdown
//   - portfolio: a plain text portfolio summary
//   - buy: purchase shares in an open project
//   - config: show the effective configuration or its path
//   - seed: load the demo projects and production history
//   - version
//
// Handlers return errors; main maps them to exit codes with GetExitCode.
package cli
