// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/greenshare/greenshare-tui/internal/auth"
	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/util"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNotFound     = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a command failure with context.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ValidationError is bad user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += "\nExample: " + e.Example
	}
	return msg
}

// UsageError is a malformed command line.
type UsageError struct {
	Usage string
	Msg   string
}

func (e *UsageError) Error() string {
	return e.Msg + "\nUsage: " + e.Usage
}

// ConfigError is a config file that could not be loaded.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w. Domain errors are shown through
// util.SafeMessage so internal details stay out of the terminal.
func DisplayError(w io.Writer, err error, debug bool) {
	if err == nil {
		return
	}
	var ve *ValidationError
	var ue *UsageError
	var cfgErr *ConfigError
	switch {
	case errors.As(err, &ve), errors.As(err, &ue), errors.As(err, &cfgErr):
		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+err.Error())
	default:
		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+util.SafeMessage(err, debug))
	}
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ve *ValidationError
	var ue *UsageError
	var cfgErr *ConfigError
	var ttyErr *TTYRequiredError
	switch {
	case errors.As(err, &ve), errors.As(err, &ue), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrInvalidEmail):
		return ExitAuthError
	case errors.Is(err, portfolio.ErrProjectNotFound):
		return ExitNotFound
	case errors.Is(err, portfolio.ErrInvalidQuantity), errors.Is(err, portfolio.ErrInsufficientShares):
		return ExitUsageError
	}
	return ExitGeneralError
}
