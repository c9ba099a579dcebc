// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strings"

// GenericErrorMessage is shown instead of errors that may leak internals.
const GenericErrorMessage = "Something went wrong. Please try again."

// safeMessages are error texts that can be shown to the user as-is.
var safeMessages = []string{
	"invalid email format",
	"no active session",
	"invalid share quantity",
	"requested quantity exceeds available shares",
	"project not found",
}

// SafeMessage returns text fit for display. Known user-facing errors pass
// through; anything else collapses to GenericErrorMessage unless debug is set.
func SafeMessage(err error, debug bool) string {
	if err == nil {
		return "An unexpected error occurred."
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, safe := range safeMessages {
		if strings.Contains(lower, safe) {
			return msg
		}
	}
	if debug {
		return msg
	}
	return GenericErrorMessage
}
