// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := NewLogger(filepath.Join(t.TempDir(), "logs", "audit.log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestEvent_ToLogLine(t *testing.T) {
	e := Event{
		Timestamp: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		EventType: EventSessionTimeout,
		SessionID: "sess-1",
		Success:   true,
		Metadata:  map[string]string{"idle": "5m0s", "email": "a@b.fr"},
	}
	assert.Equal(t, "2025-06-01 10:30:00 | SESSION_TIMEOUT | sess-1 | email=a@b.fr idle=5m0s | SUCCESS", e.ToLogLine())

	e.Success = false
	e.Error = "network down"
	assert.True(t, strings.HasSuffix(e.ToLogLine(), "| ERROR: network down"))
}

func TestLogger_LogEvent(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogEvent("sess-1", EventSessionStart, map[string]string{"user": "u1"}))
	require.NoError(t, l.LogFailure("sess-1", EventLogoutFailed, errors.New("timeout"), nil))

	lines := readLines(t, l.Path())
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "| SESSION_START | sess-1 | user=u1 | SUCCESS")
	assert.Contains(t, lines[1], "| SESSION_LOGOUT_FAILED | sess-1 |  | ERROR: timeout")
}

func TestLogger_RedactsSecrets(t *testing.T) {
	l := newTestLogger(t)

	require.NoError(t, l.LogFailure("s", EventLogoutFailed,
		errors.New("request failed: Authorization: Bearer abc.def-123"),
		map[string]string{"body": "password=hunter2"}))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "abc.def-123")
	assert.Contains(t, string(data), "[TOKEN_REDACTED]")
	assert.Contains(t, string(data), "[PASSWORD_REDACTED]")
}

func TestLogger_DisabledWritesNothing(t *testing.T) {
	l := newTestLogger(t)
	l.SetEnabled(false)
	assert.False(t, l.IsEnabled())

	require.NoError(t, l.LogEvent("s", EventSessionStart, nil))
	info, err := os.Stat(l.Path())
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestLogger_Rotation(t *testing.T) {
	l := newTestLogger(t)
	l.SetMaxSize(64)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.LogEvent("sess-rotate", EventSessionExtended, nil))
	}

	matches, err := filepath.Glob(l.Path() + ".*")
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "expected rotated files")
}

func TestLogger_RotationRenameFailureKeepsLogging(t *testing.T) {
	l := newTestLogger(t)
	fixed := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	require.NoError(t, l.LogEvent("sess-1", EventSessionStart, nil))

	// A non-empty directory under the rotated name makes the rename fail.
	blocker := l.Path() + "." + fixed.Format("20060102-150405.000000000")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0700))

	err := l.Rotate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to rotate audit log")

	var failures int
	l.SetOnFailure(func(error) { failures++ })
	require.NoError(t, l.LogEvent("sess-1", EventSessionExtended, nil))
	assert.Equal(t, 0, failures)
	assert.Equal(t, 0, l.FailureCount())

	lines := readLines(t, l.Path())
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], EventSessionExtended)

	require.NoError(t, l.Close())
}

func TestLogger_Close(t *testing.T) {
	l := newTestLogger(t)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	err := l.LogEvent("s", EventSessionStart, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewLogger_EmptyPath(t *testing.T) {
	_, err := NewLogger("")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var sink Sink = Nop{}
	assert.NoError(t, sink.LogEvent("s", EventSessionStart, nil))
	assert.NoError(t, sink.LogFailure("s", EventLogoutFailed, errors.New("x"), nil))
}
