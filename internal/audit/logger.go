// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit provides the session audit log with secret redaction.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxFileSize is the default max file size before rotation (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Event types written by the dashboard and CLI.
const (
	EventSessionStart    = "SESSION_START"
	EventTimeoutWarning  = "SESSION_TIMEOUT_WARNING"
	EventSessionExtended = "SESSION_EXTENDED"
	EventSessionTimeout  = "SESSION_TIMEOUT"
	EventLogout          = "SESSION_LOGOUT"
	EventLogoutFailed    = "SESSION_LOGOUT_FAILED"
	EventSharesPurchased = "SHARES_PURCHASED"
	EventPurchaseFailed  = "SHARES_PURCHASE_FAILED"
)

// ErrClosed is returned when logging to a closed logger.
var ErrClosed = errors.New("audit log closed")

// =============================================================================
// AUDIT EVENT
// =============================================================================

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SessionID string            `json:"session_id"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ToLogLine formats the event as a single log line:
// timestamp | type | session | k=v ... | status
func (e *Event) ToLogLine() string {
	timestamp := e.Timestamp.Format("2006-01-02 15:04:05")

	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+e.Metadata[k])
	}

	status := "SUCCESS"
	if !e.Success {
		if e.Error != "" {
			status = fmt.Sprintf("ERROR: %s", e.Error)
		} else {
			status = "FAILURE"
		}
	}

	return fmt.Sprintf("%s | %s | %s | %s | %s",
		timestamp,
		e.EventType,
		e.SessionID,
		strings.Join(pairs, " "),
		status,
	)
}

// ToJSON formats the event as JSON.
func (e *Event) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// =============================================================================
// REDACTION
// =============================================================================

// secretPatterns defines patterns for tokens that must never reach the log.
var secretPatterns = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer [TOKEN_REDACTED]"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "[JWT_REDACTED]"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*\S+`), "[PASSWORD_REDACTED]"},
	{regexp.MustCompile(`(?i)(apikey|api_key|service_role)\s*[=:]\s*\S+`), "[KEY_REDACTED]"},
}

// RedactSecrets replaces secret-looking substrings in input.
func RedactSecrets(input string) string {
	for _, sp := range secretPatterns {
		input = sp.pattern.ReplaceAllString(input, sp.replace)
	}
	return input
}

// =============================================================================
// LOGGER
// =============================================================================

// FailureCallback is called synchronously when writing an event fails.
type FailureCallback func(err error)

// Logger provides thread-safe append-only audit logging.
type Logger struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	enabled   bool
	maxSize   int64
	now       func() time.Time
	onFailure FailureCallback

	failureCount int
}

// NewLogger opens (or creates) the audit log at path.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, errors.New("audit log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	return &Logger{
		path:    path,
		file:    file,
		enabled: true,
		maxSize: DefaultMaxFileSize,
		now:     time.Now,
	}, nil
}

// Log writes an audit event to the log file.
func (l *Logger) Log(event Event) error {
	l.mu.Lock()

	if !l.enabled {
		l.mu.Unlock()
		return nil
	}
	if l.file == nil {
		l.mu.Unlock()
		return ErrClosed
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	event.Error = RedactSecrets(event.Error)
	if event.Metadata != nil {
		redacted := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			redacted[k] = RedactSecrets(v)
		}
		event.Metadata = redacted
	}

	if err := l.checkRotationLocked(); err != nil {
		return l.failLocked(fmt.Errorf("audit rotation failed: %w", err))
	}
	if _, err := fmt.Fprintln(l.file, event.ToLogLine()); err != nil {
		return l.failLocked(fmt.Errorf("failed to write audit log: %w", err))
	}
	if err := l.file.Sync(); err != nil {
		return l.failLocked(fmt.Errorf("failed to sync audit log: %w", err))
	}

	l.failureCount = 0
	l.mu.Unlock()
	return nil
}

// failLocked records err, releases the lock and runs the failure callback.
func (l *Logger) failLocked(err error) error {
	l.failureCount++
	cb := l.onFailure
	l.mu.Unlock()

	fmt.Fprintf(os.Stderr, "[AUDIT FAILURE #%d] %v\n", l.FailureCount(), err)
	if cb != nil {
		cb(err)
	}
	return err
}

// LogEvent logs a successful event with metadata.
func (l *Logger) LogEvent(sessionID, eventType string, metadata map[string]string) error {
	return l.Log(Event{
		EventType: eventType,
		SessionID: sessionID,
		Success:   true,
		Metadata:  metadata,
	})
}

// LogFailure logs a failed event with its error.
func (l *Logger) LogFailure(sessionID, eventType string, cause error, metadata map[string]string) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return l.Log(Event{
		EventType: eventType,
		SessionID: sessionID,
		Success:   false,
		Error:     msg,
		Metadata:  metadata,
	})
}

// =============================================================================
// ROTATION
// =============================================================================

// Rotate moves the current log aside and starts a new one.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rotateLocked()
}

func (l *Logger) rotateLocked() error {
	if l.file == nil {
		return ErrClosed
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", err)
	}

	rotated := fmt.Sprintf("%s.%s", l.path, l.now().Format("20060102-150405.000000000"))
	if err := os.Rename(l.path, rotated); err != nil {
		// Keep appending to the unrotated file.
		if file, openErr := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); openErr == nil {
			l.file = file
		}
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create new audit log after rotation: %w", err)
	}
	l.file = file
	return nil
}

func (l *Logger) checkRotationLocked() error {
	if l.maxSize <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() >= l.maxSize {
		return l.rotateLocked()
	}
	return nil
}

// =============================================================================
// SETTINGS AND STATUS
// =============================================================================

// SetMaxSize sets the rotation threshold in bytes. 0 disables rotation.
func (l *Logger) SetMaxSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = size
}

// SetEnabled enables or disables logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled reports whether logging is enabled.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// SetOnFailure sets the callback run when a write fails.
func (l *Logger) SetOnFailure(cb FailureCallback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFailure = cb
}

// FailureCount returns the number of consecutive failed writes.
func (l *Logger) FailureCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failureCount
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.path
}

// Close flushes and closes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// =============================================================================
// NOP SINK
// =============================================================================

// Sink is what callers depend on; *Logger and Nop satisfy it.
type Sink interface {
	LogEvent(sessionID, eventType string, metadata map[string]string) error
	LogFailure(sessionID, eventType string, cause error, metadata map[string]string) error
}

// Nop discards every event. Used when auditing is disabled.
type Nop struct{}

func (Nop) LogEvent(string, string, map[string]string) error        { return nil }
func (Nop) LogFailure(string, string, error, map[string]string) error { return nil }
