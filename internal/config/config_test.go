// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}

	timers := cfg.SessionTimers()
	if timers.TotalTimeout != 5*time.Minute {
		t.Errorf("TotalTimeout = %v, want 5m", timers.TotalTimeout)
	}
	if timers.WarningLeadTime != 30*time.Second {
		t.Errorf("WarningLeadTime = %v, want 30s", timers.WarningLeadTime)
	}
	if err := timers.Validate(); err != nil {
		t.Errorf("default timers invalid: %v", err)
	}
	if got := cfg.ActivityThrottle(); got != 250*time.Millisecond {
		t.Errorf("ActivityThrottle = %v, want 250ms", got)
	}
}

func TestSetDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Session.TimeoutSecs != 300 {
		t.Errorf("TimeoutSecs = %d, want 300", cfg.Session.TimeoutSecs)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("Theme = %q, want auto", cfg.UI.Theme)
	}
	if cfg.Audit.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want 10", cfg.Audit.MaxSizeMB)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"warning exceeds timeout", func(c *Config) { c.Session.WarningSecs = c.Session.TimeoutSecs + 1 }, "session.warning_secs"},
		{"negative warning", func(c *Config) { c.Session.WarningSecs = -1 }, "session.warning_secs"},
		{"zero timeout", func(c *Config) { c.Session.TimeoutSecs = 0 }, "session.timeout_secs"},
		{"negative throttle", func(c *Config) { c.Session.ActivityThrottleMs = -5 }, "session.activity_throttle_ms"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad email", func(c *Config) { c.Account.Email = "not-an-email" }, "account.email"},
		{"huge audit log", func(c *Config) { c.Audit.MaxSizeMB = 4096 }, "audit.max_size_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error type = %T, want ValidateErrors", err)
			}
			if !verrs.HasField(tt.wantField) {
				t.Errorf("errors %v do not mention %s", verrs, tt.wantField)
			}
		})
	}
}

func TestValidate_WarningEqualToTimeout(t *testing.T) {
	cfg := Default()
	cfg.Session.WarningSecs = cfg.Session.TimeoutSecs
	if err := cfg.Validate(); err != nil {
		t.Errorf("warning == timeout should be valid, got %v", err)
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	if got, want := errs.Error(), "a: bad; b: worse"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := (ValidateErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}
}

// =============================================================================
// LOADING
// =============================================================================

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadFromPath_Formats(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"config.toml": "[session]\ntimeout_secs = 600\nwarning_secs = 60\n",
		"config.json": `{"session": {"timeout_secs": 600, "warning_secs": 60}}`,
		"config.yaml": "session:\n  timeout_secs: 600\n  warning_secs: 60\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeFile(t, path, content)

			cfg, err := LoadFromPath(path)
			if err != nil {
				t.Fatalf("LoadFromPath() error = %v", err)
			}
			if cfg.Session.TimeoutSecs != 600 || cfg.Session.WarningSecs != 60 {
				t.Errorf("session = %+v, want 600/60", cfg.Session)
			}
			// Unset keys keep their defaults.
			if cfg.UI.Theme != "auto" || !cfg.Audit.Enabled {
				t.Errorf("defaults lost: ui=%+v audit=%+v", cfg.UI, cfg.Audit)
			}
		})
	}
}

func TestLoadFromPath_RejectsIncoherentTimers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[session]\ntimeout_secs = 60\nwarning_secs = 120\n")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("LoadFromPath() should reject warning_secs > timeout_secs")
	}
}

func TestLoadFromPath_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[session\ntimeout_secs = ")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("LoadFromPath() should fail on malformed TOML")
	}
}

func TestLoad_PrecedenceAndDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GREENSHARE_HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no files: %v", err)
	}
	if cfg.Session.TimeoutSecs != 300 {
		t.Errorf("TimeoutSecs = %d, want default 300", cfg.Session.TimeoutSecs)
	}

	writeFile(t, filepath.Join(home, "config.json"), `{"session": {"timeout_secs": 900}}`)
	writeFile(t, filepath.Join(home, "config.toml"), "[session]\ntimeout_secs = 1200\n")

	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.TimeoutSecs != 1200 {
		t.Errorf("TimeoutSecs = %d, want TOML value 1200", cfg.Session.TimeoutSecs)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GREENSHARE_SESSION_TIMEOUT", "120")
	t.Setenv("GREENSHARE_SESSION_WARNING", "15")
	t.Setenv("GREENSHARE_DB", "/tmp/gs.db")
	t.Setenv("GREENSHARE_AUDIT_LOG", "/tmp/gs-audit.log")
	t.Setenv("GREENSHARE_EMAIL", "investor@example.com")
	t.Setenv("GREENSHARE_DEBUG", "true")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Session.TimeoutSecs != 120 || cfg.Session.WarningSecs != 15 {
		t.Errorf("session = %+v, want 120/15", cfg.Session)
	}
	if cfg.Storage.Path != "/tmp/gs.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Audit.Path != "/tmp/gs-audit.log" {
		t.Errorf("Audit.Path = %q", cfg.Audit.Path)
	}
	if cfg.Account.Email != "investor@example.com" {
		t.Errorf("Account.Email = %q", cfg.Account.Email)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

func TestApplyEnvOverrides_IgnoresGarbage(t *testing.T) {
	t.Setenv("GREENSHARE_SESSION_TIMEOUT", "soon")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Session.TimeoutSecs != 300 {
		t.Errorf("TimeoutSecs = %d, want unchanged 300", cfg.Session.TimeoutSecs)
	}
}

func TestDerivedPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GREENSHARE_HOME", home)

	cfg := Default()
	db, err := cfg.DatabasePath()
	if err != nil || db != filepath.Join(home, "greenshare.db") {
		t.Errorf("DatabasePath = %q, %v", db, err)
	}
	audit, err := cfg.AuditLogPath()
	if err != nil || audit != filepath.Join(home, "audit.log") {
		t.Errorf("AuditLogPath = %q, %v", audit, err)
	}

	cfg.Storage.Path = "/data/x.db"
	if db, _ := cfg.DatabasePath(); db != "/data/x.db" {
		t.Errorf("DatabasePath override = %q", db)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Session.TimeoutSecs = 420
	cfg.Account.Email = "a@b.fr"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Session.TimeoutSecs != 420 || loaded.Account.Email != "a@b.fr" {
		t.Errorf("loaded = %+v", loaded)
	}
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[session]\ntimeout_secs = 300\n")

	changes := make(chan *Config, 4)
	w, err := Watch(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			changes <- cfg
		}
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	writeFile(t, path, "[session]\ntimeout_secs = 900\nwarning_secs = 45\n")

	select {
	case cfg := <-changes:
		if cfg.Session.TimeoutSecs != 900 || cfg.Session.WarningSecs != 45 {
			t.Errorf("reloaded session = %+v, want 900/45", cfg.Session)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the change")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	_ = w.Close()
}

// =============================================================================
// GLOBAL
// =============================================================================

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// called concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Setenv("GREENSHARE_HOME", t.TempDir())
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
