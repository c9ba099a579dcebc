// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for greenshare.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - SessionConfig: Inactivity timeout and warning lead time
//   - StorageConfig: SQLite backend location
//   - AuditConfig: Session audit log settings
//   - Watcher: Reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GREENSHARE_*)
//   - ~/.greenshare/config.toml
//   - ~/.greenshare/config.json
//   - ~/.greenshare/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timers := cfg.SessionTimers()
package config
