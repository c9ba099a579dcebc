// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/greenshare/greenshare-tui/internal/audit"
	"github.com/greenshare/greenshare-tui/internal/auth"
	"github.com/greenshare/greenshare-tui/internal/config"
	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/storage"
)

// Env is what every command needs: config, data store, services and the
// audit trail.
type Env struct {
	Config     *config.Config
	ConfigFile string // file the config came from, "" for built-in defaults

	Store     *storage.Store
	Portfolio *portfolio.Service
	Auth      *auth.Service

	Audit    audit.Sink
	auditLog *audit.Logger
	Logger   *log.Logger
}

// OpenEnv loads config, opens the database and the audit log.
func OpenEnv(ctx context.Context, args Args) (*Env, error) {
	cfg, file, err := loadConfig(args.ConfigPath)
	if err != nil {
		return nil, err
	}
	if args.Debug {
		cfg.Debug = true
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	env := &Env{Config: cfg, ConfigFile: file, Logger: logger, Audit: audit.Nop{}}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	env.Store, err = storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Storage.SeedDemo {
		if err := env.seedOnce(ctx); err != nil {
			env.Close()
			return nil, err
		}
	}

	if cfg.Audit.Enabled {
		path, err := cfg.AuditLogPath()
		if err != nil {
			env.Close()
			return nil, err
		}
		l, err := audit.NewLogger(path)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		l.SetMaxSize(int64(cfg.Audit.MaxSizeMB) * 1024 * 1024)
		l.SetOnFailure(func(err error) {
			logger.Printf("AUDIT_WRITE_FAILED | error=%v", err)
		})
		env.auditLog = l
		env.Audit = l
	}

	env.Portfolio = portfolio.NewService(env.Store, portfolio.WithServiceLogger(logger))
	env.Auth = auth.NewService(env.Store)
	return env, nil
}

// SetLogOutput redirects operational logging, e.g. to the TUI log file.
func (e *Env) SetLogOutput(w io.Writer) {
	e.Logger.SetOutput(w)
}

// Close releases the database and audit log.
func (e *Env) Close() error {
	var firstErr error
	if e.auditLog != nil {
		if err := e.auditLog.Close(); err != nil {
			firstErr = err
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Env) seedOnce(ctx context.Context) error {
	at, err := e.Store.SeededAt(ctx)
	if err != nil {
		return err
	}
	if !at.IsZero() {
		return nil
	}
	res, err := e.Store.Seed(ctx, storage.DefaultSeedDays, time.Now())
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	e.Logger.Printf("DEMO_SEEDED | projects=%d productions=%d", res.Projects, res.Productions)
	return nil
}

// Email resolves the investor email from the flag or the config.
func (e *Env) Email(args Args) (string, error) {
	if args.Email != "" {
		return args.Email, nil
	}
	if e.Config.Account.Email != "" {
		return e.Config.Account.Email, nil
	}
	return "", &ValidationError{
		Field:   "email",
		Reason:  "no investor email given",
		Example: "greenshare --email investor@example.com",
	}
}

// SignIn opens a session for email and records it in the audit log.
func (e *Env) SignIn(ctx context.Context, email string) (auth.Session, error) {
	sess, err := e.Auth.SignIn(ctx, email)
	if err != nil {
		return auth.Session{}, err
	}
	e.Audit.LogEvent(sess.ID, audit.EventSessionStart, map[string]string{"email": sess.Email})
	return sess, nil
}

// SignOut closes a short-lived command session and records it.
func (e *Env) SignOut(ctx context.Context, sess auth.Session) error {
	if err := e.Auth.SignOut(ctx, sess.ID); err != nil {
		e.Audit.LogFailure(sess.ID, audit.EventLogoutFailed, err, nil)
		return err
	}
	e.Audit.LogEvent(sess.ID, audit.EventLogout, map[string]string{"reason": "command"})
	return nil
}

// loadConfig returns the config and the file it came from.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return nil, "", &ConfigError{Err: err}
		}
		return cfg, path, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, "", &ConfigError{Err: err}
	}
	file, err := config.ConfigPath()
	if err != nil {
		return cfg, "", nil
	}
	if _, statErr := os.Stat(file); statErr != nil {
		file = ""
	}
	return cfg, file, nil
}
