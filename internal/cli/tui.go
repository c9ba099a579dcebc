// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/greenshare/greenshare-tui/internal/auth"
	"github.com/greenshare/greenshare-tui/internal/config"
	"github.com/greenshare/greenshare-tui/internal/ui/dashboard"
	"github.com/greenshare/greenshare-tui/internal/ui/styles"
)

// HandleTUI signs the investor in and runs the dashboard until they quit,
// log out, or are signed out for inactivity.
func HandleTUI(args Args, out io.Writer) error {
	if err := RequiresTTY("open the dashboard"); err != nil {
		return err
	}

	ctx := context.Background()
	env, err := OpenEnv(ctx, args)
	if err != nil {
		return err
	}
	defer env.Close()
	cfg := env.Config

	if cfg.UI.ShowLanding && !args.NoLanding {
		page, err := renderLanding(ctx, env, landingStyle(cfg.UI.Theme))
		if err != nil {
			env.Logger.Printf("LANDING_RENDER_FAILED | error=%v", err)
		} else {
			fmt.Fprint(out, page)
		}
	}

	sess, err := signInInteractive(ctx, env, args, out)
	if err != nil {
		return err
	}

	// The dashboard owns the terminal from here; log lines go to a file.
	if dir, err := config.ConfigDir(); err == nil {
		if f, err := tea.LogToFile(filepath.Join(dir, "greenshare.log"), "greenshare"); err == nil {
			env.SetLogOutput(f)
			defer f.Close()
		}
	}

	app, err := dashboard.NewApp(dashboard.Options{
		Deps: dashboard.Deps{
			Portfolio: env.Portfolio,
			Auth:      env.Auth,
			Session:   sess,
			Audit:     env.Audit,
			Theme:     styles.NewTheme(cfg.UI.Theme),
			Logger:    env.Logger,
			Debug:     cfg.Debug,
		},
		Timers:           cfg.SessionTimers(),
		ActivityThrottle: cfg.ActivityThrottle(),
		Mouse:            cfg.UI.Mouse,
	})
	if err != nil {
		return err
	}

	if env.ConfigFile != "" {
		w, err := config.Watch(env.ConfigFile, config.DefaultWatchDebounce, func(c *config.Config, err error) {
			if err != nil {
				env.Logger.Printf("CONFIG_RELOAD_FAILED | path=%s error=%v", env.ConfigFile, err)
				app.ReportConfigError(err)
				return
			}
			if err := app.SetTimers(c.SessionTimers()); err != nil {
				env.Logger.Printf("CONFIG_RELOAD_REJECTED | error=%v", err)
				return
			}
			env.Logger.Printf("CONFIG_RELOADED | timeout=%v warning=%v",
				c.SessionTimers().TotalTimeout, c.SessionTimers().WarningLeadTime)
		})
		if err != nil {
			env.Logger.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", env.ConfigFile, err)
		} else {
			defer w.Close()
		}
	}

	res, err := app.Run()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, exitMessage(res.Reason.String(), res.SignOutErr))
	return nil
}

// signInInteractive signs in with the configured email, asking for one
// when none is set or the configured one is rejected.
func signInInteractive(ctx context.Context, env *Env, args Args, out io.Writer) (auth.Session, error) {
	if email, err := env.Email(args); err == nil {
		sess, err := env.SignIn(ctx, email)
		if err == nil || !errors.Is(err, auth.ErrInvalidEmail) {
			return sess, err
		}
		fmt.Fprintln(out, WarningStyle.Render(err.Error()))
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("Investor email: ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return auth.Session{}, errors.New("sign-in cancelled")
			}
			return auth.Session{}, err
		}
		sess, err := env.SignIn(ctx, input)
		if errors.Is(err, auth.ErrInvalidEmail) {
			fmt.Fprintln(out, WarningStyle.Render(err.Error()))
			continue
		}
		return sess, err
	}
}
