// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/peterh/liner"

	"github.com/greenshare/greenshare-tui/internal/audit"
	"github.com/greenshare/greenshare-tui/internal/config"
	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/storage"
	"github.com/greenshare/greenshare-tui/internal/ui/landing"
	"github.com/greenshare/greenshare-tui/internal/util"
)

// commandTimeout bounds the one-shot commands.
const commandTimeout = 15 * time.Second

// =============================================================================
// LANDING
// =============================================================================

// HandleLanding renders the public landing page.
func HandleLanding(args Args, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	env, err := OpenEnv(ctx, args)
	if err != nil {
		return err
	}
	defer env.Close()

	page, err := renderLanding(ctx, env, landingStyle(env.Config.UI.Theme))
	if err != nil {
		return err
	}
	fmt.Fprint(out, page)
	return nil
}

func renderLanding(ctx context.Context, env *Env, style string) (string, error) {
	projects, err := env.Store.ActiveProjects(ctx)
	if err != nil {
		return "", &CommandError{Command: "landing", Action: "load projects", Err: err}
	}
	return landing.Render(landing.Markdown(projects), GetTerminalWidth(), style)
}

// landingStyle maps the ui.theme setting to a glamour style, plain when
// stdout is not a terminal.
func landingStyle(theme string) string {
	if !ColorsEnabled() {
		return landing.StylePlain
	}
	switch theme {
	case "dark":
		return landing.StyleDark
	case "light":
		return landing.StyleLight
	default:
		return landing.StyleAuto
	}
}

// =============================================================================
// PORTFOLIO
// =============================================================================

// HandlePortfolio prints the investor's portfolio as text.
func HandlePortfolio(args Args, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	env, err := OpenEnv(ctx, args)
	if err != nil {
		return err
	}
	defer env.Close()

	email, err := env.Email(args)
	if err != nil {
		return err
	}
	sess, err := env.SignIn(ctx, email)
	if err != nil {
		return err
	}
	defer env.SignOut(ctx, sess)

	d, err := env.Portfolio.LoadDashboard(ctx, sess.UserID)
	if err != nil {
		return &CommandError{Command: "portfolio", Action: "load", Err: err}
	}
	writePortfolio(out, d, sess.Email)
	return nil
}

func writePortfolio(out io.Writer, d *portfolio.Dashboard, email string) {
	sum := d.Summary()
	impact := d.Impact()

	fmt.Fprintln(out, TitleStyle.Render("Portfolio of "+d.Profile.Greeting(email)))
	if d.Seeded {
		fmt.Fprintln(out, DimStyle.Render("A starter portfolio was added to your account."))
	}
	fmt.Fprintln(out, RenderField("Total invested", util.FormatEuro(sum.TotalInvested)))
	fmt.Fprintln(out, RenderField("Shares held", util.GroupThousands(int64(sum.TotalShares))))
	fmt.Fprintln(out, RenderField("Projects", util.IntToString(sum.Projects)))
	fmt.Fprintln(out, RenderField("Recent revenue", util.FormatEuro(d.DailyRevenue())))
	fmt.Fprintln(out, RenderField("CO2 avoided", util.FloatToStringPrec(impact.CO2AvoidedTons, 2)+" t"))

	fmt.Fprintln(out, SectionStyle.Render("Investments"))
	fmt.Fprintln(out, RenderSeparator())
	if len(d.Investments) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No investments yet."))
	}
	for _, inv := range d.Investments {
		fmt.Fprintf(out, "%s %6d shares  %14s  %s\n",
			util.PadRight(util.TruncateWidth(inv.Project.Name, 30), 30),
			inv.Shares,
			util.FormatEuro(inv.TotalPrice),
			util.FloatToStringPrec(portfolio.Ownership(inv)*100, 3)+"%")
	}

	fmt.Fprintln(out, SectionStyle.Render("Open projects"))
	fmt.Fprintln(out, RenderSeparator())
	for _, p := range d.Projects {
		fmt.Fprintf(out, "%s %s  %s/share  %s available\n",
			util.PadRight(p.ID, 22),
			util.PadRight(util.TruncateWidth(p.Name, 30), 30),
			util.FormatEuro(p.PricePerShare),
			util.GroupThousands(int64(p.AvailableShares)))
	}
}

// =============================================================================
// BUY
// =============================================================================

// HandleBuy purchases shares. Without a quantity it prompts for one.
func HandleBuy(args Args, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env, err := OpenEnv(ctx, args)
	if err != nil {
		return err
	}
	defer env.Close()

	project, err := env.Store.Project(ctx, args.ProjectID)
	if err != nil {
		return err
	}

	qty := args.Quantity
	if qty == 0 {
		if err := RequiresTTY("ask for a quantity"); err != nil {
			return err
		}
		qty, err = promptQuantity(out, project)
		if err != nil {
			return err
		}
	}
	if err := portfolio.ValidatePurchase(project, qty); err != nil {
		return err
	}

	email, err := env.Email(args)
	if err != nil {
		return err
	}
	sess, err := env.SignIn(ctx, email)
	if err != nil {
		return err
	}
	defer env.SignOut(ctx, sess)

	meta := map[string]string{"project": project.ID, "qty": util.IntToString(qty)}
	inv, err := env.Portfolio.Buy(ctx, sess.UserID, project.ID, qty)
	if err != nil {
		env.Audit.LogFailure(sess.ID, audit.EventPurchaseFailed, err, meta)
		return err
	}
	meta["total"] = util.FloatToStringPrec(inv.TotalPrice, 2)
	env.Audit.LogEvent(sess.ID, audit.EventSharesPurchased, meta)

	fmt.Fprintln(out, SuccessStyle.Render("[OK]")+" Bought "+util.IntToString(inv.Shares)+
		" shares of "+project.Name+" for "+util.FormatEuro(inv.TotalPrice))
	return nil
}

// promptQuantity asks for a share count until a valid one or an abort.
func promptQuantity(out io.Writer, p portfolio.Project) (int, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintf(out, "%s: %s per share, %s available\n",
		p.Name, util.FormatEuro(p.PricePerShare), util.GroupThousands(int64(p.AvailableShares)))
	for {
		input, err := line.Prompt("Shares to buy: ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return 0, errors.New("purchase cancelled")
			}
			return 0, err
		}
		qty, err := ParsePositiveInt(input, "quantity")
		if err == nil {
			err = portfolio.ValidatePurchase(p, qty)
		}
		if err != nil {
			fmt.Fprintln(out, WarningStyle.Render(err.Error()))
			continue
		}
		return qty, nil
	}
}

// =============================================================================
// CONFIG
// =============================================================================

// HandleConfig shows the effective config, its path, or writes defaults.
func HandleConfig(args Args, out io.Writer) error {
	switch args.Subcommand {
	case "path":
		if args.ConfigPath != "" {
			fmt.Fprintln(out, args.ConfigPath)
			return nil
		}
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil

	case "init":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return &ValidationError{Field: "config", Value: path, Reason: "file already exists"}
		}
		if err := config.Save(config.Default()); err != nil {
			return &CommandError{Command: "config", Action: "init", Err: err}
		}
		fmt.Fprintln(out, SuccessStyle.Render("[OK]")+" Wrote "+path)
		return nil
	}

	cfg, file, err := loadConfig(args.ConfigPath)
	if err != nil {
		return err
	}
	if file == "" {
		file = "built-in defaults"
	}
	fmt.Fprintln(out, DimStyle.Render("# source: "+file))
	if err := toml.NewEncoder(out).Encode(cfg); err != nil {
		return &CommandError{Command: "config", Action: "show", Err: err}
	}
	return nil
}

// =============================================================================
// SEED
// =============================================================================

// HandleSeed (re)loads the demo catalogue and production history.
func HandleSeed(args Args, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cfg, _, err := loadConfig(args.ConfigPath)
	if err != nil {
		return err
	}
	path, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	days := args.Days
	if days == 0 {
		days = storage.DefaultSeedDays
	}
	res, err := store.Seed(ctx, days, time.Now())
	if err != nil {
		return &CommandError{Command: "seed", Action: "write", Err: err}
	}
	fmt.Fprintf(out, "%s Seeded %d projects and %d production records into %s\n",
		SuccessStyle.Render("[OK]"), res.Projects, res.Productions, store.Path())
	return nil
}

// =============================================================================
// HELP / VERSION
// =============================================================================

// HandleHelp prints usage.
func HandleHelp(out io.Writer) {
	PrintUsage(out)
}

// HandleVersion prints version information.
func HandleVersion(out io.Writer) {
	PrintVersion(out)
}

// exitMessage describes how a dashboard session ended.
func exitMessage(reason string, signOutErr error) string {
	var b strings.Builder
	switch reason {
	case "timeout":
		b.WriteString(WarningStyle.Render("Signed out after inactivity."))
	case "logout":
		b.WriteString(SuccessStyle.Render("Signed out."))
	default:
		b.WriteString("Goodbye.")
	}
	if signOutErr != nil {
		b.WriteString("\n" + WarningStyle.Render("The sign-out could not be confirmed; the session will lapse on its own."))
	}
	return b.String()
}
