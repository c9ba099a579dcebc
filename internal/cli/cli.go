// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLanding
	CmdPortfolio
	CmdBuy
	CmdConfig
	CmdSeed
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Email      string
	ConfigPath string
	Debug      bool
	NoLanding  bool

	// Command-specific
	Subcommand string
	ProjectID  string
	Quantity   int
	Days       int
}

const usageText = `greenshare - renewable energy investor terminal

Usage:
  greenshare [tui]                     Open the investor dashboard (default)
  greenshare landing                   Show the public landing page
  greenshare portfolio                 Print a portfolio summary
  greenshare buy <project> [qty]       Buy shares (prompts for qty when omitted)
  greenshare config [show|path|init]   Show, locate or create the config
  greenshare seed [--days N]           Load demo projects and production
  greenshare version                   Show version information

Global flags:
  --email <address>    Sign in as this investor (default: account.email)
  --config <path>      Read this config file instead of ~/.greenshare/config.toml
  --debug              Show raw error details
  --no-landing         Skip the landing page before the dashboard

Idle sessions are signed out after session.timeout_secs seconds, with a
warning session.warning_secs seconds before.

Version: %s
`

var boolFlags = []string{"debug", "no-landing", "help", "h", "version", "v"}

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "greenshare version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		Email:      strings.TrimSpace(p.Flag("email", "e")),
		ConfigPath: p.Flag("config", "c"),
		Debug:      p.BoolFlag("debug"),
		NoLanding:  p.BoolFlag("no-landing"),
	}

	if p.BoolFlag("help", "h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version", "v") {
		return CmdVersion, args, nil
	}
	if p.PositionalCount() == 0 {
		return CmdTUI, args, nil
	}

	cmd := strings.ToLower(p.Positional(0))
	switch cmd {
	case "tui", "dashboard":
		return CmdTUI, args, nil

	case "landing", "home":
		return CmdLanding, args, nil

	case "portfolio", "p":
		return CmdPortfolio, args, nil

	case "buy":
		args.ProjectID = p.Positional(1)
		if args.ProjectID == "" {
			return CmdBuy, args, &UsageError{Usage: "greenshare buy <project> [qty]", Msg: "missing project id"}
		}
		if q := p.Flag("qty", "n"); q != "" || p.Positional(2) != "" {
			if q == "" {
				q = p.Positional(2)
			}
			n, err := ParsePositiveInt(q, "quantity")
			if err != nil {
				return CmdBuy, args, err
			}
			args.Quantity = n
		}
		return CmdBuy, args, nil

	case "config":
		args.Subcommand = strings.ToLower(p.Positional(1))
		switch args.Subcommand {
		case "":
			args.Subcommand = "show"
		case "show", "path", "init":
		default:
			return CmdConfig, args, &UsageError{Usage: "greenshare config [show|path|init]", Msg: "unknown config subcommand: " + args.Subcommand}
		}
		return CmdConfig, args, nil

	case "seed":
		if d := p.Flag("days"); d != "" {
			n, err := ParsePositiveInt(d, "days")
			if err != nil {
				return CmdSeed, args, err
			}
			args.Days = n
		}
		return CmdSeed, args, nil

	case "version":
		return CmdVersion, args, nil

	case "help":
		return CmdHelp, args, nil
	}

	return CmdHelp, args, &UsageError{Usage: "greenshare help", Msg: "unknown command: " + cmd}
}
