// greenshare - terminal investor space for community renewable energy projects.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"io"
	"os"

	"github.com/greenshare/greenshare-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(stderr, err, args.Debug)
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdTUI:
		err = cli.HandleTUI(args, stdout)
	case cli.CmdLanding:
		err = cli.HandleLanding(args, stdout)
	case cli.CmdPortfolio:
		err = cli.HandlePortfolio(args, stdout)
	case cli.CmdBuy:
		err = cli.HandleBuy(args, stdout)
	case cli.CmdConfig:
		err = cli.HandleConfig(args, stdout)
	case cli.CmdSeed:
		err = cli.HandleSeed(args, stdout)
	case cli.CmdVersion:
		cli.HandleVersion(stdout)
	case cli.CmdHelp:
		cli.HandleHelp(stdout)
	}

	if err != nil {
		cli.DisplayError(stderr, err, args.Debug)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
