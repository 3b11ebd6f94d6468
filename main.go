// volzer - terminal client for the Volzer Université network.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jeranaias/volzer-tui/internal/app"
	"github.com/jeranaias/volzer-tui/internal/cli"
	"github.com/jeranaias/volzer-tui/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.4.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	started := time.Now()
	cmd, args := cli.Parse()
	os.Exit(run(cmd, args, started))
}

func run(cmd cli.Command, args cli.Args, started time.Time) int {
	fail := func(err error) int {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.GetExitCode(err)
	}

	// Commands that need no configuration.
	switch cmd {
	case cli.CmdVersion:
		if err := cli.HandleVersion(os.Stdout, args); err != nil {
			return fail(err)
		}
		return cli.ExitSuccess
	case cli.CmdHelp:
		out := io.Writer(os.Stdout)
		if args.Unknown != "" {
			out = os.Stderr
		}
		if err := cli.HandleHelp(out, args); err != nil {
			return fail(err)
		}
		return cli.ExitSuccess
	}

	cfg, cfgPath, err := cli.LoadConfig(args)
	if err != nil {
		return fail(err)
	}

	logger := logging.Discard()
	if path, err := cfg.LogFile(); err == nil {
		if l, closer, err := logging.OpenFile(path, cfg.Logging.Level); err == nil {
			logger = l
			defer closer.Close()
		} else {
			fmt.Fprintf(os.Stderr, "volzer: log file unavailable: %v\n", err)
		}
	}

	env := cli.NewEnv(cfg, cfgPath, logger)
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	env.Ctx = ctx

	// Commands that do not open the state store.
	switch cmd {
	case cli.CmdConfig:
		if err := cli.HandleConfig(env, args); err != nil {
			return fail(err)
		}
		return cli.ExitSuccess
	case cli.CmdServeMock:
		if err := cli.HandleServeMock(env, args); err != nil {
			return fail(err)
		}
		return cli.ExitSuccess
	}

	a, err := app.New(cfg, logger, app.WithVersion(Version))
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	env.App = a

	switch cmd {
	case cli.CmdTUI:
		err = cli.RunTUI(env, args, started)
	case cli.CmdLogin:
		err = cli.HandleLogin(env, args)
	case cli.CmdRegister:
		err = cli.HandleRegister(env, args)
	case cli.CmdLogout:
		err = cli.HandleLogout(env, args)
	case cli.CmdStatus:
		err = cli.HandleStatus(env, args)
	case cli.CmdDashboard:
		err = cli.HandleDashboard(env, args)
	case cli.CmdLockout:
		err = cli.HandleLockout(env, args)
	case cli.CmdAnalytics:
		err = cli.HandleAnalytics(env, args)
	default:
		err = cli.HandleHelp(os.Stderr, args)
	}
	if err != nil {
		return fail(err)
	}
	return cli.ExitSuccess
}
