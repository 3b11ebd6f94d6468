// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the volzer command line and runs its commands.
//
// Every command except the interactive client also works without a
// terminal: flags replace prompts, --json replaces styled output and exit
// codes tell scripts what went wrong.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdLogin:
//	    err = cli.HandleLogin(env, args)
//	case cli.CmdStatus:
//	    err = cli.HandleStatus(env, args)
//	// ...
//	}
//	if err != nil {
//	    cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - tui: the full-screen client (default)
//   - login, register, logout: the auth flows
//   - status, dashboard: session and profile
//   - lockout: inspect or reset the login lockout
//   - analytics: the local event log
//   - config: show and edit the configuration
//   - serve-mock: a development backend
//
// # Exit codes
//
//	0  success
//	1  general error
//	2  usage or validation error
//	3  configuration error
//	4  authentication refused
//	5  network error
//	6  locked out
//	7  not found
//	8  timeout
package cli
