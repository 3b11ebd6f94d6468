// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and usage for volzer.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (overridden from main at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdRegister
	CmdLogout
	CmdStatus
	CmdDashboard
	CmdLockout
	CmdAnalytics
	CmdConfig
	CmdServeMock
	CmdVersion
	CmdHelp
)

// String returns the command name as typed by the user.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdLogin:
		return "login"
	case CmdRegister:
		return "register"
	case CmdLogout:
		return "logout"
	case CmdStatus:
		return "status"
	case CmdDashboard:
		return "dashboard"
	case CmdLockout:
		return "lockout"
	case CmdAnalytics:
		return "analytics"
	case CmdConfig:
		return "config"
	case CmdServeMock:
		return "serve-mock"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool
	ConfigPath string
	Backend    string
	StateDir   string

	// Subcommand is the first positional argument after the command.
	Subcommand string

	// Raw holds the arguments after the command, global flags removed.
	Raw []string

	// Unknown is set when the command word was not recognised.
	Unknown string

	parser *ArgParser
}

// Flags returns the command-specific flag parser.
func (a Args) Flags() *ArgParser {
	if a.parser == nil {
		return NewArgParser(a.Raw)
	}
	return a.parser
}

var commandNames = map[string]Command{
	"tui":        CmdTUI,
	"login":      CmdLogin,
	"signin":     CmdLogin,
	"register":   CmdRegister,
	"signup":     CmdRegister,
	"logout":     CmdLogout,
	"status":     CmdStatus,
	"s":          CmdStatus,
	"dashboard":  CmdDashboard,
	"me":         CmdDashboard,
	"lockout":    CmdLockout,
	"lock":       CmdLockout,
	"analytics":  CmdAnalytics,
	"config":     CmdConfig,
	"serve-mock": CmdServeMock,
	"mock":       CmdServeMock,
	"version":    CmdVersion,
	"help":       CmdHelp,
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs splits argv into the command and its arguments. Global flags
// may appear anywhere. Without a command the TUI starts.
func ParseArgs(argv []string) (Command, Args) {
	var args Args
	var rest []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name, value, hasValue := strings.Cut(arg, "=")

		takeValue := func() string {
			if hasValue {
				return value
			}
			if i+1 < len(argv) {
				i++
				return argv[i]
			}
			return ""
		}

		switch name {
		case "--json":
			args.JSON = !hasValue || value == "true"
		case "--config", "-c":
			args.ConfigPath = takeValue()
		case "--backend":
			args.Backend = takeValue()
		case "--state-dir":
			args.StateDir = takeValue()
		case "--version", "-V":
			return CmdVersion, args
		case "--help", "-h":
			if len(rest) == 0 {
				return CmdHelp, args
			}
			rest = append(rest, arg)
		default:
			rest = append(rest, arg)
		}
	}

	cmd := CmdTUI
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		c, ok := commandNames[rest[0]]
		if !ok {
			args.Unknown = rest[0]
			return CmdHelp, args
		}
		cmd = c
		rest = rest[1:]
	}

	args.Raw = rest
	args.parser = NewArgParser(rest)
	args.Subcommand = args.parser.Subcommand()
	return cmd, args
}

const usageText = `volzer - terminal client for the Volzer Université network

Usage:
  volzer                          Start the interactive client (default)
  volzer tui [--route R]          Start the interactive client on route R
  volzer login                    Sign in
      --email E                   Email (prompted when absent)
      --password-stdin            Read the password from stdin
      --remember                  Remember the email for the next login
      --redirect R                Local route to open after login
  volzer register                 Create an account (prompts for each field)
      --prenom --nom --email --telephone --filiere --newsletter
  volzer logout [--yes]           Sign out (asks for confirmation)
  volzer status, s                Session, lockout and connectivity
  volzer dashboard, me            Show the profile card
  volzer lockout [status|reset]   Show or clear the login lockout
  volzer analytics [list|clear]   Local analytics log
      --format table|json|yaml    Output format (default: table)
      --limit N                   Show the last N events
  volzer config [show|get|set|keys|path|init]
                                  Configuration
  volzer serve-mock [--addr A]    Run the development backend
  volzer version                  Version information
  volzer help                     This help

Global flags:
  --json                          Machine-readable output
  --config PATH                   Config file (default: ~/.volzer/config.toml)
  --backend URL                   Backend base URL
  --state-dir DIR                 Where the local state is kept

Environment:
  VOLZER_HOME, VOLZER_BACKEND_URL, VOLZER_TIMEOUT, VOLZER_OFFLINE,
  VOLZER_STATE_DIR, VOLZER_STORE, VOLZER_THEME, VOLZER_LOG_LEVEL
  A .env file in the working directory or in VOLZER_HOME is read first.
`

// PrintUsage writes the help text to stdout.
func PrintUsage() {
	WriteUsage(os.Stdout)
}

// WriteUsage writes the help text to w.
func WriteUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// VersionData is the payload of "version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if args.JSON {
		return NewJSONResponse("version", data).Write(w)
	}
	fmt.Fprintf(w, "volzer %s (%s, %s) %s %s\n",
		data.Version, data.GitCommit, data.BuildDate, data.GoVersion, data.Platform)
	return nil
}

// HandleHelp prints usage, preceded by an error for an unknown command.
func HandleHelp(w io.Writer, args Args) error {
	WriteUsage(w)
	if args.Unknown != "" {
		return NewValidationErrorWithExample("command", args.Unknown, "unknown command", "volzer help")
	}
	return nil
}
