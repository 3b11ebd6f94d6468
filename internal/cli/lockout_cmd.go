// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// lockout_cmd.go - Login lockout inspection and reset.
//
// Command: lockout [subcommand]
// Aliases: lock
//
// Subcommands:
//
//	status (default)    Failed attempts, threshold and time left
//	reset [--yes]       Clear the counter and any active lockout
//
// Examples:
//
//	volzer lockout
//	volzer lockout status --json
//	volzer lockout reset --yes
package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jeranaias/volzer-tui/internal/security"
)

// HandleLockout dispatches the lockout subcommands.
func HandleLockout(e *Env, args Args) error {
	if err := e.requireApp("lockout"); err != nil {
		return err
	}
	switch args.Subcommand {
	case "", "status":
		return handleLockoutStatus(e, args)
	case "reset", "clear":
		return handleLockoutReset(e, args)
	default:
		return ErrUnknownSubcommand("lockout", args.Subcommand, "status", "reset")
	}
}

// lockoutData builds the JSON view of st at now.
func lockoutData(st security.State, duration time.Duration, now time.Time) LockoutData {
	return LockoutData{
		State:            st,
		Remaining:        st.Remaining(),
		SecondsRemaining: int(st.TimeRemaining(now).Round(time.Second).Seconds()),
		Duration:         duration.String(),
	}
}

func handleLockoutStatus(e *Env, args Args) error {
	l := e.App.Lockout
	st, err := l.Status()
	if err != nil {
		return err
	}
	data := lockoutData(st, l.LockoutDuration(), time.Now())

	if args.JSON {
		return NewJSONResponse("lockout status", data).Write(e.Out)
	}

	fmt.Fprintln(e.Out, TitleStyle.Render("Verrouillage de connexion"))
	fmt.Fprintln(e.Out, RenderSeparator(50))
	printLockout(e.Out, data)
	fmt.Fprintln(e.Out, RenderRow("Durée", formatDuration(l.LockoutDuration())))
	return nil
}

// printLockout writes the lockout rows shared by "status" and "lockout".
func printLockout(w io.Writer, d LockoutData) {
	attempts := fmt.Sprintf("%d / %d", d.FailedAttempts, d.MaxAttempts)
	fmt.Fprintln(w, RenderRow("Tentatives échouées", attempts))
	if d.Locked {
		fmt.Fprintln(w, RenderRow("État", ErrorStyle.Render("verrouillé")))
		fmt.Fprintln(w, RenderRow("", DimStyle.Render(security.Countdown(time.Duration(d.SecondsRemaining)*time.Second))))
		return
	}
	fmt.Fprintln(w, RenderRow("État", SuccessStyle.Render("ouvert")))
	fmt.Fprintln(w, RenderRow("Essais restants", strconv.Itoa(d.Remaining)))
}

func handleLockoutReset(e *Env, args Args) error {
	ok, err := e.RequireConfirmation("Réinitialiser le compteur de tentatives ?", ConfirmationOptions{
		Yes:      confirmFlag(args.Flags()),
		JSONMode: args.JSON,
	})
	if err != nil {
		return err
	}
	if !ok {
		e.printCancelled()
		return nil
	}

	if err := e.App.Lockout.Reset(); err != nil {
		return err
	}
	e.Logger.Info("lockout reset from command line")

	if args.JSON {
		return NewJSONResponse("lockout reset", map[string]any{"reset": true}).Write(e.Out)
	}
	fmt.Fprintf(e.Out, "%s Compteur de tentatives réinitialisé.\n", SuccessStyle.Render("[OK]"))
	return nil
}
