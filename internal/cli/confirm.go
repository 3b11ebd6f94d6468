// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
//  1. --yes (or --confirm) proceeds without asking.
//  2. --json requires --yes; JSON mode never prompts.
//  3. A non-terminal stdin requires --yes.
//  4. Otherwise the user is asked.
package cli

import (
	"fmt"
)

// ConfirmationOptions describes how a command was invoked.
type ConfirmationOptions struct {
	Yes      bool
	JSONMode bool
}

// confirmFlag reports whether the command line already confirms.
func confirmFlag(p *ArgParser) bool {
	return p.BoolFlag("yes", "y", "confirm")
}

// RequireConfirmation asks question unless opts already confirm. It
// returns false without error when the user declines.
func (e *Env) RequireConfirmation(question string, opts ConfirmationOptions) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if opts.JSONMode {
		return false, NewValidationErrorWithExample("yes", "", "confirmation required in JSON mode", "--yes")
	}
	if !e.Interactive {
		return false, &TTYRequiredError{Operation: "confirm; pass --yes"}
	}
	return e.Prompter().Confirm(question)
}

// printCancelled tells the user nothing happened.
func (e *Env) printCancelled() {
	fmt.Fprintln(e.Out, DimStyle.Render("Annulé."))
}
