// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// analytics_cmd.go - The local analytics log.
//
// Command: analytics [subcommand]
//
// Subcommands:
//
//	list (default)      Show recorded events, oldest first
//	clear [--yes]       Delete the log
//
// Flags:
//
//	--format table|json|yaml
//	--limit N           Only the last N events
package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/util"
)

var analyticsFormats = []string{"table", "json", "yaml"}

// eventDataWidth bounds the data column of the table.
const eventDataWidth = 48

var (
	analyticsTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(21)
	analyticsNameStyle  = lipgloss.NewStyle().Bold(true).Width(18)
	analyticsRouteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Width(22)
)

// HandleAnalytics dispatches the analytics subcommands.
func HandleAnalytics(e *Env, args Args) error {
	if err := e.requireApp("analytics"); err != nil {
		return err
	}
	switch args.Subcommand {
	case "", "list", "ls":
		return handleAnalyticsList(e, args)
	case "clear":
		return handleAnalyticsClear(e, args)
	default:
		return ErrUnknownSubcommand("analytics", args.Subcommand, "list", "clear")
	}
}

func handleAnalyticsList(e *Env, args Args) error {
	p := args.Flags()
	format := p.FlagOrDefault("format", "table")
	if args.JSON {
		format = "json"
	}
	limit, ok, err := p.FlagInt("limit")
	if err != nil {
		return err
	}
	if ok && limit < 0 {
		return NewValidationErrorWithExample("limit", fmt.Sprint(limit), "must not be negative", "--limit 20")
	}

	events := e.App.Analytics.Events()
	if ok && limit < len(events) {
		events = events[len(events)-limit:]
	}

	switch format {
	case "json":
		if args.JSON {
			return NewJSONResponse("analytics list", events).Write(e.Out)
		}
		b, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(e.Out, highlight(e.Out, string(b), "json"))
		return nil
	case "yaml":
		b, err := yaml.Marshal(events)
		if err != nil {
			return err
		}
		fmt.Fprint(e.Out, highlight(e.Out, string(b), "yaml"))
		return nil
	case "table":
		printEventTable(e, events)
		return nil
	default:
		return ErrUnsupportedFormat(format, analyticsFormats)
	}
}

func printEventTable(e *Env, events []model.Event) {
	if len(events) == 0 {
		fmt.Fprintln(e.Out, DimStyle.Render("Aucun événement enregistré."))
		return
	}
	for _, ev := range events {
		fmt.Fprintln(e.Out,
			analyticsTimeStyle.Render(ev.Timestamp.Local().Format("2006-01-02 15:04:05"))+
				analyticsNameStyle.Render(ev.Name)+
				analyticsRouteStyle.Render(ev.URL)+
				DimStyle.Render(util.TruncateWidth(formatEventData(ev.Data), eventDataWidth)))
	}
	fmt.Fprintln(e.Out, DimStyle.Render(fmt.Sprintf("%d événement(s)", len(events))))
}

// formatEventData renders data as sorted key=value pairs.
func formatEventData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func handleAnalyticsClear(e *Env, args Args) error {
	n := e.App.Analytics.Len()
	ok, err := e.RequireConfirmation(fmt.Sprintf("Supprimer %d événement(s) ?", n), ConfirmationOptions{
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
	if err := e.App.Analytics.Clear(); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("analytics clear", map[string]any{"cleared": n}).Write(e.Out)
	}
	fmt.Fprintf(e.Out, "%s %d événement(s) supprimé(s).\n", SuccessStyle.Render("[OK]"), n)
	return nil
}
