// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The config command.
//
// Subcommands:
//
//	show (default)      Effective configuration (file, .env, environment, flags)
//	get <key>           One value, e.g. backend.url
//	set <key> <value>   Write one value to the config file
//	keys                Every settable key
//	path                Where the config file lives
//	init [--force]      Write the defaults
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/volzer-tui/internal/config"
)

// ConfigPathData is the payload of "config path --json".
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// HandleConfig dispatches the config subcommands. It needs no App.
func HandleConfig(e *Env, args Args) error {
	p := args.Flags()
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(e, args)
	case "get":
		return handleConfigGet(e, args, p.Positional(1))
	case "set":
		return handleConfigSet(e, args, p.Positional(1), strings.Join(p.PositionalFrom(2), " "))
	case "keys", "list":
		return handleConfigKeys(e, args)
	case "path":
		return handleConfigPath(e, args)
	case "init":
		return handleConfigInit(e, args, p.BoolFlag("force", "f"))
	default:
		return ErrUnknownSubcommand("config", args.Subcommand, "show", "get", "set", "keys", "path", "init")
	}
}

func handleConfigShow(e *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("config show", e.Config).Write(e.Out)
	}
	fmt.Fprintln(e.Out, DimStyle.Render("# "+e.ConfigPath))
	return toml.NewEncoder(e.Out).Encode(e.Config)
}

func handleConfigGet(e *Env, args Args, key string) error {
	if key == "" {
		return ErrMissingArgument("key", "volzer config get backend.url")
	}
	v, err := e.Config.Get(key)
	if err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "volzer config keys")
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]any{"key": key, "value": v}).Write(e.Out)
	}
	fmt.Fprintln(e.Out, v)
	return nil
}

// handleConfigSet edits the file itself so environment and flag overrides
// are not written back.
func handleConfigSet(e *Env, args Args, key, value string) error {
	if key == "" || value == "" {
		return ErrMissingArgument("key value", "volzer config set backend.url http://localhost:3000")
	}

	cfg := config.Default()
	if _, err := os.Stat(e.ConfigPath); err == nil {
		load := config.LoadTOML
		if strings.HasSuffix(e.ConfigPath, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, e.ConfigPath); err != nil {
			return &ConfigError{Path: e.ConfigPath, Err: err}
		}
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "volzer config keys")
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Path: e.ConfigPath, Err: err}
	}
	if err := writeConfig(cfg, e.ConfigPath); err != nil {
		return err
	}
	e.Logger.Info("config updated", "key", key)

	v, _ := cfg.Get(key)
	if args.JSON {
		return NewJSONResponse("config set", map[string]any{"key": key, "value": v, "path": e.ConfigPath}).Write(e.Out)
	}
	fmt.Fprintf(e.Out, "%s %s = %v\n", SuccessStyle.Render("[OK]"), key, v)
	return nil
}

func handleConfigKeys(e *Env, args Args) error {
	keys := config.AllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Write(e.Out)
	}
	for _, k := range keys {
		v, _ := e.Config.Get(k)
		fmt.Fprintln(e.Out, RenderRow(k, fmt.Sprint(v)))
	}
	return nil
}

func handleConfigPath(e *Env, args Args) error {
	_, err := os.Stat(e.ConfigPath)
	data := ConfigPathData{Path: e.ConfigPath, Exists: err == nil}
	if args.JSON {
		return NewJSONResponse("config path", data).Write(e.Out)
	}
	fmt.Fprintln(e.Out, data.Path)
	return nil
}

func handleConfigInit(e *Env, args Args, force bool) error {
	if _, err := os.Stat(e.ConfigPath); err == nil && !force {
		return &ConfigError{Path: e.ConfigPath, Err: errors.New("already exists; pass --force to overwrite")}
	}
	cfg := config.Default()
	if err := writeConfig(cfg, e.ConfigPath); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config init", ConfigPathData{Path: e.ConfigPath, Exists: true}).Write(e.Out)
	}
	fmt.Fprintf(e.Out, "%s %s\n", SuccessStyle.Render("[OK]"), e.ConfigPath)
	return nil
}

// writeConfig saves cfg in the format the path's extension names.
func writeConfig(cfg *config.Config, path string) error {
	save := config.SaveTOML
	if strings.HasSuffix(path, ".json") {
		save = config.SaveJSON
	}
	if err := save(cfg, path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}
