// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for volzer.
//
// Supports both TOML and JSON configuration formats, with defaults,
// .env files, environment variable overrides, and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VOLZER_*), including those from .env files
//   - ~/.volzer/config.toml
//   - ~/.volzer/config.json
//   - Built-in defaults
//
// # Usage
//
//	config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.Timeout()
//
// Keys use dot notation for the CLI:
//
//	cfg.Set("backend.url", "http://localhost:3000")
//	v, _ := cfg.Get("security.max_attempts")
package config
