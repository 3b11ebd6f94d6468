// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve_cmd.go - The development backend.
//
// Command: serve-mock [flags]
// Aliases: mock
//
// Flags:
//
//	--addr HOST:PORT    Listen address (default: 127.0.0.1:3000)
//	--latency D         Delay every API response, e.g. 800ms
//	--rate-limit N      Logins per minute and IP, 0 disables
//	--seed              Create the demo account demo@volzer.edu / demo123
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/volzer-tui/internal/logging"
	"github.com/jeranaias/volzer-tui/internal/mockserver"
	"github.com/jeranaias/volzer-tui/internal/model"
)

// Demo account created by --seed.
const (
	demoEmail    = "demo@volzer.edu"
	demoPassword = "demo123"
)

// HandleServeMock runs the mock backend until interrupted.
func HandleServeMock(e *Env, args Args) error {
	p := args.Flags()

	opts := []mockserver.Option{
		mockserver.WithLogger(logging.New(e.Err, e.Config.Logging.Level)),
	}
	if v := p.Flag("latency"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return NewValidationErrorWithExample("latency", v, "must be a duration", "--latency 800ms")
		}
		opts = append(opts, mockserver.WithLatency(d))
	}
	if n, ok, err := p.FlagInt("rate-limit"); err != nil {
		return err
	} else if ok {
		opts = append(opts, mockserver.WithLoginRateLimit(n))
	}
	if secret := os.Getenv("VOLZER_MOCK_SECRET"); secret != "" {
		opts = append(opts, mockserver.WithSecret([]byte(secret)))
	}

	srv := mockserver.New(opts...)
	if p.BoolFlag("seed") {
		if _, err := srv.Users().Create(model.RegistrationData{
			Prenom:          "Démo",
			Nom:             "Démo Volzer",
			Email:           demoEmail,
			Password:        demoPassword,
			ConfirmPassword: demoPassword,
			Filiere:         model.Programs[0],
		}); err != nil {
			return NewCommandError("serve-mock", "seed", "demo account", err)
		}
		fmt.Fprintf(e.Err, "%s %s / %s\n", InfoStyle.Render("compte de démo:"), demoEmail, demoPassword)
	}

	ctx, stop := signal.NotifyContext(e.ctx(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := p.FlagOrDefault("addr", mockserver.DefaultAddr)
	if err := srv.ListenAndServe(ctx, addr); err != nil && ctx.Err() == nil {
		return NewCommandError("serve-mock", "listen", addr, err)
	}
	return nil
}
