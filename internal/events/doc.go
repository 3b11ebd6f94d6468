// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events is the typed publish/subscribe channel between the auth
// components and whatever renders them (the TUI or the CLI printer).
//
// Each payload is a plain struct; subscribers register per type:
//
//	sub := events.Subscribe(bus, func(m events.Message) { ... })
//	defer sub.Unsubscribe()
//
// Nothing is torn down implicitly. Screens keep their subscriptions in a
// Group and release them when they exit.
package events
