// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline tracks whether the university backend is reachable.
//
// A Monitor probes the backend's health endpoint on a cron schedule and
// publishes events.ConnectivityChanged when the answer changes. The status
// bar shows the resulting line for a few seconds:
//
//   - "Connecté au réseau universitaire" when the backend answers
//   - "Mode hors ligne - Fonctionnement local" otherwise
//
// Forced offline mode (VOLZER_OFFLINE=1) only lets a loopback backend,
// such as `volzer serve-mock`, be probed.
package offline
