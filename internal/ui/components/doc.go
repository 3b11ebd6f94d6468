// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI building blocks of the volzer TUI.

  - MessageSurface (message.go): the single toast slot fed by events.Message.
  - LockoutOverlay (lockout_overlay.go): blocking overlay with a one-second
    countdown; emits LockoutExpiredMsg when the deadline passes.
  - StatusBar (statusbar.go): connectivity changes shown for a few seconds
    plus key hints.
  - Field (field.go): labelled textinput with error line, temporary
    highlight and password reveal toggle.

Components are plain values driven by the app model; none of them reads the
clock on its own.
*/
package components
