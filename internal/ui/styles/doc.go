// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the volzer TUI.

Colors are Lip Gloss AdaptiveColor values resolved against the theme's
renderer, so a theme forced to "light" or "dark" renders consistently even
when the terminal background cannot be queried.

	theme := styles.NewTheme(cfg.UI.Theme)
	box := theme.ToastStyle(events.KindError).Render(msg)
*/
package styles
