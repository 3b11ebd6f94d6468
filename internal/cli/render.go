// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Markdown and syntax-highlighted output for terminals.
package cli

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// markdownWidth is the widest wrap column for rendered cards.
const markdownWidth = 72

// wrapColumn fits the card into a terminal of the given width, leaving
// room for glamour's margins.
func wrapColumn(width int) int {
	if col := width - 4; col < markdownWidth {
		return col
	}
	return markdownWidth
}

// renderMarkdown renders md for w. Terminals get the auto style; anything
// else gets glamour's plain "notty" style. The source is returned when
// rendering fails.
func renderMarkdown(w io.Writer, md string) string {
	style := glamour.WithStandardStyle("notty")
	wrap := markdownWidth
	if isTerminalWriter(w) {
		wrap = wrapColumn(GetTerminalWidth())
		if ColorsEnabled() {
			style = glamour.WithAutoStyle()
		}
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// highlight colours code in language for w. Piped output is returned as is
// so it stays machine readable.
func highlight(w io.Writer, code, language string) string {
	if !isTerminalWriter(w) || !ColorsEnabled() {
		return code
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, it); err != nil {
		return code
	}
	return buf.String()
}
