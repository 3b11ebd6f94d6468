// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Interactive prompts for login and registration.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// Prompter asks the user for input.
type Prompter interface {
	// Line reads one line; an empty answer yields def.
	Line(label, def string) (string, error)
	// Password reads a secret without echo when possible.
	Password(label string) (string, error)
	// Confirm asks a yes/no question; the default is no.
	Confirm(question string) (bool, error)
	Close() error
}

// NewPrompter returns a line-editing prompter when in is a terminal and a
// plain line reader otherwise.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		st := liner.NewLiner()
		st.SetCtrlCAborts(true)
		return &termPrompter{line: st, fd: int(f.Fd()), out: out}
	}
	return &linePrompter{r: bufio.NewReader(in), out: out}
}

func promptText(label, def string) string {
	if def != "" {
		return fmt.Sprintf("%s [%s]: ", label, def)
	}
	return label + ": "
}

func confirmAnswer(s string) bool {
	ok, err := ParseBoolString(s)
	return err == nil && ok
}

// =============================================================================
// TERMINAL
// =============================================================================

type termPrompter struct {
	line *liner.State
	fd   int
	out  io.Writer
}

func (p *termPrompter) Line(label, def string) (string, error) {
	s, err := p.line.Prompt(promptText(label, def))
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	p.line.AppendHistory(s)
	return s, nil
}

func (p *termPrompter) Password(label string) (string, error) {
	fmt.Fprint(p.out, label+": ")
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *termPrompter) Confirm(question string) (bool, error) {
	s, err := p.Line(question+" (o/n)", "")
	if err != nil {
		return false, err
	}
	return confirmAnswer(s), nil
}

func (p *termPrompter) Close() error {
	return p.line.Close()
}

// =============================================================================
// PIPED INPUT
// =============================================================================

type linePrompter struct {
	r   *bufio.Reader
	out io.Writer
}

func (p *linePrompter) read() (string, error) {
	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *linePrompter) Line(label, def string) (string, error) {
	fmt.Fprint(p.out, promptText(label, def))
	s, err := p.read()
	if err != nil {
		return "", err
	}
	if s = strings.TrimSpace(s); s == "" {
		return def, nil
	}
	return s, nil
}

func (p *linePrompter) Password(label string) (string, error) {
	fmt.Fprint(p.out, label+": ")
	s, err := p.read()
	fmt.Fprintln(p.out)
	return s, err
}

func (p *linePrompter) Confirm(question string) (bool, error) {
	s, err := p.Line(question+" (o/n)", "")
	if err != nil {
		return false, err
	}
	return confirmAnswer(s), nil
}

func (p *linePrompter) Close() error { return nil }
