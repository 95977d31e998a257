// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package help renders usage text for a grammar.Command.
package help

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/yeetrun/clipstick/pkg/grammar"
	"golang.org/x/term"
)

const (
	helpFlagShort = "-h"
	helpFlagLong  = "--help"

	nameWidth = 28
)

// Options control rendering.
type Options struct {
	// Color enables ANSI colour. See ColorFor.
	Color bool
	// Inherited lists the commands above the rendered one, outermost first.
	// Their flags are accepted after the rendered command's name and are
	// listed under GLOBAL OPTIONS.
	Inherited []*grammar.Command
}

var isTerminalFn = term.IsTerminal

// ColorFor reports whether output written to f should be coloured: f must
// be a terminal, NO_COLOR must be unset and TERM must not be "dumb".
func ColorFor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminalFn(int(f.Fd()))
}

type palette struct {
	heading *color.Color
	name    *color.Color
	dim     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		heading: color.New(color.Bold, color.Underline),
		name:    color.New(color.FgCyan),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.heading, p.name, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// String returns the help text for cmd.
func String(cmd *grammar.Command, opts Options) string {
	var b strings.Builder
	p := newPalette(opts.Color)

	if cmd.Doc != "" {
		b.WriteString(cmd.Doc)
		b.WriteString("\n\n")
	}

	b.WriteString(p.heading.Sprint("USAGE:"))
	b.WriteString("\n")
	b.WriteString("    " + usage(cmd))
	b.WriteString("\n\n")

	if len(cmd.Positionals) > 0 {
		b.WriteString(p.heading.Sprint("ARGUMENTS:"))
		b.WriteString("\n")
		for _, f := range cmd.Positionals {
			writeRow(&b, p, argName(f), describe(f))
		}
		b.WriteString("\n")
	}

	b.WriteString(p.heading.Sprint("OPTIONS:"))
	b.WriteString("\n")
	for _, f := range cmd.Flags {
		writeRow(&b, p, flagName(f), describe(f))
	}
	writeRow(&b, p, helpFlagShort+", "+helpFlagLong, "Show this help message")
	b.WriteString("\n")

	var global []grammar.Field
	for _, parent := range opts.Inherited {
		global = append(global, parent.Flags...)
	}
	if len(global) > 0 {
		b.WriteString(p.heading.Sprint("GLOBAL OPTIONS:"))
		b.WriteString("\n")
		for _, f := range global {
			writeRow(&b, p, flagName(f), describe(f))
		}
		b.WriteString("\n")
	}

	if !cmd.Leaf() {
		b.WriteString(p.heading.Sprint("COMMANDS:"))
		b.WriteString("\n")
		for _, name := range cmd.Order {
			writeRow(&b, p, name, cmd.Children[name].Doc)
		}
		b.WriteString("\n")
		b.WriteString(p.dim.Sprintf("Run '%s COMMAND --help' for more information on a command.", cmd.DisplayName))
		b.WriteString("\n")
	}
	return b.String()
}

// Render writes the help text for cmd to w.
func Render(w io.Writer, cmd *grammar.Command, opts Options) error {
	_, err := io.WriteString(w, String(cmd, opts))
	return err
}

// usage returns the one-line usage of cmd.
func usage(cmd *grammar.Command) string {
	parts := []string{cmd.DisplayName, "[OPTIONS]"}
	for _, f := range cmd.Positionals {
		parts = append(parts, "<"+argName(f)+">")
	}
	if !cmd.Leaf() {
		parts = append(parts, "COMMAND")
	}
	return strings.Join(parts, " ")
}

func argName(f grammar.Field) string {
	return strings.ToUpper(strings.ReplaceAll(f.CLIName, "-", "_"))
}

func flagName(f grammar.Field) string {
	name := "--" + f.CLIName
	if f.IsBool() {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, f.TypeName())
}

func describe(f grammar.Field) string {
	var parts []string
	if f.Doc != "" {
		parts = append(parts, f.Doc)
	}
	if f.Kind == grammar.Positional {
		parts = append(parts, "("+f.TypeName()+")")
	}
	if f.HasDefault && f.Default != "" {
		parts = append(parts, fmt.Sprintf("(default: %s)", f.Default))
	}
	if f.Env != "" {
		parts = append(parts, fmt.Sprintf("[env: %s]", f.Env))
	}
	return strings.Join(parts, " ")
}

// writeRow pads name before colouring it so escape codes do not skew the
// column.
func writeRow(b *strings.Builder, p palette, name, desc string) {
	if desc == "" {
		b.WriteString("    " + p.name.Sprint(name) + "\n")
		return
	}
	padded := fmt.Sprintf("%-*s", nameWidth-4, name)
	if len(name) >= nameWidth-4 {
		padded = name + " "
	}
	b.WriteString("    " + p.name.Sprint(padded) + " " + desc + "\n")
}
