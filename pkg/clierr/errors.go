// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clierr defines the errors returned while deriving a grammar from a
// schema and while matching command-line tokens against it.
//
// Every error aborts the parse it was raised in. HelpRequested is returned
// through the same channel but is not a failure; use IsHelp to tell them
// apart.
package clierr

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports a malformed schema. It is detected before any token
// is read.
type SchemaError struct {
	Type   string // Go type the problem was found in
	Field  string // Go field name, if the problem is field-specific
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Type != "" && e.Field != "":
		return fmt.Sprintf("schema error: %s.%s: %s", e.Type, e.Field, e.Reason)
	case e.Type != "":
		return fmt.Sprintf("schema error: %s: %s", e.Type, e.Reason)
	}
	return "schema error: " + e.Reason
}

// MissingValueError is returned when a positional or flag value token is
// absent, or the token in its place is itself a flag.
type MissingValueError struct {
	Command string // display name of the command
	Field   string // CLI name of the field
	Flag    bool   // true if the field is a flag
	Got     string // offending token, empty if input ran out
}

func (e *MissingValueError) Error() string {
	name := e.Field
	if e.Flag {
		name = "--" + e.Field
	}
	if e.Got != "" {
		return fmt.Sprintf("missing value for %s (got flag %s)", name, e.Got)
	}
	return fmt.Sprintf("missing value for %s", name)
}

// TypeCoercionError is returned when a token cannot be converted to the
// field's type.
type TypeCoercionError struct {
	Field  string // CLI name of the field
	Value  string
	Type   string
	Source string // "argument", "default", "env" or "config"
	Err    error
}

func (e *TypeCoercionError) Error() string {
	src := ""
	if e.Source != "" && e.Source != "argument" {
		src = " from " + e.Source
	}
	return fmt.Sprintf("invalid value %q for %s%s: expected %s", e.Value, e.Field, src, e.Type)
}

func (e *TypeCoercionError) Unwrap() error {
	return e.Err
}

// UnknownFlagError is returned when a --flag token matched no flag of any
// command on the active path.
type UnknownFlagError struct {
	Flag    string
	Command string
}

func (e *UnknownFlagError) Error() string {
	return fmt.Sprintf("unknown flag: %s", e.Flag)
}

// UnknownSubcommandError is returned when the token in subcommand position
// matched no variant. Suggestion, if present, is a close match.
type UnknownSubcommandError struct {
	Name       string
	Command    string
	Valid      []string
	Suggestion string
}

func (e *UnknownSubcommandError) Error() string {
	msg := fmt.Sprintf("unknown subcommand: %s (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

// MissingSubcommandError is returned when a command requires a subcommand
// but no token remained.
type MissingSubcommandError struct {
	Command string
	Valid   []string
}

func (e *MissingSubcommandError) Error() string {
	return fmt.Sprintf("'%s' requires a subcommand: %s", e.Command, strings.Join(e.Valid, ", "))
}

// UnconsumedArgumentsError is returned when matching succeeded but tokens
// remain after the outermost command.
type UnconsumedArgumentsError struct {
	Args []string
}

func (e *UnconsumedArgumentsError) Error() string {
	return fmt.Sprintf("unable to consume all provided arguments: %s", strings.Join(e.Args, " "))
}

// ValidationError carries a rejection from a schema type's Validate method.
type ValidationError struct {
	Command string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigError is returned when a defaults file cannot be read or decoded.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HelpRequested signals that -h or --help was seen. Path is the command path
// (excluding the program name) whose help should be rendered.
type HelpRequested struct {
	Path []string
}

func (e *HelpRequested) Error() string {
	if len(e.Path) == 0 {
		return "help requested"
	}
	return fmt.Sprintf("help requested for %s", strings.Join(e.Path, " "))
}

// IsHelp reports whether err is, or wraps, a HelpRequested.
func IsHelp(err error) bool {
	var h *HelpRequested
	return errors.As(err, &h)
}
