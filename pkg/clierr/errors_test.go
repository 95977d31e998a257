// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clierr

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"help", &HelpRequested{Path: []string{"start"}}, ExitSuccess},
		{"wrapped help", fmt.Errorf("parse: %w", &HelpRequested{}), ExitSuccess},
		{"schema", &SchemaError{Type: "Root", Reason: "cyclic subcommand graph"}, ExitSchemaError},
		{"config", &ConfigError{Path: "x.toml", Err: errors.New("boom")}, ExitConfig},
		{"unknown flag", &UnknownFlagError{Flag: "--nope"}, ExitUsage},
		{"leftover", &UnconsumedArgumentsError{Args: []string{"extra"}}, ExitUsage},
		{"validation", &ValidationError{Err: errors.New("bad")}, ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&SchemaError{Type: "A", Field: "B", Reason: "duplicate CLI name \"b\""}, `schema error: A.B: duplicate CLI name "b"`},
		{&MissingValueError{Field: "value"}, "missing value for value"},
		{&MissingValueError{Field: "port", Flag: true, Got: "--host"}, "missing value for --port (got flag --host)"},
		{&TypeCoercionError{Field: "value", Value: "abc", Type: "int"}, `invalid value "abc" for value: expected int`},
		{&TypeCoercionError{Field: "port", Value: "x", Type: "int", Source: "env"}, `invalid value "x" for port from env: expected int`},
		{&UnknownSubcommandError{Name: "begin", Valid: []string{"start", "stop"}}, "unknown subcommand: begin (valid: start, stop)"},
		{&UnknownSubcommandError{Name: "strat", Valid: []string{"start", "stop"}, Suggestion: "start"}, `unknown subcommand: strat (valid: start, stop); did you mean "start"?`},
		{&MissingSubcommandError{Command: "app", Valid: []string{"start", "stop"}}, "'app' requires a subcommand: start, stop"},
		{&UnconsumedArgumentsError{Args: []string{"extra"}}, "unable to consume all provided arguments: extra"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	_, cause := strconv.Atoi("abc")
	err := fmt.Errorf("matching: %w", &TypeCoercionError{Field: "value", Value: "abc", Type: "int", Err: cause})
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Errorf("errors.Is(err, strconv.ErrSyntax) = false, want true")
	}
	sentinel := errors.New("end before start")
	if !errors.Is(&ValidationError{Err: sentinel}, sentinel) {
		t.Errorf("ValidationError does not unwrap to its cause")
	}
}
