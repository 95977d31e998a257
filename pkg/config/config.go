// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads flag defaults from TOML or YAML files.
//
// Top-level keys name flags of the root command. A table keyed by a variant
// name holds the defaults of that subcommand, recursively:
//
//	verbose = true
//
//	[deploy]
//	region = "eu"
//
//	[config.set]
//	force = true
package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/grammar"
	"github.com/yeetrun/clipstick/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Format is a defaults file encoding.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatFor returns the format implied by the extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown config format %q", filepath.Ext(path))
}

// Defaults is a decoded defaults file. It implements grammar.Overrides.
// A nil *Defaults has no values.
type Defaults struct {
	values map[string]any
}

var _ grammar.Overrides = (*Defaults)(nil)

// Load reads the defaults file at path. The format is chosen by extension.
func Load(path string) (*Defaults, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, &clierr.ConfigError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &clierr.ConfigError{Path: path, Err: err}
	}
	d, err := Parse(data, format)
	if err != nil {
		return nil, &clierr.ConfigError{Path: path, Err: err}
	}
	return d, nil
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Defaults, error) {
	values := map[string]any{}
	switch format {
	case TOML:
		if _, err := toml.Decode(string(data), &values); err != nil {
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	return &Defaults{values: values}, nil
}

// Lookup returns the value configured for flag on the command at path.
func (d *Defaults) Lookup(path []string, flag string) (string, bool) {
	if d == nil {
		return "", false
	}
	table := d.values
	for _, name := range path {
		next, ok := table[name].(map[string]any)
		if !ok {
			return "", false
		}
		table = next
	}
	v, ok := table[flag]
	if !ok || v == nil {
		return "", false
	}
	if _, isTable := v.(map[string]any); isTable {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Check reports keys in d that name neither a flag nor a subcommand of cmd.
func (d *Defaults) Check(cmd *grammar.Command) error {
	if d == nil {
		return nil
	}
	var errs []error
	check(cmd, d.values, &errs)
	return errors.Join(errs...)
}

func check(cmd *grammar.Command, table map[string]any, errs *[]error) {
	for _, key := range slices.Sorted(maps.Keys(table)) {
		v := table[key]
		if sub, ok := v.(map[string]any); ok {
			if child, ok := cmd.Child(key); ok {
				check(child, sub, errs)
				continue
			}
		} else if _, ok := cmd.Flag(key); ok {
			continue
		}
		*errs = append(*errs, fmt.Errorf("%s: unknown key %q", cmd.DisplayName, key))
	}
}

// Write writes every flag default declared under cmd to w in the given
// format, in the layout Load reads.
func Write(w io.Writer, cmd *grammar.Command, format Format) error {
	values := defaults(cmd)
	switch format {
	case TOML:
		return toml.NewEncoder(w).Encode(values)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(values); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown config format %q", format)
}

func defaults(cmd *grammar.Command) map[string]any {
	values := map[string]any{}
	for _, f := range cmd.Flags {
		if !f.HasDefault {
			continue
		}
		values[f.CLIName] = typed(f)
	}
	for _, name := range cmd.Order {
		if sub := defaults(cmd.Children[name]); len(sub) > 0 {
			values[name] = sub
		}
	}
	return values
}

// typed returns f's default as a native bool or number where the file
// format has one, and as the raw string otherwise.
func typed(f grammar.Field) any {
	v, err := schema.Coerce(f.Type, f.Default)
	if err != nil {
		return f.Default
	}
	v = reflect.Indirect(v)
	switch f.TypeName() {
	case "bool":
		return v.Bool()
	case "int":
		return v.Int()
	case "uint":
		return v.Uint()
	case "float":
		return v.Float()
	}
	return f.Default
}
