// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package instance converts between match trees and schema values.
package instance

import (
	"fmt"
	"reflect"

	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/grammar"
	"github.com/yeetrun/clipstick/pkg/match"
	"github.com/yeetrun/clipstick/pkg/schema"
)

// Instantiate builds the schema value described by tree. The chosen
// subcommand is built first and assigned to its parent's subcommand field,
// so every Validate method sees a fully built value. The result is a
// pointer if tree's command type was registered as one, else a struct.
func Instantiate(tree *match.Tree) (reflect.Value, error) {
	cmd := tree.Command
	st, ok := schema.StructType(cmd.Type)
	if !ok {
		return reflect.Value{}, &clierr.SchemaError{Type: schema.Label(cmd.Type), Reason: "schema class must be a struct"}
	}
	ptr := reflect.New(st)
	obj := ptr.Elem()

	if tree.Child != nil {
		child, err := Instantiate(tree.Child)
		if err != nil {
			return reflect.Value{}, err
		}
		obj.FieldByIndex(cmd.Slot.Index).Set(child)
	}

	for _, f := range cmd.Positionals {
		raw, ok := tree.Positionals[f.Name]
		if !ok {
			return reflect.Value{}, &clierr.MissingValueError{Command: cmd.DisplayName, Field: f.CLIName}
		}
		if err := set(obj, f, raw, "argument"); err != nil {
			return reflect.Value{}, err
		}
	}
	for _, f := range cmd.Flags {
		raw, ok := tree.Flags[f.Name]
		source := "argument"
		if !ok {
			if !f.HasDefault {
				// Nil pointer.
				continue
			}
			raw, source = f.Default, "default"
		}
		if err := set(obj, f, raw, source); err != nil {
			return reflect.Value{}, err
		}
	}

	if err := schema.Validate(ptr); err != nil {
		return reflect.Value{}, &clierr.ValidationError{Command: cmd.DisplayName, Err: err}
	}
	if cmd.Type.Kind() == reflect.Ptr {
		return ptr, nil
	}
	return obj, nil
}

func set(obj reflect.Value, f grammar.Field, raw, source string) error {
	v, err := schema.Coerce(f.Type, raw)
	if err != nil {
		return &clierr.TypeCoercionError{
			Field:  f.CLIName,
			Value:  raw,
			Type:   f.TypeName(),
			Source: source,
			Err:    err,
		}
	}
	obj.FieldByIndex(f.Index).Set(v)
	return nil
}

// Render returns the shortest token list that parses back to v under cmd:
// positionals in order, flags whose value differs from their default, then
// the subcommand's variant name and its own tokens. A true bool flag renders
// as the bare flag. v may be a struct or a pointer to one.
func Render(cmd *grammar.Command, v reflect.Value) ([]string, error) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("render %s: nil value", cmd.DisplayName)
		}
		v = v.Elem()
	}
	if st, ok := schema.StructType(cmd.Type); !ok || v.Type() != st {
		return nil, fmt.Errorf("render %s: value of type %s, want %s", cmd.DisplayName, v.Type(), schema.Label(cmd.Type))
	}

	var out []string
	for _, f := range cmd.Positionals {
		tok, err := valueToken(cmd, f, v.FieldByIndex(f.Index))
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	for _, f := range cmd.Flags {
		fv := v.FieldByIndex(f.Index)
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			continue
		}
		if f.HasDefault {
			def, err := schema.Coerce(f.Type, f.Default)
			if err != nil {
				return nil, err
			}
			if reflect.DeepEqual(def.Interface(), fv.Interface()) {
				continue
			}
		}
		name := schema.FlagPrefix + f.CLIName
		if f.IsBool() && reflect.Indirect(fv).Bool() {
			out = append(out, name)
			continue
		}
		tok, err := valueToken(cmd, f, fv)
		if err != nil {
			return nil, err
		}
		out = append(out, name, tok)
	}

	if cmd.Slot == nil {
		return out, nil
	}
	sv := v.FieldByIndex(cmd.Slot.Index)
	if sv.IsNil() {
		return nil, fmt.Errorf("render %s: subcommand %s not set", cmd.DisplayName, cmd.Slot.CLIName)
	}
	concrete := sv.Elem().Type()
	for _, variant := range cmd.Slot.Variants {
		if variant.Type != concrete {
			continue
		}
		rest, err := Render(cmd.Children[variant.Name], sv.Elem())
		if err != nil {
			return nil, err
		}
		return append(append(out, variant.Name), rest...), nil
	}
	return nil, fmt.Errorf("render %s: %s is not a registered variant of %s", cmd.DisplayName, concrete, cmd.Slot.CLIName)
}

func valueToken(cmd *grammar.Command, f grammar.Field, v reflect.Value) (string, error) {
	tok := schema.Format(v)
	if schema.IsFlagToken(tok) || match.IsHelpToken(tok) {
		return "", fmt.Errorf("render %s: value %q of %s cannot be written as an argument", cmd.DisplayName, tok, f.CLIName)
	}
	return tok, nil
}
