// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grammar

import (
	"fmt"
	"reflect"

	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/schema"
	"tailscale.com/util/set"
)

// Kind is how a field is consumed from the command line.
type Kind int

const (
	// Positional fields are consumed by bare position.
	Positional Kind = iota
	// Flag fields are consumed via --name VALUE, or --name alone for bools.
	Flag
	// Subcommand fields are consumed via a variant name token.
	Subcommand
)

func (k Kind) String() string {
	switch k {
	case Positional:
		return "positional"
	case Flag:
		return "flag"
	case Subcommand:
		return "subcommand"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// helpName is reserved for -h/--help.
const helpName = "help"

// Variant is one alternative of a subcommand field.
type Variant struct {
	Name string       // token selecting the variant
	Type reflect.Type // struct or pointer-to-struct, as registered
}

// Field describes one classified field of a schema class.
type Field struct {
	Name       string // Go field name
	CLIName    string
	Kind       Kind
	Type       reflect.Type
	Required   bool
	Default    string
	HasDefault bool
	Doc        string
	Env        string
	Index      []int
	Variants   []Variant
}

// IsBool reports whether the field accepts the presence-only form.
func (f Field) IsBool() bool {
	return f.Kind == Flag && schema.IsBool(f.Type)
}

// TypeName is the field's type as shown in help and errors.
func (f Field) TypeName() string {
	if f.Kind == Subcommand {
		return "subcommand"
	}
	return schema.TypeName(f.Type)
}

// Classify returns the fields of schema class t: positionals in declaration
// order, then flags in declaration order, then the subcommand field if there
// is one. It has no side effects and returns equal results for equal input.
func Classify(t reflect.Type, reg *schema.Registry) ([]Field, error) {
	infos, err := schema.Fields(t)
	if err != nil {
		return nil, err
	}
	typ := schema.Label(t)
	schemaErr := func(field, format string, args ...any) error {
		return &clierr.SchemaError{Type: typ, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	var positionals, flags []Field
	var slot *Field
	names := make(set.Set[string])
	for _, info := range infos {
		f := Field{
			Name:       info.Name,
			CLIName:    info.Flag,
			Type:       info.Type,
			Default:    info.Default,
			HasDefault: info.HasDefault,
			Doc:        info.Help,
			Env:        info.Env,
			Index:      info.Index,
		}
		if f.CLIName == "" {
			f.CLIName = schema.Kebab(info.Name)
		}
		if f.CLIName == helpName {
			return nil, schemaErr(info.Name, "CLI name %q is reserved", helpName)
		}
		if names.Contains(f.CLIName) {
			return nil, schemaErr(info.Name, "duplicate CLI name %q", f.CLIName)
		}
		names.Add(f.CLIName)

		if info.Type.Kind() == reflect.Interface {
			if slot != nil {
				return nil, schemaErr(info.Name, "more than one subcommand field (already have %s)", slot.Name)
			}
			if info.HasDefault {
				return nil, schemaErr(info.Name, "subcommand field cannot have a default")
			}
			variants, err := classifyVariants(reg, info.Type)
			if err != nil {
				return nil, schemaErr(info.Name, "%v", err)
			}
			f.Kind = Subcommand
			f.Required = true
			f.Variants = variants
			slot = &f
			continue
		}

		if !schema.Supported(info.Type) {
			return nil, schemaErr(info.Name, "unsupported field type %s", info.Type)
		}
		switch {
		case info.HasDefault:
			if _, err := schema.Coerce(info.Type, info.Default); err != nil {
				return nil, schemaErr(info.Name, "invalid default %q for %s: %v", info.Default, schema.TypeName(info.Type), err)
			}
			f.Kind = Flag
			flags = append(flags, f)
		case info.Type.Kind() == reflect.Ptr:
			// A nil pointer is the default.
			f.Kind = Flag
			flags = append(flags, f)
		default:
			f.Kind = Positional
			f.Required = true
			positionals = append(positionals, f)
		}
	}

	fields := append(positionals, flags...)
	if slot != nil {
		fields = append(fields, *slot)
	}
	return fields, nil
}

func classifyVariants(reg *schema.Registry, iface reflect.Type) ([]Variant, error) {
	types, ok := reg.Variants(iface)
	if !ok || len(types) == 0 {
		return nil, fmt.Errorf("no variants registered for %s", iface)
	}
	variants := make([]Variant, 0, len(types))
	seen := make(set.Set[string])
	for _, vt := range types {
		if _, ok := schema.StructType(vt); !ok {
			return nil, fmt.Errorf("union member %s of %s is not a schema class", schema.Label(vt), iface)
		}
		name := schema.VariantName(vt)
		if name == "" {
			return nil, fmt.Errorf("union member %s of %s has no name", vt, iface)
		}
		if seen.Contains(name) {
			return nil, fmt.Errorf("duplicate variant name %q in %s", name, iface)
		}
		seen.Add(name)
		variants = append(variants, Variant{Name: name, Type: vt})
	}
	return variants, nil
}
