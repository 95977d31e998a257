// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grammar derives a command grammar from a schema: it classifies
// the fields of each schema class and builds the Command tree, one node per
// class and one child per subcommand variant.
package grammar

import (
	"log"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/schema"
	"tailscale.com/util/mak"
	"tailscale.com/util/set"
)

// Overrides supplies replacement flag defaults, for example from a config
// file. path is the command path excluding the program name and flag is the
// flag's CLI name.
type Overrides interface {
	Lookup(path []string, flag string) (string, bool)
}

// Options control grammar building. The zero value builds the grammar
// exactly as the schema declares it, apart from `env` lookups in the process
// environment.
type Options struct {
	// Overrides replaces flag defaults. Environment variables win over it.
	Overrides Overrides
	// LookupEnv reads `env` tags. It defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Logger, if set, receives a line per command built.
	Logger *log.Logger
}

type builder struct {
	reg    *schema.Registry
	opts   Options
	prog   string
	onPath set.Set[reflect.Type]
}

// Build returns the Command tree for root, a struct type or pointer to one.
// prog is the program name shown as the root's DisplayName.
func Build(root reflect.Type, reg *schema.Registry, prog string, opts Options) (*Command, error) {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	b := &builder{
		reg:    reg,
		opts:   opts,
		prog:   prog,
		onPath: make(set.Set[reflect.Type]),
	}
	return b.build(root, prog, nil)
}

func (b *builder) build(t reflect.Type, name string, path []string) (*Command, error) {
	st, ok := schema.StructType(t)
	if !ok {
		return nil, &clierr.SchemaError{Type: schema.Label(t), Reason: "schema class must be a struct"}
	}
	if b.onPath.Contains(st) {
		return nil, &clierr.SchemaError{Type: schema.Label(st), Reason: "cyclic subcommand graph"}
	}
	b.onPath.Add(st)
	defer b.onPath.Delete(st)

	fields, err := Classify(t, b.reg)
	if err != nil {
		return nil, err
	}
	cmd := &Command{
		Name:        name,
		DisplayName: strings.Join(append([]string{b.prog}, path...), " "),
		Path:        path,
		Type:        t,
		Doc:         schema.Description(t),
	}
	for _, f := range fields {
		switch f.Kind {
		case Positional:
			cmd.Positionals = append(cmd.Positionals, f)
		case Flag:
			if err := b.overrideDefault(&f, path); err != nil {
				return nil, err
			}
			mak.Set(&cmd.flagIndex, f.CLIName, len(cmd.Flags))
			cmd.Flags = append(cmd.Flags, f)
		case Subcommand:
			slot := f
			cmd.Slot = &slot
		}
	}
	if b.opts.Logger != nil {
		b.opts.Logger.Printf("grammar: %s: %d positional(s), %d flag(s)", cmd.DisplayName, len(cmd.Positionals), len(cmd.Flags))
	}

	if cmd.Slot == nil {
		return cmd, nil
	}
	for _, v := range cmd.Slot.Variants {
		child, err := b.build(v.Type, v.Name, append(slices.Clip(path), v.Name))
		if err != nil {
			return nil, err
		}
		mak.Set(&cmd.Children, v.Name, child)
		cmd.Order = append(cmd.Order, v.Name)
	}
	return cmd, nil
}

// overrideDefault applies the configured overrides and then the
// environment to flag f, so an `env` variable wins over a config file.
func (b *builder) overrideDefault(f *Field, path []string) error {
	apply := func(raw, source string) error {
		if _, err := schema.Coerce(f.Type, raw); err != nil {
			return &clierr.TypeCoercionError{
				Field:  f.CLIName,
				Value:  raw,
				Type:   schema.TypeName(f.Type),
				Source: source,
				Err:    err,
			}
		}
		f.Default = raw
		f.HasDefault = true
		return nil
	}
	if b.opts.Overrides != nil {
		if raw, ok := b.opts.Overrides.Lookup(path, f.CLIName); ok {
			if err := apply(raw, "config"); err != nil {
				return err
			}
		}
	}
	if f.Env != "" {
		if raw, ok := b.opts.LookupEnv(f.Env); ok {
			if err := apply(raw, "env"); err != nil {
				return err
			}
		}
	}
	return nil
}
