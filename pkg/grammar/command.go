// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grammar

import (
	"reflect"
	"slices"
)

// Command is one node of the grammar: a schema class together with its
// classified fields and one child per variant of its subcommand field.
// A Command is immutable once Build returns and may be shared between
// concurrent parses.
type Command struct {
	// Name is the token that selects this command (the variant name), or the
	// program name for the root.
	Name string
	// DisplayName is the space-joined path from the program name, used in
	// usage lines and diagnostics.
	DisplayName string
	// Path lists the variant names leading to this command, excluding the
	// program name. It is empty for the root.
	Path []string
	Type reflect.Type
	Doc  string

	Positionals []Field
	Flags       []Field
	Slot        *Field

	// Children maps variant names to their commands; Order keeps the
	// registration order of those names.
	Children map[string]*Command
	Order    []string

	flagIndex map[string]int
}

// Leaf reports whether c has no subcommands.
func (c *Command) Leaf() bool {
	return c.Slot == nil
}

// Flag returns the flag with the given CLI name.
func (c *Command) Flag(name string) (Field, bool) {
	i, ok := c.flagIndex[name]
	if !ok {
		return Field{}, false
	}
	return c.Flags[i], true
}

// Child returns the subcommand selected by variant name.
func (c *Command) Child(name string) (*Command, bool) {
	child, ok := c.Children[name]
	return child, ok
}

// VariantNames returns the names of c's subcommands in declaration order.
func (c *Command) VariantNames() []string {
	return slices.Clone(c.Order)
}

// Lookup follows path from c and returns the command it names.
func (c *Command) Lookup(path ...string) (*Command, bool) {
	cur := c
	for _, name := range path {
		next, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Walk calls fn for c and every descendant, parents before children and
// children in declaration order. It stops at the first error.
func (c *Command) Walk(fn func(*Command) error) error {
	if err := fn(c); err != nil {
		return err
	}
	for _, name := range c.Order {
		if err := c.Children[name].Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
