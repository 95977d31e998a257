// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package match

import (
	"github.com/yeetrun/clipstick/pkg/grammar"
	"tailscale.com/util/mak"
)

// Tree is the result of matching tokens against one Command. Field values
// are the raw tokens, keyed by Go field name. A flag missing from Flags was
// not given and takes its default.
type Tree struct {
	Command     *grammar.Command
	Positionals map[string]string
	Flags       map[string]string
	Variant     string // chosen variant name, if Command has a subcommand
	Child       *Tree
}

// Leaf returns the innermost tree of the chain rooted at t.
func (t *Tree) Leaf() *Tree {
	for t.Child != nil {
		t = t.Child
	}
	return t
}

// Flag returns the raw value bound for the flag with Go name field.
func (t *Tree) Flag(field string) (string, bool) {
	v, ok := t.Flags[field]
	return v, ok
}

func (t *Tree) bindPositional(f grammar.Field, raw string) {
	mak.Set(&t.Positionals, f.Name, raw)
}

func (t *Tree) bindFlag(f grammar.Field, raw string) {
	mak.Set(&t.Flags, f.Name, raw)
}
