// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package match consumes command-line tokens against a grammar.Command tree.
//
// Matching is greedy and never backtracks. For each command it reads the
// positionals in order, then any run of recognized flags, then the
// subcommand token if the command has one, and recurses into the chosen
// child. Flags of every command on the active path are recognized once that
// command has been entered, so
//
//	app --verbose deploy --region eu
//	app deploy --region eu --verbose
//
// match the same way.
package match

import (
	"log"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/grammar"
	"github.com/yeetrun/clipstick/pkg/schema"
)

var reflectBool = reflect.TypeFor[bool]()

// IsHelpToken reports whether tok requests help.
func IsHelpToken(tok string) bool {
	return tok == "-h" || tok == "--help"
}

// Matcher matches token lists. The zero value is ready to use.
type Matcher struct {
	// Logger, if set, receives a line per binding decision.
	Logger *log.Logger
}

// Match matches cur against cmd using a zero Matcher.
func Match(cmd *grammar.Command, cur *Cursor) (*Tree, error) {
	var m Matcher
	return m.Match(cmd, cur)
}

// frame is a command entered on the active path together with its tree.
type frame struct {
	cmd  *grammar.Command
	tree *Tree
}

// Match consumes tokens from cur for cmd and its chosen descendants. It
// stops when the innermost command is complete; tokens may remain, see
// Finish.
func (m *Matcher) Match(cmd *grammar.Command, cur *Cursor) (*Tree, error) {
	return m.match(cmd, cur, nil)
}

func (m *Matcher) match(cmd *grammar.Command, cur *Cursor, chain []frame) (*Tree, error) {
	tree := &Tree{Command: cmd}
	chain = append(slices.Clip(chain), frame{cmd: cmd, tree: tree})

	for _, f := range cmd.Positionals {
		tok, ok := cur.Peek()
		switch {
		case ok && IsHelpToken(tok):
			return nil, helpFor(cmd)
		case !ok:
			return nil, &clierr.MissingValueError{Command: cmd.DisplayName, Field: f.CLIName}
		case schema.IsFlagToken(tok):
			return nil, &clierr.MissingValueError{Command: cmd.DisplayName, Field: f.CLIName, Got: tok}
		}
		if err := checkValue(f, tok); err != nil {
			return nil, err
		}
		cur.Advance()
		tree.bindPositional(f, tok)
		m.logf("match: %s: positional %s = %q", cmd.DisplayName, f.CLIName, tok)
	}

	if err := m.matchFlags(cmd, cur, chain); err != nil {
		return nil, err
	}

	if cmd.Slot == nil {
		return tree, nil
	}
	tok, ok := cur.Peek()
	switch {
	case !ok:
		return nil, &clierr.MissingSubcommandError{Command: cmd.DisplayName, Valid: cmd.VariantNames()}
	case IsHelpToken(tok):
		return nil, helpFor(cmd)
	case schema.IsFlagToken(tok):
		return nil, &clierr.UnknownFlagError{Flag: tok, Command: cmd.DisplayName}
	}
	child, ok := cmd.Child(tok)
	if !ok {
		valid := cmd.VariantNames()
		return nil, &clierr.UnknownSubcommandError{
			Name:       tok,
			Command:    cmd.DisplayName,
			Valid:      valid,
			Suggestion: suggest(tok, valid),
		}
	}
	cur.Advance()
	m.logf("match: %s: subcommand %s", cmd.DisplayName, tok)
	sub, err := m.match(child, cur, chain)
	if err != nil {
		return nil, err
	}
	tree.Variant = tok
	tree.Child = sub
	return tree, nil
}

// matchFlags consumes the run of recognized flag tokens at cur. The last
// frame of chain is the command being matched.
func (m *Matcher) matchFlags(cmd *grammar.Command, cur *Cursor, chain []frame) error {
	for {
		tok, ok := cur.Peek()
		if !ok {
			return nil
		}
		if IsHelpToken(tok) {
			return helpFor(cmd)
		}
		if !schema.IsFlagToken(tok) {
			return nil
		}
		f, owner, ok := lookupFlag(chain, strings.TrimPrefix(tok, schema.FlagPrefix))
		if !ok {
			return nil
		}
		cur.Advance()

		if f.IsBool() {
			raw := "true"
			if next, ok := cur.Peek(); ok && boolValue(cmd, next) {
				raw = next
				cur.Advance()
			}
			owner.tree.bindFlag(f, raw)
			m.logf("match: %s: flag --%s = %s", owner.cmd.DisplayName, f.CLIName, raw)
			continue
		}

		next, ok := cur.Peek()
		switch {
		case ok && IsHelpToken(next):
			return helpFor(cmd)
		case !ok:
			return &clierr.MissingValueError{Command: owner.cmd.DisplayName, Field: f.CLIName, Flag: true}
		case schema.IsFlagToken(next):
			return &clierr.MissingValueError{Command: owner.cmd.DisplayName, Field: f.CLIName, Flag: true, Got: next}
		}
		if err := checkValue(f, next); err != nil {
			return err
		}
		cur.Advance()
		owner.tree.bindFlag(f, next)
		m.logf("match: %s: flag --%s = %q", owner.cmd.DisplayName, f.CLIName, next)
	}
}

// lookupFlag finds the flag named name on the innermost command of chain
// that declares it.
func lookupFlag(chain []frame, name string) (grammar.Field, frame, bool) {
	for i := len(chain) - 1; i >= 0; i-- {
		if f, ok := chain[i].cmd.Flag(name); ok {
			return f, chain[i], true
		}
	}
	return grammar.Field{}, frame{}, false
}

// boolValue reports whether tok, following a bool flag of cmd, is that
// flag's explicit value.
func boolValue(cmd *grammar.Command, tok string) bool {
	if schema.IsFlagToken(tok) || IsHelpToken(tok) {
		return false
	}
	if _, ok := cmd.Child(tok); ok {
		return false
	}
	_, err := schema.Coerce(reflectBool, tok)
	return err == nil
}

func checkValue(f grammar.Field, raw string) error {
	if _, err := schema.Coerce(f.Type, raw); err != nil {
		return &clierr.TypeCoercionError{
			Field:  f.CLIName,
			Value:  raw,
			Type:   f.TypeName(),
			Source: "argument",
			Err:    err,
		}
	}
	return nil
}

func helpFor(cmd *grammar.Command) error {
	return &clierr.HelpRequested{Path: slices.Clone(cmd.Path)}
}

// Finish checks that cur is exhausted after matching. leaf is the innermost
// matched command, named in the error for a leftover flag.
func Finish(cur *Cursor, leaf *grammar.Command) error {
	if cur.Done() {
		return nil
	}
	if tok, _ := cur.Peek(); schema.IsFlagToken(tok) {
		return &clierr.UnknownFlagError{Flag: tok, Command: leaf.DisplayName}
	}
	return &clierr.UnconsumedArgumentsError{Args: cur.Remaining()}
}

// suggest returns the variant in valid closest to name, or "".
func suggest(name string, valid []string) string {
	if ranks := fuzzy.RankFindFold(name, valid); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", max(2, len(name)/3)+1
	lower := strings.ToLower(name)
	for _, v := range valid {
		if d := fuzzy.LevenshteinDistance(lower, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

func (m *Matcher) logf(format string, args ...any) {
	if m.Logger != nil {
		m.Logger.Printf(format, args...)
	}
}
