// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package match

import "slices"

// Cursor is a read position over a token list. It only moves forward.
type Cursor struct {
	tokens []string
	pos    int
}

// NewCursor returns a Cursor at the first of tokens.
func NewCursor(tokens []string) *Cursor {
	return &Cursor{tokens: tokens}
}

// Peek returns the current token without consuming it.
func (c *Cursor) Peek() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	return c.tokens[c.pos], true
}

// Advance consumes the current token.
func (c *Cursor) Advance() {
	if c.pos < len(c.tokens) {
		c.pos++
	}
}

// Done reports whether every token has been consumed.
func (c *Cursor) Done() bool { return c.pos >= len(c.tokens) }

// Remaining returns a copy of the unconsumed tokens.
func (c *Cursor) Remaining() []string {
	return slices.Clone(c.tokens[c.pos:])
}
