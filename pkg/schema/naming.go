// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// FlagPrefix introduces every flag token.
const FlagPrefix = "--"

// Kebab converts a Go identifier to its command-line form, e.g.
// "SecondLevelModelOne" to "second-level-model-one" and "HTTPPort" to
// "http-port".
func Kebab(ident string) string {
	return strcase.ToKebab(ident)
}

// VariantName is the subcommand token selecting variant type t.
func VariantName(t reflect.Type) string {
	if st, ok := StructType(t); ok {
		t = st
	}
	name := t.Name()
	// Instantiated generic types carry their type arguments in the name.
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return Kebab(name)
}

// IsFlagToken reports whether tok has the flag prefix.
func IsFlagToken(tok string) bool {
	return strings.HasPrefix(tok, FlagPrefix)
}
