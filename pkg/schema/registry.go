// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"reflect"

	"tailscale.com/util/mak"
)

// Registry records the closed set of struct variants for each interface
// type used as a subcommand field. It is populated once at startup and read
// only afterwards.
type Registry struct {
	unions map[reflect.Type][]reflect.Type
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Union registers variants as the alternatives of interface type I. Each
// variant should be a struct value or a pointer to a struct; instances are
// later produced in the same form. Registering I again replaces its
// variants.
//
//	type Action interface{ isAction() }
//
//	reg := schema.NewRegistry()
//	schema.Union[Action](reg, Start{}, Stop{})
func Union[I any](r *Registry, variants ...I) {
	iface := reflect.TypeFor[I]()
	if iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("schema.Union: %s is not an interface type", iface))
	}
	types := make([]reflect.Type, 0, len(variants))
	for _, v := range variants {
		// nil stays nil here and is rejected during classification.
		types = append(types, reflect.TypeOf(any(v)))
	}
	mak.Set(&r.unions, iface, types)
}

// Variants returns the registered variant types of iface.
func (r *Registry) Variants(iface reflect.Type) ([]reflect.Type, bool) {
	if r == nil {
		return nil, false
	}
	types, ok := r.unions[iface]
	return types, ok
}
