// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schema is the model side of clipstick: it reads the declared
// fields of Go struct types, records which struct types make up a closed
// union, and converts between tokens and field values.
//
// A schema class is a struct type. Its exported fields, in declaration
// order, are its declared fields. Field metadata comes from struct tags:
//
//	type Serve struct {
//	    Addr    string        `help:"Listen address"`
//	    Timeout time.Duration `default:"30s" help:"Request timeout" env:"SERVE_TIMEOUT"`
//	    Debug   bool          `flag:"debug-mode" default:"false"`
//	}
//
// A type documents itself with a Description() string method and validates
// itself with a Validate() error method.
package schema

import (
	"reflect"

	"github.com/yeetrun/clipstick/pkg/clierr"
)

// FieldInfo is one declared field of a schema class as written in Go,
// before it is classified into a grammar field.
type FieldInfo struct {
	Name       string // Go field name
	Index      []int  // index path for reflect.Value.FieldByIndex
	Type       reflect.Type
	Flag       string // `flag` tag, overrides the derived CLI name
	Default    string // `default` tag
	HasDefault bool
	Help       string // `help` tag
	Env        string // `env` tag
}

// Describer is implemented by schema classes that carry a description.
type Describer interface {
	Description() string
}

// Validator is implemented by schema classes with cross-field checks.
type Validator interface {
	Validate() error
}

// StructType returns the struct type behind t, which may be a struct or a
// pointer to one.
func StructType(t reflect.Type) (reflect.Type, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	return t, true
}

// Fields returns the declared fields of struct type t in declaration order.
// Anonymous struct fields are flattened in place; fields tagged `flag:"-"`
// and unexported fields are skipped.
func Fields(t reflect.Type) ([]FieldInfo, error) {
	st, ok := StructType(t)
	if !ok {
		return nil, &clierr.SchemaError{Type: Label(t), Reason: "schema class must be a struct"}
	}
	return appendFields(nil, st, nil)
}

func appendFields(out []FieldInfo, st reflect.Type, prefix []int) ([]FieldInfo, error) {
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		flagTag, hasFlagTag := field.Tag.Lookup("flag")
		if flagTag == "-" {
			continue
		}
		index := append(append([]int{}, prefix...), i)

		if field.Anonymous && !hasFlagTag {
			if field.Type.Kind() == reflect.Struct {
				var err error
				if out, err = appendFields(out, field.Type, index); err != nil {
					return nil, err
				}
				continue
			}
			if field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct {
				return nil, &clierr.SchemaError{Type: Label(st), Field: field.Name, Reason: "embedded struct pointers are not supported"}
			}
		}
		if !field.IsExported() {
			continue
		}

		def, hasDef := field.Tag.Lookup("default")
		out = append(out, FieldInfo{
			Name:       field.Name,
			Index:      index,
			Type:       field.Type,
			Flag:       flagTag,
			Default:    def,
			HasDefault: hasDef,
			Help:       field.Tag.Get("help"),
			Env:        field.Tag.Get("env"),
		})
	}
	return out, nil
}

// Description returns the description of schema class t, if it has one.
func Description(t reflect.Type) string {
	st, ok := StructType(t)
	if !ok {
		return ""
	}
	if d, ok := reflect.New(st).Interface().(Describer); ok {
		return d.Description()
	}
	return ""
}

// Validate runs the Validate method of the struct ptr points to, if any.
func Validate(ptr reflect.Value) error {
	if v, ok := ptr.Interface().(Validator); ok {
		return v.Validate()
	}
	return nil
}

// Label names t for diagnostics.
func Label(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if st, ok := StructType(t); ok && st.Name() != "" {
		return st.Name()
	}
	return t.String()
}
