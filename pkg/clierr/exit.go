// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clierr

import "errors"

// Process exit codes, ordered by how early in the run the failure occurred.
const (
	ExitSuccess     = 0 // parsed, or help shown
	ExitUsage       = 1 // arguments did not match the grammar or failed validation
	ExitConfig      = 2 // a defaults file could not be loaded
	ExitSchemaError = 5 // the schema itself is malformed
)

// ExitCode maps an error returned by a parse to a process exit status.
func ExitCode(err error) int {
	if err == nil || IsHelp(err) {
		return ExitSuccess
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return ExitSchemaError
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ExitConfig
	}
	return ExitUsage
}
