// Package validation contains the logic for validating
// request data.
//
// It uses the `validator` library to enforce rules (like
// required fields or month formats) defined in struct tags
// and extracts validation errors into a format the client can
// understand.
package validation

import "strings"

// TrimAll trims surrounding whitespace from every field pointer given.
// Request types call it before tag validation so "  " counts as missing.
func TrimAll(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}
