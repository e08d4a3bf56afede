/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// resolveFunc supplies the replacement text for a placeholder name.
type resolveFunc func(name string) (string, error)

// walkTemplate scans template for `{{name}}` placeholders and replaces each
// one with the output of resolve. Replacement text is written as-is and never
// scanned again.
func walkTemplate(template string, resolve resolveFunc) (string, error) {
	var out strings.Builder
	out.Grow(len(template))

	rest := template
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:open])

		closeAt := strings.Index(rest[open:], "}}")
		if closeAt < 0 {
			return "", errors.New("unclosed placeholder: missing '}}'")
		}
		closeAt += open

		name := strings.TrimSpace(rest[open+2 : closeAt])
		if !isIdentifier(name) {
			return "", fmt.Errorf("invalid placeholder %q", name)
		}
		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)

		rest = rest[closeAt+2:]
	}
}

// isIdentifier reports whether s starts with a letter and continues with
// letters, digits or underscores.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}
