/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Bindable is implemented by request types that know how to fill a prompt.
type Bindable interface {
	Bind(prompt *Prompt) (*Prompt, error)
}

// Render binds req to prompt and builds the result.
func Render(prompt *Prompt, req Bindable) (string, error) {
	bound, err := req.Bind(prompt)
	if err != nil {
		return "", err
	}
	return bound.Build()
}
