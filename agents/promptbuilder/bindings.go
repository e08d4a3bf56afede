/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"encoding/xml"
	"fmt"

	"gopkg.in/yaml.v3"
)

// binding produces the text substituted for one placeholder.
type binding interface {
	value() (string, error)
}

type unbound struct {
	name string
}

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", u.name)
}

type text string

func (t text) value() (string, error) {
	return string(t), nil
}

type encoded struct {
	data   any
	format string
}

func (e encoded) value() (string, error) {
	var (
		b   []byte
		err error
	)
	switch e.format {
	case "json":
		b, err = json.MarshalIndent(e.data, "", "  ")
	case "xml":
		b, err = xml.MarshalIndent(e.data, "", "  ")
	case "yaml":
		b, err = yaml.Marshal(e.data)
	default:
		return "", fmt.Errorf("unknown encoding %q", e.format)
	}
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", e.format, err)
	}
	return string(b), nil
}
