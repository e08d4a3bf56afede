/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"fmt"
	"maps"
	"slices"
)

// template is unexported so that NewPrompt only accepts untyped string
// constants from callers; prompt templates are authored in code.
type template string

// Prompt is a template together with the values bound to its placeholders.
type Prompt struct {
	template string
	bindings map[string]binding
}

// NewPrompt parses tmpl and records every placeholder it contains.
func NewPrompt(tmpl template) (*Prompt, error) {
	bindings := make(map[string]binding)
	if _, err := walkTemplate(string(tmpl), func(name string) (string, error) {
		bindings[name] = unbound{name: name}
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: string(tmpl), bindings: bindings}, nil
}

// Placeholders returns the sorted names of every placeholder in the template.
func (p *Prompt) Placeholders() []string {
	return slices.Sorted(maps.Keys(p.bindings))
}

// Unbound returns the sorted names of placeholders without a value.
func (p *Prompt) Unbound() []string {
	var names []string
	for name, b := range p.bindings {
		if _, ok := b.(unbound); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// BindText binds plain text to a placeholder.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.bind(name, text(value))
}

// BindJSON binds data rendered as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, encoded{data: data, format: "json"})
}

// BindXML binds data rendered as indented XML.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, encoded{data: data, format: "xml"})
}

// BindYAML binds data rendered as YAML.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.bind(name, encoded{data: data, format: "yaml"})
}

// BindMap binds every entry of values whose key names a placeholder that is
// still unbound. Entries for unknown or already bound placeholders are
// ignored, so a shared state map can be applied to any template.
func (p *Prompt) BindMap(values map[string]string) *Prompt {
	next := p.clone()
	for name, v := range values {
		if b, ok := next.bindings[name]; ok {
			if _, free := b.(unbound); free {
				next.bindings[name] = text(v)
			}
		}
	}
	return next
}

// Build renders the template. It fails if any placeholder is unbound.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		v, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walkTemplate(p.template, func(name string) (string, error) {
		return values[name], nil
	})
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	current, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	}
	if _, free := current.(unbound); !free {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	next := p.clone()
	next.bindings[name] = b
	return next, nil
}

func (p *Prompt) clone() *Prompt {
	return &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
}
