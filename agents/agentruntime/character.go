/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentruntime

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed characters/productmanager.yaml
var productManagerYAML []byte

// Character is the persona the agent speaks as.
type Character struct {
	ID              uuid.UUID         `yaml:"id"`
	Name            string            `yaml:"name"`
	Username        string            `yaml:"username"`
	ModelProvider   string            `yaml:"modelProvider"`
	System          string            `yaml:"system"`
	Bio             []string          `yaml:"bio"`
	Lore            []string          `yaml:"lore"`
	Knowledge       []string          `yaml:"knowledge"`
	MessageExamples [][]Example       `yaml:"messageExamples"`
	Adjectives      []string          `yaml:"adjectives"`
	Topics          []string          `yaml:"topics"`
	Style           Style             `yaml:"style"`
	Settings        map[string]string `yaml:"settings"`
}

// Example is one turn of a sample conversation.
type Example struct {
	User string `yaml:"user"`
	Text string `yaml:"text"`
}

// Style holds free-form writing directions.
type Style struct {
	All  []string `yaml:"all"`
	Chat []string `yaml:"chat"`
}

// DefaultCharacter returns the built-in product manager persona.
func DefaultCharacter() Character {
	c, err := ParseCharacter(productManagerYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded character is invalid: %v", err))
	}
	return c
}

// LoadCharacter reads a character file, or returns DefaultCharacter when
// path is empty.
func LoadCharacter(path string) (Character, error) {
	if path == "" {
		return DefaultCharacter(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Character{}, fmt.Errorf("read character file: %w", err)
	}
	c, err := ParseCharacter(b)
	if err != nil {
		return Character{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// ParseCharacter decodes and validates a YAML character. A missing ID is
// derived from the name so that the agent keeps a stable identity.
func ParseCharacter(b []byte) (Character, error) {
	var c Character
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Character{}, err
	}
	if c.Name == "" {
		return Character{}, errors.New("character name is required")
	}
	if c.Username == "" {
		c.Username = c.Name
	}
	if c.ID == uuid.Nil {
		c.ID = StringToUUID(c.Name)
	}
	return c, nil
}
