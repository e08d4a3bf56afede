/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the agent's settings from the environment. Every
// field is checked before startup continues and all problems are reported
// together.
package config

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"chainguard.dev/pmagent/agents/agentruntime"
	"chainguard.dev/pmagent/agents/agentruntime/memory"
	"chainguard.dev/pmagent/agents/generate"
	"chainguard.dev/pmagent/voting"
	"github.com/sethvargo/go-envconfig"
)

// Env is the raw environment. Values stay strings so that every malformed
// field can be reported at once.
type Env struct {
	Port        string `env:"PORT,default=3000"`
	MetricsPort string `env:"METRICS_PORT,default=2112"`

	GitHubAppID         string `env:"GITHUB_APP_ID"`
	GitHubAppKey        string `env:"GITHUB_APP_KEY"`
	GitHubWebhookSecret string `env:"GITHUB_WEBHOOK_SECRET"`
	GitHubBaseURL       string `env:"GITHUB_BASE_URL,default=https://api.github.com"`

	Mnemonic       string `env:"MNEMONIC"`
	CodeID         string `env:"CODE_ID"`
	BroadcasterURL string `env:"BROADCASTER_URL"`
	VoteURL        string `env:"VOTE_URL,default=https://vote.pmagent.dev/sign"`

	DatabaseURL        string `env:"DATABASE_URL"`
	ModelProvider      string `env:"MODEL_PROVIDER"`
	ModelProviderToken string `env:"MODEL_PROVIDER_TOKEN"`
	OllamaURL          string `env:"OLLAMA_URL,default=http://localhost:11434"`
	CharacterFile      string `env:"CHARACTER_FILE"`
}

// Settings are validated, typed settings.
type Settings struct {
	Port        int
	MetricsPort int

	AppID         int64
	AppKey        []byte
	WebhookSecret []byte
	GitHubBaseURL string

	Mnemonic       string
	CodeID         uint64
	BroadcasterURL string
	VoteURL        string

	DatabaseURL   string
	Provider      generate.Provider
	ProviderToken string
	OllamaURL     string
	Character     agentruntime.Character
}

// FieldError is one problem with one variable.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Problems []*FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Settings validation failed:")
	for _, p := range e.Problems {
		b.WriteString("\n-> ")
		b.WriteString(p.Error())
	}
	return b.String()
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Problems))
	for _, p := range e.Problems {
		errs = append(errs, p)
	}
	return errs
}

// Load reads and validates the process environment.
func Load(ctx context.Context) (*Settings, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads and validates the environment seen through l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Settings, error) {
	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return env.Validate()
}

// Validate checks every field and returns the typed settings, or a
// *ValidationError naming each problem.
func (e Env) Validate() (*Settings, error) {
	var v validator
	s := &Settings{
		GitHubBaseURL:  strings.TrimRight(e.GitHubBaseURL, "/"),
		Mnemonic:       e.Mnemonic,
		BroadcasterURL: e.BroadcasterURL,
		VoteURL:        e.VoteURL,
		DatabaseURL:    e.DatabaseURL,
		ProviderToken:  e.ModelProviderToken,
		OllamaURL:      e.OllamaURL,
	}

	s.Port = v.port("PORT", e.Port)
	s.MetricsPort = v.port("METRICS_PORT", e.MetricsPort)

	if v.required("GITHUB_APP_ID", e.GitHubAppID) {
		id, err := strconv.ParseInt(e.GitHubAppID, 10, 64)
		if err != nil || id <= 0 {
			v.fail("GITHUB_APP_ID", "must be a positive integer")
		}
		s.AppID = id
	}
	if v.required("GITHUB_APP_KEY", e.GitHubAppKey) {
		key, err := os.ReadFile(e.GitHubAppKey)
		switch {
		case err != nil:
			v.fail("GITHUB_APP_KEY", fmt.Sprintf("reading private key: %v", err))
		case len(key) == 0:
			v.fail("GITHUB_APP_KEY", "private key file is empty")
		}
		s.AppKey = key
	}
	if v.required("GITHUB_WEBHOOK_SECRET", e.GitHubWebhookSecret) {
		s.WebhookSecret = []byte(e.GitHubWebhookSecret)
	}
	v.url("GITHUB_BASE_URL", e.GitHubBaseURL)

	if v.required("MNEMONIC", e.Mnemonic) {
		if err := voting.ValidateMnemonic(e.Mnemonic); err != nil {
			v.fail("MNEMONIC", err.Error())
		}
	}
	if v.required("CODE_ID", e.CodeID) {
		id, err := strconv.ParseUint(e.CodeID, 10, 64)
		if err != nil || id == 0 {
			v.fail("CODE_ID", "must be a positive integer")
		}
		s.CodeID = id
	}
	if v.required("BROADCASTER_URL", e.BroadcasterURL) {
		v.url("BROADCASTER_URL", e.BroadcasterURL)
	}
	v.url("VOTE_URL", e.VoteURL)

	if v.required("DATABASE_URL", e.DatabaseURL) {
		if err := memory.ValidateURL(e.DatabaseURL); err != nil {
			v.fail("DATABASE_URL", "must be a postgres://, postgresql://, sqlite:// or file: URL")
		}
	}
	character, err := agentruntime.LoadCharacter(e.CharacterFile)
	if err != nil {
		v.fail("CHARACTER_FILE", err.Error())
	}
	s.Character = character

	// MODEL_PROVIDER wins over the character's choice; openai is the fallback.
	field, name := "MODEL_PROVIDER", strings.TrimSpace(e.ModelProvider)
	if name == "" && character.ModelProvider != "" {
		field, name = "CHARACTER_FILE", character.ModelProvider
	}
	provider, err := generate.ParseProvider(cmp.Or(name, string(generate.OpenAI)))
	switch {
	case err != nil:
		v.fail(field, err.Error())
	case provider.RequiresToken():
		v.required("MODEL_PROVIDER_TOKEN", e.ModelProviderToken)
	default:
		v.url("OLLAMA_URL", e.OllamaURL)
	}
	s.Provider = provider

	if len(v.problems) > 0 {
		return nil, &ValidationError{Problems: v.problems}
	}
	return s, nil
}

type validator struct {
	problems []*FieldError
}

func (v *validator) fail(field, msg string) {
	v.problems = append(v.problems, &FieldError{Field: field, Message: msg})
}

func (v *validator) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.fail(field, "is required")
		return false
	}
	return true
}

func (v *validator) port(field, value string) int {
	p, err := strconv.Atoi(value)
	if err != nil || p < 1 || p > 65535 {
		v.fail(field, "must be a port number between 1 and 65535")
	}
	return p
}

func (v *validator) url(field, value string) {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.fail(field, "must be an http or https URL")
	}
}

