/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/pmagent/agents/metrics"
	"chainguard.dev/pmagent/agents/retry"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Provider names a model vendor.
type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
	Google    Provider = "google"
	Ollama    Provider = "ollama"
)

// ParseProvider maps a configuration value onto a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case OpenAI, Anthropic, Google, Ollama:
		return p, nil
	}
	return "", fmt.Errorf("unsupported model provider %q (supported: openai, anthropic, google, ollama)", s)
}

// RequiresToken reports whether the provider needs an API token.
func (p Provider) RequiresToken() bool {
	return p != Ollama
}

// ModelClass selects a model tier.
type ModelClass string

const (
	Small  ModelClass = "small"
	Medium ModelClass = "medium"
	Large  ModelClass = "large"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Request is one prompt for the model.
type Request struct {
	System string
	Prompt string
	// Class defaults to Small.
	Class ModelClass
}

// Generator is the behavior callers depend on.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// completion is a backend's answer with its token usage.
type completion struct {
	text             string
	promptTokens     int64
	completionTokens int64
}

// call is a backend request after model resolution.
type call struct {
	model       string
	system      string
	prompt      string
	temperature float64
	maxTokens   int64
}

// backend is implemented once per provider.
type backend interface {
	complete(ctx context.Context, c call) (completion, error)
	retryable(err error) bool
}

// Client generates text through one provider.
type Client struct {
	provider    Provider
	backend     backend
	models      map[ModelClass]string
	temperature float64
	maxTokens   int64
	retry       retry.Config
	metrics     *metrics.GenAI
	tracer      trace.Tracer
}

var _ Generator = (*Client)(nil)

// New constructs a Client for provider. token is ignored by Ollama.
func New(ctx context.Context, provider Provider, token string, opts ...Option) (*Client, error) {
	o := options{
		temperature: 0.2,
		maxTokens:   4096,
		retry:       retry.DefaultConfig(),
		ollamaURL:   DefaultOllamaURL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if provider.RequiresToken() && token == "" {
		return nil, fmt.Errorf("%s requires an API token", provider)
	}
	if err := o.retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	var (
		b   backend
		err error
	)
	switch provider {
	case OpenAI:
		b = newOpenAI(token, o.baseURL)
	case Anthropic:
		b = newAnthropic(token, o.baseURL)
	case Google:
		b, err = newGoogle(ctx, token, o.baseURL)
	case Ollama:
		b, err = newOllama(o.ollamaURL)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", provider, err)
	}
	return newClient(provider, b, o), nil
}

func newClient(provider Provider, b backend, o options) *Client {
	models := defaultModels(provider)
	for class, model := range o.models {
		models[class] = model
	}
	m := o.metrics
	if m == nil {
		m = metrics.NewGenAI("chainguard.dev/pmagent")
	}
	tp := o.tracing
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Client{
		provider:    provider,
		backend:     b,
		models:      models,
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
		retry:       o.retry,
		metrics:     m,
		tracer:      tp.Tracer("chainguard.dev/pmagent/agents/generate"),
	}
}

// Provider returns the vendor this client talks to.
func (c *Client) Provider() Provider { return c.provider }

// Model returns the model used for class.
func (c *Client) Model(class ModelClass) string {
	if class == "" {
		class = Small
	}
	return c.models[class]
}

// Generate sends req to the model, retrying transient provider failures.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	class := req.Class
	if class == "" {
		class = Small
	}
	model, ok := c.models[class]
	if !ok {
		return "", fmt.Errorf("no %s model configured for %s", class, c.provider)
	}

	ctx, span := c.tracer.Start(ctx, "generate", trace.WithAttributes(
		attribute.String("provider", string(c.provider)),
		attribute.String("model", model),
		attribute.String("class", string(class)),
	))
	defer span.End()

	log := clog.FromContext(ctx).With("provider", c.provider, "model", model)
	start := time.Now()
	out, err := retry.Do(ctx, c.retry, "generate", c.backend.retryable, func(ctx context.Context) (completion, error) {
		return c.backend.complete(ctx, call{
			model:       model,
			system:      req.System,
			prompt:      req.Prompt,
			temperature: c.temperature,
			maxTokens:   c.maxTokens,
		})
	})
	if err == nil && strings.TrimSpace(out.text) == "" {
		err = ErrEmptyResponse
	}

	c.metrics.Record(ctx, metrics.Generation{
		Provider:         string(c.provider),
		Model:            model,
		Class:            string(class),
		PromptTokens:     out.promptTokens,
		CompletionTokens: out.completionTokens,
		Duration:         time.Since(start),
		Err:              err,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("generate with %s: %w", model, err)
	}

	log.With("prompt_tokens", out.promptTokens).
		With("completion_tokens", out.completionTokens).
		Debug("Generation complete")
	return out.text, nil
}

func defaultModels(p Provider) map[ModelClass]string {
	switch p {
	case OpenAI:
		return map[ModelClass]string{Small: "gpt-4o-mini", Medium: "gpt-4o", Large: "gpt-4o"}
	case Anthropic:
		return map[ModelClass]string{
			Small:  "claude-3-5-haiku-20241022",
			Medium: "claude-sonnet-4-20250514",
			Large:  "claude-sonnet-4-20250514",
		}
	case Google:
		return map[ModelClass]string{Small: "gemini-2.5-flash-lite", Medium: "gemini-2.5-flash", Large: "gemini-2.5-pro"}
	case Ollama:
		return map[ModelClass]string{Small: "llama3.2", Medium: "llama3.2", Large: "llama3.2"}
	}
	return map[ModelClass]string{}
}
