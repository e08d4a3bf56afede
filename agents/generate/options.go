/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"chainguard.dev/pmagent/agents/metrics"
	"chainguard.dev/pmagent/agents/retry"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOllamaURL is where a local Ollama daemon listens.
const DefaultOllamaURL = "http://localhost:11434"

type options struct {
	models      map[ModelClass]string
	temperature float64
	maxTokens   int64
	retry       retry.Config
	metrics     *metrics.GenAI
	tracing     trace.TracerProvider
	baseURL     string
	ollamaURL   string
}

// Option configures New.
type Option func(*options)

// WithModel overrides the model used for class.
func WithModel(class ModelClass, model string) Option {
	return func(o *options) {
		if o.models == nil {
			o.models = make(map[ModelClass]string)
		}
		o.models[class] = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = t }
}

// WithMaxTokens caps the length of responses.
func WithMaxTokens(n int64) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithRetryConfig replaces the default retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *options) { o.retry = cfg }
}

// WithMetrics records usage into m.
func WithMetrics(m *metrics.GenAI) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider records spans with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracing = tp }
}

// WithBaseURL points hosted providers at a different endpoint, such as a
// proxy or gateway.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithOllamaURL sets the Ollama daemon address.
func WithOllamaURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.ollamaURL = url
		}
	}
}
