/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records OpenTelemetry metrics for model generations.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Generation describes one completed (or failed) model call.
type Generation struct {
	Provider         string
	Model            string
	Class            string
	PromptTokens     int64
	CompletionTokens int64
	Duration         time.Duration
	Err              error
}

// GenAI holds the counters for generative model usage. Counters that fail to
// initialize fall back to no-ops so that metrics never block generation.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	generations      metric.Int64Counter
	latency          metric.Float64Histogram
}

// Option configures NewGenAI.
type Option func(*options)

type options struct {
	provider metric.MeterProvider
}

// WithMeterProvider records into mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.provider = mp }
}

// NewGenAI creates the instruments under meterName.
func NewGenAI(meterName string, opts ...Option) *GenAI {
	o := options{provider: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	meter := o.provider.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	generations, err := meter.Int64Counter("genai.generations",
		metric.WithDescription("The number of model generations by outcome"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create generations counter", "error", err, "meter", meterName)
		generations = noop.Int64Counter{}
	}

	latency, err := meter.Float64Histogram("genai.generation.duration",
		metric.WithDescription("Wall time of model generations"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("Failed to create latency histogram", "error", err, "meter", meterName)
		latency = noop.Float64Histogram{}
	}

	return &GenAI{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		generations:      generations,
		latency:          latency,
	}
}

// Record adds g to the instruments. Attributes stored on ctx with
// WithAttributes are attached to every data point.
func (m *GenAI) Record(ctx context.Context, g Generation) {
	attrs := append([]attribute.KeyValue{
		attribute.String("provider", g.Provider),
		attribute.String("model", g.Model),
		attribute.String("class", g.Class),
	}, FromContext(ctx)...)
	set := metric.WithAttributes(attrs...)

	outcome := "success"
	if g.Err != nil {
		outcome = "error"
	}
	m.generations.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", outcome))...))
	m.latency.Record(ctx, g.Duration.Seconds(), set)
	if g.Err != nil {
		return
	}
	m.promptTokens.Add(ctx, g.PromptTokens, set)
	m.completionTokens.Add(ctx, g.CompletionTokens, set)
}
