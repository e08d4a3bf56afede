/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
)

type attrsKey struct{}

// WithAttributes returns a context whose generations are recorded with attrs
// in addition to any attributes already on ctx. Workflows use it to tag
// usage with the repository and event that triggered it.
func WithAttributes(ctx context.Context, attrs ...attribute.KeyValue) context.Context {
	existing := FromContext(ctx)
	return context.WithValue(ctx, attrsKey{}, append(slices.Clip(existing), attrs...))
}

// FromContext returns the attributes stored by WithAttributes.
func FromContext(ctx context.Context) []attribute.KeyValue {
	attrs, _ := ctx.Value(attrsKey{}).([]attribute.KeyValue)
	return attrs
}
