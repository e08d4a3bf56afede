/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package webhook receives GitHub App deliveries and routes them to
// handlers.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Path is where the dispatcher is mounted.
const Path = "/api/github/webhooks"

// MaxPayloadBytes is GitHub's cap on webhook payloads. Larger bodies are
// refused before the signature is checked.
const MaxPayloadBytes = 25 << 20

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pmagent_webhook_deliveries_total",
	Help: "Webhook deliveries by event kind and outcome.",
}, []string{"kind", "outcome"})

// Handlers are invoked per event kind. A nil handler ignores the event.
type Handlers struct {
	IssueOpened      func(ctx context.Context, e *github.IssuesEvent) error
	DiscussionClosed func(ctx context.Context, e *github.DiscussionEvent) error
	Installation     func(ctx context.Context, e InstallationChanged) error
}

// Delivery identifies a webhook delivery in error reports.
type Delivery struct {
	ID        string
	EventType string
	Kind      Kind
}

// ErrorFunc receives handler failures, which never reach GitHub.
type ErrorFunc func(ctx context.Context, d Delivery, err error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithErrorFunc replaces the default error reporter, which logs.
func WithErrorFunc(fn ErrorFunc) Option {
	return func(d *Dispatcher) { d.onError = fn }
}

// Dispatcher verifies, classifies and routes deliveries.
type Dispatcher struct {
	secret   []byte
	handlers Handlers
	onError  ErrorFunc
	wg       sync.WaitGroup
}

// New returns a Dispatcher that accepts deliveries signed with secret.
func New(secret []byte, handlers Handlers, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		secret:   secret,
		handlers: handlers,
		onError:  logError,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func logError(ctx context.Context, d Delivery, err error) {
	clog.FromContext(ctx).With("delivery", d.ID).
		With("event", d.EventType).
		With("kind", d.Kind.String()).
		Errorf("Webhook handler failed: %v", err)
}

// Dispatch invokes the handler registered for ev's kind.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case IssueOpened:
		if d.handlers.IssueOpened != nil {
			return d.handlers.IssueOpened(ctx, e.Payload)
		}
	case DiscussionClosed:
		if d.handlers.DiscussionClosed != nil {
			return d.handlers.DiscussionClosed(ctx, e.Payload)
		}
	case InstallationChanged:
		if d.handlers.Installation != nil {
			return d.handlers.Installation(ctx, e)
		}
	case Unsupported:
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
	return nil
}

// ServeHTTP acknowledges a verified delivery immediately and processes it in
// the background. Oversized bodies are rejected with 413, signature failures
// with 401 and undecodable payloads with 400.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventType := github.WebHookType(r)
	delivery := Delivery{ID: github.DeliveryID(r), EventType: eventType}
	log := clog.FromContext(r.Context()).With("delivery", delivery.ID, "event", eventType)

	r.Body = http.MaxBytesReader(w, r.Body, MaxPayloadBytes)
	payload, err := github.ValidatePayload(r, d.secret)
	if tooLarge := (*http.MaxBytesError)(nil); errors.As(err, &tooLarge) {
		deliveries.WithLabelValues("unknown", "oversized").Inc()
		log.Warnf("Rejected webhook delivery over %d bytes", tooLarge.Limit)
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		deliveries.WithLabelValues("unknown", "rejected").Inc()
		log.Warnf("Rejected webhook delivery: %v", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
	if !json.Valid(payload) {
		deliveries.WithLabelValues("unknown", "invalid").Inc()
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var ev Event = Unsupported{EventType: eventType}
	if parsed, err := github.ParseWebHook(eventType, payload); err == nil {
		ev = Classify(eventType, parsed)
	} else {
		log.Debugf("Unparsed webhook event: %v", err)
	}
	delivery.Kind = ev.Kind()

	if ev.Kind() == KindUnsupported {
		deliveries.WithLabelValues(delivery.Kind.String(), "ignored").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := clog.WithLogger(context.WithoutCancel(r.Context()), log)
	d.wg.Add(1)
	go d.process(ctx, delivery, ev)
	w.WriteHeader(http.StatusOK)
}

func (d *Dispatcher) process(ctx context.Context, delivery Delivery, ev Event) {
	defer d.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			deliveries.WithLabelValues(delivery.Kind.String(), "panic").Inc()
			d.onError(ctx, delivery, fmt.Errorf("handler panic: %v\n%s", p, debug.Stack()))
		}
	}()

	if err := d.Dispatch(ctx, ev); err != nil {
		deliveries.WithLabelValues(delivery.Kind.String(), "failed").Inc()
		d.onError(ctx, delivery, err)
		return
	}
	deliveries.WithLabelValues(delivery.Kind.String(), "handled").Inc()
}

// Wait blocks until every in-flight delivery has been processed.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
