/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/pmagent/agents/retry"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

func always(error) bool { return true }

func TestDo(t *testing.T) {
	t.Parallel()
	transient := errors.New("429 too many requests")
	permanent := errors.New("401 unauthorized")

	tests := []struct {
		name         string
		failures     int32
		err          error
		retryable    func(error) bool
		wantAttempts int32
		wantErr      error
	}{{
		name:         "first try",
		retryable:    always,
		wantAttempts: 1,
	}, {
		name:         "recovers",
		failures:     2,
		err:          transient,
		retryable:    always,
		wantAttempts: 3,
	}, {
		name:         "exhausted",
		failures:     100,
		err:          transient,
		retryable:    always,
		wantAttempts: 4,
		wantErr:      transient,
	}, {
		name:         "not retryable",
		failures:     100,
		err:          permanent,
		retryable:    func(err error) bool { return !errors.Is(err, permanent) },
		wantAttempts: 1,
		wantErr:      permanent,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var attempts atomic.Int32
			got, err := retry.Do(context.Background(), fastConfig(), "generate", tt.retryable, func(context.Context) (string, error) {
				if attempts.Add(1) <= tt.failures {
					return "", tt.err
				}
				return "ok", nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Do() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != "ok" {
				t.Errorf("Do() = %q, want %q", got, "ok")
			}
			if n := attempts.Load(); n != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", n, tt.wantAttempts)
			}
		})
	}
}

func TestDoExhaustedMessage(t *testing.T) {
	t.Parallel()
	_, err := retry.Do(context.Background(), fastConfig(), "generate", always, func(context.Context) (int, error) {
		return 0, errors.New("503")
	})
	if err == nil || !strings.HasPrefix(err.Error(), "generate failed after 3 retries") {
		t.Errorf("Do() error = %v, want prefix %q", err, "generate failed after 3 retries")
	}
}

func TestDoContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.BaseBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	_, err := retry.Do(ctx, cfg, "generate", always, func(context.Context) (int, error) {
		cancel()
		return 0, errors.New("429")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	if err := retry.DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	bad := retry.Config{MaxRetries: -1, MaxJitter: -1}
	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"max retries", "max jitter"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v, missing %q", err, want)
		}
	}
}
