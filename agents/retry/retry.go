/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry retries calls to model providers that fail with rate limit
// or transient server errors.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config controls backoff between attempts.
type Config struct {
	// MaxRetries is the number of additional attempts after the first.
	// Zero disables retrying.
	MaxRetries int
	// BaseBackoff is the wait before the first retry. It doubles per attempt.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubled wait.
	MaxBackoff time.Duration
	// MaxJitter bounds the random duration added to every wait.
	MaxJitter time.Duration
}

// Validate rejects negative settings.
func (c Config) Validate() error {
	var errs []error
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.BaseBackoff < 0 {
		errs = append(errs, errors.New("base backoff cannot be negative"))
	}
	if c.MaxBackoff < 0 {
		errs = append(errs, errors.New("max backoff cannot be negative"))
	}
	if c.MaxJitter < 0 {
		errs = append(errs, errors.New("max jitter cannot be negative"))
	}
	return errors.Join(errs...)
}

// DefaultConfig suits provider quota errors, which tend to need a few
// seconds to clear.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  4,
		BaseBackoff: time.Second,
		MaxBackoff:  30 * time.Second,
		MaxJitter:   500 * time.Millisecond,
	}
}

// Do calls fn until it succeeds, returns an error that retryable rejects, or
// the attempts run out. The final error wraps the last failure.
func Do[T any](ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 0; ; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return result, err
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		wait := cfg.backoff(attempt)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("backoff", wait).
			With("error", err.Error()).
			Warn("Transient provider error, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}
	return result, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, err)
}

func (c Config) backoff(attempt int) time.Duration {
	wait := c.BaseBackoff << attempt
	if wait > c.MaxBackoff || wait <= 0 {
		wait = c.MaxBackoff
	}
	if c.MaxJitter > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(c.MaxJitter))); err == nil {
			wait += time.Duration(n.Int64())
		}
	}
	return wait
}
