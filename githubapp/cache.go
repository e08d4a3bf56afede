/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TokenTTL is how long a cached client is trusted. It matches the lifetime
// of a GitHub installation access token.
const TokenTTL = time.Hour

var refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pmagent_installation_refreshes_total",
	Help: "Installation token refreshes by outcome.",
}, []string{"outcome"})

type entry struct {
	client     *Client
	expiration time.Time
}

// ReconcileOutcome is the result of refreshing one installation during
// ReconcileAll. Err is nil on success.
type ReconcileOutcome struct {
	InstallationID int64
	Err            error
}

// Cache maps installation IDs to authenticated clients.
//
// Concurrent refreshes of one installation are not coalesced: both
// authenticate and the last write wins.
type Cache struct {
	auth Authenticator
	now  func() time.Time

	mu      sync.RWMutex
	entries map[int64]*entry
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache returns an empty cache backed by auth.
func NewCache(auth Authenticator, opts ...CacheOption) *Cache {
	c := &Cache{
		auth:    auth,
		now:     time.Now,
		entries: make(map[int64]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh authenticates installationID and replaces its entry. On failure
// the previous entry, if any, is left in place.
func (c *Cache) Refresh(ctx context.Context, installationID int64) (*Client, error) {
	// GitHub counts the token lifetime from issuance, so stamp before the call.
	issued := c.now()
	client, err := c.auth.Authenticate(ctx, installationID)
	if err != nil {
		refreshes.WithLabelValues("error").Inc()
		return nil, err
	}
	refreshes.WithLabelValues("success").Inc()

	e := &entry{client: client, expiration: issued.Add(TokenTTL)}
	c.mu.Lock()
	c.entries[installationID] = e
	c.mu.Unlock()

	clog.FromContext(ctx).With("installation_id", installationID).
		With("expires", e.expiration).
		Debug("Refreshed installation token")
	return client, nil
}

// Get returns the cached client for installationID, refreshing it first if
// its token has expired. Installations that were never refreshed yield a
// MissingInstallationError.
func (c *Cache) Get(ctx context.Context, installationID int64) (*Client, error) {
	c.mu.RLock()
	e, ok := c.entries[installationID]
	c.mu.RUnlock()

	if !ok {
		return nil, &MissingInstallationError{InstallationID: installationID}
	}
	if !c.now().Before(e.expiration) {
		return c.Refresh(ctx, installationID)
	}
	return e.client, nil
}

// Register makes an installation that appeared after startup available to
// Get. Known installations go through Get, so an expired one is refreshed
// once and a failed refresh is returned as is.
func (c *Cache) Register(ctx context.Context, installationID int64) (*Client, error) {
	client, err := c.Get(ctx, installationID)
	if errors.Is(err, ErrMissingInstallation) {
		return c.Refresh(ctx, installationID)
	}
	return client, err
}

// Forget drops an installation, e.g. after the App was uninstalled.
func (c *Cache) Forget(installationID int64) {
	c.mu.Lock()
	delete(c.entries, installationID)
	c.mu.Unlock()
}

// Installations returns the IDs currently cached.
func (c *Cache) Installations() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}

// ReconcileAll refreshes every installation of the App. A failing
// installation is logged and skipped; its outcome carries the error. Only a
// failure to list installations is returned as an error.
func (c *Cache) ReconcileAll(ctx context.Context) ([]ReconcileOutcome, error) {
	ids, err := c.auth.Installations(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile installations: %w", err)
	}

	log := clog.FromContext(ctx)
	outcomes := make([]ReconcileOutcome, 0, len(ids))
	for _, id := range ids {
		_, err := c.Refresh(ctx, id)
		if err != nil {
			log.With("installation_id", id).Errorf("Failed to refresh installation: %v", err)
		}
		outcomes = append(outcomes, ReconcileOutcome{InstallationID: id, Err: err})
	}
	log.With("installations", len(ids)).Info("Reconciled installations")
	return outcomes, nil
}
