/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// Authenticator exchanges the App's credentials for installation clients.
type Authenticator interface {
	// Authenticate returns a client holding a fresh installation token.
	Authenticate(ctx context.Context, installationID int64) (*Client, error)
	// Installations lists every installation of the App.
	Installations(ctx context.Context) ([]int64, error)
}

// AppAuthenticator signs App JWTs with the App's private key.
type AppAuthenticator struct {
	apps      *ghinstallation.AppsTransport
	app       *github.Client
	baseURL   string
	transport http.RoundTripper
}

var _ Authenticator = (*AppAuthenticator)(nil)

// AuthOption configures an AppAuthenticator.
type AuthOption func(*authOptions)

type authOptions struct {
	baseURL   string
	transport http.RoundTripper
}

// WithBaseURL targets a GitHub Enterprise Server or a test server.
func WithBaseURL(baseURL string) AuthOption {
	return func(o *authOptions) { o.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithTransport sets the transport under the App JWT and token transports.
func WithTransport(tr http.RoundTripper) AuthOption {
	return func(o *authOptions) { o.transport = tr }
}

// NewAppAuthenticator creates an authenticator from the App ID and its PEM
// encoded private key.
func NewAppAuthenticator(appID int64, privateKey []byte, opts ...AuthOption) (*AppAuthenticator, error) {
	o := authOptions{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}
	apps, err := ghinstallation.NewAppsTransport(o.transport, appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("create app transport: %w", err)
	}
	if o.baseURL != "" {
		apps.BaseURL = o.baseURL
	}

	app, err := NewClient(0, &http.Client{Transport: apps}, o.baseURL)
	if err != nil {
		return nil, err
	}
	return &AppAuthenticator{apps: apps, app: app.REST, baseURL: o.baseURL, transport: o.transport}, nil
}

// Authenticate mints an installation token up front so that credential
// problems surface here rather than on the first API call.
func (a *AppAuthenticator) Authenticate(ctx context.Context, installationID int64) (*Client, error) {
	itr := ghinstallation.NewFromAppsTransport(a.apps, installationID)
	token, err := itr.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("create token for installation %d: %w", installationID, err)
	}
	// Installation clients share the App's transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: a.transport})
	return NewTokenClient(ctx, installationID, token, a.baseURL)
}

// Installations pages through GET /app/installations.
func (a *AppAuthenticator) Installations(ctx context.Context) ([]int64, error) {
	opts := &github.ListOptions{PerPage: 100}
	var ids []int64
	for {
		page, resp, err := a.app.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list installations: %w", err)
		}
		for _, inst := range page {
			ids = append(ids, inst.GetID())
		}
		if resp.NextPage == 0 {
			return ids, nil
		}
		opts.Page = resp.NextPage
	}
}
