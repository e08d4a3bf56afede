/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Client is an authenticated handle for one installation. REST and GraphQL
// share the same token.
type Client struct {
	InstallationID int64
	REST           *github.Client
	GraphQL        *githubv4.Client
}

// NewClient builds a Client over hc. An empty baseURL targets github.com;
// otherwise REST calls go to baseURL and GraphQL to GraphQLURL(baseURL).
func NewClient(installationID int64, hc *http.Client, baseURL string) (*Client, error) {
	rest := github.NewClient(hc)
	gql := githubv4.NewClient(hc)
	if baseURL != "" {
		base := strings.TrimRight(baseURL, "/")
		u, err := url.Parse(base + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		rest.BaseURL = u
		gql = githubv4.NewEnterpriseClient(GraphQLURL(base), hc)
	}
	return &Client{InstallationID: installationID, REST: rest, GraphQL: gql}, nil
}

// GraphQLURL returns the GraphQL endpoint next to a REST base URL. GitHub
// Enterprise Server serves REST under /api/v3 and GraphQL under /api/graphql;
// elsewhere GraphQL lives at /graphql below the base.
func GraphQLURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if prefix, ok := strings.CutSuffix(base, "/api/v3"); ok {
		return prefix + "/api/graphql"
	}
	return base + "/graphql"
}

// NewTokenClient builds a Client that sends token on every request.
func NewTokenClient(ctx context.Context, installationID int64, token, baseURL string) (*Client, error) {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return NewClient(installationID, hc, baseURL)
}
