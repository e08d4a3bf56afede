/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/require"
)

func TestGraphQLURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "https://api.github.com", want: "https://api.github.com/graphql"},
		{base: "https://api.github.com/", want: "https://api.github.com/graphql"},
		{base: "https://ghe.example.com/api/v3", want: "https://ghe.example.com/api/graphql"},
		{base: "https://ghe.example.com/api/v3/", want: "https://ghe.example.com/api/graphql"},
		{base: "http://127.0.0.1:8080", want: "http://127.0.0.1:8080/graphql"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			require.Equal(t, tt.want, GraphQLURL(tt.base))
		})
	}
}

func TestNewClientEnterpriseGraphQL(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/graphql", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"viewer":{"login":"pmagent"}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(1, srv.Client(), srv.URL+"/api/v3")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/api/v3/", client.REST.BaseURL.String())

	var q struct {
		Viewer struct {
			Login githubv4.String
		}
	}
	require.NoError(t, client.GraphQL.Query(context.Background(), &q, nil))
	require.EqualValues(t, "pmagent", q.Viewer.Login)
	require.EqualValues(t, 1, hits.Load())
}

type countingTransport struct {
	n atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestInstallationClientsUseTransport(t *testing.T) {
	ctx := context.Background()
	srv := fakeGitHub(t)
	tr := &countingTransport{}
	auth, err := NewAppAuthenticator(1234, testKey(t), WithBaseURL(srv.URL), WithTransport(tr))
	require.NoError(t, err)

	client, err := auth.Authenticate(ctx, 42)
	require.NoError(t, err)
	minted := tr.n.Load()
	require.Positive(t, minted)

	_, _, err = client.REST.Issues.ListLabels(ctx, "acme", "widgets", nil)
	require.NoError(t, err)
	require.Equal(t, minted+1, tr.n.Load())
}
