/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainguard.dev/pmagent/githubapp"
	"github.com/google/go-cmp/cmp"
)

type staticSource struct {
	client *githubapp.Client
}

func (s staticSource) Get(_ context.Context, id int64) (*githubapp.Client, error) {
	if s.client == nil {
		return nil, &githubapp.MissingInstallationError{InstallationID: id}
	}
	return s.client, nil
}

func newSource(t *testing.T, h http.Handler) staticSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := githubapp.NewClient(1, srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	return staticSource{client: c}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func TestGetLabelsPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/labels", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want 100", got)
		}
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"name":"docs"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/acme/widgets/labels?page=2>; rel="next"`, r.Host))
		fmt.Fprint(w, `[{"name":"bug","description":"Something broken"},{"name":"high","description":""}]`)
	})

	got, err := NewRepositories(newSource(t, mux)).GetLabels(context.Background(), 1, "acme", "widgets")
	if err != nil {
		t.Fatalf("GetLabels() = %v", err)
	}
	want := []Label{{Name: "bug", Description: "Something broken"}, {Name: "high"}, {Name: "docs"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetLabels() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetLabelsAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/labels", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	_, err := NewRepositories(newSource(t, mux)).GetLabels(context.Background(), 1, "acme", "widgets")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetLabels() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

func TestMissingInstallationPassesThrough(t *testing.T) {
	src := staticSource{}
	ctx := context.Background()

	if _, err := NewRepositories(src).GetLabels(ctx, 3, "a", "b"); !errors.Is(err, githubapp.ErrMissingInstallation) {
		t.Errorf("GetLabels() error = %v, want ErrMissingInstallation", err)
	}
	if err := NewIssues(src).AddLabels(ctx, 3, "a", "b", 1, nil); !errors.Is(err, githubapp.ErrMissingInstallation) {
		t.Errorf("AddLabels() error = %v, want ErrMissingInstallation", err)
	}
	if _, err := NewDiscussions(src).GetComments(ctx, 3, "a", "b", 1); !errors.Is(err, githubapp.ErrMissingInstallation) {
		t.Errorf("GetComments() error = %v, want ErrMissingInstallation", err)
	}
	if _, err := NewDiscussions(src).Create(ctx, 3, "R", "C", "t", "b"); !errors.Is(err, githubapp.ErrMissingInstallation) {
		t.Errorf("Create() error = %v, want ErrMissingInstallation", err)
	}
}

func TestAddLabels(t *testing.T) {
	var got []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/widgets/issues/7/labels", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `[]`)
	})

	if err := NewIssues(newSource(t, mux)).AddLabels(context.Background(), 1, "acme", "widgets", 7, []string{"high", "bug"}); err != nil {
		t.Fatalf("AddLabels() = %v", err)
	}
	if diff := cmp.Diff([]string{"high", "bug"}, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestGetCommentsBindsVariables(t *testing.T) {
	owner := `evil") { __typename } #`
	var req graphQLRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"data":{"repository":{"discussion":{"comments":{"nodes":[{"body":"+1"},{"body":"ship it"}],"pageInfo":{"hasNextPage":true}}}}}}`)
	})

	got, err := NewDiscussions(newSource(t, mux)).GetComments(context.Background(), 1, owner, "widgets", 12)
	if err != nil {
		t.Fatalf("GetComments() = %v", err)
	}
	if diff := cmp.Diff([]Comment{{Body: "+1"}, {Body: "ship it"}}, got); diff != "" {
		t.Errorf("GetComments() mismatch (-want +got):\n%s", diff)
	}

	if strings.Contains(req.Query, "evil") {
		t.Errorf("query text contains user input: %s", req.Query)
	}
	for _, frag := range []string{"repository(owner: $owner, name: $repo)", "discussion(number: $number)", "comments(first: $first)"} {
		if !strings.Contains(req.Query, frag) {
			t.Errorf("query %q missing %q", req.Query, frag)
		}
	}
	wantVars := map[string]any{"owner": owner, "repo": "widgets", "number": float64(12), "first": float64(50)}
	if diff := cmp.Diff(wantVars, req.Variables); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDiscussion(t *testing.T) {
	var req graphQLRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"data":{"createDiscussion":{"discussion":{"id":"D_new","url":"https://github.com/acme/widgets/discussions/13"}}}}`)
	})

	id, err := NewDiscussions(newSource(t, mux)).Create(context.Background(), 1, "R_repo", "DIC_cat", "Vote: M1", "| a | b |")
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if id != "D_new" {
		t.Errorf("Create() = %q, want D_new", id)
	}
	if !strings.Contains(req.Query, "createDiscussion(input: $input)") {
		t.Errorf("mutation = %q, want createDiscussion(input: $input)", req.Query)
	}
	want := map[string]any{"input": map[string]any{
		"repositoryId": "R_repo",
		"categoryId":   "DIC_cat",
		"title":        "Vote: M1",
		"body":         "| a | b |",
	}}
	if diff := cmp.Diff(want, req.Variables); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphQLErrorsAreAPIErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"Could not resolve to a Repository"}],"data":null}`)
	})
	_, err := NewDiscussions(newSource(t, mux)).GetComments(context.Background(), 1, "acme", "gone", 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetComments() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", apiErr.StatusCode)
	}
}
