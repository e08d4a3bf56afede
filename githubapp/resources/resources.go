/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package resources wraps the GitHub REST and GraphQL endpoints the agent
// uses. Every call resolves its installation client through a ClientSource
// and carries no other state.
package resources

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/pmagent/githubapp"
	"github.com/google/go-github/v84/github"
)

// ClientSource resolves installation clients. *githubapp.Cache implements it.
type ClientSource interface {
	Get(ctx context.Context, installationID int64) (*githubapp.Client, error)
}

var _ ClientSource = (*githubapp.Cache)(nil)

// APIError is a failed GitHub call. StatusCode is zero when the failure did
// not come with an HTTP status, as with GraphQL errors.
type APIError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: github returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func apiError(op string, err error) error {
	e := &APIError{Op: op, Err: err}
	var resp *github.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		e.StatusCode = resp.Response.StatusCode
	}
	return e
}
