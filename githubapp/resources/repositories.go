/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package resources

import (
	"context"

	"github.com/google/go-github/v84/github"
)

// Label is a repository label.
type Label struct {
	Name        string
	Description string
}

// Repositories reads repository metadata.
type Repositories struct {
	source ClientSource
}

// NewRepositories returns a Repositories client.
func NewRepositories(source ClientSource) *Repositories {
	return &Repositories{source: source}
}

// GetLabels returns every label of owner/repo in the order GitHub lists them.
func (r *Repositories) GetLabels(ctx context.Context, installationID int64, owner, repo string) ([]Label, error) {
	client, err := r.source.Get(ctx, installationID)
	if err != nil {
		return nil, err
	}

	opts := &github.ListOptions{PerPage: 100}
	var labels []Label
	for {
		page, resp, err := client.REST.Issues.ListLabels(ctx, owner, repo, opts)
		if err != nil {
			return nil, apiError("list labels", err)
		}
		for _, l := range page {
			labels = append(labels, Label{Name: l.GetName(), Description: l.GetDescription()})
		}
		if resp.NextPage == 0 {
			return labels, nil
		}
		opts.Page = resp.NextPage
	}
}
