/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package resources

import (
	"context"
)

// Issues mutates issues.
type Issues struct {
	source ClientSource
}

// NewIssues returns an Issues client.
func NewIssues(source ClientSource) *Issues {
	return &Issues{source: source}
}

// AddLabels adds labels to issue number of owner/repo. Existing labels are
// kept; GitHub creates labels that do not exist yet.
func (i *Issues) AddLabels(ctx context.Context, installationID int64, owner, repo string, number int, labels []string) error {
	client, err := i.source.Get(ctx, installationID)
	if err != nil {
		return err
	}
	if _, _, err := client.REST.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels); err != nil {
		return apiError("add labels", err)
	}
	return nil
}
