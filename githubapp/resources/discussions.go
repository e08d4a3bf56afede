/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package resources

import (
	"context"

	"github.com/chainguard-dev/clog"
	"github.com/shurcooL/githubv4"
)

// CommentPageSize is how many discussion comments GetComments reads.
const CommentPageSize = 50

// Comment is a discussion comment.
type Comment struct {
	Body string
}

// Discussions reads and creates repository discussions over GraphQL.
type Discussions struct {
	source ClientSource
}

// NewDiscussions returns a Discussions client.
func NewDiscussions(source ClientSource) *Discussions {
	return &Discussions{source: source}
}

// GetComments returns the first CommentPageSize comments of discussion
// number in owner/repo. Later pages are not fetched.
func (d *Discussions) GetComments(ctx context.Context, installationID int64, owner, repo string, number int) ([]Comment, error) {
	client, err := d.source.Get(ctx, installationID)
	if err != nil {
		return nil, err
	}

	var q struct {
		Repository struct {
			Discussion struct {
				Comments struct {
					Nodes []struct {
						Body string
					}
					PageInfo struct {
						HasNextPage bool
					}
				} `graphql:"comments(first: $first)"`
			} `graphql:"discussion(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	vars := map[string]any{
		"owner":  githubv4.String(owner),
		"repo":   githubv4.String(repo),
		"number": githubv4.Int(number),
		"first":  githubv4.Int(CommentPageSize),
	}
	if err := client.GraphQL.Query(ctx, &q, vars); err != nil {
		return nil, apiError("get discussion comments", err)
	}

	comments := q.Repository.Discussion.Comments
	if comments.PageInfo.HasNextPage {
		clog.FromContext(ctx).With("discussion", number).
			Warnf("Discussion has more than %d comments; only the first page is used", CommentPageSize)
	}
	out := make([]Comment, 0, len(comments.Nodes))
	for _, n := range comments.Nodes {
		out = append(out, Comment{Body: n.Body})
	}
	return out, nil
}

// Create opens a discussion and returns its node ID. repositoryID and
// categoryID are GraphQL node IDs.
func (d *Discussions) Create(ctx context.Context, installationID int64, repositoryID, categoryID, title, body string) (string, error) {
	client, err := d.source.Get(ctx, installationID)
	if err != nil {
		return "", err
	}

	var m struct {
		CreateDiscussion struct {
			Discussion struct {
				ID  string
				URL string
			}
		} `graphql:"createDiscussion(input: $input)"`
	}
	input := githubv4.CreateDiscussionInput{
		RepositoryID: githubv4.ID(repositoryID),
		CategoryID:   githubv4.ID(categoryID),
		Title:        githubv4.String(title),
		Body:         githubv4.String(body),
	}
	if err := client.GraphQL.Mutate(ctx, &m, input, nil); err != nil {
		return "", apiError("create discussion", err)
	}

	clog.FromContext(ctx).With("discussion_id", m.CreateDiscussion.Discussion.ID).
		With("url", m.CreateDiscussion.Discussion.URL).
		Info("Created discussion")
	return m.CreateDiscussion.Discussion.ID, nil
}
