/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflows

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"chainguard.dev/pmagent/agents/agentruntime"
	"chainguard.dev/pmagent/agents/metrics"
	"chainguard.dev/pmagent/agents/promptbuilder"
	"chainguard.dev/pmagent/agents/result"
	"chainguard.dev/pmagent/voting"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"go.opentelemetry.io/otel/attribute"
)

// ShortlistSize is how many features go up for a vote.
const ShortlistSize = 5

// Shortlist is the model's pick of features for the next milestone.
type Shortlist struct {
	Title    string             `json:"title"`
	Summary  string             `json:"summary"`
	Features []voting.Candidate `json:"features"`
}

// ParseShortlist extracts a shortlist from a model response. Fewer than
// ShortlistSize features, an unnamed feature or a repeated name is an error.
// Extra features are dropped.
func ParseShortlist(response string) (Shortlist, error) {
	s, err := result.Extract[Shortlist](response)
	if err != nil {
		return Shortlist{}, fmt.Errorf("%w: %w", ErrMalformedModelOutput, err)
	}
	if len(s.Features) < ShortlistSize {
		return Shortlist{}, fmt.Errorf("%w: want %d features, got %d", ErrMalformedModelOutput, ShortlistSize, len(s.Features))
	}
	s.Features = s.Features[:ShortlistSize]
	seen := make(map[string]bool, ShortlistSize)
	for i, f := range s.Features {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return Shortlist{}, fmt.Errorf("%w: feature %d has no name", ErrMalformedModelOutput, i)
		}
		if seen[name] {
			return Shortlist{}, fmt.Errorf("%w: feature %q listed twice", ErrMalformedModelOutput, name)
		}
		seen[name] = true
		s.Features[i].Name = name
	}
	return s, nil
}

// Candidates returns the feature names in order.
func (s Shortlist) Candidates() []string {
	names := make([]string, 0, len(s.Features))
	for _, f := range s.Features {
		names = append(names, f.Name)
	}
	return names
}

// Milestone turns a closed discussion into a feature vote.
type Milestone struct {
	agent       Agent
	discussions Discussions
	voting      Instantiator
	voteURL     string
}

// NewMilestone creates a Milestone workflow. voteURL is the page voters are
// sent to.
func NewMilestone(agent Agent, discussions Discussions, votes Instantiator, voteURL string) *Milestone {
	return &Milestone{agent: agent, discussions: discussions, voting: votes, voteURL: voteURL}
}

// Handle shortlists features from the discussion in e, opens a vote
// contract and announces it in a new discussion. Failures up to and
// including the shortlist are returned. Failures opening the vote or
// announcing it are logged and swallowed.
func (m *Milestone) Handle(ctx context.Context, e *github.DiscussionEvent) error {
	installationID := e.GetInstallation().GetID()
	discussion := e.GetDiscussion()
	r := e.GetRepo()
	owner, repo := r.GetOwner().GetLogin(), r.GetName()
	if installationID == 0 || discussion == nil || owner == "" || repo == "" {
		return fmt.Errorf("%w: discussion event needs installation, discussion and repository", ErrMalformedPayload)
	}

	log := clog.FromContext(ctx).With("installation", installationID, "repo", owner+"/"+repo, "discussion", discussion.GetNumber())
	ctx = clog.WithLogger(ctx, log)
	ctx = metrics.WithAttributes(ctx,
		attribute.String("workflow", "milestone"),
		attribute.String("repository", owner+"/"+repo))

	comments, err := m.discussions.GetComments(ctx, installationID, owner, repo, discussion.GetNumber())
	if err != nil {
		return fmt.Errorf("reading comments: %w", err)
	}

	user := discussion.GetUser()
	response, err := converse(ctx, m.agent, thread{
		kind: "discussion",
		id:   discussion.GetID(),
		conn: agentruntime.Connection{
			UserID:   agentruntime.UserID(user.GetID()),
			RoomID:   agentruntime.RoomID("discussion", discussion.GetID()),
			UserName: user.GetLogin(),
			Name:     user.GetName(),
			Source:   "github",
		},
		text: discussion.GetTitle() + "\n\n" + discussion.GetBody(),
		url:  discussion.GetHTMLURL(),
		extras: map[string]string{
			"title":    discussion.GetTitle(),
			"body":     discussion.GetBody(),
			"comments": FormatComments(comments),
		},
	}, func(s agentruntime.State) (string, error) {
		return promptbuilder.Render(discussionClosedPrompt, s)
	})
	if err != nil {
		return err
	}

	shortlist, err := ParseShortlist(response)
	if err != nil {
		return err
	}
	title := cmp.Or(strings.TrimSpace(shortlist.Title), discussion.GetTitle())

	addr, err := m.voting.Instantiate(ctx, title, shortlist.Candidates())
	if err != nil {
		log.Errorf("Failed to open vote: %v", err)
		return nil
	}
	log = log.With("contract", addr)

	body := voting.VoteTable(m.voteURL, addr, shortlist.Summary, shortlist.Features)
	id, err := m.discussions.Create(ctx, installationID,
		r.GetNodeID(), discussion.GetDiscussionCategory().GetNodeID(),
		"Vote: "+title, body)
	if err != nil {
		log.Errorf("Failed to announce vote: %v", err)
		return nil
	}
	log.With("vote_discussion", id).Info("Opened milestone vote")
	return nil
}
