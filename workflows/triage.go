/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflows

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/pmagent/agents/agentruntime"
	"chainguard.dev/pmagent/agents/metrics"
	"chainguard.dev/pmagent/agents/promptbuilder"
	"chainguard.dev/pmagent/agents/result"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"go.opentelemetry.io/otel/attribute"
)

// TriageDecision is the model's choice of labels for an issue.
type TriageDecision struct {
	Priority string `json:"priority"`
	Type     string `json:"type"`
}

// Labels returns the labels to apply, priority first.
func (d TriageDecision) Labels() []string {
	return []string{d.Priority, d.Type}
}

// ParseTriageDecision extracts a decision from a model response. Both
// fields must be present.
func ParseTriageDecision(response string) (TriageDecision, error) {
	d, err := result.Extract[TriageDecision](response)
	if err != nil {
		return TriageDecision{}, fmt.Errorf("%w: %w", ErrMalformedModelOutput, err)
	}
	d.Priority = strings.TrimSpace(d.Priority)
	d.Type = strings.TrimSpace(d.Type)
	if d.Priority == "" || d.Type == "" {
		return TriageDecision{}, fmt.Errorf("%w: triage needs both priority and type, got %+v", ErrMalformedModelOutput, d)
	}
	return d, nil
}

// Triage labels newly opened issues.
type Triage struct {
	agent  Agent
	labels LabelSource
	issues LabelApplier
}

// NewTriage creates a Triage workflow.
func NewTriage(agent Agent, labels LabelSource, issues LabelApplier) *Triage {
	return &Triage{agent: agent, labels: labels, issues: issues}
}

// Handle triages the issue in e. Every failure is returned to the caller.
func (t *Triage) Handle(ctx context.Context, e *github.IssuesEvent) error {
	installationID := e.GetInstallation().GetID()
	issue := e.GetIssue()
	owner, repo := e.GetRepo().GetOwner().GetLogin(), e.GetRepo().GetName()
	if installationID == 0 || issue == nil || owner == "" || repo == "" {
		return fmt.Errorf("%w: issues event needs installation, issue and repository", ErrMalformedPayload)
	}

	log := clog.FromContext(ctx).With("installation", installationID, "repo", owner+"/"+repo, "issue", issue.GetNumber())
	ctx = clog.WithLogger(ctx, log)
	ctx = metrics.WithAttributes(ctx,
		attribute.String("workflow", "triage"),
		attribute.String("repository", owner+"/"+repo))

	labels, err := t.labels.GetLabels(ctx, installationID, owner, repo)
	if err != nil {
		return fmt.Errorf("listing labels: %w", err)
	}

	user := issue.GetUser()
	response, err := converse(ctx, t.agent, thread{
		kind: "issue",
		id:   issue.GetID(),
		conn: agentruntime.Connection{
			UserID:   agentruntime.UserID(user.GetID()),
			RoomID:   agentruntime.RoomID("issue", issue.GetID()),
			UserName: user.GetLogin(),
			Name:     user.GetName(),
			Source:   "github",
		},
		text: issue.GetTitle() + "\n\n" + issue.GetBody(),
		url:  issue.GetHTMLURL(),
		extras: map[string]string{
			"title":  issue.GetTitle(),
			"body":   issue.GetBody(),
			"labels": FormatLabels(labels),
		},
	}, func(s agentruntime.State) (string, error) {
		return promptbuilder.Render(issueOpenedPrompt, s)
	})
	if err != nil {
		return err
	}

	decision, err := ParseTriageDecision(response)
	if err != nil {
		return err
	}
	if err := t.issues.AddLabels(ctx, installationID, owner, repo, issue.GetNumber(), decision.Labels()); err != nil {
		return fmt.Errorf("labeling issue: %w", err)
	}
	log.With("priority", decision.Priority, "type", decision.Type).Info("Triaged issue")
	return nil
}
