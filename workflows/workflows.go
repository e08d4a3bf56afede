/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package workflows holds the agent's reactions to GitHub events: triaging
// newly opened issues and turning closed discussions into milestone votes.
package workflows

import (
	"context"
	"errors"

	"chainguard.dev/pmagent/agents/agentruntime"
	"chainguard.dev/pmagent/agents/agentruntime/memory"
	"chainguard.dev/pmagent/agents/generate"
	"chainguard.dev/pmagent/githubapp/resources"
	"github.com/google/uuid"
)

var (
	// ErrMalformedPayload is returned for deliveries missing the fields a
	// workflow needs.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrMalformedModelOutput is returned when the model's answer lacks the
	// expected structure.
	ErrMalformedModelOutput = errors.New("malformed model output")
)

// Agent is the runtime surface workflows drive. *agentruntime.Runtime
// implements it.
type Agent interface {
	AgentID() uuid.UUID
	EnsureConnection(ctx context.Context, c agentruntime.Connection) error
	CreateMemory(ctx context.Context, m memory.Memory) error
	ComposeState(ctx context.Context, roomID uuid.UUID, extras map[string]string) (agentruntime.State, error)
	Generate(ctx context.Context, prompt string, class generate.ModelClass) (string, error)
	Evaluate(ctx context.Context, e agentruntime.Evaluation) error
}

var _ Agent = (*agentruntime.Runtime)(nil)

// LabelSource lists repository labels.
type LabelSource interface {
	GetLabels(ctx context.Context, installationID int64, owner, repo string) ([]resources.Label, error)
}

// LabelApplier adds labels to issues.
type LabelApplier interface {
	AddLabels(ctx context.Context, installationID int64, owner, repo string, number int, labels []string) error
}

// Discussions reads and opens repository discussions.
type Discussions interface {
	GetComments(ctx context.Context, installationID int64, owner, repo string, number int) ([]resources.Comment, error)
	Create(ctx context.Context, installationID int64, repositoryID, categoryID, title, body string) (string, error)
}

// Instantiator opens a vote contract and returns its address.
type Instantiator interface {
	Instantiate(ctx context.Context, label string, candidates []string) (string, error)
}

var (
	_ LabelSource  = (*resources.Repositories)(nil)
	_ LabelApplier = (*resources.Issues)(nil)
	_ Discussions  = (*resources.Discussions)(nil)
)

// thread is one GitHub issue or discussion the agent is replying to.
type thread struct {
	kind   string
	id     int64
	conn   agentruntime.Connection
	text   string
	url    string
	extras map[string]string
}

// converse records the incoming message, asks the model, and records and
// evaluates the answer. Memory IDs derive from the thread so redeliveries
// do not duplicate them.
func converse(ctx context.Context, agent Agent, t thread, render func(agentruntime.State) (string, error)) (string, error) {
	if err := agent.EnsureConnection(ctx, t.conn); err != nil {
		return "", err
	}
	msg := memory.Memory{
		ID:     agentruntime.MemoryID(t.kind, t.id, "message"),
		UserID: t.conn.UserID,
		RoomID: t.conn.RoomID,
		Content: memory.Content{
			Text:   t.text,
			Source: t.conn.Source,
			URL:    t.url,
		},
	}
	if err := agent.CreateMemory(ctx, msg); err != nil {
		return "", err
	}

	state, err := agent.ComposeState(ctx, t.conn.RoomID, t.extras)
	if err != nil {
		return "", err
	}
	prompt, err := render(state)
	if err != nil {
		return "", err
	}
	text, err := agent.Generate(ctx, prompt, generate.Large)
	if err != nil {
		return "", err
	}

	response := memory.Memory{
		ID:     agentruntime.MemoryID(t.kind, t.id, "response"),
		UserID: agent.AgentID(),
		RoomID: t.conn.RoomID,
		Content: memory.Content{
			Text:      text,
			Source:    t.conn.Source,
			InReplyTo: msg.ID.String(),
		},
	}
	if err := agent.CreateMemory(ctx, response); err != nil {
		return "", err
	}
	if err := agent.Evaluate(ctx, agentruntime.Evaluation{Message: msg, Response: response, State: state}); err != nil {
		return "", err
	}
	return text, nil
}
