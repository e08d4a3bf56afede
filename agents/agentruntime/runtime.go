/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentruntime

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/pmagent/agents/agentruntime/memory"
	"chainguard.dev/pmagent/agents/generate"
	"chainguard.dev/pmagent/agents/promptbuilder"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// Store is the persistence the runtime needs. *memory.Store implements it.
type Store interface {
	EnsureAccount(ctx context.Context, a memory.Account) error
	EnsureRoom(ctx context.Context, roomID uuid.UUID) error
	EnsureParticipant(ctx context.Context, userID, roomID uuid.UUID) error
	CreateMemory(ctx context.Context, m memory.Memory) (bool, error)
	RecentMemories(ctx context.Context, roomID uuid.UUID, limit int) ([]memory.Memory, error)
}

var _ Store = (*memory.Store)(nil)

// Connection names a user and the room they are talking in.
type Connection struct {
	UserID   uuid.UUID
	RoomID   uuid.UUID
	UserName string
	Name     string
	Source   string
}

// Evaluation is what an Evaluator inspects after a generation.
type Evaluation struct {
	Message  memory.Memory
	Response memory.Memory
	State    State
}

// Evaluator runs after each generation, e.g. to extract facts.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, e Evaluation) error
}

// Runtime binds a character to its store and generator.
type Runtime struct {
	character    Character
	store        Store
	generator    generate.Generator
	evaluators   []Evaluator
	recentWindow int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithEvaluators registers evaluators run by Evaluate, in order.
func WithEvaluators(evs ...Evaluator) Option {
	return func(r *Runtime) { r.evaluators = append(r.evaluators, evs...) }
}

// WithRecentWindow sets how many prior messages ComposeState includes.
func WithRecentWindow(n int) Option {
	return func(r *Runtime) { r.recentWindow = n }
}

// New creates a Runtime.
func New(character Character, store Store, gen generate.Generator, opts ...Option) (*Runtime, error) {
	if store == nil {
		return nil, errors.New("agent runtime requires a store")
	}
	if gen == nil {
		return nil, errors.New("agent runtime requires a generator")
	}
	r := &Runtime{
		character:    character,
		store:        store,
		generator:    gen,
		recentWindow: 20,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// AgentID is the agent's own account ID.
func (r *Runtime) AgentID() uuid.UUID { return r.character.ID }

// Character returns the persona.
func (r *Runtime) Character() Character { return r.character }

// EnsureConnection makes sure the user, the agent and the room exist and
// that both accounts participate in the room.
func (r *Runtime) EnsureConnection(ctx context.Context, c Connection) error {
	if err := r.store.EnsureAccount(ctx, memory.Account{
		ID:       c.UserID,
		Name:     cmp.Or(c.Name, c.UserName),
		Username: c.UserName,
		Source:   c.Source,
	}); err != nil {
		return err
	}
	if err := r.store.EnsureAccount(ctx, memory.Account{
		ID:       r.character.ID,
		Name:     r.character.Name,
		Username: r.character.Username,
		Source:   "agent",
	}); err != nil {
		return err
	}
	if err := r.store.EnsureRoom(ctx, c.RoomID); err != nil {
		return err
	}
	for _, id := range []uuid.UUID{c.UserID, r.character.ID} {
		if err := r.store.EnsureParticipant(ctx, id, c.RoomID); err != nil {
			return err
		}
	}
	return nil
}

// CreateMemory stores m, stamping the agent ID. A memory that already exists
// is left untouched.
func (r *Runtime) CreateMemory(ctx context.Context, m memory.Memory) error {
	m.AgentID = r.character.ID
	created, err := r.store.CreateMemory(ctx, m)
	if err != nil {
		return err
	}
	if !created {
		clog.FromContext(ctx).With("memory_id", m.ID).Info("Memory already recorded, skipping")
	}
	return nil
}

// ComposeState builds the prompt bindings for a room: the persona plus
// recent conversation, overlaid with extras.
func (r *Runtime) ComposeState(ctx context.Context, roomID uuid.UUID, extras map[string]string) (State, error) {
	recent, err := r.store.RecentMemories(ctx, roomID, r.recentWindow)
	if err != nil {
		return nil, fmt.Errorf("compose state: %w", err)
	}
	c := r.character
	s := State{
		"agentName":         c.Name,
		"system":            c.System,
		"bio":               strings.Join(c.Bio, "\n"),
		"lore":              strings.Join(c.Lore, "\n"),
		"knowledge":         bullets(c.Knowledge),
		"adjectives":        strings.Join(c.Adjectives, ", "),
		"topics":            strings.Join(c.Topics, ", "),
		"messageDirections": messageDirections(c),
		"recentMessages":    formatMessages(recent),
		"attachments":       "",
	}
	for k, v := range extras {
		s[k] = v
	}
	return s, nil
}

// Generate asks the model for a completion using the character's system
// prompt.
func (r *Runtime) Generate(ctx context.Context, prompt string, class generate.ModelClass) (string, error) {
	return r.generator.Generate(ctx, generate.Request{
		System: r.character.System,
		Prompt: prompt,
		Class:  class,
	})
}

// Evaluate runs every registered evaluator and joins their failures.
func (r *Runtime) Evaluate(ctx context.Context, e Evaluation) error {
	var errs []error
	for _, ev := range r.evaluators {
		if err := ev.Evaluate(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("evaluator %s: %w", ev.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func messageDirections(c Character) string {
	var lines []string
	if len(c.Style.All) > 0 || len(c.Style.Chat) > 0 {
		lines = append(lines, "# Message Directions for "+c.Name)
		lines = append(lines, c.Style.All...)
		lines = append(lines, c.Style.Chat...)
	}
	return strings.Join(lines, "\n")
}

func formatMessages(ms []memory.Memory) string {
	var b strings.Builder
	for _, m := range ms {
		name := cmp.Or(m.UserName, m.UserID.String())
		fmt.Fprintf(&b, "%s: %s\n", name, m.Content.Text)
	}
	return b.String()
}

func bullets(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
	return b.String()
}

// State holds prompt bindings keyed by placeholder name.
type State map[string]string

var _ promptbuilder.Bindable = State(nil)

// Bind fills every placeholder of p that s has a value for.
func (s State) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindMap(s), nil
}
