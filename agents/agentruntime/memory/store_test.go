/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{{
		url:        "postgres://u:p@db:5432/agent?sslmode=disable",
		wantDriver: "postgres",
		wantDSN:    "postgres://u:p@db:5432/agent?sslmode=disable",
	}, {
		url:        "postgresql://db/agent",
		wantDriver: "postgres",
		wantDSN:    "postgresql://db/agent",
	}, {
		url:        "sqlite:///var/lib/agent.db",
		wantDriver: "sqlite",
		wantDSN:    "file:/var/lib/agent.db?_pragma=busy_timeout(5000)",
	}, {
		url:        "file::memory:",
		wantDriver: "sqlite",
		wantDSN:    "file::memory:",
	}, {
		url:     "mysql://db/agent",
		wantErr: true,
	}, {
		url:     "sqlite://",
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn, _, err := parseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrUnsupportedURL) {
					t.Errorf("parseURL() error = %v, want ErrUnsupportedURL", err)
				}
				return
			}
			if driver != tt.wantDriver || dsn != tt.wantDSN {
				t.Errorf("parseURL() = (%q, %q), want (%q, %q)", driver, dsn, tt.wantDriver, tt.wantDSN)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: postgres}
	if got, want := pg.rebind("a = ? AND b = ?"), "a = $1 AND b = $2"; got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
	lite := &Store{dialect: sqlite}
	if got, want := lite.rebind("a = ?"), "a = ?"; got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	user := Account{ID: uuid.New(), Name: "Octo Cat", Username: "octocat", Source: "github"}
	room := uuid.New()

	for range 2 {
		require.NoError(t, s.EnsureAccount(ctx, user))
		require.NoError(t, s.EnsureRoom(ctx, room))
		require.NoError(t, s.EnsureParticipant(ctx, user.ID, room))
	}
}

func TestCreateMemoryDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := Memory{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		AgentID: uuid.New(),
		RoomID:  uuid.New(),
		Content: Content{Text: "first", Source: "github"},
	}

	created, err := s.CreateMemory(ctx, m)
	require.NoError(t, err)
	require.True(t, created)

	m.Content.Text = "second"
	created, err = s.CreateMemory(ctx, m)
	require.NoError(t, err)
	require.False(t, created, "duplicate memory ID must not be stored twice")

	got, err := s.RecentMemories(ctx, m.RoomID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "first", got[0].Content.Text)
}

func TestRecentMemories(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	room := uuid.New()
	user := Account{ID: uuid.New(), Name: "Octo Cat", Username: "octocat", Source: "github"}
	require.NoError(t, s.EnsureAccount(ctx, user))

	base := time.UnixMilli(1_700_000_000_000)
	for i := range 5 {
		_, err := s.CreateMemory(ctx, Memory{
			ID:        uuid.New(),
			UserID:    user.ID,
			AgentID:   uuid.New(),
			RoomID:    room,
			Content:   Content{Text: fmt.Sprintf("message %d", i)},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	// A different room is never returned.
	_, err := s.CreateMemory(ctx, Memory{ID: uuid.New(), RoomID: uuid.New(), Content: Content{Text: "elsewhere"}})
	require.NoError(t, err)

	got, err := s.RecentMemories(ctx, room, 3)
	require.NoError(t, err)

	var texts []string
	for _, m := range got {
		texts = append(texts, m.Content.Text)
		require.Equal(t, "Octo Cat", m.UserName)
	}
	if diff := cmp.Diff([]string{"message 2", "message 3", "message 4"}, texts); diff != "" {
		t.Errorf("RecentMemories() mismatch (-want +got):\n%s", diff)
	}
}
