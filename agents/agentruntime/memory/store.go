/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package memory persists the agent's accounts, rooms and messages in a SQL
// database. Postgres and SQLite are supported.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrUnsupportedURL is returned for datastore URLs with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported datastore url")

// Account is a participant known to the agent, either a GitHub user or the
// agent itself.
type Account struct {
	ID       uuid.UUID
	Name     string
	Username string
	Source   string
}

// Content is the body of a memory.
type Content struct {
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	URL       string `json:"url,omitempty"`
	InReplyTo string `json:"inReplyTo,omitempty"`
}

// Memory is one message in a room.
type Memory struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AgentID   uuid.UUID
	RoomID    uuid.UUID
	Content   Content
	CreatedAt time.Time

	// UserName is filled in on reads from the author's account.
	UserName string
}

type dialect int

const (
	sqlite dialect = iota
	postgres
)

// Store is a SQL-backed memory store.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the datastore named by rawURL and creates the schema.
// postgres:// and postgresql:// URLs use lib/pq; sqlite:// and file: URLs
// use the pure Go SQLite driver.
func Open(ctx context.Context, rawURL string) (*Store, error) {
	driver, dsn, d, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d == sqlite {
		// SQLite has a single writer, and in-memory databases are per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	clog.FromContext(ctx).With("driver", driver).Info("Memory store ready")
	return s, nil
}

// ValidateURL reports whether Open understands rawURL.
func ValidateURL(rawURL string) error {
	_, _, _, err := parseURL(rawURL)
	return err
}

func parseURL(rawURL string) (driver, dsn string, d dialect, err error) {
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return "postgres", rawURL, postgres, nil
	case strings.HasPrefix(rawURL, "sqlite://"):
		path := strings.TrimPrefix(rawURL, "sqlite://")
		if path == "" {
			return "", "", 0, fmt.Errorf("%w: %q has no path", ErrUnsupportedURL, rawURL)
		}
		return "sqlite", "file:" + path + "?_pragma=busy_timeout(5000)", sqlite, nil
	case strings.HasPrefix(rawURL, "file:"):
		return "sqlite", rawURL, sqlite, nil
	}
	return "", "", 0, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		user_id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, room_id)
	)`,
	`CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS memories_room_created ON memories (room_id, created_at)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders into the numbered form Postgres expects.
func (s *Store) rebind(query string) string {
	if s.dialect != postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

// EnsureAccount creates the account if it does not exist.
func (s *Store) EnsureAccount(ctx context.Context, a Account) error {
	if _, err := s.exec(ctx,
		`INSERT INTO accounts (id, name, username, source, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID.String(), a.Name, a.Username, a.Source, time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("ensure account %s: %w", a.ID, err)
	}
	return nil
}

// EnsureRoom creates the room if it does not exist.
func (s *Store) EnsureRoom(ctx context.Context, roomID uuid.UUID) error {
	if _, err := s.exec(ctx,
		`INSERT INTO rooms (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		roomID.String(), time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("ensure room %s: %w", roomID, err)
	}
	return nil
}

// EnsureParticipant adds userID to roomID if it is not already a member.
func (s *Store) EnsureParticipant(ctx context.Context, userID, roomID uuid.UUID) error {
	if _, err := s.exec(ctx,
		`INSERT INTO participants (user_id, room_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, room_id) DO NOTHING`,
		userID.String(), roomID.String(), time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("ensure participant %s in %s: %w", userID, roomID, err)
	}
	return nil
}

// CreateMemory stores m. It reports false without error when a memory with
// the same ID already exists.
func (s *Store) CreateMemory(ctx context.Context, m Memory) (bool, error) {
	content, err := json.Marshal(m.Content)
	if err != nil {
		return false, fmt.Errorf("encode memory content: %w", err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	res, err := s.exec(ctx,
		`INSERT INTO memories (id, user_id, agent_id, room_id, content, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		m.ID.String(), m.UserID.String(), m.AgentID.String(), m.RoomID.String(), string(content), m.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("create memory %s: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create memory %s: %w", m.ID, err)
	}
	return n > 0, nil
}

// RecentMemories returns up to limit memories of roomID, oldest first.
func (s *Store) RecentMemories(ctx context.Context, roomID uuid.UUID, limit int) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT m.id, m.user_id, m.agent_id, m.room_id, m.content, m.created_at, COALESCE(a.name, '')
		 FROM memories m LEFT JOIN accounts a ON a.id = m.user_id
		 WHERE m.room_id = ?
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT ?`),
		roomID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query memories of %s: %w", roomID, err)
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		var (
			m                              Memory
			id, userID, agentID, room, raw string
			createdAt                      int64
		)
		if err := rows.Scan(&id, &userID, &agentID, &room, &raw, &createdAt, &m.UserName); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("memory id %q: %w", id, err)
		}
		if m.UserID, err = uuid.Parse(userID); err != nil {
			return nil, fmt.Errorf("memory %s user id: %w", id, err)
		}
		if m.AgentID, err = uuid.Parse(agentID); err != nil {
			return nil, fmt.Errorf("memory %s agent id: %w", id, err)
		}
		if m.RoomID, err = uuid.Parse(room); err != nil {
			return nil, fmt.Errorf("memory %s room id: %w", id, err)
		}
		if err := json.Unmarshal([]byte(raw), &m.Content); err != nil {
			return nil, fmt.Errorf("decode memory %s content: %w", id, err)
		}
		m.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
