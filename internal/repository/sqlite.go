package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			invocation_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			agent_id TEXT,
			thread_id TEXT,
			run_id TEXT,
			status TEXT,
			last_error TEXT,
			summary_path TEXT,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_started ON invocations(started_at)`,
		`CREATE TABLE IF NOT EXISTS agent_messages (
			message_id TEXT NOT NULL,
			invocation_id TEXT NOT NULL,
			text TEXT NOT NULL,
			citations TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (invocation_id, message_id),
			FOREIGN KEY (invocation_id) REFERENCES invocations(invocation_id)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			invocation_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (invocation_id) REFERENCES invocations(invocation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_invocation ON events(invocation_id, ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateInvocation records the start of an invocation.
func (s *SQLiteStore) CreateInvocation(ctx context.Context, inv *domain.Invocation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (invocation_id, query, status, started_at) VALUES (?, ?, ?, ?)`,
		inv.InvocationID, inv.Query, string(inv.Status), inv.StartedAt)
	return err
}

// GetInvocation retrieves an invocation by ID.
func (s *SQLiteStore) GetInvocation(ctx context.Context, invocationID string) (*domain.Invocation, error) {
	var inv domain.Invocation
	var agentID, threadID, runID, status, lastError, summaryPath sql.NullString
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT invocation_id, query, agent_id, thread_id, run_id, status, last_error, summary_path, started_at, ended_at
		FROM invocations WHERE invocation_id = ?`,
		invocationID).Scan(&inv.InvocationID, &inv.Query, &agentID, &threadID, &runID, &status, &lastError, &summaryPath, &inv.StartedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inv.AgentID = agentID.String
	inv.ThreadID = threadID.String
	inv.RunID = runID.String
	inv.Status = domain.RunStatus(status.String)
	inv.LastError = lastError.String
	inv.SummaryPath = summaryPath.String
	if endedAt.Valid {
		inv.EndedAt = &endedAt.Time
	}
	return &inv, nil
}

// LatestInvocationID returns the most recently started invocation, or "" when none exist.
func (s *SQLiteStore) LatestInvocationID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT invocation_id FROM invocations ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

// UpdateInvocationRefs stores the remote ids once they are known.
func (s *SQLiteStore) UpdateInvocationRefs(ctx context.Context, invocationID, agentID, threadID, runID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE invocations SET
			agent_id = COALESCE(NULLIF(?, ''), agent_id),
			thread_id = COALESCE(NULLIF(?, ''), thread_id),
			run_id = COALESCE(NULLIF(?, ''), run_id)
		WHERE invocation_id = ?`,
		agentID, threadID, runID, invocationID)
	return err
}

// CompleteInvocation records the final outcome.
func (s *SQLiteStore) CompleteInvocation(ctx context.Context, invocationID string, status domain.RunStatus, lastError, summaryPath string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE invocations SET status = ?, last_error = ?, summary_path = ?, ended_at = ? WHERE invocation_id = ?`,
		string(status), nullString(lastError), nullString(summaryPath), time.Now(), invocationID)
	return err
}

// CreateAgentMessage records an agent message. Recording the same message twice is a no-op.
func (s *SQLiteStore) CreateAgentMessage(ctx context.Context, msg *domain.JournalMessage) error {
	citations, err := json.Marshal(msg.Citations)
	if err != nil {
		return fmt.Errorf("failed to marshal citations: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO agent_messages (message_id, invocation_id, text, citations, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.MessageID, msg.InvocationID, msg.Text, string(citations), msg.CreatedAt)
	return err
}

// ListAgentMessages returns the recorded agent messages in the order they were shown.
func (s *SQLiteStore) ListAgentMessages(ctx context.Context, invocationID string) ([]domain.JournalMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, invocation_id, text, citations, created_at FROM agent_messages
		WHERE invocation_id = ? ORDER BY created_at ASC, rowid ASC`,
		invocationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.JournalMessage
	for rows.Next() {
		var msg domain.JournalMessage
		var citations sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.InvocationID, &msg.Text, &citations, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if citations.Valid && citations.String != "" {
			if err := json.Unmarshal([]byte(citations.String), &msg.Citations); err != nil {
				return nil, fmt.Errorf("failed to decode citations for %s: %w", msg.MessageID, err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateEvent creates a new event.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	payload := ""
	if event.Payload != nil {
		payload = string(event.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, invocation_id, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.InvocationID, event.Ts, string(event.Type), payload)
	return err
}

// GetEvents retrieves events for an invocation, optionally filtered by type.
func (s *SQLiteStore) GetEvents(ctx context.Context, invocationID string, types []domain.EventType) ([]domain.Event, error) {
	query := `SELECT event_id, invocation_id, ts, type, payload FROM events WHERE invocation_id = ?`
	args := []interface{}{invocationID}

	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		query += ` AND type IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY ts ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		var eventType string
		var payload sql.NullString
		if err := rows.Scan(&event.EventID, &event.InvocationID, &event.Ts, &eventType, &payload); err != nil {
			return nil, err
		}
		event.Type = domain.EventType(eventType)
		if payload.Valid && payload.String != "" {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
