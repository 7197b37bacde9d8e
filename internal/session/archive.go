package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Archive copies the conversation history to PostgreSQL for durable,
// append-only long-term storage. It is optional: a nil Archive (no
// DATABASE_URL configured) silently does nothing, so the engine keeps
// working against the in-memory or Redis store alone.
type Archive struct {
	db *sql.DB
}

// NewArchive creates a transcript archive over database/sql.
func NewArchive(db *sql.DB) *Archive {
	if db == nil {
		return nil
	}
	return &Archive{db: db}
}

// AppendMessage persists one message. Duplicate deliveries are tolerated:
// the message id is the conflict key and re-inserts are no-ops.
func (a *Archive) AppendMessage(ctx context.Context, phone string, msg Message) error {
	if a == nil || a.db == nil {
		return nil
	}

	timestamp := msg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO session_messages (id, phone, sender, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, msg.ID, phone, msg.From, msg.Content, timestamp)
	if err != nil {
		return fmt.Errorf("session: archive message: %w", err)
	}
	return nil
}

// Messages returns the archived history for a phone, oldest first.
func (a *Archive) Messages(ctx context.Context, phone string, limit int) ([]Message, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, sender, content, created_at
		FROM session_messages
		WHERE phone = $1
		ORDER BY created_at ASC
	`
	args := []any{phone}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("session: load archive: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.From, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("session: scan archived message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
