package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore persists activity events in the activity_event table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed activity store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}
	var actor any
	if event.ActorID != uuid.Nil {
		actor = event.ActorID
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity_event (id, action, actor_id, occurred_at, request_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.Action, actor, event.Timestamp, event.RequestID, metadata)
	if err != nil {
		return fmt.Errorf("append activity event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, actor_id, occurred_at, request_id, metadata
		FROM activity_event
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			actor     sql.Null[uuid.UUID]
			requestID sql.NullString
			metadata  []byte
			occurred  time.Time
		)
		if err := rows.Scan(&event.ID, &event.Action, &actor, &occurred, &requestID, &metadata); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		if actor.Valid {
			event.ActorID = actor.V
		}
		event.RequestID = requestID.String
		event.Timestamp = occurred.UTC()
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &event.Metadata)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
