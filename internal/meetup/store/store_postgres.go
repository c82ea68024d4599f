package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"soultribe/internal/meetup/models"
	"soultribe/internal/storage"
	txcontext "soultribe/pkg/tx"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed meetup store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const meetupColumns = `id, match_id, proposed_utc, confirmed_utc, room_url, status, proposer_id, confirmer_id, created_at`

func (s *PostgresStore) Create(ctx context.Context, meetup *models.Meetup) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO meetup (`+meetupColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, meetup.ID, meetup.MatchID, meetup.ProposedUTC, nullTime(meetup.ConfirmedUTC),
		meetup.RoomURL, meetup.Status, meetup.ProposerID, nullUUID(meetup.ConfirmerID), meetup.CreatedAt)
	if err != nil {
		return fmt.Errorf("create meetup: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id uuid.UUID) (*models.Meetup, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+meetupColumns+`
		FROM meetup
		WHERE id = $1
	`, id)
	return scanMeetup(row)
}

func (s *PostgresStore) ListByMatches(ctx context.Context, matchIDs []uuid.UUID, limit, offset int) ([]*models.Meetup, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(matchIDs))
	for i, id := range matchIDs {
		ids[i] = id.String()
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+meetupColumns+`
		FROM meetup
		WHERE match_id = ANY($1::uuid[])
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, pq.Array(ids), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}
	defer rows.Close()

	var out []*models.Meetup
	for rows.Next() {
		meetup, err := scanMeetup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meetup)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, meetup *models.Meetup) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE meetup
		SET proposed_utc = $2, confirmed_utc = $3, room_url = $4, status = $5, confirmer_id = $6
		WHERE id = $1
	`, meetup.ID, meetup.ProposedUTC, nullTime(meetup.ConfirmedUTC),
		meetup.RoomURL, meetup.Status, nullUUID(meetup.ConfirmerID))
	if err != nil {
		return fmt.Errorf("update meetup: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM meetup WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete meetup: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeetup(row rowScanner) (*models.Meetup, error) {
	var (
		meetup    models.Meetup
		confirmed sql.NullTime
		confirmer uuid.NullUUID
	)
	err := row.Scan(
		&meetup.ID, &meetup.MatchID, &meetup.ProposedUTC, &confirmed,
		&meetup.RoomURL, &meetup.Status, &meetup.ProposerID, &confirmer, &meetup.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan meetup: %w", err)
	}
	meetup.ProposedUTC = meetup.ProposedUTC.UTC()
	if confirmed.Valid {
		at := confirmed.Time.UTC()
		meetup.ConfirmedUTC = &at
	}
	if confirmer.Valid {
		id := confirmer.UUID
		meetup.ConfirmerID = &id
	}
	return &meetup, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
