package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"soultribe/internal/match/models"
	"soultribe/internal/storage"
	txcontext "soultribe/pkg/tx"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed match store.
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

const matchColumns = `id, a_user_id, b_user_id, score, status, created_at`

func (s *PostgresStore) Create(ctx context.Context, match *models.Match) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO match (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, match.ID, match.AUserID, match.BUserID, match.Score, match.Status, match.CreatedAt)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return scanMatch(s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+matchColumns+` FROM match WHERE id = $1
	`, id))
}

func (s *PostgresStore) FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Match, error) {
	return scanMatch(s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+matchColumns+` FROM match
		WHERE (a_user_id = $1 AND b_user_id = $2) OR (a_user_id = $2 AND b_user_id = $1)
	`, a, b))
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Match, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+matchColumns+` FROM match
		WHERE a_user_id = $1 OR b_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, match)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE match SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("set match status: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM match WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var match models.Match
	err := row.Scan(&match.ID, &match.AUserID, &match.BUserID, &match.Score, &match.Status, &match.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan match: %w", err)
	}
	match.CreatedAt = match.CreatedAt.UTC()
	return &match, nil
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
