package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/availability/models"
	"soultribe/internal/storage"
	txcontext "soultribe/pkg/tx"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed availability store.
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

const slotColumns = `id, user_id, start_utc, end_utc, start_local, end_local, zone, created_at`

func (s *PostgresStore) Create(ctx context.Context, slot *models.Slot) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO availability_slot (`+slotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, slot.ID, slot.UserID, slot.StartUTC, slot.EndUTC, slot.StartLocal, slot.EndLocal, slot.Zone, slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, userID, slotID uuid.UUID) (*models.Slot, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slot
		WHERE id = $1 AND user_id = $2
	`, slotID, userID)
	return scanSlot(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Slot, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slot
		WHERE user_id = $1
		ORDER BY start_utc
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []*models.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, slot *models.Slot) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE availability_slot
		SET start_utc = $3, end_utc = $4, start_local = $5, end_local = $6, zone = $7
		WHERE id = $1 AND user_id = $2
	`, slot.ID, slot.UserID, slot.StartUTC, slot.EndUTC, slot.StartLocal, slot.EndLocal, slot.Zone)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, userID, slotID uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM availability_slot WHERE id = $1 AND user_id = $2
	`, slotID, userID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, userID uuid.UUID, before time.Time) (int64, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM availability_slot WHERE user_id = $1 AND end_utc <= $2
	`, userID, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired slots: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM availability_slot WHERE end_utc <= $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("purge expired slots: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*models.Slot, error) {
	var slot models.Slot
	err := row.Scan(
		&slot.ID, &slot.UserID, &slot.StartUTC, &slot.EndUTC,
		&slot.StartLocal, &slot.EndLocal, &slot.Zone, &slot.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan slot: %w", err)
	}
	slot.StartUTC = slot.StartUTC.UTC()
	slot.EndUTC = slot.EndUTC.UTC()
	return &slot, nil
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
