package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"soultribe/internal/auth/models"
	"soultribe/internal/storage"
	dErrors "soultribe/pkg/domainerrors"
	txcontext "soultribe/pkg/tx"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed auth store.
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

const uniqueViolation = "23505"

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO app_user (id, email, password_hash, created_at, email_verified_at, last_login_at)
		VALUES ($1, lower($2), $3, $4, $5, $6)
	`, user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.EmailVerifiedAt, user.LastLoginAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, email_verified_at, last_login_at
		FROM app_user WHERE email = lower($1)
	`, email))
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, email_verified_at, last_login_at
		FROM app_user WHERE id = $1
	`, id))
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, email, password_hash, created_at, email_verified_at, last_login_at
		FROM app_user
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		var (
			user       models.User
			verifiedAt sql.NullTime
			lastLogin  sql.NullTime
		)
		if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &verifiedAt, &lastLogin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if verifiedAt.Valid {
			t := verifiedAt.Time.UTC()
			user.EmailVerifiedAt = &t
		}
		if lastLogin.Valid {
			t := lastLogin.Time.UTC()
			user.LastLoginAt = &t
		}
		out = append(out, &user)
	}
	return out, rows.Err()
}

func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user       models.User
		verifiedAt sql.NullTime
		lastLogin  sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &verifiedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time.UTC()
		user.EmailVerifiedAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		user.LastLoginAt = &t
	}
	return &user, nil
}

func (s *PostgresStore) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.updateUser(ctx, `UPDATE app_user SET email_verified_at = $2 WHERE id = $1`, id, at)
}

func (s *PostgresStore) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.updateUser(ctx, `UPDATE app_user SET last_login_at = $2 WHERE id = $1`, id, at)
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return s.updateUser(ctx, `UPDATE app_user SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

func (s *PostgresStore) updateUser(ctx context.Context, query string, id uuid.UUID, arg any) error {
	result, err := s.execer(ctx).ExecContext(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO refresh_token (id, user_id, token_hash, created_at, expires_at, revoked_at, client_ip, user_agent, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, token.ID, token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt, token.RevokedAt, token.ClientIP, token.UserAgent, token.Device)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var (
		token     models.RefreshToken
		revokedAt sql.NullTime
		clientIP  sql.NullString
		userAgent sql.NullString
		device    sql.NullString
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, client_ip, user_agent, device
		FROM refresh_token WHERE token_hash = $1
	`, tokenHash).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.CreatedAt, &token.ExpiresAt, &revokedAt, &clientIP, &userAgent, &device)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		token.RevokedAt = &t
	}
	token.ClientIP = clientIP.String
	token.UserAgent = userAgent.String
	token.Device = device.String
	return &token, nil
}

func (s *PostgresStore) RevokeRefreshToken(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE refresh_token SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE refresh_token SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, at)
	if err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM refresh_token WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) SaveActionToken(ctx context.Context, token *models.ActionToken) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO action_token (id, user_id, kind, token_hash, created_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token.ID, token.UserID, token.Kind, token.TokenHash, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	if err != nil {
		return fmt.Errorf("save action token: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindActionToken(ctx context.Context, kind models.ActionTokenKind, tokenHash string) (*models.ActionToken, error) {
	var (
		token  models.ActionToken
		usedAt sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, user_id, kind, token_hash, created_at, expires_at, used_at
		FROM action_token WHERE kind = $1 AND token_hash = $2
	`, kind, tokenHash).Scan(&token.ID, &token.UserID, &token.Kind, &token.TokenHash, &token.CreatedAt, &token.ExpiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find action token: %w", err)
	}
	if usedAt.Valid {
		t := usedAt.Time.UTC()
		token.UsedAt = &t
	}
	return &token, nil
}

func (s *PostgresStore) MarkActionTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE action_token SET used_at = $2 WHERE id = $1 AND used_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark action token used: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark action token rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredActionTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM action_token WHERE expires_at < $1 OR used_at IS NOT NULL
	`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired action tokens: %w", err)
	}
	return result.RowsAffected()
}
