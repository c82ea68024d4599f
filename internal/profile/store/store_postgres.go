package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"soultribe/internal/profile/models"
	"soultribe/internal/storage"
	txcontext "soultribe/pkg/tx"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed profile store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Find(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT user_id, display_name, birth_utc, birth_time_known,
		       birth_place_name, birth_lat, birth_lon, birth_zone,
		       live_place_name, live_lat, live_lon, live_zone,
		       lang_primary, lang_secondary, languages,
		       notify_email, notify_browser, updated_at
		FROM profile
		WHERE user_id = $1
	`, userID)

	var (
		p         models.Profile
		birthUTC  sql.NullTime
		languages []byte
	)
	err := row.Scan(
		&p.UserID, &p.DisplayName, &birthUTC, &p.BirthTimeKnown,
		&p.BirthPlaceName, &p.BirthLat, &p.BirthLon, &p.BirthZone,
		&p.LivePlaceName, &p.LiveLat, &p.LiveLon, &p.LiveZone,
		&p.LangPrimary, &p.LangSecondary, &languages,
		&p.NotifyEmail, &p.NotifyBrowser, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if birthUTC.Valid {
		t := birthUTC.Time.UTC()
		p.BirthUTC = &t
	}
	if len(languages) > 0 {
		if err := json.Unmarshal(languages, &p.Languages); err != nil {
			return nil, fmt.Errorf("decode profile languages: %w", err)
		}
	}
	return &p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, profile *models.Profile) error {
	languages, err := json.Marshal(profile.Languages)
	if err != nil {
		return fmt.Errorf("encode profile languages: %w", err)
	}

	var birthUTC sql.NullTime
	if profile.BirthUTC != nil {
		birthUTC = sql.NullTime{Time: profile.BirthUTC.UTC(), Valid: true}
	}

	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO profile (
			user_id, display_name, birth_utc, birth_time_known,
			birth_place_name, birth_lat, birth_lon, birth_zone,
			live_place_name, live_lat, live_lon, live_zone,
			lang_primary, lang_secondary, languages,
			notify_email, notify_browser, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			birth_utc = EXCLUDED.birth_utc,
			birth_time_known = EXCLUDED.birth_time_known,
			birth_place_name = EXCLUDED.birth_place_name,
			birth_lat = EXCLUDED.birth_lat,
			birth_lon = EXCLUDED.birth_lon,
			birth_zone = EXCLUDED.birth_zone,
			live_place_name = EXCLUDED.live_place_name,
			live_lat = EXCLUDED.live_lat,
			live_lon = EXCLUDED.live_lon,
			live_zone = EXCLUDED.live_zone,
			lang_primary = EXCLUDED.lang_primary,
			lang_secondary = EXCLUDED.lang_secondary,
			languages = EXCLUDED.languages,
			notify_email = EXCLUDED.notify_email,
			notify_browser = EXCLUDED.notify_browser,
			updated_at = EXCLUDED.updated_at
	`,
		profile.UserID, profile.DisplayName, birthUTC, profile.BirthTimeKnown,
		profile.BirthPlaceName, profile.BirthLat, profile.BirthLon, profile.BirthZone,
		profile.LivePlaceName, profile.LiveLat, profile.LiveLon, profile.LiveZone,
		profile.LangPrimary, profile.LangSecondary, languages,
		profile.NotifyEmail, profile.NotifyBrowser, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPlace(ctx context.Context, name string) (*models.Place, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT name, lat, lon, zone, source
		FROM geo_cache
		WHERE lower(name) = lower($1)
	`, name)

	var place models.Place
	err := row.Scan(&place.Name, &place.Lat, &place.Lon, &place.Zone, &place.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find place: %w", err)
	}
	return &place, nil
}

func (s *PostgresStore) SavePlace(ctx context.Context, place *models.Place) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO geo_cache (name, lat, lon, zone, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			zone = EXCLUDED.zone,
			source = EXCLUDED.source
	`, place.Name, place.Lat, place.Lon, place.Zone, place.Source)
	if err != nil {
		return fmt.Errorf("save place: %w", err)
	}
	return nil
}
