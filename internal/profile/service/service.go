// Package service implements profile reads and partial updates.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/activity"
	authmodels "soultribe/internal/auth/models"
	"soultribe/internal/profile/models"
	"soultribe/internal/profile/store"
	"soultribe/internal/storage"
	"soultribe/internal/tzengine"
	dErrors "soultribe/pkg/domainerrors"
	emailpkg "soultribe/pkg/email"
	"soultribe/pkg/requestcontext"
)

// UserDirectory is the slice of the auth domain the profile service needs.
type UserDirectory interface {
	FindUser(ctx context.Context, id uuid.UUID) (*authmodels.User, error)
}

// Snapshot is the lightweight view behind GET /api/profile/me.
type Snapshot struct {
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	DisplayName   string    `json:"display_name"`
	LiveZone      string    `json:"live_tz"`
}

// UpdateInput carries a partial profile update. Nil pointers leave the stored
// value untouched, mirroring the PUT semantics clients rely on.
type UpdateInput struct {
	DisplayName    *string
	BirthAt        *string
	BirthTimeKnown *bool
	BirthPlaceName *string
	BirthLat       *float64
	BirthLon       *float64
	BirthZone      *string
	LivePlaceName  *string
	LiveLat        *float64
	LiveLon        *float64
	LiveZone       *string
	LangPrimary    *string
	LangSecondary  *string
	Languages      *[]string
	NotifyEmail    *bool
	NotifyBrowser  *bool
}

// Service mediates profile access.
type Service struct {
	store    store.Store
	users    UserDirectory
	activity activity.Recorder
}

// New wires the profile service.
func New(st store.Store, users UserDirectory, recorder activity.Recorder) (*Service, error) {
	if st == nil {
		return nil, errors.New("profile store is required")
	}
	if users == nil {
		return nil, errors.New("user directory is required")
	}
	if recorder == nil {
		recorder = activity.Nop{}
	}
	return &Service{store: st, users: users, activity: recorder}, nil
}

// Me returns the account snapshot the web shell polls after login.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		UserID:        userID,
		Email:         user.Email,
		EmailVerified: user.Verified(),
		DisplayName:   profile.DisplayName,
		LiveZone:      profile.LiveZone,
	}, nil
}

// Get loads the profile, materializing a default one for members who never
// saved theirs. The default display name derives from the email local part.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.store.Find(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		UserID:         userID,
		DisplayName:    emailpkg.DeriveDisplayName(user.Email),
		BirthTimeKnown: true,
		NotifyEmail:    true,
		NotifyBrowser:  true,
	}, nil
}

// Update applies a partial update and persists the result.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*models.Profile, error) {
	if err := validateZones(input); err != nil {
		return nil, err
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyString(&profile.DisplayName, input.DisplayName)
	applyString(&profile.BirthPlaceName, input.BirthPlaceName)
	applyString(&profile.BirthZone, input.BirthZone)
	applyString(&profile.LivePlaceName, input.LivePlaceName)
	applyString(&profile.LiveZone, input.LiveZone)
	applyString(&profile.LangPrimary, input.LangPrimary)
	applyString(&profile.LangSecondary, input.LangSecondary)
	applyFloat(&profile.BirthLat, input.BirthLat)
	applyFloat(&profile.BirthLon, input.BirthLon)
	applyFloat(&profile.LiveLat, input.LiveLat)
	applyFloat(&profile.LiveLon, input.LiveLon)
	if input.Languages != nil {
		profile.Languages = append([]string(nil), (*input.Languages)...)
	}
	if input.BirthTimeKnown != nil {
		profile.BirthTimeKnown = *input.BirthTimeKnown
	}
	if input.NotifyEmail != nil {
		profile.NotifyEmail = *input.NotifyEmail
	}
	if input.NotifyBrowser != nil {
		profile.NotifyBrowser = *input.NotifyBrowser
	}

	if input.BirthAt != nil {
		birth, err := resolveBirthInstant(*input.BirthAt, profile.BirthTimeKnown)
		if err != nil {
			return nil, err
		}
		profile.BirthUTC = &birth
	}

	s.reconcilePlaces(ctx, profile)

	profile.UpdatedAt = requestcontext.Now(ctx).UTC()
	if err := s.store.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.ActionProfileUpdated, userID, nil)
	return profile, nil
}

func validateZones(input UpdateInput) error {
	for field, zone := range map[string]*string{"birth_tz": input.BirthZone, "live_tz": input.LiveZone} {
		if zone == nil || *zone == "" {
			continue
		}
		if !tzengine.IsValidZone(*zone) {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s: unknown IANA timezone %q", field, *zone))
		}
	}
	return nil
}

// resolveBirthInstant parses the birth timestamp, assuming UTC when no zone
// suffix is present, and snaps it to noon UTC when the time of day is unknown.
func resolveBirthInstant(raw string, timeKnown bool) (time.Time, error) {
	birth, err := tzengine.ParseUTCInstant(raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "birth_at: expected an RFC 3339 or YYYY-MM-DDTHH:MM timestamp")
	}
	if !timeKnown {
		birth = time.Date(birth.Year(), birth.Month(), birth.Day(), 12, 0, 0, 0, time.UTC)
	}
	return birth, nil
}

// reconcilePlaces keeps the geo cache and the profile's place fields in sync
// in both directions. A fully specified place refreshes the cache; a bare
// place name is filled in from the cache when a previous member already
// resolved it. Cache trouble never fails the profile update.
func (s *Service) reconcilePlaces(ctx context.Context, profile *models.Profile) {
	type placeFields struct {
		name string
		lat  **float64
		lon  **float64
		zone *string
	}
	for _, f := range []placeFields{
		{profile.BirthPlaceName, &profile.BirthLat, &profile.BirthLon, &profile.BirthZone},
		{profile.LivePlaceName, &profile.LiveLat, &profile.LiveLon, &profile.LiveZone},
	} {
		if f.name == "" {
			continue
		}
		if *f.lat != nil && *f.lon != nil && *f.zone != "" {
			_ = s.store.SavePlace(ctx, &models.Place{
				Name:   f.name,
				Lat:    **f.lat,
				Lon:    **f.lon,
				Zone:   *f.zone,
				Source: "profile",
			})
			continue
		}
		place, err := s.store.FindPlace(ctx, f.name)
		if err != nil {
			continue
		}
		if *f.lat == nil {
			lat := place.Lat
			*f.lat = &lat
		}
		if *f.lon == nil {
			lon := place.Lon
			*f.lon = &lon
		}
		if *f.zone == "" {
			*f.zone = place.Zone
		}
	}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
