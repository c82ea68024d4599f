// Package service implements the meetup lifecycle on top of stored matches.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/activity"
	authmodels "soultribe/internal/auth/models"
	"soultribe/internal/mailer"
	matchmodels "soultribe/internal/match/models"
	"soultribe/internal/meetup/models"
	"soultribe/internal/meetup/room"
	"soultribe/internal/meetup/store"
	"soultribe/internal/platform/metrics"
	profilemodels "soultribe/internal/profile/models"
	"soultribe/internal/tzengine"
	dErrors "soultribe/pkg/domainerrors"
	"soultribe/pkg/requestcontext"
)

// Matches is the slice of the match domain meetups need. Get fails with a
// forbidden error when userID is not a participant.
type Matches interface {
	Get(ctx context.Context, userID, matchID uuid.UUID) (*matchmodels.Match, error)
	List(ctx context.Context, userID uuid.UUID) ([]*matchmodels.Match, error)
}

// Directory is the slice of the auth domain meetups need.
type Directory interface {
	FindUser(ctx context.Context, id uuid.UUID) (*authmodels.User, error)
}

// Profiles is the slice of the profile domain meetups need.
type Profiles interface {
	Get(ctx context.Context, userID uuid.UUID) (*profilemodels.Profile, error)
}

// Entry is one item of a member's meetup list, annotated with the other
// participant.
type Entry struct {
	ID               uuid.UUID `json:"id"`
	MatchID          uuid.UUID `json:"match_id"`
	ProposedUTC      string    `json:"proposed_dt_utc"`
	ConfirmedUTC     string    `json:"confirmed_dt_utc,omitempty"`
	RoomURL          string    `json:"room_url,omitempty"`
	Status           string    `json:"status"`
	Proposed         bool      `json:"proposed_by_me"`
	OtherUserID      uuid.UUID `json:"other_user_id"`
	OtherDisplayName string    `json:"other_display_name,omitempty"`
}

// Service mediates meetup access.
type Service struct {
	store    store.Store
	matches  Matches
	users    Directory
	profiles Profiles
	rooms    *room.Generator
	mail     mailer.Mailer
	activity activity.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New wires the meetup service.
func New(st store.Store, matches Matches, users Directory, profiles Profiles, rooms *room.Generator, mail mailer.Mailer, recorder activity.Recorder, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if st == nil {
		return nil, errors.New("meetup store is required")
	}
	if matches == nil || users == nil || profiles == nil {
		return nil, errors.New("match, user, and profile dependencies are required")
	}
	if rooms == nil {
		return nil, errors.New("room generator is required")
	}
	if recorder == nil {
		recorder = activity.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store: st, matches: matches, users: users, profiles: profiles,
		rooms: rooms, mail: mail, activity: recorder, metrics: m, logger: logger,
	}, nil
}

// Propose creates a meetup on a match the caller participates in. A nil
// proposed time defaults to now.
func (s *Service) Propose(ctx context.Context, userID, matchID uuid.UUID, proposedUTC *time.Time) (*models.Meetup, error) {
	if _, err := s.matches.Get(ctx, userID, matchID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).UTC()
	proposed := now
	if proposedUTC != nil {
		proposed = proposedUTC.UTC()
	}
	meetup := &models.Meetup{
		ID:          uuid.New(),
		MatchID:     matchID,
		ProposedUTC: proposed,
		Status:      models.StatusProposed,
		ProposerID:  userID,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, meetup); err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.ActionMeetupProposed, userID, map[string]any{
		"meetup_id": meetup.ID.String(),
		"match_id":  matchID.String(),
	})
	return meetup, nil
}

// Confirm locks in a meetup and mints its room link. The proposer cannot
// confirm their own proposal. A nil confirmed time keeps the proposed one.
func (s *Service) Confirm(ctx context.Context, userID, meetupID uuid.UUID, confirmedUTC *time.Time) (*models.Meetup, error) {
	meetup, match, err := s.load(ctx, userID, meetupID)
	if err != nil {
		return nil, err
	}
	if meetup.ProposerID == userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot confirm your own proposal")
	}
	confirmed := meetup.ProposedUTC
	if confirmedUTC != nil {
		confirmed = confirmedUTC.UTC()
	}
	meetup.ConfirmedUTC = &confirmed
	meetup.ConfirmerID = &userID
	meetup.RoomURL = s.rooms.URL(meetup.MatchID, confirmed)
	meetup.Status = models.StatusConfirmed
	if err := s.store.Update(ctx, meetup); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.MeetupsConfirmed.Inc()
	}
	s.notifyConfirmed(ctx, match, meetup)
	s.activity.Emit(ctx, activity.ActionMeetupConfirmed, userID, map[string]any{
		"meetup_id": meetup.ID.String(),
		"match_id":  meetup.MatchID.String(),
	})
	return meetup, nil
}

// Unconfirm reverts a confirmed meetup to proposed. Only the member who
// confirmed it may, and the room link is withdrawn.
func (s *Service) Unconfirm(ctx context.Context, userID, meetupID uuid.UUID) (*models.Meetup, error) {
	meetup, _, err := s.load(ctx, userID, meetupID)
	if err != nil {
		return nil, err
	}
	if meetup.ConfirmerID == nil || *meetup.ConfirmerID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the confirming member can unconfirm")
	}
	meetup.ConfirmedUTC = nil
	meetup.ConfirmerID = nil
	meetup.RoomURL = ""
	meetup.Status = models.StatusProposed
	if err := s.store.Update(ctx, meetup); err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.ActionMeetupUnconfirmed, userID, map[string]any{
		"meetup_id": meetup.ID.String(),
	})
	return meetup, nil
}

// Cancel marks a meetup canceled and withdraws the room link. Either
// participant may cancel.
func (s *Service) Cancel(ctx context.Context, userID, meetupID uuid.UUID) (*models.Meetup, error) {
	meetup, _, err := s.load(ctx, userID, meetupID)
	if err != nil {
		return nil, err
	}
	meetup.Status = models.StatusCanceled
	meetup.RoomURL = ""
	if err := s.store.Update(ctx, meetup); err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.ActionMeetupCanceled, userID, map[string]any{
		"meetup_id": meetup.ID.String(),
	})
	return meetup, nil
}

// Delete removes a meetup. Either participant may.
func (s *Service) Delete(ctx context.Context, userID, meetupID uuid.UUID) error {
	meetup, _, err := s.load(ctx, userID, meetupID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, meetup.ID); err != nil {
		return err
	}
	s.activity.Emit(ctx, activity.ActionMeetupDeleted, userID, map[string]any{
		"meetup_id": meetup.ID.String(),
	})
	return nil
}

// List returns the caller's meetups, newest first, annotated with the
// other participant of each match.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	matches, err := s.matches.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*matchmodels.Match, len(matches))
	ids := make([]uuid.UUID, 0, len(matches))
	for _, match := range matches {
		byID[match.ID] = match
		ids = append(ids, match.ID)
	}
	meetups, err := s.store.ListByMatches(ctx, ids, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(meetups))
	for _, meetup := range meetups {
		match, ok := byID[meetup.MatchID]
		if !ok {
			continue
		}
		entry := Entry{
			ID:          meetup.ID,
			MatchID:     meetup.MatchID,
			ProposedUTC: tzengine.FormatUTCInstant(meetup.ProposedUTC),
			RoomURL:     meetup.RoomURL,
			Status:      string(meetup.Status),
			Proposed:    meetup.ProposerID == userID,
			OtherUserID: match.Other(userID),
		}
		if meetup.ConfirmedUTC != nil {
			entry.ConfirmedUTC = tzengine.FormatUTCInstant(*meetup.ConfirmedUTC)
		}
		if profile, err := s.profiles.Get(ctx, entry.OtherUserID); err == nil {
			entry.OtherDisplayName = profile.DisplayName
		}
		out = append(out, entry)
	}
	return out, nil
}

// load finds a meetup and checks the caller participates in its match.
func (s *Service) load(ctx context.Context, userID, meetupID uuid.UUID) (*models.Meetup, *matchmodels.Match, error) {
	meetup, err := s.store.Find(ctx, meetupID)
	if err != nil {
		return nil, nil, err
	}
	match, err := s.matches.Get(ctx, userID, meetup.MatchID)
	if err != nil {
		return nil, nil, err
	}
	return meetup, match, nil
}

// notifyConfirmed mails both participants who opted into meetup mail.
// Delivery failures are logged, never surfaced.
func (s *Service) notifyConfirmed(ctx context.Context, match *matchmodels.Match, meetup *models.Meetup) {
	if s.mail == nil || meetup.ConfirmedUTC == nil {
		return
	}
	when := tzengine.FormatUTCInstant(*meetup.ConfirmedUTC)
	for _, participant := range []uuid.UUID{match.AUserID, match.BUserID} {
		profile, err := s.profiles.Get(ctx, participant)
		if err != nil || !profile.NotifyEmail {
			continue
		}
		user, err := s.users.FindUser(ctx, participant)
		if err != nil {
			continue
		}
		if err := s.mail.SendMeetupConfirmed(ctx, user.Email, meetup.RoomURL, when); err != nil {
			s.logger.WarnContext(ctx, "meetup confirmation mail failed",
				"meetup_id", meetup.ID.String(), "error", err)
		}
	}
}
