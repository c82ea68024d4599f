// Package service implements match discovery and the stored-match lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"soultribe/internal/activity"
	authmodels "soultribe/internal/auth/models"
	availmodels "soultribe/internal/availability/models"
	availability "soultribe/internal/availability/service"
	"soultribe/internal/match/models"
	"soultribe/internal/match/store"
	"soultribe/internal/platform/metrics"
	profilemodels "soultribe/internal/profile/models"
	"soultribe/internal/storage"
	"soultribe/internal/tzengine"
	dErrors "soultribe/pkg/domainerrors"
	"soultribe/pkg/requestcontext"
)

var tracer = otel.Tracer("soultribe/match")

// Directory is the slice of the auth domain discovery needs.
type Directory interface {
	FindUser(ctx context.Context, id uuid.UUID) (*authmodels.User, error)
	ListUsers(ctx context.Context) ([]*authmodels.User, error)
}

// Profiles is the slice of the profile domain discovery needs.
type Profiles interface {
	Get(ctx context.Context, userID uuid.UUID) (*profilemodels.Profile, error)
}

// Slots is the slice of the availability domain discovery needs.
type Slots interface {
	SlotsOf(ctx context.Context, userID uuid.UUID) ([]*availmodels.Slot, error)
}

// Scorer supplies the opaque compatibility number for a pair. The default
// scorer is neutral; deployments plug in whatever oracle they trust.
type Scorer interface {
	Score(ctx context.Context, a, b *profilemodels.Profile) int
}

// StaticScorer scores every pair the same.
type StaticScorer struct{ Value int }

func (s StaticScorer) Score(context.Context, *profilemodels.Profile, *profilemodels.Profile) int {
	return s.Value
}

// Config bounds discovery.
type Config struct {
	LookaheadDays  int
	MaxOverlaps    int
	ActivityCutoff time.Duration
}

// Overlap is one meetable window, annotated with each side's wall clock.
type Overlap struct {
	StartUTC    string `json:"start_dt_utc"`
	EndUTC      string `json:"end_dt_utc"`
	ALocalStart string `json:"a_local_start,omitempty"`
	ALocalEnd   string `json:"a_local_end,omitempty"`
	AZone       string `json:"a_tz,omitempty"`
	BLocalStart string `json:"b_local_start,omitempty"`
	BLocalEnd   string `json:"b_local_end,omitempty"`
	BZone       string `json:"b_tz,omitempty"`
}

// Candidate is one discovery result.
type Candidate struct {
	UserID          uuid.UUID  `json:"user_id"`
	DisplayName     string     `json:"display_name"`
	Score           int        `json:"score"`
	SharedLanguages []string   `json:"shared_languages"`
	PrimaryEqual    bool       `json:"primary_equal"`
	Overlaps        []Overlap  `json:"overlaps"`
	MatchID         *uuid.UUID `json:"match_id,omitempty"`
	Status          string     `json:"status,omitempty"`
}

// FindInput bounds one discovery request.
type FindInput struct {
	Limit         int
	Offset        int
	MinScore      *int
	LookaheadDays int
	MaxOverlaps   int
}

// Page carries a discovery result page plus the totals clients paginate with.
type Page struct {
	Candidates []Candidate
	Total      int
	Limit      int
	Offset     int
	HasMore    bool
}

// Service mediates match access.
type Service struct {
	store    store.Store
	users    Directory
	profiles Profiles
	slots    Slots
	scorer   Scorer
	activity activity.Recorder
	metrics  *metrics.Metrics
	cfg      Config
}

// New wires the match service.
func New(st store.Store, users Directory, profiles Profiles, slots Slots, scorer Scorer, recorder activity.Recorder, m *metrics.Metrics, cfg Config) (*Service, error) {
	if st == nil {
		return nil, errors.New("match store is required")
	}
	if users == nil || profiles == nil || slots == nil {
		return nil, errors.New("user, profile, and availability dependencies are required")
	}
	if scorer == nil {
		scorer = StaticScorer{Value: 50}
	}
	if recorder == nil {
		recorder = activity.Nop{}
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 3
	}
	if cfg.MaxOverlaps <= 0 {
		cfg.MaxOverlaps = 5
	}
	if cfg.ActivityCutoff <= 0 {
		cfg.ActivityCutoff = 30 * 24 * time.Hour
	}
	return &Service{
		store: st, users: users, profiles: profiles, slots: slots,
		scorer: scorer, activity: recorder, metrics: m, cfg: cfg,
	}, nil
}

// Find discovers candidates for userID. Only members active within the
// cutoff are considered, and a shared language is required whenever both
// sides declare any. Results sort by score descending.
func (s *Service) Find(ctx context.Context, userID uuid.UUID, input FindInput) (*Page, error) {
	ctx, span := tracer.Start(ctx, "match.find",
		trace.WithAttributes(attribute.String("match.user_id", userID.String())))
	defer span.End()

	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Verified() {
		return nil, dErrors.New(dErrors.CodeForbidden, "email not verified")
	}

	if s.metrics != nil {
		s.metrics.MatchSearches.Inc()
	}

	ownProfile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	ownSlots, err := s.slots.SlotsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	others, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	cutoff := now.Add(-s.cfg.ActivityCutoff)
	ownLangs := ownProfile.SpokenLanguages()

	lookahead := input.LookaheadDays
	if lookahead <= 0 {
		lookahead = s.cfg.LookaheadDays
	}
	maxOverlaps := input.MaxOverlaps
	if maxOverlaps <= 0 {
		maxOverlaps = s.cfg.MaxOverlaps
	}

	var candidates []Candidate
	for _, other := range others {
		if other.ID == userID {
			continue
		}
		// Members with no login yet stay discoverable; only a stale login
		// excludes, so fresh accounts are not invisible to each other.
		if other.LastLoginAt != nil && other.LastLoginAt.Before(cutoff) {
			continue
		}

		otherProfile, err := s.profiles.Get(ctx, other.ID)
		if err != nil {
			continue
		}
		otherLangs := otherProfile.SpokenLanguages()
		shared := intersectLanguages(ownLangs, otherLangs)
		if len(ownLangs) > 0 && len(otherLangs) > 0 && len(shared) == 0 {
			continue
		}

		otherSlots, err := s.slots.SlotsOf(ctx, other.ID)
		if err != nil {
			continue
		}
		windows := availability.IntersectHourly(
			toIntervals(ownSlots), toIntervals(otherSlots),
			now, time.Duration(lookahead)*24*time.Hour, maxOverlaps,
		)

		candidate := Candidate{
			UserID:          other.ID,
			DisplayName:     otherProfile.DisplayName,
			Score:           s.scorer.Score(ctx, ownProfile, otherProfile),
			SharedLanguages: shared,
			PrimaryEqual:    primaryEqual(ownProfile, otherProfile),
			Overlaps:        s.annotateOverlaps(windows, ownProfile.LiveZone, otherProfile.LiveZone),
		}
		existing, err := s.store.FindByPair(ctx, userID, other.ID)
		switch {
		case err == nil:
			id := existing.ID
			candidate.MatchID = &id
			candidate.Status = string(existing.Status)
			candidate.Score = existing.Score
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("look up existing match: %w", err)
		}
		if input.MinScore != nil && candidate.Score < *input.MinScore {
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	total := len(candidates)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	span.SetAttributes(
		attribute.Int("match.candidates", total),
		attribute.Int("match.page_size", end-start),
	)
	return &Page{
		Candidates: candidates[start:end],
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    end < total,
	}, nil
}

// Create stores a match between the caller and another member. Creation is
// idempotent per pair: an existing match in either order is returned as-is.
func (s *Service) Create(ctx context.Context, userID, otherID uuid.UUID) (*models.Match, error) {
	if userID == otherID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot match a member with themselves")
	}
	if _, err := s.users.FindUser(ctx, otherID); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, err
	}

	if existing, err := s.store.FindByPair(ctx, userID, otherID); err == nil {
		return existing, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	ownProfile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	otherProfile, err := s.profiles.Get(ctx, otherID)
	if err != nil {
		return nil, err
	}

	match := &models.Match{
		ID:        uuid.New(),
		AUserID:   userID,
		BUserID:   otherID,
		Score:     s.scorer.Score(ctx, ownProfile, otherProfile),
		Status:    models.StatusSuggested,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Create(ctx, match); err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.ActionMatchCreated, userID, map[string]any{"match_id": match.ID.String()})
	return match, nil
}

// SetStatus moves a match to accepted or declined. Only participants may.
func (s *Service) SetStatus(ctx context.Context, userID, matchID uuid.UUID, status models.Status) (*models.Match, error) {
	if !models.ValidStatus(status) {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("status must be %q or %q", models.StatusAccepted, models.StatusDeclined))
	}
	match, err := s.store.Find(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Involves(userID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a participant of this match")
	}
	if err := s.store.SetStatus(ctx, matchID, status); err != nil {
		return nil, err
	}
	match.Status = status
	s.activity.Emit(ctx, activity.ActionMatchStatusSet, userID, map[string]any{
		"match_id": matchID.String(),
		"status":   string(status),
	})
	return match, nil
}

// List returns the caller's matches, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*models.Match, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns a match the caller participates in.
func (s *Service) Get(ctx context.Context, userID, matchID uuid.UUID) (*models.Match, error) {
	match, err := s.store.Find(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Involves(userID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a participant of this match")
	}
	return match, nil
}

func toIntervals(slots []*availmodels.Slot) []tzengine.Interval {
	out := make([]tzengine.Interval, 0, len(slots))
	for _, slot := range slots {
		out = append(out, tzengine.Interval{Start: slot.StartUTC, End: slot.EndUTC})
	}
	return out
}

func intersectLanguages(a, b []string) []string {
	inA := make(map[string]struct{}, len(a))
	for _, lang := range a {
		inA[lang] = struct{}{}
	}
	var shared []string
	for _, lang := range b {
		if _, ok := inA[lang]; ok {
			shared = append(shared, lang)
		}
	}
	sort.Strings(shared)
	return shared
}

func primaryEqual(a, b *profilemodels.Profile) bool {
	return a.LangPrimary != "" && b.LangPrimary != "" &&
		normalizeLang(a.LangPrimary) == normalizeLang(b.LangPrimary)
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// annotateOverlaps renders each window in both members' wall clocks. A
// declared but unresolvable zone drops its local annotation and counts as a
// fallback; the UTC fields always survive.
func (s *Service) annotateOverlaps(windows []tzengine.Interval, aZone, bZone string) []Overlap {
	aOK := s.usableZone(aZone)
	bOK := s.usableZone(bZone)
	out := make([]Overlap, 0, len(windows))
	for _, w := range windows {
		item := Overlap{
			StartUTC: tzengine.FormatUTCInstant(w.Start),
			EndUTC:   tzengine.FormatUTCInstant(w.End),
		}
		if aOK {
			item.ALocalStart = localStamp(w.Start, aZone)
			item.ALocalEnd = localStamp(w.End, aZone)
			item.AZone = aZone
		}
		if bOK {
			item.BLocalStart = localStamp(w.Start, bZone)
			item.BLocalEnd = localStamp(w.End, bZone)
			item.BZone = bZone
		}
		out = append(out, item)
	}
	return out
}

func (s *Service) usableZone(zone string) bool {
	if zone == "" {
		return false
	}
	if !tzengine.IsValidZone(zone) {
		if s.metrics != nil {
			s.metrics.ZoneFallbacks.Inc()
		}
		return false
	}
	return true
}

func localStamp(at time.Time, zone string) string {
	parts := tzengine.ToLocalParts(at, zone)
	return fmt.Sprintf("%sT%02d:%02d", parts.Date, parts.Hour, parts.Minute)
}
