// Package service implements the availability rules: whole-hour windows,
// UTC recomputed from the client's wall clock, expired slots purged on read.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/activity"
	"soultribe/internal/availability/models"
	"soultribe/internal/availability/store"
	"soultribe/internal/platform/metrics"
	"soultribe/internal/tzengine"
	dErrors "soultribe/pkg/domainerrors"
	"soultribe/pkg/requestcontext"
)

// SlotInput is a create or replace payload. StartUTC/EndUTC are required;
// when all three local fields are present the UTC pair is recomputed from
// them server-side, so a client with a skewed clock cannot smuggle in a
// window that disagrees with its own wall-clock intent.
type SlotInput struct {
	StartUTC   time.Time
	EndUTC     time.Time
	StartLocal string
	EndLocal   string
	Zone       string
}

// Service mediates slot access.
type Service struct {
	store    store.Store
	activity activity.Recorder
	metrics  *metrics.Metrics
}

// New wires the availability service.
func New(st store.Store, recorder activity.Recorder, m *metrics.Metrics) (*Service, error) {
	if st == nil {
		return nil, errors.New("availability store is required")
	}
	if recorder == nil {
		recorder = activity.Nop{}
	}
	return &Service{store: st, activity: recorder, metrics: m}, nil
}

// List returns the member's slots ordered by start, purging expired ones
// first. No one can meet in the past.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*models.Slot, error) {
	now := requestcontext.Now(ctx).UTC()
	if _, err := s.store.DeleteExpired(ctx, userID, now); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, userID)
}

// SlotsOf returns the member's current slots without purging. Match discovery
// reads many members' slots and clips to the lookahead window itself.
func (s *Service) SlotsOf(ctx context.Context, userID uuid.UUID) ([]*models.Slot, error) {
	return s.store.ListByUser(ctx, userID)
}

// Create validates and stores a new slot.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input SlotInput) (*models.Slot, error) {
	now := requestcontext.Now(ctx).UTC()
	start, end, err := resolveWindow(input, now)
	if err != nil {
		return nil, err
	}

	slot := &models.Slot{
		ID:         uuid.New(),
		UserID:     userID,
		StartUTC:   start,
		EndUTC:     end,
		StartLocal: input.StartLocal,
		EndLocal:   input.EndLocal,
		Zone:       input.Zone,
		CreatedAt:  now,
	}
	if err := s.store.Create(ctx, slot); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SlotsCreated.Inc()
	}
	s.activity.Emit(ctx, activity.ActionSlotCreated, userID, map[string]any{
		"start": tzengine.FormatUTCInstant(start),
		"end":   tzengine.FormatUTCInstant(end),
	})
	return slot, nil
}

// Update replaces a slot's window with the same validations as Create.
func (s *Service) Update(ctx context.Context, userID, slotID uuid.UUID, input SlotInput) (*models.Slot, error) {
	slot, err := s.store.Find(ctx, userID, slotID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	start, end, err := resolveWindow(input, now)
	if err != nil {
		return nil, err
	}

	slot.StartUTC = start
	slot.EndUTC = end
	slot.StartLocal = input.StartLocal
	slot.EndLocal = input.EndLocal
	if input.Zone != "" {
		slot.Zone = input.Zone
	}
	refreshLocalHints(slot)

	if err := s.store.Update(ctx, slot); err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.ActionSlotUpdated, userID, map[string]any{"slot_id": slotID.String()})
	return slot, nil
}

// Delete removes a member's slot.
func (s *Service) Delete(ctx context.Context, userID, slotID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, slotID); err != nil {
		return err
	}
	s.activity.Emit(ctx, activity.ActionSlotDeleted, userID, map[string]any{"slot_id": slotID.String()})
	return nil
}

// resolveWindow recomputes UTC from the local wall clock when possible and
// enforces the slot rules.
func resolveWindow(input SlotInput, now time.Time) (start, end time.Time, err error) {
	start = input.StartUTC.UTC()
	end = input.EndUTC.UTC()

	if input.Zone != "" && input.StartLocal != "" && input.EndLocal != "" {
		if !tzengine.IsValidZone(input.Zone) {
			return start, end, dErrors.New(dErrors.CodeBadRequest, "timezone: unknown IANA timezone")
		}
		recomputedStart, errS := tzengine.FromWallClock(input.StartLocal, input.Zone)
		recomputedEnd, errE := tzengine.FromWallClock(input.EndLocal, input.Zone)
		if errS != nil || errE != nil {
			return start, end, dErrors.New(dErrors.CodeBadRequest, "local times must be ISO wall-clock readings")
		}
		start, end = recomputedStart, recomputedEnd
	}

	switch {
	case start.IsZero() || end.IsZero():
		return start, end, dErrors.New(dErrors.CodeBadRequest, "start_dt_utc and end_dt_utc are required")
	case !end.After(start):
		return start, end, dErrors.New(dErrors.CodeBadRequest, "end_dt_utc must be after start_dt_utc")
	case !end.After(now):
		return start, end, dErrors.New(dErrors.CodeBadRequest, "cannot create availability in the past")
	case !hourAligned(start) || !hourAligned(end):
		return start, end, dErrors.New(dErrors.CodeBadRequest, "start_dt_utc and end_dt_utc must be aligned to full hours (HH:00:00)")
	}
	if d := end.Sub(start); d < time.Hour || d%time.Hour != 0 {
		return start, end, dErrors.New(dErrors.CodeBadRequest, "minimum window is 1 hour, in whole-hour steps")
	}
	return start, end, nil
}

// refreshLocalHints re-renders the stored local fields from the UTC window so
// clients always see hints that agree with the window they just set.
func refreshLocalHints(slot *models.Slot) {
	if slot.Zone == "" {
		return
	}
	slot.StartLocal = formatLocal(slot.StartUTC, slot.Zone)
	slot.EndLocal = formatLocal(slot.EndUTC, slot.Zone)
}

func formatLocal(at time.Time, zone string) string {
	parts := tzengine.ToLocalParts(at, zone)
	return fmt.Sprintf("%sT%02d:%02d", parts.Date, parts.Hour, parts.Minute)
}

func hourAligned(t time.Time) bool {
	return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
