package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"soultribe/internal/activity"
	"soultribe/internal/availability/service"
	"soultribe/internal/availability/store"
	dErrors "soultribe/pkg/domainerrors"
	"soultribe/pkg/testutil"
)

type AvailabilitySuite struct {
	suite.Suite
	svc    *service.Service
	store  *store.InMemoryStore
	ctx    context.Context
	now    time.Time
	userID uuid.UUID
}

func (s *AvailabilitySuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.userID = uuid.New()
	s.now = testutil.MustParseTime(s.T(), "2025-06-15T12:00:00Z")
	s.ctx = testutil.FrozenContext(s.T(), s.now)

	svc, err := service.New(s.store, activity.Nop{}, nil)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *AvailabilitySuite) utcInput(start, end string) service.SlotInput {
	return service.SlotInput{
		StartUTC: testutil.MustParseTime(s.T(), start),
		EndUTC:   testutil.MustParseTime(s.T(), end),
	}
}

func (s *AvailabilitySuite) TestCreate() {
	s.Run("accepts a whole-hour future window", func() {
		slot, err := s.svc.Create(s.ctx, s.userID, s.utcInput("2025-06-16T14:00:00Z", "2025-06-16T16:00:00Z"))
		s.Require().NoError(err)
		s.Equal(2*time.Hour, slot.EndUTC.Sub(slot.StartUTC))
	})

	s.Run("rejects end before start", func() {
		_, err := s.svc.Create(s.ctx, s.userID, s.utcInput("2025-06-16T16:00:00Z", "2025-06-16T14:00:00Z"))
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects a window entirely in the past", func() {
		_, err := s.svc.Create(s.ctx, s.userID, s.utcInput("2025-06-14T14:00:00Z", "2025-06-14T16:00:00Z"))
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects minute-offset boundaries", func() {
		_, err := s.svc.Create(s.ctx, s.userID, s.utcInput("2025-06-16T14:30:00Z", "2025-06-16T16:30:00Z"))
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects a half-hour window", func() {
		input := s.utcInput("2025-06-16T14:00:00Z", "2025-06-16T14:00:00Z")
		input.EndUTC = input.StartUTC.Add(30 * time.Minute)
		_, err := s.svc.Create(s.ctx, s.userID, input)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects a fractional multi-hour window", func() {
		input := s.utcInput("2025-06-16T14:00:00Z", "2025-06-16T14:00:00Z")
		input.EndUTC = input.StartUTC.Add(90 * time.Minute)
		_, err := s.svc.Create(s.ctx, s.userID, input)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *AvailabilitySuite) TestLocalRecompute() {
	s.Run("UTC is recomputed from local wall times and zone", func() {
		// Client claims a wrong UTC pair; the Vienna wall clock wins.
		input := s.utcInput("2025-06-16T09:00:00Z", "2025-06-16T11:00:00Z")
		input.StartLocal = "2025-06-16T14:00"
		input.EndLocal = "2025-06-16T16:00"
		input.Zone = "Europe/Vienna"

		slot, err := s.svc.Create(s.ctx, s.userID, input)
		s.Require().NoError(err)
		// Vienna is UTC+2 in June.
		s.Equal(testutil.MustParseTime(s.T(), "2025-06-16T12:00:00Z"), slot.StartUTC)
		s.Equal(testutil.MustParseTime(s.T(), "2025-06-16T14:00:00Z"), slot.EndUTC)
	})

	s.Run("an unknown zone is rejected", func() {
		input := s.utcInput("2025-06-16T09:00:00Z", "2025-06-16T11:00:00Z")
		input.StartLocal = "2025-06-16T14:00"
		input.EndLocal = "2025-06-16T16:00"
		input.Zone = "Mars/Olympus"
		_, err := s.svc.Create(s.ctx, s.userID, input)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("hour alignment applies to the recomputed window", func() {
		// India is UTC+5:30, so an aligned IST wall clock lands off-hour in UTC.
		input := service.SlotInput{
			StartLocal: "2025-06-16T14:00",
			EndLocal:   "2025-06-16T16:00",
			Zone:       "Asia/Kolkata",
			StartUTC:   s.now,
			EndUTC:     s.now.Add(time.Hour),
		}
		_, err := s.svc.Create(s.ctx, s.userID, input)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *AvailabilitySuite) TestListPurgesExpired() {
	past := s.utcInput("2025-06-16T14:00:00Z", "2025-06-16T16:00:00Z")
	_, err := s.svc.Create(s.ctx, s.userID, past)
	s.Require().NoError(err)

	future := s.utcInput("2025-06-20T14:00:00Z", "2025-06-20T16:00:00Z")
	_, err = s.svc.Create(s.ctx, s.userID, future)
	s.Require().NoError(err)

	// Three days later the first window has elapsed.
	later := testutil.FrozenContext(s.T(), s.now.Add(72*time.Hour))
	slots, err := s.svc.List(later, s.userID)
	s.Require().NoError(err)
	s.Require().Len(slots, 1)
	s.Equal(future.StartUTC, slots[0].StartUTC)
}

func (s *AvailabilitySuite) TestUpdateAndDelete() {
	slot, err := s.svc.Create(s.ctx, s.userID, s.utcInput("2025-06-16T14:00:00Z", "2025-06-16T16:00:00Z"))
	s.Require().NoError(err)

	s.Run("update replaces the window", func() {
		updated, err := s.svc.Update(s.ctx, s.userID, slot.ID, s.utcInput("2025-06-17T10:00:00Z", "2025-06-17T12:00:00Z"))
		s.Require().NoError(err)
		s.Equal(testutil.MustParseTime(s.T(), "2025-06-17T10:00:00Z"), updated.StartUTC)
	})

	s.Run("another member cannot touch the slot", func() {
		stranger := uuid.New()
		_, err := s.svc.Update(s.ctx, stranger, slot.ID, s.utcInput("2025-06-17T10:00:00Z", "2025-06-17T12:00:00Z"))
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
		err = s.svc.Delete(s.ctx, stranger, slot.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("delete removes the slot", func() {
		s.Require().NoError(s.svc.Delete(s.ctx, s.userID, slot.ID))
		err := s.svc.Delete(s.ctx, s.userID, slot.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func TestAvailabilitySuite(t *testing.T) {
	suite.Run(t, new(AvailabilitySuite))
}
