package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"soultribe/internal/activity"
	authmodels "soultribe/internal/auth/models"
	availservice "soultribe/internal/availability/service"
	availstore "soultribe/internal/availability/store"
	"soultribe/internal/match/models"
	"soultribe/internal/match/service"
	"soultribe/internal/match/store"
	profilemodels "soultribe/internal/profile/models"
	profileservice "soultribe/internal/profile/service"
	profilestore "soultribe/internal/profile/store"
	dErrors "soultribe/pkg/domainerrors"
	"soultribe/pkg/testutil"
)

type fakeDirectory struct {
	users map[uuid.UUID]*authmodels.User
}

func (d *fakeDirectory) FindUser(_ context.Context, id uuid.UUID) (*authmodels.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (d *fakeDirectory) ListUsers(context.Context) ([]*authmodels.User, error) {
	out := make([]*authmodels.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	return out, nil
}

// flakyPairStore fails pair lookups the way a dropped connection would.
type flakyPairStore struct {
	store.Store
	pairErr error
}

func (f *flakyPairStore) FindByPair(context.Context, uuid.UUID, uuid.UUID) (*models.Match, error) {
	return nil, f.pairErr
}

// pairScorer returns fixed per-user scores so sort order is observable.
type pairScorer struct {
	scores map[uuid.UUID]int
}

func (s *pairScorer) Score(_ context.Context, _, b *profilemodels.Profile) int {
	return s.scores[b.UserID]
}

type MatchServiceSuite struct {
	suite.Suite
	svc       *service.Service
	store     *store.InMemoryStore
	directory *fakeDirectory
	profiles  *profileservice.Service
	slots     *availservice.Service
	scorer    *pairScorer
	ctx       context.Context
	now       time.Time
	me        uuid.UUID
}

func (s *MatchServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.directory = &fakeDirectory{users: make(map[uuid.UUID]*authmodels.User)}
	s.scorer = &pairScorer{scores: make(map[uuid.UUID]int)}
	s.now = testutil.MustParseTime(s.T(), "2025-06-15T12:00:00Z")
	s.ctx = testutil.FrozenContext(s.T(), s.now)

	profiles, err := profileservice.New(profilestore.NewInMemoryStore(), s.directory, activity.Nop{})
	s.Require().NoError(err)
	s.profiles = profiles

	slots, err := availservice.New(availstore.NewInMemoryStore(), activity.Nop{}, nil)
	s.Require().NoError(err)
	s.slots = slots

	svc, err := service.New(s.store, s.directory, s.profiles, s.slots, s.scorer, activity.Nop{}, nil, service.Config{})
	s.Require().NoError(err)
	s.svc = svc

	s.me = s.addUser("me@example.com", true, s.now)
	s.setLanguages(s.me, "en", "Europe/Vienna")
}

func (s *MatchServiceSuite) addUser(email string, verified bool, lastLogin time.Time) uuid.UUID {
	user := &authmodels.User{ID: uuid.New(), Email: email, CreatedAt: s.now}
	if verified {
		at := s.now
		user.EmailVerifiedAt = &at
	}
	if !lastLogin.IsZero() {
		at := lastLogin
		user.LastLoginAt = &at
	}
	s.directory.users[user.ID] = user
	return user.ID
}

func (s *MatchServiceSuite) setLanguages(userID uuid.UUID, lang, zone string) {
	_, err := s.profiles.Update(s.ctx, userID, profileservice.UpdateInput{
		LangPrimary: &lang,
		LiveZone:    &zone,
	})
	s.Require().NoError(err)
}

func (s *MatchServiceSuite) addSlot(userID uuid.UUID, start, end string) {
	_, err := s.slots.Create(s.ctx, userID, availservice.SlotInput{
		StartUTC: testutil.MustParseTime(s.T(), start),
		EndUTC:   testutil.MustParseTime(s.T(), end),
	})
	s.Require().NoError(err)
}

func (s *MatchServiceSuite) find(input service.FindInput) *service.Page {
	page, err := s.svc.Find(s.ctx, s.me, input)
	s.Require().NoError(err)
	return page
}

func (s *MatchServiceSuite) TestFindRequiresVerifiedEmail() {
	unverified := s.addUser("new@example.com", false, s.now)
	_, err := s.svc.Find(s.ctx, unverified, service.FindInput{})
	s.True(dErrors.Is(err, dErrors.CodeForbidden))
}

func (s *MatchServiceSuite) TestFindFilters() {
	sharesLang := s.addUser("anna@example.com", true, s.now)
	s.setLanguages(sharesLang, "en", "Europe/Berlin")

	noSharedLang := s.addUser("pierre@example.com", true, s.now)
	s.setLanguages(noSharedLang, "fr", "Europe/Paris")

	stale := s.addUser("ghost@example.com", true, s.now.Add(-45*24*time.Hour))
	s.setLanguages(stale, "en", "Europe/Vienna")

	neverLoggedIn := s.addUser("fresh@example.com", true, time.Time{})
	s.setLanguages(neverLoggedIn, "en", "Europe/Vienna")

	page := s.find(service.FindInput{})
	found := make(map[uuid.UUID]bool)
	for _, c := range page.Candidates {
		found[c.UserID] = true
	}
	s.True(found[sharesLang], "active member with shared language must appear")
	s.True(found[neverLoggedIn], "member who never logged in must still appear")
	s.False(found[noSharedLang], "no shared language must exclude")
	s.False(found[stale], "stale login must exclude")
}

func (s *MatchServiceSuite) TestFindOverlapsAnnotated() {
	other := s.addUser("anna@example.com", true, s.now)
	s.setLanguages(other, "en", "Asia/Kolkata")

	s.addSlot(s.me, "2025-06-16T10:00:00Z", "2025-06-16T14:00:00Z")
	s.addSlot(other, "2025-06-16T12:00:00Z", "2025-06-16T18:00:00Z")

	page := s.find(service.FindInput{})
	s.Require().Len(page.Candidates, 1)
	s.Require().Len(page.Candidates[0].Overlaps, 1)

	ov := page.Candidates[0].Overlaps[0]
	s.Equal("2025-06-16T12:00:00Z", ov.StartUTC)
	s.Equal("2025-06-16T14:00:00Z", ov.EndUTC)
	// Vienna is UTC+2 in June, Kolkata UTC+5:30.
	s.Equal("2025-06-16T14:00", ov.ALocalStart)
	s.Equal("Europe/Vienna", ov.AZone)
	s.Equal("2025-06-16T17:30", ov.BLocalStart)
	s.Equal("Asia/Kolkata", ov.BZone)
}

func (s *MatchServiceSuite) TestFindSortAndPagination() {
	ids := make([]uuid.UUID, 0, 3)
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		id := s.addUser(email, true, s.now)
		s.setLanguages(id, "en", "UTC")
		s.scorer.scores[id] = (i + 1) * 10
		ids = append(ids, id)
	}

	page := s.find(service.FindInput{Limit: 2})
	s.Equal(3, page.Total)
	s.Require().Len(page.Candidates, 2)
	s.Equal(ids[2], page.Candidates[0].UserID, "highest score first")
	s.Equal(ids[1], page.Candidates[1].UserID)
	s.True(page.HasMore)

	rest := s.find(service.FindInput{Limit: 2, Offset: 2})
	s.Require().Len(rest.Candidates, 1)
	s.Equal(ids[0], rest.Candidates[0].UserID)
	s.False(rest.HasMore)

	minScore := 25
	filtered := s.find(service.FindInput{MinScore: &minScore})
	s.Equal(1, filtered.Total)
}

func (s *MatchServiceSuite) TestFindSurfacesPairLookupFailure() {
	other := s.addUser("anna@example.com", true, s.now)
	s.setLanguages(other, "en", "Europe/Berlin")

	storeErr := errors.New("connection reset by peer")
	svc, err := service.New(&flakyPairStore{Store: s.store, pairErr: storeErr},
		s.directory, s.profiles, s.slots, s.scorer, activity.Nop{}, nil, service.Config{})
	s.Require().NoError(err)

	_, err = svc.Find(s.ctx, s.me, service.FindInput{})
	s.Require().ErrorIs(err, storeErr, "a failing store must not masquerade as no existing match")
}

func (s *MatchServiceSuite) TestCreateIdempotent() {
	other := s.addUser("anna@example.com", true, s.now)
	s.setLanguages(other, "en", "UTC")
	s.scorer.scores[other] = 70

	first, err := s.svc.Create(s.ctx, s.me, other)
	s.Require().NoError(err)
	s.Equal(models.StatusSuggested, first.Status)
	s.Equal(70, first.Score)

	// Opposite order returns the same record.
	second, err := s.svc.Create(s.ctx, other, s.me)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
}

func (s *MatchServiceSuite) TestCreateRejectsSelfAndUnknown() {
	_, err := s.svc.Create(s.ctx, s.me, s.me)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = s.svc.Create(s.ctx, s.me, uuid.New())
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *MatchServiceSuite) TestSetStatus() {
	other := s.addUser("anna@example.com", true, s.now)
	s.setLanguages(other, "en", "UTC")
	match, err := s.svc.Create(s.ctx, s.me, other)
	s.Require().NoError(err)

	s.Run("participants can accept", func() {
		updated, err := s.svc.SetStatus(s.ctx, other, match.ID, models.StatusAccepted)
		s.Require().NoError(err)
		s.Equal(models.StatusAccepted, updated.Status)
	})

	s.Run("outsiders cannot touch the match", func() {
		stranger := s.addUser("x@example.com", true, s.now)
		_, err := s.svc.SetStatus(s.ctx, stranger, match.ID, models.StatusDeclined)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("arbitrary statuses are rejected", func() {
		_, err := s.svc.SetStatus(s.ctx, s.me, match.ID, models.Status("ghosted"))
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func TestMatchServiceSuite(t *testing.T) {
	suite.Run(t, new(MatchServiceSuite))
}
