package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"soultribe/internal/activity"
	authmodels "soultribe/internal/auth/models"
	"soultribe/internal/profile/models"
	"soultribe/internal/profile/service"
	"soultribe/internal/profile/store"
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

type ProfileServiceSuite struct {
	suite.Suite
	svc    *service.Service
	store  *store.InMemoryStore
	ctx    context.Context
	userID uuid.UUID
}

func (s *ProfileServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.userID = uuid.New()
	s.ctx = testutil.FrozenContext(s.T(), testutil.MustParseTime(s.T(), "2025-06-15T12:00:00Z"))

	verified := testutil.MustParseTime(s.T(), "2025-01-01T00:00:00Z")
	directory := &fakeDirectory{users: map[uuid.UUID]*authmodels.User{
		s.userID: {ID: s.userID, Email: "amira.k+test@example.com", EmailVerifiedAt: &verified},
	}}

	svc, err := service.New(s.store, directory, activity.Nop{})
	s.Require().NoError(err)
	s.svc = svc
}

func ptr[T any](v T) *T { return &v }

func (s *ProfileServiceSuite) TestGetDefaults() {
	profile, err := s.svc.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("Amira K", profile.DisplayName)
	s.True(profile.BirthTimeKnown)
	s.True(profile.NotifyEmail)
	s.True(profile.NotifyBrowser)
	s.Nil(profile.BirthUTC)
}

func (s *ProfileServiceSuite) TestMe() {
	snapshot, err := s.svc.Me(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("amira.k+test@example.com", snapshot.Email)
	s.True(snapshot.EmailVerified)
	s.Equal("Amira K", snapshot.DisplayName)
}

func (s *ProfileServiceSuite) TestUpdate() {
	s.Run("applies only the provided fields", func() {
		profile, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			DisplayName: ptr("Amira"),
			LiveZone:    ptr("Europe/Vienna"),
		})
		s.Require().NoError(err)
		s.Equal("Amira", profile.DisplayName)
		s.Equal("Europe/Vienna", profile.LiveZone)

		profile, err = s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			LangPrimary: ptr("de"),
		})
		s.Require().NoError(err)
		s.Equal("Amira", profile.DisplayName, "untouched fields must survive")
		s.Equal("Europe/Vienna", profile.LiveZone)
		s.Equal("de", profile.LangPrimary)
	})

	s.Run("rejects an unknown live zone", func() {
		_, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			LiveZone: ptr("Europe/Atlantis"),
		})
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an unknown birth zone", func() {
		_, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			BirthZone: ptr("Not/AZone"),
		})
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *ProfileServiceSuite) TestBirthInstant() {
	s.Run("keeps the exact time when known", func() {
		profile, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			BirthAt: ptr("1990-03-21T08:30:00Z"),
		})
		s.Require().NoError(err)
		s.Require().NotNil(profile.BirthUTC)
		s.Equal(time.Date(1990, 3, 21, 8, 30, 0, 0, time.UTC), profile.BirthUTC.UTC())
	})

	s.Run("snaps to noon UTC when the time is unknown", func() {
		profile, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			BirthAt:        ptr("1990-03-21T08:30:00Z"),
			BirthTimeKnown: ptr(false),
		})
		s.Require().NoError(err)
		s.Require().NotNil(profile.BirthUTC)
		s.Equal(time.Date(1990, 3, 21, 12, 0, 0, 0, time.UTC), profile.BirthUTC.UTC())
	})

	s.Run("rejects an unparseable timestamp", func() {
		_, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			BirthAt: ptr("the spring equinox"),
		})
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *ProfileServiceSuite) TestGeoCache() {
	s.Run("a fully specified place seeds the cache", func() {
		_, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			LivePlaceName: ptr("Vienna, Austria"),
			LiveLat:       ptr(48.2082),
			LiveLon:       ptr(16.3738),
			LiveZone:      ptr("Europe/Vienna"),
		})
		s.Require().NoError(err)

		place, err := s.store.FindPlace(s.ctx, "vienna, austria")
		s.Require().NoError(err)
		s.Equal("Europe/Vienna", place.Zone)
		s.InDelta(48.2082, place.Lat, 0.0001)
	})

	s.Run("a bare place name is completed from the cache", func() {
		s.Require().NoError(s.store.SavePlace(s.ctx, &models.Place{
			Name: "Graz, Austria", Lat: 47.0707, Lon: 15.4395, Zone: "Europe/Vienna", Source: "seed",
		}))

		profile, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
			BirthPlaceName: ptr("Graz, Austria"),
		})
		s.Require().NoError(err)
		s.Require().NotNil(profile.BirthLat)
		s.InDelta(47.0707, *profile.BirthLat, 0.0001)
		s.Equal("Europe/Vienna", profile.BirthZone)
	})
}

func (s *ProfileServiceSuite) TestSpokenLanguages() {
	profile, err := s.svc.Update(s.ctx, s.userID, service.UpdateInput{
		LangPrimary:   ptr("DE"),
		LangSecondary: ptr("en"),
		Languages:     ptr([]string{"en", "fr", ""}),
	})
	s.Require().NoError(err)
	s.Equal([]string{"de", "en", "fr"}, profile.SpokenLanguages())
}

func TestProfileServiceSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceSuite))
}
