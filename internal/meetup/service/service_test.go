package service_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Matches,Directory,Profiles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"soultribe/internal/activity"
	authmodels "soultribe/internal/auth/models"
	matchmodels "soultribe/internal/match/models"
	"soultribe/internal/meetup/models"
	"soultribe/internal/meetup/room"
	"soultribe/internal/meetup/service"
	"soultribe/internal/meetup/service/mocks"
	"soultribe/internal/meetup/store"
	profilemodels "soultribe/internal/profile/models"
	"soultribe/internal/storage"
	dErrors "soultribe/pkg/domainerrors"
	"soultribe/pkg/testutil"
)

type sentMail struct {
	to      string
	roomURL string
	whenUTC string
}

type captureMailer struct {
	confirmed []sentMail
}

func (m *captureMailer) SendVerification(context.Context, string, string) error  { return nil }
func (m *captureMailer) SendPasswordReset(context.Context, string, string) error { return nil }

func (m *captureMailer) SendMeetupConfirmed(_ context.Context, to, roomURL, whenUTC string) error {
	m.confirmed = append(m.confirmed, sentMail{to: to, roomURL: roomURL, whenUTC: whenUTC})
	return nil
}

type MeetupServiceSuite struct {
	suite.Suite
	svc      *service.Service
	store    *store.InMemoryStore
	matches  *mocks.MockMatches
	users    *mocks.MockDirectory
	profiles *mocks.MockProfiles
	mail     *captureMailer
	ctx      context.Context
	now      time.Time

	alice uuid.UUID
	bob   uuid.UUID
	match *matchmodels.Match
}

func (s *MeetupServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.store = store.NewInMemoryStore()
	s.matches = mocks.NewMockMatches(ctrl)
	s.users = mocks.NewMockDirectory(ctrl)
	s.profiles = mocks.NewMockProfiles(ctrl)
	s.mail = &captureMailer{}
	s.now = testutil.MustParseTime(s.T(), "2025-06-15T12:00:00Z")
	s.ctx = testutil.FrozenContext(s.T(), s.now)

	s.alice = uuid.New()
	s.bob = uuid.New()
	s.match = &matchmodels.Match{
		ID:        uuid.New(),
		AUserID:   s.alice,
		BUserID:   s.bob,
		Score:     50,
		Status:    matchmodels.StatusAccepted,
		CreatedAt: s.now.Add(-24 * time.Hour),
	}

	svc, err := service.New(
		s.store, s.matches, s.users, s.profiles,
		room.NewGenerator("https://meet.soultribe.chat", "test-secret"),
		s.mail, activity.Nop{}, nil, nil,
	)
	s.Require().NoError(err)
	s.svc = svc
}

// expectParticipant lets any participant of the fixture match load it, and
// rejects everyone else with a forbidden error.
func (s *MeetupServiceSuite) expectParticipant() {
	s.matches.EXPECT().
		Get(gomock.Any(), gomock.Any(), s.match.ID).
		DoAndReturn(func(_ context.Context, userID, _ uuid.UUID) (*matchmodels.Match, error) {
			if !s.match.Involves(userID) {
				return nil, dErrors.New(dErrors.CodeForbidden, "not a participant of this match")
			}
			return s.match, nil
		}).
		AnyTimes()
}

func (s *MeetupServiceSuite) expectNotify(notify map[uuid.UUID]bool) {
	s.profiles.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, userID uuid.UUID) (*profilemodels.Profile, error) {
			return &profilemodels.Profile{UserID: userID, NotifyEmail: notify[userID]}, nil
		}).
		AnyTimes()
	s.users.EXPECT().
		FindUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) (*authmodels.User, error) {
			switch id {
			case s.alice:
				return &authmodels.User{ID: id, Email: "alice@example.org"}, nil
			case s.bob:
				return &authmodels.User{ID: id, Email: "bob@example.org"}, nil
			}
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}).
		AnyTimes()
}

func (s *MeetupServiceSuite) propose(proposer uuid.UUID, at *time.Time) *models.Meetup {
	meetup, err := s.svc.Propose(s.ctx, proposer, s.match.ID, at)
	s.Require().NoError(err)
	return meetup
}

func (s *MeetupServiceSuite) TestPropose() {
	s.expectParticipant()

	s.Run("defaults to now", func() {
		meetup := s.propose(s.alice, nil)
		s.Equal(models.StatusProposed, meetup.Status)
		s.Equal(s.alice, meetup.ProposerID)
		s.Equal(s.now, meetup.ProposedUTC)
		s.Empty(meetup.RoomURL)
		s.Nil(meetup.ConfirmedUTC)
	})

	s.Run("keeps an explicit time", func() {
		at := s.now.Add(26 * time.Hour)
		meetup := s.propose(s.alice, &at)
		s.Equal(at, meetup.ProposedUTC)
	})

	s.Run("outsider is rejected", func() {
		_, err := s.svc.Propose(s.ctx, uuid.New(), s.match.ID, nil)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func (s *MeetupServiceSuite) TestConfirm() {
	s.expectParticipant()
	s.expectNotify(map[uuid.UUID]bool{s.alice: true, s.bob: true})

	s.Run("other side confirms and gets a room", func() {
		meetup := s.propose(s.alice, nil)
		confirmed, err := s.svc.Confirm(s.ctx, s.bob, meetup.ID, nil)
		s.Require().NoError(err)

		s.Equal(models.StatusConfirmed, confirmed.Status)
		s.Require().NotNil(confirmed.ConfirmedUTC)
		s.Equal(meetup.ProposedUTC, *confirmed.ConfirmedUTC)
		s.Require().NotNil(confirmed.ConfirmerID)
		s.Equal(s.bob, *confirmed.ConfirmerID)
		s.Contains(confirmed.RoomURL, "https://meet.soultribe.chat/soultribe_")

		stored, err := s.store.Find(s.ctx, meetup.ID)
		s.Require().NoError(err)
		s.Equal(confirmed.RoomURL, stored.RoomURL)
	})

	s.Run("proposer cannot confirm their own proposal", func() {
		meetup := s.propose(s.alice, nil)
		_, err := s.svc.Confirm(s.ctx, s.alice, meetup.ID, nil)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		stored, err := s.store.Find(s.ctx, meetup.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusProposed, stored.Status)
	})

	s.Run("unknown meetup", func() {
		_, err := s.svc.Confirm(s.ctx, s.bob, uuid.New(), nil)
		s.ErrorIs(err, storage.ErrNotFound)
	})
}

func (s *MeetupServiceSuite) TestConfirmNotifiesOptedInParticipants() {
	s.expectParticipant()
	s.expectNotify(map[uuid.UUID]bool{s.alice: true, s.bob: false})

	meetup := s.propose(s.alice, nil)
	confirmed, err := s.svc.Confirm(s.ctx, s.bob, meetup.ID, nil)
	s.Require().NoError(err)

	s.Require().Len(s.mail.confirmed, 1)
	s.Equal("alice@example.org", s.mail.confirmed[0].to)
	s.Equal(confirmed.RoomURL, s.mail.confirmed[0].roomURL)
	s.Equal("2025-06-15T12:00:00Z", s.mail.confirmed[0].whenUTC)
}

func (s *MeetupServiceSuite) TestUnconfirm() {
	s.expectParticipant()
	s.expectNotify(map[uuid.UUID]bool{})

	meetup := s.propose(s.alice, nil)
	_, err := s.svc.Confirm(s.ctx, s.bob, meetup.ID, nil)
	s.Require().NoError(err)

	s.Run("only the confirmer may", func() {
		_, err := s.svc.Unconfirm(s.ctx, s.alice, meetup.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("confirmer reverts to proposed", func() {
		reverted, err := s.svc.Unconfirm(s.ctx, s.bob, meetup.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusProposed, reverted.Status)
		s.Nil(reverted.ConfirmedUTC)
		s.Nil(reverted.ConfirmerID)
		s.Empty(reverted.RoomURL)
	})
}

func (s *MeetupServiceSuite) TestCancel() {
	s.expectParticipant()
	s.expectNotify(map[uuid.UUID]bool{})

	meetup := s.propose(s.alice, nil)
	_, err := s.svc.Confirm(s.ctx, s.bob, meetup.ID, nil)
	s.Require().NoError(err)

	canceled, err := s.svc.Cancel(s.ctx, s.alice, meetup.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCanceled, canceled.Status)
	s.Empty(canceled.RoomURL)
}

func (s *MeetupServiceSuite) TestDelete() {
	s.expectParticipant()

	meetup := s.propose(s.alice, nil)

	s.Run("outsider is rejected", func() {
		err := s.svc.Delete(s.ctx, uuid.New(), meetup.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("participant deletes", func() {
		s.Require().NoError(s.svc.Delete(s.ctx, s.bob, meetup.ID))
		_, err := s.store.Find(s.ctx, meetup.ID)
		s.ErrorIs(err, storage.ErrNotFound)
	})
}

func (s *MeetupServiceSuite) TestList() {
	s.expectParticipant()
	s.matches.EXPECT().List(gomock.Any(), s.alice).Return([]*matchmodels.Match{s.match}, nil)
	s.profiles.EXPECT().
		Get(gomock.Any(), s.bob).
		Return(&profilemodels.Profile{UserID: s.bob, DisplayName: "Bob R"}, nil).
		AnyTimes()

	s.propose(s.alice, nil)

	entries, err := s.svc.List(s.ctx, s.alice, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(s.match.ID, entries[0].MatchID)
	s.Equal(s.bob, entries[0].OtherUserID)
	s.Equal("Bob R", entries[0].OtherDisplayName)
	s.True(entries[0].Proposed)
	s.Equal("2025-06-15T12:00:00Z", entries[0].ProposedUTC)
	s.Equal(string(models.StatusProposed), entries[0].Status)
}

func TestMeetupServiceSuite(t *testing.T) {
	suite.Run(t, new(MeetupServiceSuite))
}
