//go:build integration

// Package integration exercises the Postgres stores against a real database
// started with testcontainers. Run with: go test -tags integration ./...
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authmodels "soultribe/internal/auth/models"
	authstore "soultribe/internal/auth/store"
	availmodels "soultribe/internal/availability/models"
	availstore "soultribe/internal/availability/store"
	matchmodels "soultribe/internal/match/models"
	matchstore "soultribe/internal/match/store"
	meetupmodels "soultribe/internal/meetup/models"
	meetupstore "soultribe/internal/meetup/store"
	"soultribe/internal/storage"
	"soultribe/pkg/testutil/containers"
	"soultribe/pkg/tx"
)

func TestPostgresStoresRoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	users := authstore.NewPostgresStore(pg.DB)
	slots := availstore.NewPostgresStore(pg.DB)
	matches := matchstore.NewPostgresStore(pg.DB)
	meetups := meetupstore.NewPostgresStore(pg.DB)

	alice := &authmodels.User{ID: uuid.New(), Email: "alice@example.org", PasswordHash: "x", CreatedAt: now}
	bob := &authmodels.User{ID: uuid.New(), Email: "bob@example.org", PasswordHash: "x", CreatedAt: now}
	require.NoError(t, users.CreateUser(ctx, alice))
	require.NoError(t, users.CreateUser(ctx, bob))

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup := &authmodels.User{ID: uuid.New(), Email: "ALICE@example.org", PasswordHash: "x", CreatedAt: now}
		require.Error(t, users.CreateUser(ctx, dup))
	})

	t.Run("slot lifecycle and purge", func(t *testing.T) {
		live := &availmodels.Slot{
			ID: uuid.New(), UserID: alice.ID,
			StartUTC: now.Add(2 * time.Hour), EndUTC: now.Add(4 * time.Hour),
			StartLocal: "2025-06-15T14:00", EndLocal: "2025-06-15T16:00",
			Zone: "Europe/Vienna", CreatedAt: now,
		}
		stale := &availmodels.Slot{
			ID: uuid.New(), UserID: alice.ID,
			StartUTC: now.Add(-4 * time.Hour), EndUTC: now.Add(-2 * time.Hour),
			CreatedAt: now,
		}
		require.NoError(t, slots.Create(ctx, live))
		require.NoError(t, slots.Create(ctx, stale))

		listed, err := slots.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, listed, 2)

		purged, err := slots.PurgeExpired(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, purged)

		found, err := slots.Find(ctx, alice.ID, live.ID)
		require.NoError(t, err)
		require.Equal(t, "Europe/Vienna", found.Zone)
		require.True(t, found.StartUTC.Equal(live.StartUTC))

		_, err = slots.Find(ctx, bob.ID, live.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	match := &matchmodels.Match{
		ID: uuid.New(), AUserID: alice.ID, BUserID: bob.ID,
		Score: 70, Status: matchmodels.StatusSuggested, CreatedAt: now,
	}

	t.Run("match pair lookup is order-insensitive", func(t *testing.T) {
		require.NoError(t, matches.Create(ctx, match))

		forward, err := matches.FindByPair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		reverse, err := matches.FindByPair(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, forward.ID, reverse.ID)

		require.NoError(t, matches.SetStatus(ctx, match.ID, matchmodels.StatusAccepted))
		updated, err := matches.Find(ctx, match.ID)
		require.NoError(t, err)
		require.Equal(t, matchmodels.StatusAccepted, updated.Status)
	})

	t.Run("meetup confirm round trip", func(t *testing.T) {
		meetup := &meetupmodels.Meetup{
			ID: uuid.New(), MatchID: match.ID,
			ProposedUTC: now.Add(24 * time.Hour),
			Status:      meetupmodels.StatusProposed,
			ProposerID:  alice.ID, CreatedAt: now,
		}
		require.NoError(t, meetups.Create(ctx, meetup))

		confirmed := now.Add(24 * time.Hour)
		meetup.ConfirmedUTC = &confirmed
		meetup.ConfirmerID = &bob.ID
		meetup.RoomURL = "https://meet.example.org/soultribe_test"
		meetup.Status = meetupmodels.StatusConfirmed
		require.NoError(t, meetups.Update(ctx, meetup))

		listed, err := meetups.ListByMatches(ctx, []uuid.UUID{match.ID}, 10, 0)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, meetupmodels.StatusConfirmed, listed[0].Status)
		require.NotNil(t, listed[0].ConfirmedUTC)
		require.True(t, listed[0].ConfirmedUTC.Equal(confirmed))
		require.NotNil(t, listed[0].ConfirmerID)
		require.Equal(t, bob.ID, *listed[0].ConfirmerID)
	})

	t.Run("stores honor a request-scoped transaction", func(t *testing.T) {
		dbtx, err := pg.DB.BeginTx(ctx, nil)
		require.NoError(t, err)
		txCtx := tx.WithTx(ctx, dbtx)

		ghost := &authmodels.User{ID: uuid.New(), Email: "ghost@example.org", PasswordHash: "x", CreatedAt: now}
		require.NoError(t, users.CreateUser(txCtx, ghost))

		// Visible inside the transaction, gone after rollback.
		_, err = users.FindUserByID(txCtx, ghost.ID)
		require.NoError(t, err)
		require.NoError(t, dbtx.Rollback())
		_, err = users.FindUserByID(ctx, ghost.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("token purges", func(t *testing.T) {
		require.NoError(t, users.SaveRefreshToken(ctx, &authmodels.RefreshToken{
			ID: uuid.New(), UserID: alice.ID, TokenHash: "stale",
			CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour),
		}))
		purged, err := users.DeleteExpiredRefreshTokens(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, purged)
	})
}
