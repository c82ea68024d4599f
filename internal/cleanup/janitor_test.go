package cleanup_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authmodels "soultribe/internal/auth/models"
	authstore "soultribe/internal/auth/store"
	availmodels "soultribe/internal/availability/models"
	availstore "soultribe/internal/availability/store"
	"soultribe/internal/cleanup"
	"soultribe/internal/storage"
	"soultribe/pkg/testutil"
)

func TestSweepPurgesExpiredState(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	slots := availstore.NewInMemoryStore()
	auth := authstore.NewInMemoryStore()
	userID := uuid.New()
	expiredSlot := uuid.New()
	liveSlot := uuid.New()

	testutil.Given(t, "a user with an expired slot and stale auth tokens", func(t *testing.T) {
		require.NoError(t, slots.Create(ctx, &availmodels.Slot{
			ID: expiredSlot, UserID: userID,
			StartUTC: now.Add(-3 * time.Hour), EndUTC: now.Add(-2 * time.Hour),
		}))
		require.NoError(t, slots.Create(ctx, &availmodels.Slot{
			ID: liveSlot, UserID: userID,
			StartUTC: now.Add(2 * time.Hour), EndUTC: now.Add(3 * time.Hour),
		}))
		require.NoError(t, auth.SaveRefreshToken(ctx, &authmodels.RefreshToken{
			ID: uuid.New(), UserID: userID, TokenHash: "stale",
			ExpiresAt: now.Add(-time.Hour),
		}))
		require.NoError(t, auth.SaveActionToken(ctx, &authmodels.ActionToken{
			ID: uuid.New(), UserID: userID, Kind: authmodels.KindVerifyEmail,
			TokenHash: "stale", ExpiresAt: now.Add(-time.Hour),
		}))
	})

	testutil.When(t, "the janitor sweeps", func(t *testing.T) {
		janitor, err := cleanup.New("*/15 * * * *", slots, auth, slog.Default())
		require.NoError(t, err)
		janitor.Sweep(ctx)
	})

	testutil.Then(t, "only the expired state is gone", func(t *testing.T) {
		_, err := slots.Find(ctx, userID, expiredSlot)
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = slots.Find(ctx, userID, liveSlot)
		require.NoError(t, err)

		_, err = auth.FindRefreshTokenByHash(ctx, "stale")
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = auth.FindActionToken(ctx, authmodels.KindVerifyEmail, "stale")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := cleanup.New("not a schedule", nil, nil, nil)
	require.Error(t, err)
}
