//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soultribe/internal/ratelimit"
	"soultribe/pkg/testutil/containers"
)

func TestRedisStoreSlidingWindow(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := ratelimit.NewRedisStore(rc.Client)
	ctx := context.Background()

	t.Run("allows up to the limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			d, err := store.Hit(ctx, "login", "1.2.3.4", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, d.Allowed, "hit %d", i)
		}
	})

	t.Run("rejects the hit past the limit with retry hint", func(t *testing.T) {
		d, err := store.Hit(ctx, "login", "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Greater(t, d.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, d.RetryAfter, time.Minute)
	})

	t.Run("denied hits do not extend the block", func(t *testing.T) {
		// The rejected hit above was rolled back, so the set still holds
		// exactly the limit.
		count, err := rc.Client.ZCard(ctx, "ratelimit:login:1.2.3.4").Result()
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("other identifiers are unaffected", func(t *testing.T) {
		d, err := store.Hit(ctx, "login", "5.6.7.8", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		const window = 200 * time.Millisecond
		for i := 0; i < 2; i++ {
			d, err := store.Hit(ctx, "login", "9.9.9.9", 2, window)
			require.NoError(t, err)
			require.True(t, d.Allowed, "hit %d", i)
		}
		d, err := store.Hit(ctx, "login", "9.9.9.9", 2, window)
		require.NoError(t, err)
		assert.False(t, d.Allowed)

		time.Sleep(window + 50*time.Millisecond)
		d, err = store.Hit(ctx, "login", "9.9.9.9", 2, window)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("scopes are independent", func(t *testing.T) {
		d, err := store.Hit(ctx, "register", "1.2.3.4", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}
