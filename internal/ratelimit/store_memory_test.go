package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreSlidingWindow(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("allows up to the limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			d, err := store.Hit(ctx, "test", "1.2.3.4", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, d.Allowed, "hit %d", i)
		}
	})

	t.Run("rejects the hit past the limit with retry hint", func(t *testing.T) {
		d, err := store.Hit(ctx, "test", "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, time.Minute, d.RetryAfter)
	})

	t.Run("other identifiers are unaffected", func(t *testing.T) {
		d, err := store.Hit(ctx, "test", "5.6.7.8", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		now = now.Add(61 * time.Second)
		d, err := store.Hit(ctx, "test", "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("scopes are independent", func(t *testing.T) {
		d, err := store.Hit(ctx, "other-scope", "1.2.3.4", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}
