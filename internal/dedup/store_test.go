// internal/dedup/store_test.go
package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, ttl), mr
}

func TestFirstSeen(t *testing.T) {
	t.Run("first delivery wins, second does not", func(t *testing.T) {
		store, _ := newTestStore(t, time.Hour)

		first, err := store.FirstSeen(context.Background(), "evt-1")
		require.NoError(t, err)
		assert.True(t, first)

		second, err := store.FirstSeen(context.Background(), "evt-1")
		require.NoError(t, err)
		assert.False(t, second)
	})

	t.Run("distinct events do not collide", func(t *testing.T) {
		store, _ := newTestStore(t, time.Hour)

		a, err := store.FirstSeen(context.Background(), "evt-a")
		require.NoError(t, err)
		b, err := store.FirstSeen(context.Background(), "evt-b")
		require.NoError(t, err)
		assert.True(t, a)
		assert.True(t, b)
	})

	t.Run("expired key counts as new", func(t *testing.T) {
		store, mr := newTestStore(t, time.Minute)

		first, err := store.FirstSeen(context.Background(), "evt-1")
		require.NoError(t, err)
		assert.True(t, first)

		mr.FastForward(2 * time.Minute)

		again, err := store.FirstSeen(context.Background(), "evt-1")
		require.NoError(t, err)
		assert.True(t, again)
	})

	t.Run("redis outage surfaces an error", func(t *testing.T) {
		store, mr := newTestStore(t, time.Minute)
		mr.Close()

		_, err := store.FirstSeen(context.Background(), "evt-1")
		assert.Error(t, err)
	})
}
