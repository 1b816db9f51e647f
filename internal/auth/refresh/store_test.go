package refresh

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearhere-auth/internal/db"
)

// storeContract exercises the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	userID := uuid.New()

	t.Run("find absent", func(t *testing.T) {
		rec, err := s.FindByUser(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("delete absent is a no-op", func(t *testing.T) {
		require.NoError(t, s.DeleteByUser(ctx, userID))
	})

	t.Run("save then find", func(t *testing.T) {
		rec := Record{UserID: userID, Token: "first", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.FindByUser(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "first", got.Token)
		assert.Equal(t, now.Add(time.Hour).Unix(), got.ExpiresAt.Unix())
	})

	t.Run("second save replaces", func(t *testing.T) {
		rec := Record{UserID: userID, Token: "second", ExpiresAt: now.Add(2 * time.Hour), CreatedAt: now}
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.FindByUser(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "second", got.Token)
	})

	t.Run("records are per user", func(t *testing.T) {
		other := uuid.New()
		require.NoError(t, s.Save(ctx, Record{UserID: other, Token: "other", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
		t.Cleanup(func() { _ = s.DeleteByUser(ctx, other) })

		got, err := s.FindByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "second", got.Token)
	})

	t.Run("delete removes", func(t *testing.T) {
		require.NoError(t, s.DeleteByUser(ctx, userID))

		got, err := s.FindByUser(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("consume requires the current token", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, Record{UserID: userID, Token: "current", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

		ok, err := s.Consume(ctx, userID, "stale")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := s.FindByUser(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, got, "a mismatched consume must not delete")

		ok, err = s.Consume(ctx, userID, "current")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Consume(ctx, userID, "current")
		require.NoError(t, err)
		assert.False(t, ok, "a token is consumed once")

		got, err = s.FindByUser(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("concurrent consumes of one token", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, Record{UserID: userID, Token: "shared", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

		const callers = 8
		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.Consume(ctx, userID, "shared")
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("save rejects empty record", func(t *testing.T) {
		require.Error(t, s.Save(ctx, Record{UserID: uuid.New(), ExpiresAt: now.Add(time.Hour)}))
		require.Error(t, s.Save(ctx, Record{Token: "x", ExpiresAt: now.Add(time.Hour)}))
	})
}

func TestSQLStore(t *testing.T) {
	d, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	storeContract(t, NewSQLStore(d))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	s := NewRedisStore(client)
	s.prefix = "test-refresh:" + uuid.NewString() + ":"
	storeContract(t, s)

	t.Run("expired record is rejected", func(t *testing.T) {
		err := s.Save(context.Background(), Record{
			UserID:    uuid.New(),
			Token:     "stale",
			ExpiresAt: time.Now().Add(-time.Second),
		})
		require.Error(t, err)
	})
}
