package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires Redis on localhost:6379; tests skip otherwise.
const testRedisAddr = "localhost:6379"

func setupTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cleanupKeys(ctx, client, prefix+"*")
	t.Cleanup(func() {
		cleanupKeys(ctx, client, prefix+"*")
		_ = client.Close()
	})

	return New(client, prefix, time.Minute)
}

func cleanupKeys(ctx context.Context, client *redis.Client, pattern string) {
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

type cachedTask struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
}

func TestCache_SetGetDelete(t *testing.T) {
	c := setupTestCache(t, "test:mindaid:setget:")
	ctx := context.Background()

	found, err := c.Get(ctx, "task-1", &cachedTask{})
	require.NoError(t, err)
	assert.False(t, found)

	want := cachedTask{ID: "task-1", Title: "File taxes", Priority: 4}
	require.NoError(t, c.Set(ctx, "task-1", want))

	var got cachedTask
	found, err = c.Get(ctx, "task-1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "task-1", "never-set"))
	found, err = c.Get(ctx, "task-1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	stats := c.GetStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)
	assert.Equal(t, uint64(1), stats.Deletes)
}

func TestCache_DeleteNoKeys(t *testing.T) {
	c := New(redis.NewClient(&redis.Options{Addr: testRedisAddr}), "p:", time.Minute)
	assert.NoError(t, c.Delete(context.Background()))
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", cachedTask{ID: "x"}))
	found, err := s.Get(ctx, "k", &cachedTask{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, s.Delete(ctx, "k"))
}
