package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when REDIS_ADDR is set, e.g. REDIS_ADDR=localhost:6379.
func TestRedisStore_SetGet(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisOptions{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()

	key := "test:" + time.Now().Format("20060102150405.000")

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	want := forecastFor(44.59)
	require.NoError(t, s.Set(ctx, key, want))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want.Location, got.Location)
	require.Len(t, got.Observations, 1)
	assert.True(t, want.Observations[0].Timestamp.Equal(got.Observations[0].Timestamp))
	assert.NoError(t, s.Ping(ctx))
}
