package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisRevoker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:revoked")
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevokerSurfacesErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisRevoker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	mr.Close()

	_, err := r.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}

func TestMemoryRevoker(t *testing.T) {
	r := NewMemoryRevoker()
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "a", time.Hour))
	require.NoError(t, r.Revoke(ctx, "b", 0))

	revoked, _ := r.IsRevoked(ctx, "a")
	assert.True(t, revoked)
	revoked, _ = r.IsRevoked(ctx, "b")
	assert.False(t, revoked)
}
