package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/revo-studio/storefront/internal/ratelimit"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestSlidingWindowAllowsWithinLimit(t *testing.T) {
	limiter := ratelimit.SlidingWindow{
		Client: newTestClient(t),
		Prefix: "rl:test:",
		Window: time.Minute,
		Max:    3,
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, remaining, _, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	limiter := ratelimit.SlidingWindow{
		Client: newTestClient(t),
		Prefix: "rl:test:",
		Window: time.Minute,
		Max:    1,
	}
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSlidingWindowNilClientFailsOpen(t *testing.T) {
	limiter := ratelimit.SlidingWindow{Window: time.Minute, Max: 1}
	allowed, _, _, err := limiter.Allow(context.Background(), "any")
	require.NoError(t, err)
	require.True(t, allowed)
}
