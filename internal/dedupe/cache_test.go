package dedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/dedupe"
)

func TestCacheSeenDuplicate(t *testing.T) {
	ctx := context.Background()
	cache := dedupe.NewCache(10, time.Minute)
	require.False(t, cache.IsSeen(ctx, "alpha"))
	cache.MarkSeen(ctx, "alpha")
	require.True(t, cache.IsSeen(ctx, "alpha"))
}

func TestCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	cache := dedupe.NewCache(10, 20*time.Millisecond)
	cache.MarkSeen(ctx, "beta")
	time.Sleep(25 * time.Millisecond)
	require.False(t, cache.IsSeen(ctx, "beta"))
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	cache := dedupe.NewCache(1, time.Minute)
	cache.MarkSeen(ctx, "first")
	cache.MarkSeen(ctx, "second")

	require.False(t, cache.IsSeen(ctx, "first"))
	require.True(t, cache.IsSeen(ctx, "second"))
	require.Equal(t, 1, cache.Len())
}
