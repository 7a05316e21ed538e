package cache

import (
	"context"
	"testing"
	"time"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, *RedisStoreAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	adapter := NewRedisStoreAdapter(client)
	c := New(adapter)
	t.Cleanup(c.Stop)
	return c, mr, adapter
}

type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time { return f.current }

func (f *fakeClock) advance(d time.Duration) { f.current = f.current.Add(d) }

func TestGet_ExpiryEvictsAndCountsMiss(t *testing.T) {
	c, _, _ := newTestCache(t)
	clock := &fakeClock{current: time.Now()}
	c.now = clock.now
	ctx := context.Background()

	payload := map[string]uint64{"score": 742}
	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", payload, 60*time.Second))

	got, ok := c.Get(ctx, consts.CacheNamespaceScore, "nid1")
	require.True(t, ok)
	assert.JSONEq(t, `{"score":742}`, string(got))

	clock.advance(61 * time.Second)

	_, ok = c.Get(ctx, consts.CacheNamespaceScore, "nid1")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, 0, stats.Size)
}

func TestGet_HitJustBeforeExpiry(t *testing.T) {
	c, _, _ := newTestCache(t)
	clock := &fakeClock{current: time.Now()}
	c.now = clock.now
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", 742, 60*time.Second))
	clock.advance(59 * time.Second)

	_, ok := c.Get(ctx, consts.CacheNamespaceScore, "nid1")
	assert.True(t, ok)
	assert.Equal(t, uint64(0), c.Stats().Evictions)
}

func TestEvict_FreshPutWinsOverStaleExpiryCheck(t *testing.T) {
	c, _, _ := newTestCache(t)
	clock := &fakeClock{current: time.Now()}
	c.now = clock.now
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", 742, 60*time.Second))

	// a reader observes the entry as expired ...
	clock.advance(61 * time.Second)
	staleNow := clock.now()

	// ... but a fresh write lands before the eviction takes the lock
	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", 900, 60*time.Second))
	c.evict(ctx, consts.CacheNamespaceScore, "nid1", staleNow)

	got, ok := GetTyped[int](ctx, c, consts.CacheNamespaceScore, "nid1")
	require.True(t, ok)
	assert.Equal(t, 900, got)
	assert.Equal(t, uint64(0), c.Stats().Evictions)
}

func TestGet_RepopulatesMemoryFromPersistentTier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	adapter := NewRedisStoreAdapter(client)
	ctx := context.Background()

	first := New(adapter)
	t.Cleanup(first.Stop)
	borrower := models.BorrowerRecord{NID: "nid1", Name: "Amina Rahman", Exists: true}
	require.NoError(t, first.Put(ctx, consts.CacheNamespaceBorrower, "nid1", borrower, 0))

	// a fresh cache instance simulates a process restart: memory is cold,
	// the persistent tier still holds the entry
	second := New(adapter)
	t.Cleanup(second.Stop)

	got, ok := GetTyped[models.BorrowerRecord](ctx, second, consts.CacheNamespaceBorrower, "nid1")
	require.True(t, ok)
	assert.Equal(t, "Amina Rahman", got.Name)
	assert.Equal(t, uint64(1), second.Stats().Hits)

	// and the memory tier now serves it without the store
	mr.FlushAll()
	_, ok = second.Get(ctx, consts.CacheNamespaceBorrower, "nid1")
	assert.True(t, ok)
}

func TestPut_EligibilityStaysOutOfPersistentTier(t *testing.T) {
	c, mr, adapter := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceEligibility, "nid1", models.EligibilityAssessment{NID: "nid1"}, 0))

	assert.Empty(t, mr.Keys())

	_, ok := c.Get(ctx, consts.CacheNamespaceEligibility, "nid1")
	assert.True(t, ok)

	// a restart loses eligibility results entirely
	restarted := New(adapter)
	t.Cleanup(restarted.Stop)
	_, ok = restarted.Get(ctx, consts.CacheNamespaceEligibility, "nid1")
	assert.False(t, ok)
}

func TestGet_CorruptPersistentEntryIsAMiss(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("borrower:nid1", "{not json"))

	_, ok := c.Get(ctx, consts.CacheNamespaceBorrower, "nid1")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Misses)

	// the broken entry is dropped so it cannot keep tripping readers
	assert.False(t, mr.Exists("borrower:nid1"))
}

func TestInvalidate_RemovesBothTiers(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", 742, 0))
	require.True(t, mr.Exists("score:nid1"))

	c.Invalidate(ctx, consts.CacheNamespaceScore, "nid1")

	_, ok := c.Get(ctx, consts.CacheNamespaceScore, "nid1")
	assert.False(t, ok)
	assert.False(t, mr.Exists("score:nid1"))
}

func TestInvalidateNamespace(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceNetwork, "status", "healthy", 0))
	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", 742, 0))

	c.InvalidateNamespace(ctx, consts.CacheNamespaceNetwork)

	_, ok := c.Get(ctx, consts.CacheNamespaceNetwork, "status")
	assert.False(t, ok)
	assert.False(t, mr.Exists("network:status"))

	_, ok = c.Get(ctx, consts.CacheNamespaceScore, "nid1")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", 742, 0))
	require.NoError(t, c.Put(ctx, consts.CacheNamespaceBorrower, "nid1", models.BorrowerRecord{NID: "nid1"}, 0))

	c.Clear(ctx)

	assert.Equal(t, 0, c.Stats().Size)
	assert.Empty(t, mr.Keys())
}

func TestSweep_PurgesExpiredEntries(t *testing.T) {
	c, _, _ := newTestCache(t)
	clock := &fakeClock{current: time.Now()}
	c.now = clock.now
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "stale", 1, 60*time.Second))
	require.NoError(t, c.Put(ctx, consts.CacheNamespaceBorrower, "fresh", 2, 5*time.Minute))

	clock.advance(2 * time.Minute)
	c.sweep()

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, 1, stats.Size)
}

func TestStats_DistinctKeysDoNotShareEntries(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid1", 1, 0))
	require.NoError(t, c.Put(ctx, consts.CacheNamespaceScore, "nid2", 2, 0))

	got, ok := GetTyped[int](ctx, c, consts.CacheNamespaceScore, "nid1")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	c.Invalidate(ctx, consts.CacheNamespaceScore, "nid1")

	got, ok = GetTyped[int](ctx, c, consts.CacheNamespaceScore, "nid2")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}
