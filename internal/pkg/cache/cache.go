package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/logger"
)

// envelope is the persisted shape of one entry. Consumers tolerate missing or
// corrupt envelopes by treating them as a miss, never as a failure.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	TTLMillis int64           `json:"ttl"`
}

func (e envelope) expired(now time.Time) bool {
	return now.Sub(e.Timestamp) > time.Duration(e.TTLMillis)*time.Millisecond
}

type memEntry struct {
	payload   []byte
	timestamp time.Time
	ttl       time.Duration
}

func (e memEntry) expired(now time.Time) bool {
	return now.Sub(e.timestamp) > e.ttl
}

// shard holds one namespace's in-memory tier. Namespaces lock independently
// so traffic for one entity type never blocks another.
type shard struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

// Cache is the two-tier TTL cache: a fast in-memory tier backed by the
// persistent store. Eligibility entries stay memory-only.
type Cache struct {
	store  PersistentStore
	shards map[string]*shard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	stopSweep chan struct{}
	sweepOnce sync.Once

	// injectable for TTL tests
	now func() time.Time
}

func New(store PersistentStore) *Cache {
	c := &Cache{
		store:     store,
		shards:    make(map[string]*shard),
		stopSweep: make(chan struct{}),
		now:       time.Now,
	}
	for _, ns := range []string{
		consts.CacheNamespaceScore,
		consts.CacheNamespaceBorrower,
		consts.CacheNamespaceEligibility,
		consts.CacheNamespaceLoan,
		consts.CacheNamespaceNetwork,
	} {
		c.shards[ns] = &shard{entries: make(map[string]memEntry)}
	}
	return c
}

func (c *Cache) shardFor(namespace string) *shard {
	if s, ok := c.shards[namespace]; ok {
		return s
	}
	// unknown namespaces fall back to the volatile bucket semantics
	return c.shards[consts.CacheNamespaceScore]
}

func storeKey(namespace, key string) string {
	return namespace + ":" + key
}

// Put writes the value to the in-memory tier and, unless the namespace is
// memory-only, to the persistent tier. A zero ttl picks the namespace
// default.
func (c *Cache) Put(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = consts.NamespaceTTL(namespace)
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache put %s:%s: %w: %v", namespace, key, consts.ErrorCache, err)
	}

	now := c.now()
	s := c.shardFor(namespace)
	s.mu.Lock()
	s.entries[key] = memEntry{payload: payload, timestamp: now, ttl: ttl}
	s.mu.Unlock()

	if consts.MemoryOnlyNamespace(namespace) {
		return nil
	}

	env, err := json.Marshal(envelope{
		Data:      payload,
		Timestamp: now,
		TTLMillis: ttl.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("cache put %s:%s: %w: %v", namespace, key, consts.ErrorCache, err)
	}
	if err := c.store.Set(ctx, storeKey(namespace, key), env, ttl); err != nil {
		// persistent-tier trouble degrades to memory-only behavior
		logger.CtxWarn(ctx, "Persistent cache write failed",
			slog.String("namespace", namespace),
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return nil
}

// Get checks the memory tier first; on a miss it falls through to the
// persistent tier and repopulates memory when the entry is still live.
// Expired entries are purged on sight and counted as evictions.
func (c *Cache) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	now := c.now()
	s := c.shardFor(namespace)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if ok {
		if !entry.expired(now) {
			c.hits.Add(1)
			return entry.payload, true
		}
		c.evict(ctx, namespace, key, now)
	}

	if !consts.MemoryOnlyNamespace(namespace) {
		if env, live := c.persistentGet(ctx, namespace, key, now); live {
			s.mu.Lock()
			s.entries[key] = memEntry{
				payload:   env.Data,
				timestamp: env.Timestamp,
				ttl:       time.Duration(env.TTLMillis) * time.Millisecond,
			}
			s.mu.Unlock()
			c.hits.Add(1)
			return env.Data, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

func (c *Cache) persistentGet(ctx context.Context, namespace, key string, now time.Time) (envelope, bool) {
	var env envelope

	raw, err := c.store.Get(ctx, storeKey(namespace, key))
	if err != nil {
		if err != ErrStoreMiss {
			logger.CtxWarn(ctx, "Persistent cache read failed",
				slog.String("namespace", namespace),
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return env, false
	}

	if err := json.Unmarshal(raw, &env); err != nil || env.Timestamp.IsZero() {
		// corrupt entry: drop it and treat as a miss
		_ = c.store.Delete(ctx, storeKey(namespace, key))
		return env, false
	}
	if env.expired(now) {
		c.evictions.Add(1)
		_ = c.store.Delete(ctx, storeKey(namespace, key))
		return env, false
	}
	return env, true
}

// evict removes the entry from both tiers and bumps the eviction counter.
// The expiry is re-checked under the write lock: a fresh Put that raced in
// between the caller's read and this call wins and is left alone.
func (c *Cache) evict(ctx context.Context, namespace, key string, now time.Time) {
	s := c.shardFor(namespace)
	s.mu.Lock()
	entry, present := s.entries[key]
	if present && !entry.expired(now) {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.mu.Unlock()

	if present {
		c.evictions.Add(1)
	}
	if !consts.MemoryOnlyNamespace(namespace) {
		_ = c.store.Delete(ctx, storeKey(namespace, key))
	}
}

// Invalidate removes one entry from both tiers without touching counters.
func (c *Cache) Invalidate(ctx context.Context, namespace, key string) {
	s := c.shardFor(namespace)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	if !consts.MemoryOnlyNamespace(namespace) {
		_ = c.store.Delete(ctx, storeKey(namespace, key))
	}
}

// InvalidatePrefix removes every entry of the namespace whose key is the
// identifier itself or a composite key derived from it ("<id>|...").
func (c *Cache) InvalidatePrefix(ctx context.Context, namespace, identifier string) {
	s := c.shardFor(namespace)
	s.mu.Lock()
	for key := range s.entries {
		if key == identifier || strings.HasPrefix(key, identifier+"|") {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()

	if consts.MemoryOnlyNamespace(namespace) {
		return
	}
	keys, err := c.store.Keys(ctx, storeKey(namespace, identifier)+"*")
	if err != nil {
		logger.CtxWarn(ctx, "Persistent cache prefix scan failed",
			slog.String("namespace", namespace),
			slog.String("error", err.Error()))
		return
	}
	prefix := storeKey(namespace, identifier)
	for _, k := range keys {
		if k == prefix || strings.HasPrefix(k, prefix+"|") {
			_ = c.store.Delete(ctx, k)
		}
	}
}

// InvalidateNamespace drops every entry of one namespace from both tiers.
func (c *Cache) InvalidateNamespace(ctx context.Context, namespace string) {
	s := c.shardFor(namespace)
	s.mu.Lock()
	s.entries = make(map[string]memEntry)
	s.mu.Unlock()

	if consts.MemoryOnlyNamespace(namespace) {
		return
	}
	keys, err := c.store.Keys(ctx, namespace+":*")
	if err != nil {
		logger.CtxWarn(ctx, "Persistent cache namespace scan failed",
			slog.String("namespace", namespace),
			slog.String("error", err.Error()))
		return
	}
	for _, k := range keys {
		_ = c.store.Delete(ctx, k)
	}
}

// Clear empties both tiers and leaves the counters intact.
func (c *Cache) Clear(ctx context.Context) {
	for ns, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[string]memEntry)
		s.mu.Unlock()

		if consts.MemoryOnlyNamespace(ns) {
			continue
		}
		keys, err := c.store.Keys(ctx, ns+":*")
		if err != nil {
			continue
		}
		for _, k := range keys {
			_ = c.store.Delete(ctx, k)
		}
	}
}

// Stats snapshots the counters and the in-memory entry count.
func (c *Cache) Stats() Stats {
	size := 0
	for _, s := range c.shards {
		s.mu.RLock()
		size += len(s.entries)
		s.mu.RUnlock()
	}
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
	}
}

// StartSweeper purges expired in-memory entries on a fixed interval until
// Stop is called.
func (c *Cache) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stopSweep:
				return
			}
		}
	}()
}

func (c *Cache) sweep() {
	now := c.now()
	ctx := context.Background()
	for ns, s := range c.shards {
		s.mu.RLock()
		var stale []string
		for key, entry := range s.entries {
			if entry.expired(now) {
				stale = append(stale, key)
			}
		}
		s.mu.RUnlock()

		for _, key := range stale {
			c.evict(ctx, ns, key, now)
		}
	}
}

// Stop terminates the background sweeper.
func (c *Cache) Stop() {
	c.sweepOnce.Do(func() { close(c.stopSweep) })
}

// Close satisfies the shutdown cleanup contract.
func (c *Cache) Close() error {
	c.Stop()
	return nil
}

// GetTyped decodes a cached payload into T.
func GetTyped[T any](ctx context.Context, c *Cache, namespace, key string) (T, bool) {
	var out T
	payload, ok := c.Get(ctx, namespace, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		c.Invalidate(ctx, namespace, key)
		return out, false
	}
	return out, true
}
