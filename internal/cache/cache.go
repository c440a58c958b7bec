// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Entry is a cached value with its expiry.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// TTLCache is a thread-safe expiring cache.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	ttl     time.Duration
	keys    *KeyedMutex
	opts    options

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewTTLCache creates a cache whose entries live for ttl. Expired entries
// are dropped lazily on read and in bulk by Cleanup.
func NewTTLCache[V any](ttl time.Duration, opts ...Option) *TTLCache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TTLCache[V]{
		entries: make(map[string]Entry[V]),
		ttl:     ttl,
		keys:    NewKeyedMutex(),
		opts:    buildOptions(opts),
	}
}

// Get returns the value for key if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.opts.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.entries, key)
			c.evictions.Add(1)
			c.opts.evicted(1)
			c.opts.size(len(c.entries))
		}
		c.mu.Unlock()
		ok = false
	}

	if !ok {
		c.misses.Add(1)
		c.opts.miss()
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	c.opts.hit()
	return entry.Value, true
}

// Set stores value under key with the default TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *TTLCache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry[V]{Value: value, ExpiresAt: c.opts.now().Add(ttl)}
	n := len(c.entries)
	c.mu.Unlock()
	c.opts.size(n)
}

// GetOrLoad returns the cached value for key or calls load to produce it.
// Only callers asking for the same key wait on each other. Errors from
// load are returned and not cached.
func (c *TTLCache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	unlock := c.keys.Lock(key)
	defer unlock()

	// Another caller may have filled the entry while we waited.
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && !c.opts.now().After(entry.ExpiresAt) {
		return entry.Value, nil
	}

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete removes key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	n := len(c.entries)
	c.mu.Unlock()
	c.opts.size(n)
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (c *TTLCache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	c.opts.size(len(c.entries))
	return removed
}

// Clear drops every entry.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]Entry[V])
	c.mu.Unlock()

	c.evictions.Add(int64(n))
	c.opts.evicted(n)
	c.opts.size(0)
}

// Len is the number of stored entries, expired ones included until the
// next Cleanup.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries and returns how many were removed.
func (c *TTLCache[V]) Cleanup() int {
	now := c.opts.now()

	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.ExpiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	c.evictions.Add(int64(removed))
	c.opts.evicted(removed)
	c.opts.size(n)
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *TTLCache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Keys:      c.Len(),
	}
}
