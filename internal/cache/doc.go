// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package cache provides the in-memory caches used by discovery.

# Cache Types

TTLCache: expiring key/value store with per-key loading. GetOrLoad holds a
lock for the requested key only, so concurrent requests for one user share
a single upstream fetch while requests for other users proceed in parallel.
Used for the watch-history cache (TTL 1 hour) and the per-seed daily
result cache.

LRUCache: capacity-bounded store with least-recently-used eviction and an
optional TTL. Used for the keyword cache (1000 entries).

KeyedMutex: reference-counted per-key locks. Used by TTLCache and by the
session store.

# Usage

	history := cache.NewTTLCache[[]models.WatchHistoryEntry](time.Hour, cache.WithName("history"))
	entries, err := history.GetOrLoad(ctx, key, func(ctx context.Context) ([]models.WatchHistoryEntry, error) {
	    return plex.GetHistory(ctx, opts)
	})

	keywords := cache.NewLRUCache[string, int](1000, 0, cache.WithName("keyword"))
	keywords.Add("zombie", 12377)

Both types are safe for concurrent use and report hits, misses, evictions
and size through the cache_* Prometheus collectors when named.
*/
package cache
