// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package catalog

import (
	"context"
	"strings"

	"github.com/tomtom215/smartdiscovery/internal/cache"
)

// KeywordSearcher resolves a keyword name to a catalog keyword id.
type KeywordSearcher interface {
	SearchKeyword(ctx context.Context, query string) (int, bool, error)
}

// KeywordResolver fronts keyword search with an LRU cache. Misses are
// cached as id 0 so repeated filters do not hit the catalog.
type KeywordResolver struct {
	searcher KeywordSearcher
	cache    *cache.LRUCache[string, int]
}

// NewKeywordResolver creates a resolver remembering up to capacity keywords.
func NewKeywordResolver(searcher KeywordSearcher, capacity int) *KeywordResolver {
	if capacity <= 0 {
		capacity = 1000
	}
	return &KeywordResolver{
		searcher: searcher,
		cache:    cache.NewLRUCache[string, int](capacity, 0, cache.WithName("keywords")),
	}
}

// Resolve returns the keyword id for name. ok is false for unknown keywords.
func (r *KeywordResolver) Resolve(ctx context.Context, name string) (id int, ok bool, err error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 0, false, nil
	}
	if id, hit := r.cache.Get(key); hit {
		return id, id > 0, nil
	}

	id, ok, err = r.searcher.SearchKeyword(ctx, key)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		id = 0
	}
	r.cache.Add(key, id)
	return id, ok, nil
}

// ResolveAll resolves every name and returns the ids found, in order.
func (r *KeywordResolver) ResolveAll(ctx context.Context, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, n := range names {
		id, ok, err := r.Resolve(ctx, n)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Len reports how many keywords are cached.
func (r *KeywordResolver) Len() int {
	return r.cache.Len()
}
