// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package ownership

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/cache"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// Store reads the ownership sources. Implemented by *database.DB.
type Store interface {
	ResolvedAliases(ctx context.Context, mt models.MediaType) ([]models.AliasRecord, error)
	ScannerItems(ctx context.Context, mt models.MediaType, ownedOnly bool) ([]models.ScannerItem, error)
}

// Resolver builds owned sets.
type Resolver struct {
	store Store
	sets  *cache.TTLCache[*models.OwnedSet]
}

// NewResolver creates a resolver whose owned sets are reused for ttl.
func NewResolver(store Store, ttl time.Duration) *Resolver {
	return &Resolver{
		store: store,
		sets:  cache.NewTTLCache[*models.OwnedSet](ttl, cache.WithName("owned_set")),
	}
}

// OwnedSet returns the union of every ownership source for mt. The
// returned set is shared and must not be modified.
func (r *Resolver) OwnedSet(ctx context.Context, mt models.MediaType) (*models.OwnedSet, error) {
	return r.sets.GetOrLoad(ctx, string(mt), func(ctx context.Context) (*models.OwnedSet, error) {
		return r.build(ctx, mt)
	})
}

// Invalidate drops cached sets. Called after a scan or alias sync changes
// the sources.
func (r *Resolver) Invalidate() {
	r.sets.Clear()
}

func (r *Resolver) build(ctx context.Context, mt models.MediaType) (*models.OwnedSet, error) {
	aliases, err := r.store.ResolvedAliases(ctx, mt)
	if err != nil {
		return nil, fmt.Errorf("owned set aliases: %w", err)
	}
	items, err := r.store.ScannerItems(ctx, mt, true)
	if err != nil {
		return nil, fmt.Errorf("owned set scanner items: %w", err)
	}

	set := models.NewOwnedSet()
	for i := range aliases {
		a := &aliases[i]
		set.AddID(models.TitleKey{CatalogID: a.CatalogID, MediaType: mt})
		set.AddTitle(mt, a.NormalizedTitle)
	}
	for i := range items {
		it := &items[i]
		if !it.HasFile {
			continue
		}
		set.AddID(models.TitleKey{CatalogID: it.CatalogID, MediaType: mt})
		set.AddTitle(mt, it.NormalizedTitle)
	}

	metrics.OwnedSetSize.WithLabelValues(string(mt)).Set(float64(set.Len()))
	return set, nil
}
