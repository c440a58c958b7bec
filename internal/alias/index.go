// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package alias

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/cache"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
	"github.com/tomtom215/smartdiscovery/internal/titles"
)

// Store persists alias records. Implemented by *database.DB.
type Store interface {
	GetAlias(ctx context.Context, nativeID string, mt models.MediaType) (*models.AliasRecord, error)
	UpsertAlias(ctx context.Context, rec *models.AliasRecord) error
	ListAliases(ctx context.Context, mt models.MediaType) ([]models.AliasRecord, error)
	DeleteAliases(ctx context.Context, mt models.MediaType, nativeIDs []string) (int64, error)
}

// Library lists media server content. Implemented by
// *sync.CircuitBreakerPlex.
type Library interface {
	GetLibrarySections(ctx context.Context) ([]intsync.PlexLibrarySection, error)
	GetAllSectionContent(ctx context.Context, sectionKey string) ([]intsync.PlexLibraryMetadata, error)
	GetMetadata(ctx context.Context, ratingKey string) (*intsync.PlexLibraryMetadata, error)
}

// Options tune an Index.
type Options struct {
	MaxResolvesPerRun int      // Resolutions per Sync call, default 200
	IgnoredSections   []string // Library section ids skipped by Sync
}

// Index resolves library items to catalog ids and keeps the results.
//
// Thread Safety: Safe for concurrent use. Resolutions of one item are
// serialized; only one Sync runs at a time.
type Index struct {
	store      Store
	library    Library
	strategies []Strategy

	maxPerRun int
	ignored   map[string]struct{}

	locks    *cache.KeyedMutex
	syncMu   sync.Mutex
	forcedAt atomic.Int64 // UnixNano of the last ForceRefresh
	now      func() time.Time
}

// NewIndex creates an alias index over store, resolving with strategies in
// order.
func NewIndex(store Store, library Library, strategies []Strategy, opts Options) *Index {
	if opts.MaxResolvesPerRun <= 0 {
		opts.MaxResolvesPerRun = 200
	}
	ignored := make(map[string]struct{}, len(opts.IgnoredSections))
	for _, s := range opts.IgnoredSections {
		ignored[s] = struct{}{}
	}
	return &Index{
		store:      store,
		library:    library,
		strategies: strategies,
		maxPerRun:  opts.MaxResolvesPerRun,
		ignored:    ignored,
		locks:      cache.NewKeyedMutex(),
		now:        time.Now,
	}
}

// ForceRefresh marks every stored record stale. Records are re-resolved
// the next time they are looked up or synced.
func (idx *Index) ForceRefresh() {
	idx.forcedAt.Store(idx.now().UnixNano())
	logging.Info().Msg("Alias index marked for full refresh")
}

// fresh reports whether rec can be reused for item without re-resolving.
func (idx *Index) fresh(rec *models.AliasRecord, item *Item) bool {
	if !rec.SourceUpdatedAt.Equal(item.UpdatedAt) {
		return false
	}
	return idx.newerThanForceMark(rec)
}

func (idx *Index) newerThanForceMark(rec *models.AliasRecord) bool {
	mark := idx.forcedAt.Load()
	return mark == 0 || rec.ResolvedAt.UnixNano() > mark
}

// Resolve returns the alias record for item. The stored record is reused
// when the item has not changed since it was resolved and no force
// refresh happened since; force skips the check. A miss is returned as a
// record with CatalogID 0.
func (idx *Index) Resolve(ctx context.Context, item Item, force bool) (*models.AliasRecord, error) {
	unlock := idx.locks.Lock(item.lockKey())
	defer unlock()

	if !force {
		stored, err := idx.store.GetAlias(ctx, item.NativeID, item.MediaType)
		if err != nil {
			return nil, err
		}
		if stored != nil && idx.fresh(stored, &item) {
			return stored, nil
		}
	}
	return idx.resolve(ctx, &item)
}

// Lookup returns the alias record of a watched item. The stored record is
// used when present; otherwise full metadata is fetched from the media
// server and the item is resolved. ref needs NativeID and MediaType; its
// Title and Year are used when the server no longer has the item.
func (idx *Index) Lookup(ctx context.Context, ref Item) (*models.AliasRecord, error) {
	stored, err := idx.store.GetAlias(ctx, ref.NativeID, ref.MediaType)
	if err != nil {
		return nil, err
	}
	if stored != nil && idx.newerThanForceMark(stored) {
		return stored, nil
	}

	item := ref
	if idx.library != nil {
		meta, err := idx.library.GetMetadata(ctx, ref.NativeID)
		switch {
		case err == nil:
			item = ItemFromMetadata(meta, ref.MediaType)
			if item.Title == "" {
				item.Title = ref.Title
			}
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			logging.Debug().Err(err).Str("rating_key", ref.NativeID).Msg("Metadata unavailable, resolving by title")
		}
	}
	return idx.Resolve(ctx, item, stored != nil)
}

// resolve runs the strategy chain and stores the outcome. The caller holds
// the item lock.
func (idx *Index) resolve(ctx context.Context, item *Item) (*models.AliasRecord, error) {
	match, err := idx.runChain(ctx, item)
	if err != nil {
		return nil, err
	}

	rec := &models.AliasRecord{
		NativeID:        item.NativeID,
		NativeTitle:     item.Title,
		NormalizedTitle: titles.Normalize(item.Title),
		MediaType:       item.MediaType,
		Year:            item.Year,
		Genres:          item.Genres,
		CatalogID:       match.CatalogID,
		Method:          match.Method,
		SourceUpdatedAt: item.UpdatedAt,
		ResolvedAt:      idx.now().UTC(),
	}
	if err := idx.store.UpsertAlias(ctx, rec); err != nil {
		return nil, fmt.Errorf("store alias: %w", err)
	}
	metrics.AliasResolutions.WithLabelValues(string(rec.Method)).Inc()
	return rec, nil
}

// runChain tries each strategy in order. Every strategy missing yields the
// unresolved method; any strategy error aborts the chain so the item is
// retried later instead of being stored as a miss.
func (idx *Index) runChain(ctx context.Context, item *Item) (Match, error) {
	for _, s := range idx.strategies {
		m, ok, err := s.Resolve(ctx, *item)
		if err != nil {
			return Match{}, fmt.Errorf("%s for %s %q: %w", s.Method(), item.MediaType, item.Title, err)
		}
		if ok {
			return m, nil
		}
	}
	logging.Debug().Str("rating_key", item.NativeID).Str("title", item.Title).Int("year", item.Year).Msg("No catalog match")
	return Match{Method: models.MethodUnresolved}, nil
}
