// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package profile

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/smartdiscovery/internal/alias"
	"github.com/tomtom215/smartdiscovery/internal/cache"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
)

// Seed sources reported on Profile.Source.
const (
	SourceHistory  = "history"
	SourceOverride = "override"
	SourceTrending = "trending"
	SourceNone     = "none"
)

// HistorySource reads media server history. Implemented by
// *sync.CircuitBreakerPlex.
type HistorySource interface {
	GetHistory(ctx context.Context, q intsync.HistoryQuery) ([]intsync.PlexMetadata, error)
	GetAccountNames(ctx context.Context) (map[string]string, error)
}

// TrendingSource lists popular titles. Implemented by
// *sync.CircuitBreakerClient.
type TrendingSource interface {
	Trending(ctx context.Context, mt models.MediaType) ([]intsync.TrendingItem, error)
}

// AliasLookup maps watched items to catalog ids. Implemented by
// *alias.Index.
type AliasLookup interface {
	Lookup(ctx context.Context, ref alias.Item) (*models.AliasRecord, error)
}

// Options configure a Builder.
type Options struct {
	HistoryLimit    int           // Most recent plays considered, default 5000
	HistoryPageSize int           // Plays per media server request
	HistoryTTL      time.Duration // History Cache lifetime, default 1h
	PerUserHistory  bool          // Ask the server for the user's plays only
	IgnoredUsers    []string      // Account ids or names never counted
	IgnoredSections []string      // Library section ids never counted
	SeedCount       int           // Default seeds per profile, default 10
	Now             func() time.Time
}

// Request describes one profile build.
type Request struct {
	UserID       string
	MediaType    models.MediaType
	SeedOverride []models.Seed
	SeedCount    int
	IgnoredUsers []string // Added to the configured list for this build
	RandSeed     int64    // Seeds the sampling, normally the session shuffle seed
}

// Profile is the outcome of a build.
type Profile struct {
	Seeds       []models.Seed
	Source      string
	HistorySize int // Plays left after filtering
}

// Builder builds taste profiles.
type Builder struct {
	history  HistorySource
	trending TrendingSource
	aliases  AliasLookup

	plays    *cache.TTLCache[[]models.WatchHistoryEntry]
	accounts *cache.TTLCache[map[string]string]

	opts     Options
	sections map[string]struct{}
	logger   zerolog.Logger
}

// NewBuilder creates a builder. trending may be nil.
func NewBuilder(history HistorySource, trending TrendingSource, aliases AliasLookup, opts Options) *Builder {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5000
	}
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = time.Hour
	}
	if opts.SeedCount <= 0 {
		opts.SeedCount = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sections := make(map[string]struct{}, len(opts.IgnoredSections))
	for _, s := range opts.IgnoredSections {
		sections[s] = struct{}{}
	}
	return &Builder{
		history:  history,
		trending: trending,
		aliases:  aliases,
		plays:    cache.NewTTLCache[[]models.WatchHistoryEntry](opts.HistoryTTL, cache.WithName("history"), cache.WithClock(opts.Now)),
		accounts: cache.NewTTLCache[map[string]string](opts.HistoryTTL, cache.WithName("accounts"), cache.WithClock(opts.Now)),
		opts:     opts,
		sections: sections,
		logger:   logging.WithComponent("profile"),
	}
}

// Build produces the seeds for one request. It only fails when the
// context is done; upstream failures degrade to fewer seeds.
func (b *Builder) Build(ctx context.Context, req Request) (*Profile, error) {
	count := req.SeedCount
	if count <= 0 {
		count = b.opts.SeedCount
	}

	if len(req.SeedOverride) > 0 {
		seeds := overrideSeeds(req.SeedOverride, req.MediaType, count)
		metrics.SeedSource.WithLabelValues(SourceOverride).Inc()
		return &Profile{Seeds: seeds, Source: SourceOverride}, nil
	}

	entries, err := b.watchHistory(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, models.ErrEmptyHistory) {
			b.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("History unavailable, using trending seeds")
		}
		return b.fallback(ctx, req.MediaType, count)
	}

	weighted, err := b.weightTitles(ctx, entries, req.MediaType, count)
	if err != nil {
		return nil, err
	}
	if len(weighted) == 0 {
		return b.fallback(ctx, req.MediaType, count)
	}

	rng := rand.New(rand.NewSource(req.RandSeed)) //nolint:gosec // sampling, not security
	seeds := sample(weighted, count, rng)
	metrics.SeedSource.WithLabelValues(SourceHistory).Inc()
	return &Profile{Seeds: seeds, Source: SourceHistory, HistorySize: len(entries)}, nil
}

// overrideSeeds keeps valid picks of the requested type, deduplicated.
func overrideSeeds(picks []models.Seed, mt models.MediaType, limit int) []models.Seed {
	seen := make(map[int]struct{}, len(picks))
	seeds := make([]models.Seed, 0, len(picks))
	for _, s := range picks {
		if s.CatalogID <= 0 {
			continue
		}
		if s.MediaType == "" {
			s.MediaType = mt
		}
		if s.MediaType != mt {
			continue
		}
		if _, dup := seen[s.CatalogID]; dup {
			continue
		}
		seen[s.CatalogID] = struct{}{}
		if s.Weight <= 0 {
			s.Weight = 1
		}
		seeds = append(seeds, s)
		if len(seeds) == limit {
			break
		}
	}
	return seeds
}

// fallback seeds from trending titles. With no trending source, or when
// it fails, the profile is empty.
func (b *Builder) fallback(ctx context.Context, mt models.MediaType, limit int) (*Profile, error) {
	if b.trending == nil {
		metrics.SeedSource.WithLabelValues(SourceNone).Inc()
		return &Profile{Source: SourceNone}, nil
	}

	items, err := b.trending.Trending(ctx, mt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn().Err(err).Msg("Trending unavailable, profile has no seeds")
		metrics.SeedSource.WithLabelValues(SourceNone).Inc()
		return &Profile{Source: SourceNone}, nil
	}

	seen := make(map[int]struct{}, len(items))
	var seeds []models.Seed
	for _, it := range items {
		rec, err := b.aliases.Lookup(ctx, alias.Item{NativeID: it.RatingKey, Title: it.Title, Year: it.Year, MediaType: mt})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Debug().Err(err).Str("title", it.Title).Msg("Trending title not resolved")
			continue
		}
		if !rec.Resolved() {
			continue
		}
		if _, dup := seen[rec.CatalogID]; dup {
			continue
		}
		seen[rec.CatalogID] = struct{}{}
		seeds = append(seeds, models.Seed{CatalogID: rec.CatalogID, MediaType: mt, Title: rec.NativeTitle, Weight: 1})
		if len(seeds) == limit {
			break
		}
	}

	source := SourceTrending
	if len(seeds) == 0 {
		source = SourceNone
	}
	metrics.SeedSource.WithLabelValues(source).Inc()
	return &Profile{Seeds: seeds, Source: source}, nil
}
