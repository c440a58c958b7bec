// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/smartdiscovery/internal/cache"
	"github.com/tomtom215/smartdiscovery/internal/catalog"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/titles"
)

// Catalog is the part of the catalog client the generator uses.
// Implemented by *catalog.Client.
type Catalog interface {
	Recommendations(ctx context.Context, mt models.MediaType, id, page int) (*catalog.Page, error)
	Similar(ctx context.Context, mt models.MediaType, id, page int) (*catalog.Page, error)
	Discover(ctx context.Context, mt models.MediaType, q catalog.DiscoverQuery) (*catalog.Page, error)
	Details(ctx context.Context, mt models.MediaType, id int, region string) (*catalog.Details, error)
}

// KeywordIDs resolves keyword names. Implemented by *catalog.KeywordResolver.
type KeywordIDs interface {
	ResolveAll(ctx context.Context, names []string) ([]int, error)
}

// CriticScorer looks up critic scores. Implemented by *critic.OMDbClient.
type CriticScorer interface {
	Score(ctx context.Context, mt models.MediaType, title string, year int) (int, bool, error)
}

// Exclusions are the titles never served, whatever the filters say.
type Exclusions struct {
	Owned   *models.OwnedSet
	Blocked map[models.TitleKey]struct{}
	Served  map[models.TitleKey]struct{}
}

// reason returns why item is excluded, or "" to keep it.
func (e *Exclusions) reason(item *models.CandidateItem) string {
	key := item.Key()
	if _, ok := e.Served[key]; ok {
		return "served"
	}
	if _, ok := e.Blocked[key]; ok {
		return "blocklisted"
	}
	if e.Owned != nil && e.Owned.Owns(key, titles.Normalize(item.Title)) {
		return "owned"
	}
	return ""
}

// Input is one generation cycle.
type Input struct {
	Seeds       []models.Seed
	Filters     models.Filters
	Exclude     Exclusions
	ShuffleSeed int64
	Cycle       int64
	PageSize    int
}

// Result is the outcome of a generation cycle.
type Result struct {
	Items      []models.CandidateItem // The page, best first
	Remainder  []models.CandidateItem // Ranked titles not yet examined
	Candidates int                    // Unique titles fetched
	LastResort bool                   // The popular discover fallback ran
}

// Generator produces ranked recommendations.
type Generator struct {
	catalog  Catalog
	keywords KeywordIDs
	critic   CriticScorer
	cfg      Config

	seeds  *cache.LRUCache[string, []models.CandidateItem]
	now    func() time.Time
	logger zerolog.Logger
}

// NewGenerator creates a generator. keywords and critic may be nil; without
// a critic the certified fresh filter drops every title.
func NewGenerator(cat Catalog, keywords KeywordIDs, critic CriticScorer, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Generator{
		catalog:  cat,
		keywords: keywords,
		critic:   critic,
		cfg:      cfg,
		seeds:    cache.NewLRUCache[string, []models.CandidateItem](cfg.DailyCacheLimit, 24*time.Hour, cache.WithName("seed_results")),
		now:      time.Now,
		logger:   logging.WithComponent("recommend"),
	}, nil
}

// Generate runs one generation cycle.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	mode := modeOf(&in.Filters)
	defer func() {
		metrics.GenerationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	logger := g.logger.With().
		Str("media_type", string(in.Filters.MediaType)).
		Str("mode", mode).
		Int64("cycle", in.Cycle).
		Int("seeds", len(in.Seeds)).
		Logger()

	fetched, succeeded, err := g.collect(ctx, in.Seeds, &in.Filters)
	if err != nil {
		if !isUpstream(err) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("Some seeds could not be fetched")
	}

	pool := dedupe(fetched)
	kept := exclude(pool, &in.Exclude)

	res := &Result{}
	if len(kept) == 0 {
		extra, lrErr := g.lastResort(ctx, &in.Filters, in.ShuffleSeed+in.Cycle)
		switch {
		case lrErr != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case lrErr != nil && succeeded == 0:
			// No catalog call worked. An empty page here would look like
			// "no matches".
			if err != nil {
				return nil, err
			}
			return nil, lrErr
		case lrErr != nil:
			logger.Warn().Err(lrErr).Msg("Popular discover fallback failed")
		}
		res.LastResort = true
		pool = dedupe(append(fetched, extra...))
		kept = exclude(pool, &in.Exclude)
	}

	res.Candidates = len(pool)
	metrics.GenerationCandidates.Observe(float64(len(pool)))

	filtered := g.filterList(kept, &in.Filters, len(pool))
	ranked := rank(filtered, in.ShuffleSeed)

	page, rest, err := g.take(ctx, ranked, &in.Filters, in.PageSize)
	if err != nil {
		return nil, err
	}
	res.Items, res.Remainder = page, rest

	logger.Debug().
		Int("candidates", len(pool)).
		Int("kept", len(filtered)).
		Int("returned", len(page)).
		Bool("last_resort", res.LastResort).
		Dur("latency", time.Since(start)).
		Msg("Generation complete")
	return res, nil
}

// Next serves the next page from a session remainder. Exclusions are
// applied again since the blocklist or ownership may have changed.
func (g *Generator) Next(ctx context.Context, remainder []models.CandidateItem, filters *models.Filters, ex *Exclusions, pageSize int) (page, rest []models.CandidateItem, err error) {
	kept := exclude(remainder, ex)
	return g.take(ctx, kept, filters, pageSize)
}

// modeOf names the selection mode for metrics and cache keys.
func modeOf(f *models.Filters) string {
	switch {
	case f.FutureOnly:
		return "future"
	case f.Obscure:
		return "obscure"
	default:
		return "standard"
	}
}

// isUpstream reports whether err is a catalog availability problem rather
// than a cancellation or a bug.
func isUpstream(err error) bool {
	return errors.Is(err, models.ErrUpstreamUnavailable) || errors.Is(err, models.ErrUpstreamRateLimited)
}

// dedupe keeps the first copy of every title.
func dedupe(items []models.CandidateItem) []models.CandidateItem {
	seen := make(map[models.TitleKey]struct{}, len(items))
	out := make([]models.CandidateItem, 0, len(items))
	for i := range items {
		k := items[i].Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, items[i])
	}
	return out
}

// exclude drops owned, blocklisted and served titles.
func exclude(items []models.CandidateItem, ex *Exclusions) []models.CandidateItem {
	counts := make(map[string]int)
	out := make([]models.CandidateItem, 0, len(items))
	for i := range items {
		if reason := ex.reason(&items[i]); reason != "" {
			counts[reason]++
			continue
		}
		out = append(out, items[i])
	}
	for reason, n := range counts {
		metrics.RecordFiltered(reason, n)
	}
	return out
}
