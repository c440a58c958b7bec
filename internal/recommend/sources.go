// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/tomtom215/smartdiscovery/internal/catalog"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const (
	// List pages read per seed query.
	seedPages = 2

	// Genres of the seed used by the discover fallback.
	seedGenres = 3
)

// collect fetches candidates for every seed and concatenates them in seed
// order. Seeds that fail are skipped; the first upstream error is returned
// alongside whatever the other seeds produced. succeeded counts the seeds
// whose fetch worked, even when it found nothing.
func (g *Generator) collect(ctx context.Context, seeds []models.Seed, f *models.Filters) (items []models.CandidateItem, succeeded int, err error) {
	today := g.today()
	results := make([][]models.CandidateItem, len(seeds))

	var mu sync.Mutex
	var firstErr error

	p := pool.New().WithContext(ctx).WithMaxGoroutines(g.cfg.SeedConcurrency)
	for i, seed := range seeds {
		if seed.CatalogID <= 0 || (seed.MediaType != "" && seed.MediaType != f.MediaType) {
			continue
		}
		p.Go(func(ctx context.Context) error {
			items, err := g.fetchSeed(ctx, seed, f, today)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				g.logger.Debug().Err(err).Int("seed", seed.CatalogID).Msg("Seed fetch failed")
				if isUpstream(err) {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
				return nil
			}
			results[i] = items
			mu.Lock()
			succeeded++
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	for _, r := range results {
		items = append(items, r...)
	}
	return items, succeeded, firstErr
}

// fetchSeed returns the candidates derived from one seed, cached per day.
func (g *Generator) fetchSeed(ctx context.Context, seed models.Seed, f *models.Filters, today time.Time) ([]models.CandidateItem, error) {
	mode := modeOf(f)
	key := fmt.Sprintf("%s:%d:%s:%s", f.MediaType, seed.CatalogID, mode, today.Format(time.DateOnly))
	if f.FutureOnly {
		key += ":" + g.region(f)
	}
	if items, ok := g.seeds.Get(key); ok {
		return items, nil
	}

	var items []models.CandidateItem
	var err error
	if f.FutureOnly {
		items, err = g.upcomingLike(ctx, seed, f, today)
	} else {
		items, err = g.similarTo(ctx, seed, f)
	}
	if err != nil {
		return nil, err
	}
	g.seeds.Add(key, items)
	return items, nil
}

// similarTo tries recommendations, then similar titles, then a discover
// query on the seed's genres, stopping at the first that returns anything.
func (g *Generator) similarTo(ctx context.Context, seed models.Seed, f *models.Filters) ([]models.CandidateItem, error) {
	mt := f.MediaType
	for _, list := range []func(context.Context, models.MediaType, int, int) (*catalog.Page, error){
		g.catalog.Recommendations,
		g.catalog.Similar,
	} {
		items, err := readPages(func(page int) (*catalog.Page, error) {
			return list(ctx, mt, seed.CatalogID, page)
		})
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	genres, err := g.genresOf(ctx, seed, mt)
	if err != nil || len(genres) == 0 {
		return nil, err
	}
	q := catalog.DiscoverQuery{Genres: genres}
	if !f.Obscure {
		q.OriginalLanguage = "en"
	}
	return readPages(func(page int) (*catalog.Page, error) {
		pq := q
		pq.Page = page
		return g.catalog.Discover(ctx, mt, pq)
	})
}

// upcomingLike discovers unreleased titles sharing the seed's genres.
func (g *Generator) upcomingLike(ctx context.Context, seed models.Seed, f *models.Filters, today time.Time) ([]models.CandidateItem, error) {
	genres, err := g.genresOf(ctx, seed, f.MediaType)
	if err != nil {
		return nil, err
	}
	q := catalog.DiscoverQuery{
		Genres:        genres,
		ReleasedAfter: today,
		Region:        g.region(f),
		MinPopularity: g.cfg.FutureMinPopularity,
	}
	return readPages(func(page int) (*catalog.Page, error) {
		pq := q
		pq.Page = page
		return g.catalog.Discover(ctx, f.MediaType, pq)
	})
}

// genresOf returns up to three genre ids of the seed, asking the catalog
// when the seed does not carry them. A deleted title has no genres.
func (g *Generator) genresOf(ctx context.Context, seed models.Seed, mt models.MediaType) ([]int, error) {
	ids := seed.GenreIDs
	if len(ids) == 0 {
		d, err := g.catalog.Details(ctx, mt, seed.CatalogID, g.cfg.DefaultRegion)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		ids = d.GenreIDs()
	}
	if len(ids) > seedGenres {
		ids = ids[:seedGenres]
	}
	return ids, nil
}

// readPages reads the first page and, when there is one, the second.
func readPages(fetch func(page int) (*catalog.Page, error)) ([]models.CandidateItem, error) {
	var items []models.CandidateItem
	for page := 1; page <= seedPages; page++ {
		p, err := fetch(page)
		if err != nil {
			if len(items) > 0 {
				return items, nil
			}
			return nil, err
		}
		items = append(items, p.Items...)
		if p.TotalPages <= page {
			break
		}
	}
	return items, nil
}

// lastResort reads popular titles matching the list filters, starting at
// a random page so that repeated cycles see different titles. It falls
// back to page 1 when the random start is past the end.
func (g *Generator) lastResort(ctx context.Context, f *models.Filters, seed int64) ([]models.CandidateItem, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // page choice, not security
	start := 1 + rng.Intn(g.cfg.LastResortMaxStart)

	q := catalog.DiscoverQuery{Genres: f.Genres}
	if len(f.Keywords) > 0 && g.keywords != nil {
		ids, err := g.keywords.ResolveAll(ctx, f.Keywords)
		switch {
		case err == nil:
			q.Keywords = ids
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			g.logger.Debug().Err(err).Msg("Keyword ids unavailable for popular discover")
		}
	}
	if !f.Obscure && f.Region == "" {
		q.OriginalLanguage = "en"
	}
	q.Region = f.Region
	if f.FutureOnly {
		q.ReleasedAfter = g.today()
		q.Region = g.region(f)
		q.MinPopularity = g.cfg.FutureMinPopularity
	}

	items, err := g.discoverPages(ctx, f.MediaType, q, start)
	if err == nil && len(items) == 0 && start > 1 {
		return g.discoverPages(ctx, f.MediaType, q, 1)
	}
	return items, err
}

// discoverPages reads LastResortPages pages of q from start concurrently.
// It fails only when every page failed.
func (g *Generator) discoverPages(ctx context.Context, mt models.MediaType, q catalog.DiscoverQuery, start int) ([]models.CandidateItem, error) {
	n := g.cfg.LastResortPages
	pages := make([][]models.CandidateItem, n)
	errs := make([]error, n)

	p := pool.New().WithContext(ctx).WithMaxGoroutines(n)
	for i := range n {
		p.Go(func(ctx context.Context) error {
			pq := q
			pq.Page = start + i
			page, err := g.catalog.Discover(ctx, mt, pq)
			if err != nil {
				errs[i] = err
				return nil
			}
			pages[i] = page.Items
			return nil
		})
	}
	_ = p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []models.CandidateItem
	var firstErr error
	failed := 0
	for i := range n {
		if errs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		items = append(items, pages[i]...)
	}
	if failed == n {
		return nil, firstErr
	}
	return items, nil
}

// today is the current UTC date at midnight.
func (g *Generator) today() time.Time {
	t := g.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (g *Generator) region(f *models.Filters) string {
	if f.Region != "" {
		return f.Region
	}
	return g.cfg.DefaultRegion
}
