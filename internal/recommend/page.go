// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package recommend

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/tomtom215/smartdiscovery/internal/catalog"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// Titles examined per page request, as a multiple of the page size, with
// a floor. Titles past the limit stay in the remainder for the next page.
const (
	examineFactor = 3
	minExamine    = 100
)

// take walks ranked in order, enriching a page-sized batch at a time, and
// returns the first n titles passing the detail filters plus everything
// not yet examined.
func (g *Generator) take(ctx context.Context, ranked []models.CandidateItem, f *models.Filters, n int) (page, rest []models.CandidateItem, err error) {
	if n <= 0 {
		return nil, ranked, nil
	}
	limit := min(len(ranked), max(n*examineFactor, minExamine))
	counts := make(map[string]int)
	defer func() {
		for reason, c := range counts {
			metrics.RecordFiltered(reason, c)
		}
	}()

	for start := 0; start < limit; start += n {
		end := min(start+n, limit)
		batch := ranked[start:end]
		if err := g.enrich(ctx, batch, f); err != nil {
			return nil, nil, err
		}
		for i := range batch {
			if reason := g.keepReason(&batch[i], f); reason != "" {
				counts[reason]++
				continue
			}
			page = append(page, batch[i])
			if len(page) == n {
				return page, ranked[start+i+1:], nil
			}
		}
	}
	return page, ranked[limit:], nil
}

// keepReason combines the detail filters with the critic check.
func (g *Generator) keepReason(c *models.CandidateItem, f *models.Filters) string {
	if reason := detailReason(c, f); reason != "" {
		return reason
	}
	if f.CertifiedFresh && (c.CriticScore == nil || *c.CriticScore < g.criticThreshold(f)) {
		return "critic"
	}
	return ""
}

// enrich fills in details for items that lack them and, with the
// certified fresh filter on, critic scores for items still in the running.
// Upstream failures leave an item as it is; only cancellation is an error.
func (g *Generator) enrich(ctx context.Context, items []models.CandidateItem, f *models.Filters) error {
	region := g.region(f)
	var failed atomic.Int32

	p := pool.New().WithContext(ctx).WithMaxGoroutines(g.cfg.EnrichConcurrency)
	for i := range items {
		item := &items[i]
		p.Go(func(ctx context.Context) error {
			if item.ContentRating == "" {
				d, err := g.catalog.Details(ctx, item.MediaType, item.CatalogID, region)
				switch {
				case err == nil:
					d.Apply(item)
				case ctx.Err() != nil:
					return ctx.Err()
				case !errors.Is(err, catalog.ErrNotFound):
					failed.Add(1)
				}
			}
			if !f.CertifiedFresh || item.CriticScore != nil || detailReason(item, f) != "" {
				return nil
			}
			g.scoreCritic(ctx, item, f)
			return ctx.Err()
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		g.logger.Debug().Int32("failed", n).Int("batch", len(items)).Msg("Detail enrichment incomplete")
	}
	return nil
}

// scoreCritic sets the critic score of item when one is available.
func (g *Generator) scoreCritic(ctx context.Context, item *models.CandidateItem, f *models.Filters) {
	if g.critic == nil {
		return
	}
	score, ok, err := g.critic.Score(ctx, item.MediaType, item.Title, item.Year)
	if err != nil {
		g.logger.Debug().Err(err).Str("title", item.Title).Msg("Critic score unavailable")
		return
	}
	if !ok {
		return
	}
	item.CriticScore = &score
	item.CertifiedFresh = score >= g.criticThreshold(f)
}
