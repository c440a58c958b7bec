// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package profile

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/tomtom215/smartdiscovery/internal/alias"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const (
	countWeight   = 0.7
	recencyWeight = 0.3

	// Titles resolved per seed requested. Resolution can hit the media
	// server and the catalog, so only the best scoring titles are tried.
	poolFactor  = 5
	minPoolSize = 25

	lookupConcurrency = 8
)

// titleStats aggregates the plays of one title.
type titleStats struct {
	nativeID string
	title    string
	year     int
	plays    int
	last     time.Time
	score    float64
}

// weightedTitle is a resolved title with its sampling weight.
type weightedTitle struct {
	seed   models.Seed
	score  float64
	genres []string
}

// scoreTitles groups plays by title and scores them, best first.
func scoreTitles(entries []models.WatchHistoryEntry, now time.Time) []*titleStats {
	byID := make(map[string]*titleStats)
	var order []*titleStats
	for i := range entries {
		e := &entries[i]
		st, ok := byID[e.TitleID]
		if !ok {
			st = &titleStats{nativeID: e.TitleID, title: e.Title, year: e.Year}
			byID[e.TitleID] = st
			order = append(order, st)
		}
		st.plays++
		if e.WatchedAt.After(st.last) {
			st.last = e.WatchedAt
		}
	}

	for _, st := range order {
		recency := 0.0
		if !st.last.IsZero() {
			days := math.Max(now.Sub(st.last).Hours()/24, 0)
			recency = 1 / (1 + days)
		}
		st.score = float64(st.plays)*countWeight + recency*recencyWeight
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].score > order[j].score })
	return order
}

// weightTitles resolves the best scoring titles to catalog ids and applies
// the genre affinity boost.
func (b *Builder) weightTitles(ctx context.Context, entries []models.WatchHistoryEntry, mt models.MediaType, seedCount int) ([]weightedTitle, error) {
	ranked := scoreTitles(entries, b.opts.Now())
	size := max(seedCount*poolFactor, minPoolSize)
	if len(ranked) > size {
		ranked = ranked[:size]
	}

	records := make([]*models.AliasRecord, len(ranked))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(lookupConcurrency)
	for i, st := range ranked {
		p.Go(func(ctx context.Context) error {
			rec, err := b.aliases.Lookup(ctx, alias.Item{NativeID: st.nativeID, Title: st.title, Year: st.year, MediaType: mt})
			if err != nil {
				b.logger.Debug().Err(err).Str("title", st.title).Msg("Watched title not resolved")
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Two library copies of one title share a catalog id
	merged := make(map[int]*weightedTitle)
	var titles []*weightedTitle
	for i, rec := range records {
		if rec == nil || !rec.Resolved() {
			continue
		}
		if w, ok := merged[rec.CatalogID]; ok {
			w.score += ranked[i].score
			continue
		}
		w := &weightedTitle{
			seed:   models.Seed{CatalogID: rec.CatalogID, MediaType: mt, Title: rec.NativeTitle},
			score:  ranked[i].score,
			genres: rec.Genres,
		}
		merged[rec.CatalogID] = w
		titles = append(titles, w)
	}

	affinity := genreAffinity(titles)
	out := make([]weightedTitle, 0, len(titles))
	for _, w := range titles {
		w.seed.Weight = w.score * (1 + titleAffinity(w.genres, affinity))
		out = append(out, *w)
	}
	return out, nil
}

// genreAffinity sums title scores per genre, normalized so the strongest
// genre is 1.
func genreAffinity(titles []*weightedTitle) map[string]float64 {
	affinity := make(map[string]float64)
	var top float64
	for _, w := range titles {
		for _, g := range w.genres {
			affinity[g] += w.score
			top = math.Max(top, affinity[g])
		}
	}
	if top == 0 {
		return affinity
	}
	for g := range affinity {
		affinity[g] /= top
	}
	return affinity
}

func titleAffinity(genres []string, affinity map[string]float64) float64 {
	if len(genres) == 0 {
		return 0
	}
	var sum float64
	for _, g := range genres {
		sum += affinity[g]
	}
	return sum / float64(len(genres))
}

// sample draws up to k seeds without replacement, each pick proportional
// to weight (Efraimidis-Spirakis keys u^(1/w)).
func sample(titles []weightedTitle, k int, rng *rand.Rand) []models.Seed {
	type keyed struct {
		key  float64
		seed models.Seed
	}
	keys := make([]keyed, 0, len(titles))
	for _, w := range titles {
		if w.seed.Weight <= 0 {
			continue
		}
		u := rng.Float64()
		keys = append(keys, keyed{key: math.Pow(u, 1/w.seed.Weight), seed: w.seed})
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].key > keys[j].key })

	if len(keys) > k {
		keys = keys[:k]
	}
	seeds := make([]models.Seed, len(keys))
	for i := range keys {
		seeds[i] = keys[i].seed
	}
	return seeds
}
