// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package recommend

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/catalog"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

// fakeCatalog serves canned pages. Every list holds a single page.
type fakeCatalog struct {
	mu       sync.Mutex
	recs     map[int][]models.CandidateItem
	similar  map[int][]models.CandidateItem
	details  map[int]*catalog.Details
	discover func(q catalog.DiscoverQuery) []models.CandidateItem
	err      error // Returned by every call
	discErr  error // Returned by Discover only

	calls   map[string]int
	queries []catalog.DiscoverQuery
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		recs:    make(map[int][]models.CandidateItem),
		similar: make(map[int][]models.CandidateItem),
		details: make(map[int]*catalog.Details),
		calls:   make(map[string]int),
	}
}

func (f *fakeCatalog) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.err
}

func (f *fakeCatalog) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) Recommendations(_ context.Context, _ models.MediaType, id, page int) (*catalog.Page, error) {
	if err := f.record("recommendations"); err != nil {
		return nil, err
	}
	return &catalog.Page{Items: f.recs[id], Page: page, TotalPages: 1}, nil
}

func (f *fakeCatalog) Similar(_ context.Context, _ models.MediaType, id, page int) (*catalog.Page, error) {
	if err := f.record("similar"); err != nil {
		return nil, err
	}
	return &catalog.Page{Items: f.similar[id], Page: page, TotalPages: 1}, nil
}

func (f *fakeCatalog) Discover(_ context.Context, _ models.MediaType, q catalog.DiscoverQuery) (*catalog.Page, error) {
	if err := f.record("discover"); err != nil {
		return nil, err
	}
	if f.discErr != nil {
		return nil, f.discErr
	}
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	var items []models.CandidateItem
	if f.discover != nil {
		items = f.discover(q)
	}
	return &catalog.Page{Items: items, Page: q.Page, TotalPages: 50}, nil
}

func (f *fakeCatalog) Details(_ context.Context, mt models.MediaType, id int, _ string) (*catalog.Details, error) {
	if err := f.record("details"); err != nil {
		return nil, err
	}
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return &catalog.Details{CatalogID: id, MediaType: mt, ContentRating: "NR"}, nil
}

type fakeCritic struct {
	scores map[string]int
}

func (f *fakeCritic) Score(_ context.Context, _ models.MediaType, title string, _ int) (int, bool, error) {
	s, ok := f.scores[title]
	return s, ok, nil
}

func movie(id int, avg float64, votes int) models.CandidateItem {
	return models.CandidateItem{
		CatalogID:        id,
		MediaType:        models.MediaTypeMovie,
		Title:            fmt.Sprintf("Film %d", id),
		Year:             2020,
		GenreIDs:         []int{27},
		VoteAverage:      avg,
		VoteCount:        votes,
		OriginalLanguage: "en",
		ReleaseDate:      time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestGenerator(t *testing.T, cat Catalog, critic CriticScorer) *Generator {
	t.Helper()
	g, err := NewGenerator(cat, nil, critic, DefaultConfig())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	g.now = func() time.Time { return testNow }
	return g
}

func ids(items []models.CandidateItem) []int {
	out := make([]int, len(items))
	for i := range items {
		out[i] = items[i].CatalogID
	}
	return out
}

func movieFilters() models.Filters {
	return models.Filters{MediaType: models.MediaTypeMovie}
}

func seed(id int) models.Seed {
	return models.Seed{CatalogID: id, MediaType: models.MediaTypeMovie, Weight: 1}
}
