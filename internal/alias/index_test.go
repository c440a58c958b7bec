// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package alias

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/models"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
)

// clock returns a settable time source
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestIndex(cat *fakeCatalog, lib *fakeLibrary, opts Options) (*Index, *memStore, *clock) {
	store := newMemStore()
	idx := NewIndex(store, lib, DefaultStrategies(cat), opts)
	clk := &clock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	idx.now = clk.now
	return idx, store, clk
}

func TestIndex_ResolveChainOrder(t *testing.T) {
	t.Parallel()
	cat := &fakeCatalog{
		imdb:   map[string]int{"tt0133093": 603},
		search: map[string][]models.CandidateItem{"The Matrix": {{CatalogID: 999, Title: "The Matrix", Year: 1999}}},
	}
	idx, store, _ := newTestIndex(cat, &fakeLibrary{}, Options{})

	rec, err := idx.Resolve(context.Background(), Item{
		NativeID:  "1",
		Title:     "The Matrix",
		Year:      1999,
		MediaType: models.MediaTypeMovie,
		GUIDs:     []string{"imdb://tt0133093"},
		Genres:    []string{"Action"},
	}, false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rec.CatalogID != 603 || rec.Method != models.MethodIMDbGUID {
		t.Errorf("record = %+v, want IMDb match 603", rec)
	}
	if rec.NormalizedTitle != "matrix" {
		t.Errorf("NormalizedTitle = %q", rec.NormalizedTitle)
	}
	if len(cat.searches) != 0 {
		t.Error("title search ran after an earlier strategy matched")
	}
	if store.upserts != 1 {
		t.Errorf("upserts = %d, want 1", store.upserts)
	}
}

func TestIndex_StoresMissAndReusesIt(t *testing.T) {
	t.Parallel()
	cat := &fakeCatalog{}
	idx, store, _ := newTestIndex(cat, &fakeLibrary{}, Options{})
	item := Item{NativeID: "7", Title: "Home Video", MediaType: models.MediaTypeMovie, UpdatedAt: time.Unix(100, 0).UTC()}

	rec, err := idx.Resolve(context.Background(), item, false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rec.Resolved() || rec.Method != models.MethodUnresolved {
		t.Errorf("miss record = %+v", rec)
	}

	if _, err := idx.Resolve(context.Background(), item, false); err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if store.upserts != 1 || len(cat.searches) != 1 {
		t.Errorf("unchanged item re-resolved: upserts=%d searches=%d", store.upserts, len(cat.searches))
	}

	// A changed item is resolved again
	item.UpdatedAt = time.Unix(200, 0).UTC()
	if _, err := idx.Resolve(context.Background(), item, false); err != nil {
		t.Fatalf("changed Resolve() error = %v", err)
	}
	if store.upserts != 2 {
		t.Errorf("changed item not re-resolved: upserts=%d", store.upserts)
	}
}

func TestIndex_ErrorIsNotStoredAsMiss(t *testing.T) {
	t.Parallel()
	cat := &fakeCatalog{err: &models.UnavailableError{Service: "tmdb", Err: errors.New("down")}}
	idx, store, _ := newTestIndex(cat, &fakeLibrary{}, Options{})

	_, err := idx.Resolve(context.Background(), Item{NativeID: "1", Title: "X", MediaType: models.MediaTypeMovie}, false)
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("Resolve() error = %v, want unavailable", err)
	}
	if store.upserts != 0 {
		t.Error("failed resolution stored a record")
	}
}

func TestIndex_ForceRefresh(t *testing.T) {
	t.Parallel()
	cat := &fakeCatalog{}
	idx, store, clk := newTestIndex(cat, &fakeLibrary{}, Options{})
	item := Item{NativeID: "1", Title: "Tmdb Item", MediaType: models.MediaTypeMovie, GUIDs: []string{"tmdb://5"}}

	if _, err := idx.Resolve(context.Background(), item, false); err != nil {
		t.Fatal(err)
	}
	clk.t = clk.t.Add(time.Minute)
	idx.ForceRefresh()
	clk.t = clk.t.Add(time.Minute)

	if _, err := idx.Resolve(context.Background(), item, false); err != nil {
		t.Fatal(err)
	}
	if store.upserts != 2 {
		t.Errorf("record older than force mark reused: upserts=%d", store.upserts)
	}
	if _, err := idx.Resolve(context.Background(), item, false); err != nil {
		t.Fatal(err)
	}
	if store.upserts != 2 {
		t.Errorf("record newer than force mark re-resolved: upserts=%d", store.upserts)
	}
}

func TestIndex_Lookup(t *testing.T) {
	t.Parallel()
	meta := movieMeta("42", "Arrival", 2016, 500, "tmdb://329865")
	meta.Genre = []intsync.PlexTag{{Tag: "Drama"}, {Tag: "Science Fiction"}}
	lib := &fakeLibrary{metadata: map[string]*intsync.PlexLibraryMetadata{"42": &meta}}
	cat := &fakeCatalog{search: map[string][]models.CandidateItem{
		"Gone Movie": {{CatalogID: 77, Title: "Gone Movie", Year: 2010}},
	}}
	idx, _, _ := newTestIndex(cat, lib, Options{})

	rec, err := idx.Lookup(context.Background(), Item{NativeID: "42", MediaType: models.MediaTypeMovie})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if rec.CatalogID != 329865 || len(rec.Genres) != 2 {
		t.Errorf("Lookup() = %+v", rec)
	}

	// Stored records skip the metadata fetch
	if _, err := idx.Lookup(context.Background(), Item{NativeID: "42", MediaType: models.MediaTypeMovie}); err != nil {
		t.Fatal(err)
	}
	if lib.metaCalls != 1 {
		t.Errorf("metadata calls = %d, want 1", lib.metaCalls)
	}

	// Items gone from the server resolve by title
	rec, err = idx.Lookup(context.Background(), Item{NativeID: "9", Title: "Gone Movie", Year: 2010, MediaType: models.MediaTypeMovie})
	if err != nil {
		t.Fatalf("Lookup() fallback error = %v", err)
	}
	if rec.CatalogID != 77 || rec.Method != models.MethodTitleYearSearch {
		t.Errorf("fallback record = %+v", rec)
	}
}
