// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package alias

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/smartdiscovery/internal/models"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
)

func librarySections() []intsync.PlexLibrarySection {
	return []intsync.PlexLibrarySection{
		{Key: "1", Title: "Movies", Type: "movie"},
		{Key: "2", Title: "TV", Type: "show"},
		{Key: "3", Title: "Music", Type: "artist"},
		{Key: "4", Title: "Home Videos", Type: "movie"},
	}
}

func TestSync_ResolvesAndDeletes(t *testing.T) {
	t.Parallel()
	lib := &fakeLibrary{
		sections: librarySections(),
		content: map[string][]intsync.PlexLibraryMetadata{
			"1": {
				movieMeta("10", "The Matrix", 1999, 100, "tmdb://603"),
				movieMeta("11", "Unknown Film", 2001, 100),
			},
			"2": {{RatingKey: "20", Type: "show", Title: "Lost", Guids: []intsync.PlexGuid{{ID: "tvdb://73739"}}, UpdatedAt: 100}},
			"4": {movieMeta("40", "Birthday", 2020, 100)},
		},
	}
	cat := &fakeCatalog{tvdb: map[string]int{"73739": 4607}}
	idx, store, _ := newTestIndex(cat, lib, Options{IgnoredSections: []string{"4"}})

	// A record for an item no longer in the library
	_ = store.UpsertAlias(context.Background(), &models.AliasRecord{NativeID: "99", MediaType: models.MediaTypeMovie, CatalogID: 5, Method: models.MethodDirectGUID})

	res, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Sections != 2 || res.Seen != 3 {
		t.Errorf("sections=%d seen=%d, want 2 and 3", res.Sections, res.Seen)
	}
	if res.Resolved != 2 || res.Unresolved != 1 || res.Deleted != 1 {
		t.Errorf("result = %+v", res)
	}
	if rec, _ := store.GetAlias(context.Background(), "20", models.MediaTypeShow); rec == nil || rec.CatalogID != 4607 {
		t.Errorf("show alias = %+v", rec)
	}
	if rec, _ := store.GetAlias(context.Background(), "40", models.MediaTypeMovie); rec != nil {
		t.Error("ignored section was resolved")
	}

	// Second run reuses everything
	res, err = idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if res.Unchanged != 3 || res.Resolved+res.Unresolved != 0 {
		t.Errorf("second run = %+v", res)
	}
}

func TestSync_CapsResolvesPerRun(t *testing.T) {
	t.Parallel()
	var items []intsync.PlexLibraryMetadata
	for i := range 5 {
		items = append(items, movieMeta(fmt.Sprint(i), "M", 2000, 1, fmt.Sprintf("tmdb://%d", i+1)))
	}
	lib := &fakeLibrary{
		sections: []intsync.PlexLibrarySection{{Key: "1", Type: "movie"}},
		content:  map[string][]intsync.PlexLibraryMetadata{"1": items},
	}
	idx, _, _ := newTestIndex(&fakeCatalog{}, lib, Options{MaxResolvesPerRun: 2})

	res, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Resolved != 2 || res.Deferred != 3 {
		t.Errorf("first run = %+v", res)
	}

	res, _ = idx.Sync(context.Background())
	if res.Resolved != 2 || res.Unchanged != 2 || res.Deferred != 1 {
		t.Errorf("second run = %+v", res)
	}
}

func TestSync_PartialListingKeepsRecords(t *testing.T) {
	t.Parallel()
	lib := &fakeLibrary{
		sections: librarySections()[:2],
		content:  map[string][]intsync.PlexLibraryMetadata{},
		failing:  map[string]bool{"1": true},
	}
	idx, store, _ := newTestIndex(&fakeCatalog{}, lib, Options{})
	_ = store.UpsertAlias(context.Background(), &models.AliasRecord{NativeID: "10", MediaType: models.MediaTypeMovie, CatalogID: 603})
	_ = store.UpsertAlias(context.Background(), &models.AliasRecord{NativeID: "20", MediaType: models.MediaTypeShow, CatalogID: 1})

	res, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if rec, _ := store.GetAlias(context.Background(), "10", models.MediaTypeMovie); rec == nil {
		t.Error("movie records deleted after a failed listing")
	}
	// The show section listed fine and is empty
	if res.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", res.Deleted)
	}
}

func TestSync_StopsResolvingWhenRateLimited(t *testing.T) {
	t.Parallel()
	lib := &fakeLibrary{
		sections: []intsync.PlexLibrarySection{{Key: "1", Type: "movie"}},
		content: map[string][]intsync.PlexLibraryMetadata{"1": {
			movieMeta("1", "A", 2000, 1), movieMeta("2", "B", 2000, 1), movieMeta("3", "C", 2000, 1),
		}},
	}
	cat := &fakeCatalog{err: &models.RateLimitedError{Service: "tmdb"}}
	idx, _, _ := newTestIndex(cat, lib, Options{})

	res, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Failed != 1 || res.Deferred != 2 {
		t.Errorf("result = %+v, want 1 failed and 2 deferred", res)
	}
	if len(cat.searches) != 1 {
		t.Errorf("searches = %d, want 1", len(cat.searches))
	}
}

func TestSync_Errors(t *testing.T) {
	t.Parallel()
	lib := &fakeLibrary{sectionErr: errors.New("unauthorized")}
	idx, _, _ := newTestIndex(&fakeCatalog{}, lib, Options{})

	if _, err := idx.Sync(context.Background()); err == nil {
		t.Error("expected error when sections cannot be listed")
	}

	idx.syncMu.Lock()
	defer idx.syncMu.Unlock()
	if _, err := idx.Sync(context.Background()); !errors.Is(err, models.ErrScanInProgress) {
		t.Errorf("concurrent Sync() error = %v", err)
	}
}
