// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package ownership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// fakeStore implements Store, SnapshotStore and LeaseCleaner in memory.
type fakeStore struct {
	mu       sync.Mutex
	aliases  map[models.MediaType][]models.AliasRecord
	items    map[models.ScannerSource][]models.ScannerItem
	leases   map[models.ScannerSource]string
	reads    int
	cleared  int64
	replaced int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		aliases: make(map[models.MediaType][]models.AliasRecord),
		items:   make(map[models.ScannerSource][]models.ScannerItem),
		leases:  make(map[models.ScannerSource]string),
	}
}

func (f *fakeStore) ResolvedAliases(_ context.Context, mt models.MediaType) ([]models.AliasRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	var out []models.AliasRecord
	for _, a := range f.aliases[mt] {
		if a.Resolved() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ScannerItems(_ context.Context, mt models.MediaType, ownedOnly bool) ([]models.ScannerItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScannerItem
	for _, items := range f.items {
		for _, it := range items {
			if it.MediaType == mt && (!ownedOnly || it.HasFile) {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) AcquireLease(_ context.Context, source models.ScannerSource, holder string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.leases[source]; held {
		return models.ErrScanInProgress
	}
	f.leases[source] = holder
	return nil
}

func (f *fakeStore) ReleaseLease(_ context.Context, source models.ScannerSource, holder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leases[source] == holder {
		delete(f.leases, source)
	}
	return nil
}

func (f *fakeStore) ReplaceScannerItems(_ context.Context, source models.ScannerSource, items []models.ScannerItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced++
	f.items[source] = items
	return nil
}

func (f *fakeStore) ClearStaleLeases(context.Context, time.Duration) (int64, error) {
	return f.cleared, nil
}

// fakeSource returns fixed items
type fakeSource struct {
	name  models.ScannerSource
	items []models.ScannerItem
	err   error
}

func (s *fakeSource) Name() models.ScannerSource { return s.name }

func (s *fakeSource) List(context.Context) ([]models.ScannerItem, error) {
	return s.items, s.err
}

// Not parallel: asserts on the shared owned set gauge.
func TestResolver_OwnedSetUnion(t *testing.T) {
	store := newFakeStore()
	store.aliases[models.MediaTypeMovie] = []models.AliasRecord{
		{NativeID: "1", MediaType: models.MediaTypeMovie, CatalogID: 603, NormalizedTitle: "matrix"},
		{NativeID: "2", MediaType: models.MediaTypeMovie, CatalogID: 0, NormalizedTitle: "home video"},
	}
	store.items[models.SourceRadarr] = []models.ScannerItem{
		{CatalogID: 550, MediaType: models.MediaTypeMovie, NormalizedTitle: "fight club", HasFile: true},
		{CatalogID: 27205, MediaType: models.MediaTypeMovie, NormalizedTitle: "inception", HasFile: false},
	}
	store.items[models.SourceSonarr] = []models.ScannerItem{
		{CatalogID: 1396, MediaType: models.MediaTypeShow, NormalizedTitle: "breaking bad", HasFile: true},
	}

	r := NewResolver(store, time.Minute)
	set, err := r.OwnedSet(context.Background(), models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("OwnedSet() error = %v", err)
	}

	movie := func(id int) models.TitleKey { return models.TitleKey{CatalogID: id, MediaType: models.MediaTypeMovie} }
	tests := []struct {
		name       string
		key        models.TitleKey
		normalized string
		want       bool
	}{
		{"alias id", movie(603), "", true},
		{"radarr with file", movie(550), "", true},
		{"radarr wanted only", movie(27205), "inception", false},
		{"stored miss title", movie(12), "home video", false},
		{"title fallback", movie(9999), "matrix", true},
		{"show id under movie", movie(1396), "", false},
		{"show title under movie", movie(1), "breaking bad", false},
	}
	for _, tt := range tests {
		if got := set.Owns(tt.key, tt.normalized); got != tt.want {
			t.Errorf("%s: Owns() = %v, want %v", tt.name, got, tt.want)
		}
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	if got := testutil.ToFloat64(metrics.OwnedSetSize.WithLabelValues("movie")); got != 2 {
		t.Errorf("owned set gauge = %v, want 2", got)
	}
}

func TestResolver_CachesUntilInvalidated(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	r := NewResolver(store, time.Hour)
	ctx := context.Background()

	for range 3 {
		if _, err := r.OwnedSet(ctx, models.MediaTypeShow); err != nil {
			t.Fatal(err)
		}
	}
	if store.reads != 1 {
		t.Errorf("reads = %d, want 1", store.reads)
	}

	r.Invalidate()
	if _, err := r.OwnedSet(ctx, models.MediaTypeShow); err != nil {
		t.Fatal(err)
	}
	if store.reads != 2 {
		t.Errorf("reads after Invalidate = %d, want 2", store.reads)
	}
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	resolver := NewResolver(store, time.Hour)
	src := &fakeSource{name: models.SourceRadarr, items: []models.ScannerItem{
		{Source: models.SourceRadarr, CatalogID: 1, MediaType: models.MediaTypeMovie, HasFile: true},
		{Source: models.SourceRadarr, CatalogID: 2, MediaType: models.MediaTypeMovie},
	}}
	s := NewScanner(src, store, resolver, time.Minute)

	// Warm the owned set so the scan has something to invalidate
	before, _ := resolver.OwnedSet(context.Background(), models.MediaTypeMovie)
	if before.ContainsID(models.TitleKey{CatalogID: 1, MediaType: models.MediaTypeMovie}) {
		t.Fatal("owned before scan")
	}

	res, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.WithFile != 1 || res.WithoutFile != 1 || res.Source != models.SourceRadarr {
		t.Errorf("result = %+v", res)
	}
	if len(store.leases) != 0 {
		t.Error("lease not released")
	}

	after, _ := resolver.OwnedSet(context.Background(), models.MediaTypeMovie)
	if !after.ContainsID(models.TitleKey{CatalogID: 1, MediaType: models.MediaTypeMovie}) {
		t.Error("owned set not refreshed after scan")
	}
}

// Not parallel: TestScanAll also records skipped sonarr runs.
func TestScanner_LeaseHeld(t *testing.T) {
	store := newFakeStore()
	store.leases[models.SourceSonarr] = "other-node"
	s := NewScanner(&fakeSource{name: models.SourceSonarr}, store, nil, time.Minute)

	before := testutil.ToFloat64(metrics.ScannerRuns.WithLabelValues("sonarr", "skipped"))
	_, err := s.Scan(context.Background())
	if !errors.Is(err, models.ErrScanInProgress) {
		t.Fatalf("Scan() error = %v, want ErrScanInProgress", err)
	}
	if store.replaced != 0 {
		t.Error("snapshot replaced without the lease")
	}
	if store.leases[models.SourceSonarr] != "other-node" {
		t.Error("foreign lease released")
	}
	if got := testutil.ToFloat64(metrics.ScannerRuns.WithLabelValues("sonarr", "skipped")); got != before+1 {
		t.Errorf("skipped runs = %v, want %v", got, before+1)
	}
}

func TestScanner_ListFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.items[models.SourceRadarr] = []models.ScannerItem{{CatalogID: 5, MediaType: models.MediaTypeMovie, HasFile: true}}
	src := &fakeSource{name: models.SourceRadarr, err: &models.UnavailableError{Service: "radarr", Err: errors.New("down")}}
	s := NewScanner(src, store, nil, time.Minute)

	if _, err := s.Scan(context.Background()); !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(store.items[models.SourceRadarr]) != 1 {
		t.Error("previous snapshot lost after failed scan")
	}
	if len(store.leases) != 0 {
		t.Error("lease not released after failure")
	}
}

func TestScanAll(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.leases[models.SourceSonarr] = "busy"
	scanners := []*Scanner{
		NewScanner(&fakeSource{name: models.SourceRadarr}, store, nil, time.Minute),
		NewScanner(&fakeSource{name: models.SourceSonarr}, store, nil, time.Minute),
	}

	results, err := ScanAll(context.Background(), scanners)
	if !errors.Is(err, models.ErrScanInProgress) {
		t.Errorf("ScanAll() error = %v, want ErrScanInProgress", err)
	}
	if len(results) != 1 || results[0].Source != models.SourceRadarr {
		t.Errorf("results = %+v", results)
	}
}

func TestClearStaleLeases(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.cleared = 2

	before := testutil.ToFloat64(metrics.StaleLeasesCleared)
	if err := ClearStaleLeases(context.Background(), store, time.Minute); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(metrics.StaleLeasesCleared); got < before+2 {
		t.Errorf("stale leases metric = %v, want at least %v", got, before+2)
	}
}
