// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/alias"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/profile"
	"github.com/tomtom215/smartdiscovery/internal/recommend"
	"github.com/tomtom215/smartdiscovery/internal/session"
)

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

// fakeProfiles returns one seed per build and records the requests.
type fakeProfiles struct {
	mu   sync.Mutex
	reqs []profile.Request
	err  error
}

func (f *fakeProfiles) Build(_ context.Context, req profile.Request) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(req.SeedOverride) > 0 {
		return &profile.Profile{Seeds: req.SeedOverride, Source: profile.SourceOverride}, nil
	}
	return &profile.Profile{
		Seeds:  []models.Seed{{CatalogID: 1, MediaType: req.MediaType, Weight: 1}},
		Source: profile.SourceHistory,
	}, nil
}

func (f *fakeProfiles) requests() []profile.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]profile.Request(nil), f.reqs...)
}

// fakeRecommender serves a fixed candidate pool minus the exclusions, in
// pool order. The pool may grow between calls.
type fakeRecommender struct {
	mu    sync.Mutex
	pool  []models.CandidateItem
	err   error
	calls int

	// window limits how much of the remainder one Next call examines;
	// items in reject fail the detail stage.
	window int
	reject map[int]bool

	// When set, the first Generate signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newFakeRecommender(n int) *fakeRecommender {
	f := &fakeRecommender{}
	f.add(1000, n)
	return f
}

// add appends n movies with ids from first on.
func (f *fakeRecommender) add(first, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.pool = append(f.pool, models.CandidateItem{
			CatalogID: first + i,
			MediaType: models.MediaTypeMovie,
			Title:     "Film",
		})
	}
}

func (f *fakeRecommender) Generate(ctx context.Context, in recommend.Input) (*recommend.Result, error) {
	if f.entered != nil {
		first := false
		f.once.Do(func() { first = true })
		if first {
			close(f.entered)
			select {
			case <-f.release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	f.mu.Lock()
	f.calls++
	err := f.err
	pool := append([]models.CandidateItem(nil), f.pool...)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	kept := keep(pool, &in.Exclude)
	n := min(in.PageSize, len(kept))
	return &recommend.Result{Items: kept[:n], Remainder: kept[n:], Candidates: len(pool)}, nil
}

func (f *fakeRecommender) Next(_ context.Context, remainder []models.CandidateItem, _ *models.Filters, ex *recommend.Exclusions, pageSize int) (page, rest []models.CandidateItem, err error) {
	f.mu.Lock()
	window, reject := f.window, f.reject
	f.mu.Unlock()

	kept := keep(remainder, ex)
	limit := len(kept)
	if window > 0 {
		limit = min(window, limit)
	}
	for i := range kept[:limit] {
		if reject[kept[i].CatalogID] {
			continue
		}
		page = append(page, kept[i])
		if len(page) == pageSize {
			return page, kept[i+1:], nil
		}
	}
	return page, kept[limit:], nil
}

// scanWindow makes Next examine at most window items and drop the ids in
// [from, to).
func (f *fakeRecommender) scanWindow(window, from, to int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window = window
	f.reject = make(map[int]bool)
	for id := from; id < to; id++ {
		f.reject[id] = true
	}
}

func keep(items []models.CandidateItem, ex *recommend.Exclusions) []models.CandidateItem {
	var out []models.CandidateItem
	for i := range items {
		k := items[i].Key()
		if _, ok := ex.Served[k]; ok {
			continue
		}
		if _, ok := ex.Blocked[k]; ok {
			continue
		}
		if ex.Owned != nil && ex.Owned.Owns(k, "") {
			continue
		}
		out = append(out, items[i])
	}
	return out
}

type fakeOwnership struct {
	set         *models.OwnedSet
	invalidated atomic.Int32
}

func (f *fakeOwnership) OwnedSet(context.Context, models.MediaType) (*models.OwnedSet, error) {
	return f.set, nil
}

func (f *fakeOwnership) Invalidate() { f.invalidated.Add(1) }

// fakeBlocklist keeps entries in memory.
type fakeBlocklist struct {
	mu      sync.Mutex
	entries map[models.TitleKey]models.BlocklistEntry
}

func newFakeBlocklist() *fakeBlocklist {
	return &fakeBlocklist{entries: make(map[models.TitleKey]models.BlocklistEntry)}
}

func (f *fakeBlocklist) AddBlocklist(_ context.Context, e *models.BlocklistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.Key()] = *e
	return nil
}

func (f *fakeBlocklist) RemoveBlocklist(_ context.Context, key models.TitleKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	delete(f.entries, key)
	return ok, nil
}

func (f *fakeBlocklist) ListBlocklist(_ context.Context, mt models.MediaType) ([]models.BlocklistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BlocklistEntry
	for _, e := range f.entries {
		if mt == "" || e.MediaType == mt {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeBlocklist) BlocklistKeys(_ context.Context, mt models.MediaType) (map[models.TitleKey]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make(map[models.TitleKey]struct{})
	for k := range f.entries {
		if k.MediaType == mt {
			keys[k] = struct{}{}
		}
	}
	return keys, nil
}

type fakeAliases struct {
	forced atomic.Int32
	res    *alias.SyncResult
	err    error
}

func (f *fakeAliases) ForceRefresh() { f.forced.Add(1) }

func (f *fakeAliases) Sync(context.Context) (*alias.SyncResult, error) {
	return f.res, f.err
}

// fakeScanSource is an adjacent catalog with fixed items.
type fakeScanSource struct {
	name  models.ScannerSource
	items []models.ScannerItem
}

func (s *fakeScanSource) Name() models.ScannerSource { return s.name }

func (s *fakeScanSource) List(context.Context) ([]models.ScannerItem, error) {
	return s.items, nil
}

// fakeSnapshots implements ownership.SnapshotStore.
type fakeSnapshots struct {
	mu     sync.Mutex
	leases map[models.ScannerSource]string
	items  map[models.ScannerSource][]models.ScannerItem
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		leases: make(map[models.ScannerSource]string),
		items:  make(map[models.ScannerSource][]models.ScannerItem),
	}
}

func (f *fakeSnapshots) AcquireLease(_ context.Context, source models.ScannerSource, holder string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.leases[source]; held {
		return models.ErrScanInProgress
	}
	f.leases[source] = holder
	return nil
}

func (f *fakeSnapshots) ReleaseLease(_ context.Context, source models.ScannerSource, holder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leases[source] == holder {
		delete(f.leases, source)
	}
	return nil
}

func (f *fakeSnapshots) ReplaceScannerItems(_ context.Context, source models.ScannerSource, items []models.ScannerItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[source] = items
	return nil
}

// testEnv bundles a Service with its fakes.
type testEnv struct {
	svc       *Service
	profiles  *fakeProfiles
	rec       *fakeRecommender
	owned     *fakeOwnership
	blocklist *fakeBlocklist
	sessions  *session.MemoryStore
}

func newTestEnv(t *testing.T, poolSize int, with ...func(*Deps)) *testEnv {
	t.Helper()
	env := &testEnv{
		profiles:  &fakeProfiles{},
		rec:       newFakeRecommender(poolSize),
		owned:     &fakeOwnership{set: models.NewOwnedSet()},
		blocklist: newFakeBlocklist(),
		sessions:  session.NewMemoryStore(time.Hour),
	}
	deps := Deps{
		Profiles:    env.profiles,
		Recommender: env.rec,
		Ownership:   env.owned,
		Blocklist:   env.blocklist,
		Sessions:    env.sessions,
	}
	for _, fn := range with {
		fn(&deps)
	}
	env.svc = NewService(deps, Options{
		Now:            func() time.Time { return testNow },
		NewShuffleSeed: func() int64 { return 42 },
	})
	return env
}

func movieFilters() models.Filters {
	return models.Filters{MediaType: models.MediaTypeMovie}
}

func ids(items []models.CandidateItem) []int {
	out := make([]int, len(items))
	for i := range items {
		out[i] = items[i].CatalogID
	}
	return out
}
