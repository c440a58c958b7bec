// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package alias

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tomtom215/smartdiscovery/internal/catalog"
	"github.com/tomtom215/smartdiscovery/internal/models"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
)

// fakeCatalog answers /find from maps and /search from a title map.
type fakeCatalog struct {
	mu       sync.Mutex
	imdb     map[string]int
	tvdb     map[string]int
	search   map[string][]models.CandidateItem // keyed by title
	err      error
	finds    int
	searches []int // years searched
}

func (f *fakeCatalog) FindByExternalID(_ context.Context, source catalog.ExternalSource, id string) (*catalog.FindResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.err != nil {
		return nil, f.err
	}
	res := &catalog.FindResult{}
	switch source {
	case catalog.SourceIMDb:
		if n, ok := f.imdb[id]; ok {
			res.Movies = []models.CandidateItem{{CatalogID: n, MediaType: models.MediaTypeMovie}}
			res.Shows = []models.CandidateItem{{CatalogID: n, MediaType: models.MediaTypeShow}}
		}
	case catalog.SourceTVDB:
		if n, ok := f.tvdb[id]; ok {
			res.Shows = []models.CandidateItem{{CatalogID: n, MediaType: models.MediaTypeShow}}
		}
	}
	return res, nil
}

func (f *fakeCatalog) Search(_ context.Context, _ models.MediaType, title string, year int) ([]models.CandidateItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, year)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CandidateItem
	for _, c := range f.search[title] {
		if year == 0 || c.Year == year {
			out = append(out, c)
		}
	}
	return out, nil
}

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	records map[string]models.AliasRecord
	upserts int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.AliasRecord)}
}

func storeKey(id string, mt models.MediaType) string { return string(mt) + ":" + id }

func (s *memStore) GetAlias(_ context.Context, nativeID string, mt models.MediaType) (*models.AliasRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[storeKey(nativeID, mt)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) UpsertAlias(_ context.Context, rec *models.AliasRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	s.records[storeKey(rec.NativeID, rec.MediaType)] = *rec
	return nil
}

func (s *memStore) ListAliases(_ context.Context, mt models.MediaType) ([]models.AliasRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AliasRecord
	for _, r := range s.records {
		if r.MediaType == mt {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NativeID < out[j].NativeID })
	return out, nil
}

func (s *memStore) DeleteAliases(_ context.Context, mt models.MediaType, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		k := storeKey(id, mt)
		if _, ok := s.records[k]; ok {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

// fakeLibrary serves sections and their items.
type fakeLibrary struct {
	sections   []intsync.PlexLibrarySection
	content    map[string][]intsync.PlexLibraryMetadata
	failing    map[string]bool
	metadata   map[string]*intsync.PlexLibraryMetadata
	metaCalls  int
	sectionErr error
}

func (l *fakeLibrary) GetLibrarySections(context.Context) ([]intsync.PlexLibrarySection, error) {
	return l.sections, l.sectionErr
}

func (l *fakeLibrary) GetAllSectionContent(_ context.Context, key string) ([]intsync.PlexLibraryMetadata, error) {
	if l.failing[key] {
		return nil, &models.UnavailableError{Service: "plex", Err: errors.New("boom")}
	}
	return l.content[key], nil
}

func (l *fakeLibrary) GetMetadata(_ context.Context, key string) (*intsync.PlexLibraryMetadata, error) {
	l.metaCalls++
	if m, ok := l.metadata[key]; ok {
		return m, nil
	}
	return nil, errors.New("plex metadata " + key + ": not found")
}

func movieMeta(key, title string, year int, updated int64, guids ...string) intsync.PlexLibraryMetadata {
	m := intsync.PlexLibraryMetadata{RatingKey: key, Type: "movie", Title: title, Year: year, UpdatedAt: updated}
	for _, g := range guids {
		m.Guids = append(m.Guids, intsync.PlexGuid{ID: g})
	}
	return m
}
