// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package alias

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/catalog"
	"github.com/tomtom215/smartdiscovery/internal/models"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
	"github.com/tomtom215/smartdiscovery/internal/titles"
)

// Item is a library item to resolve.
type Item struct {
	NativeID  string
	Title     string
	Year      int
	MediaType models.MediaType
	GUIDs     []string
	Genres    []string
	UpdatedAt time.Time
}

func (i *Item) lockKey() string {
	return string(i.MediaType) + ":" + i.NativeID
}

// ItemFromMetadata builds an Item from a Plex library entry.
func ItemFromMetadata(m *intsync.PlexLibraryMetadata, mt models.MediaType) Item {
	return Item{
		NativeID:  m.RatingKey,
		Title:     m.Title,
		Year:      m.Year,
		MediaType: mt,
		GUIDs:     m.GUIDs(),
		Genres:    m.GenreNames(),
		UpdatedAt: m.Changed(),
	}
}

// Match is a successful resolution.
type Match struct {
	CatalogID int
	Method    models.ResolutionMethod
}

// Strategy is one step of the resolution chain. ok is false on a miss.
// An error means the strategy could not decide, not that the item is
// unknown.
type Strategy interface {
	Method() models.ResolutionMethod
	Resolve(ctx context.Context, item Item) (Match, bool, error)
}

// Catalog is the subset of the catalog client used by the strategies.
type Catalog interface {
	FindByExternalID(ctx context.Context, source catalog.ExternalSource, id string) (*catalog.FindResult, error)
	Search(ctx context.Context, mt models.MediaType, title string, year int) ([]models.CandidateItem, error)
}

// DefaultStrategies returns the chain in resolution order.
func DefaultStrategies(cat Catalog) []Strategy {
	return []Strategy{
		DirectGUIDStrategy{},
		&IMDbStrategy{catalog: cat},
		&TVDBStrategy{catalog: cat},
		&TitleYearStrategy{catalog: cat, MinSimilarity: 0.85, YearTolerance: 1},
	}
}

var (
	tmdbGUID = regexp.MustCompile(`(?:^|[./])(?:tmdb|themoviedb)://(\d+)`)
	tmdbURL  = regexp.MustCompile(`themoviedb\.org/(movie|tv)/(\d+)`)
	imdbGUID = regexp.MustCompile(`imdb://(tt\d+)`)
	tvdbGUID = regexp.MustCompile(`(?:^|[./])(?:tvdb|thetvdb)://(\d+)`)
)

// firstMatch returns the first capture group of re across guids.
func firstMatch(re *regexp.Regexp, guids []string) (string, bool) {
	for _, g := range guids {
		if m := re.FindStringSubmatch(g); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DirectGUIDStrategy reads the TMDB id straight from the item's GUIDs.
type DirectGUIDStrategy struct{}

func (DirectGUIDStrategy) Method() models.ResolutionMethod { return models.MethodDirectGUID }

func (DirectGUIDStrategy) Resolve(_ context.Context, item Item) (Match, bool, error) {
	if id, ok := firstMatch(tmdbGUID, item.GUIDs); ok {
		if n := atoi(id); n > 0 {
			return Match{CatalogID: n, Method: models.MethodDirectGUID}, true, nil
		}
	}
	for _, g := range item.GUIDs {
		m := tmdbURL.FindStringSubmatch(g)
		if m == nil {
			continue
		}
		if m[1] != item.MediaType.CatalogPath() {
			continue
		}
		if n := atoi(m[2]); n > 0 {
			return Match{CatalogID: n, Method: models.MethodDirectGUID}, true, nil
		}
	}
	return Match{}, false, nil
}

// IMDbStrategy looks the item's IMDb id up in the catalog.
type IMDbStrategy struct {
	catalog Catalog
}

func (s *IMDbStrategy) Method() models.ResolutionMethod { return models.MethodIMDbGUID }

func (s *IMDbStrategy) Resolve(ctx context.Context, item Item) (Match, bool, error) {
	id, ok := firstMatch(imdbGUID, item.GUIDs)
	if !ok {
		return Match{}, false, nil
	}
	return findExternal(ctx, s.catalog, catalog.SourceIMDb, id, item.MediaType, models.MethodIMDbGUID)
}

// TVDBStrategy looks a show's TVDB id up in the catalog. Movies are skipped.
type TVDBStrategy struct {
	catalog Catalog
}

func (s *TVDBStrategy) Method() models.ResolutionMethod { return models.MethodTVDBGUID }

func (s *TVDBStrategy) Resolve(ctx context.Context, item Item) (Match, bool, error) {
	if item.MediaType != models.MediaTypeShow {
		return Match{}, false, nil
	}
	id, ok := firstMatch(tvdbGUID, item.GUIDs)
	if !ok {
		return Match{}, false, nil
	}
	return findExternal(ctx, s.catalog, catalog.SourceTVDB, id, item.MediaType, models.MethodTVDBGUID)
}

func findExternal(ctx context.Context, cat Catalog, source catalog.ExternalSource, id string, mt models.MediaType, method models.ResolutionMethod) (Match, bool, error) {
	res, err := cat.FindByExternalID(ctx, source, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Match{}, false, nil
		}
		return Match{}, false, err
	}
	catalogID, ok := res.First(mt)
	if !ok {
		return Match{}, false, nil
	}
	return Match{CatalogID: catalogID, Method: method}, true, nil
}

// TitleYearStrategy searches the catalog by title and accepts the top
// result only when it is close enough.
type TitleYearStrategy struct {
	catalog       Catalog
	MinSimilarity float64
	YearTolerance int
}

func (s *TitleYearStrategy) Method() models.ResolutionMethod { return models.MethodTitleYearSearch }

func (s *TitleYearStrategy) Resolve(ctx context.Context, item Item) (Match, bool, error) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return Match{}, false, nil
	}

	results, err := s.catalog.Search(ctx, item.MediaType, title, item.Year)
	if err != nil {
		return Match{}, false, err
	}
	// The catalog year filter is exact; a title released on New Year's Eve
	// in one region can be listed under the next year.
	if len(results) == 0 && item.Year > 0 {
		if results, err = s.catalog.Search(ctx, item.MediaType, title, 0); err != nil {
			return Match{}, false, err
		}
	}
	if len(results) == 0 {
		return Match{}, false, nil
	}

	top := results[0]
	if titles.Similarity(title, top.Title) < s.MinSimilarity {
		return Match{}, false, nil
	}
	if item.Year > 0 && top.Year > 0 && abs(item.Year-top.Year) > s.YearTolerance {
		return Match{}, false, nil
	}
	return Match{CatalogID: top.CatalogID, Method: models.MethodTitleYearSearch}, true, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
