// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package scanner

import (
	"context"
	"strconv"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/titles"
)

// sonarrSeries is the subset of GET /api/v3/series used for ownership.
type sonarrSeries struct {
	Title      string `json:"title"`
	Year       int    `json:"year"`
	TMDBID     int    `json:"tmdbId"`
	TVDBID     int    `json:"tvdbId"`
	Monitored  bool   `json:"monitored"`
	Statistics *struct {
		EpisodeFileCount int `json:"episodeFileCount"`
	} `json:"statistics,omitempty"`
}

// TVDBFinder maps a TVDB series id to a catalog id.
type TVDBFinder interface {
	FindTVDB(ctx context.Context, tvdbID string) (int, bool, error)
}

// SonarrClient lists the series Sonarr manages.
type SonarrClient struct {
	arrClient
	finder TVDBFinder
	now    func() time.Time
}

// NewSonarrClient creates a Sonarr client. finder resolves series that
// Sonarr reports without a TMDB id; it may be nil.
func NewSonarrClient(cfg *config.ArrConfig, finder TVDBFinder) *SonarrClient {
	return &SonarrClient{arrClient: newArrClient(models.SourceSonarr, cfg), finder: finder, now: time.Now}
}

// List returns every series with a TMDB id. A series has a file when at
// least one episode file is on disk.
//
// Endpoint: GET /api/v3/series
func (c *SonarrClient) List(ctx context.Context) ([]models.ScannerItem, error) {
	var series []sonarrSeries
	if err := c.getJSON(ctx, "/api/v3/series", &series); err != nil {
		return nil, err
	}

	scannedAt := c.now().UTC()
	items := make([]models.ScannerItem, 0, len(series))
	for _, s := range series {
		id := s.TMDBID
		if id <= 0 {
			id = c.findByTVDB(ctx, s)
		}
		if id <= 0 {
			continue
		}
		items = append(items, models.ScannerItem{
			Source:          models.SourceSonarr,
			CatalogID:       id,
			MediaType:       models.MediaTypeShow,
			Title:           s.Title,
			NormalizedTitle: titles.Normalize(s.Title),
			Year:            s.Year,
			Monitored:       s.Monitored,
			HasFile:         s.Statistics != nil && s.Statistics.EpisodeFileCount > 0,
			ScannedAt:       scannedAt,
		})
	}
	return items, nil
}

func (c *SonarrClient) findByTVDB(ctx context.Context, s sonarrSeries) int {
	if c.finder == nil || s.TVDBID <= 0 {
		return 0
	}
	id, ok, err := c.finder.FindTVDB(ctx, strconv.Itoa(s.TVDBID))
	if err != nil {
		logging.Debug().Err(err).Int("tvdb_id", s.TVDBID).Str("title", s.Title).Msg("TVDB lookup failed for Sonarr series")
		return 0
	}
	if !ok {
		return 0
	}
	return id
}
