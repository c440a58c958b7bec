// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package main

import (
	"fmt"

	"github.com/tomtom215/smartdiscovery/internal/alias"
	"github.com/tomtom215/smartdiscovery/internal/catalog"
	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/critic"
	"github.com/tomtom215/smartdiscovery/internal/database"
	"github.com/tomtom215/smartdiscovery/internal/discovery"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/ownership"
	"github.com/tomtom215/smartdiscovery/internal/profile"
	"github.com/tomtom215/smartdiscovery/internal/recommend"
	"github.com/tomtom215/smartdiscovery/internal/scanner"
	"github.com/tomtom215/smartdiscovery/internal/session"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
)

// components holds everything the supervisor and the API need.
type components struct {
	db       *database.DB
	catalog  *catalog.Client
	plex     *intsync.CircuitBreakerPlex
	tautulli *intsync.CircuitBreakerClient // nil when disabled
	aliases  *alias.Index
	owned    *ownership.Resolver
	scanners []*ownership.Scanner
	sessions session.Store
	service  *discovery.Service
}

// scanInterval pairs a scanner with its refresh interval.
type scanInterval struct {
	scanner *ownership.Scanner
	cfg     config.ArrConfig
}

// initComponents builds the collaborator graph. The caller owns db.
func initComponents(cfg *config.Config, db *database.DB) (*components, []scanInterval, error) {
	c := &components{db: db}

	c.catalog = catalog.NewClient(&cfg.TMDB)
	keywords := catalog.NewKeywordResolver(c.catalog, cfg.Discovery.KeywordCacheSize)

	var critics recommend.CriticScorer
	if cfg.OMDb.Enabled {
		critics = critic.NewOMDbClient(&cfg.OMDb)
		logging.Info().Msg("Critic scores enabled (OMDb)")
	}

	c.plex = intsync.NewCircuitBreakerPlex(&cfg.Plex)

	var trending profile.TrendingSource
	if cfg.Tautulli.Enabled {
		c.tautulli = intsync.NewCircuitBreakerClient(&cfg.Tautulli)
		trending = c.tautulli
		logging.Info().Str("url", cfg.Tautulli.URL).Msg("Trending fallback enabled (Tautulli)")
	}

	c.aliases = alias.NewIndex(db, c.plex, alias.DefaultStrategies(c.catalog), alias.Options{
		MaxResolvesPerRun: cfg.Discovery.MaxResolvesPerRun,
		IgnoredSections:   cfg.Plex.IgnoredLibraries,
	})

	profiles := profile.NewBuilder(c.plex, trending, c.aliases, profile.Options{
		HistoryLimit:    cfg.Plex.HistoryLimit,
		HistoryPageSize: cfg.Plex.HistoryPageSize,
		HistoryTTL:      cfg.Discovery.HistoryTTL,
		PerUserHistory:  cfg.Plex.PerUserHistory,
		IgnoredUsers:    cfg.Plex.IgnoredUsers,
		IgnoredSections: cfg.Plex.IgnoredLibraries,
		SeedCount:       cfg.Discovery.SeedCount,
	})

	c.owned = ownership.NewResolver(db, cfg.Scanner.OwnedSetTTL)

	var intervals []scanInterval
	if cfg.Radarr.Enabled {
		sc := ownership.NewScanner(scanner.NewRadarrClient(&cfg.Radarr), db, c.owned, cfg.Scanner.MaxScanDuration)
		intervals = append(intervals, scanInterval{scanner: sc, cfg: cfg.Radarr})
	}
	if cfg.Sonarr.Enabled {
		sc := ownership.NewScanner(scanner.NewSonarrClient(&cfg.Sonarr, c.catalog), db, c.owned, cfg.Scanner.MaxScanDuration)
		intervals = append(intervals, scanInterval{scanner: sc, cfg: cfg.Sonarr})
	}
	for _, si := range intervals {
		c.scanners = append(c.scanners, si.scanner)
	}

	gen, err := recommend.NewGenerator(c.catalog, keywords, critics, recommend.ConfigFrom(&cfg.Discovery, &cfg.TMDB))
	if err != nil {
		return nil, nil, fmt.Errorf("create generator: %w", err)
	}

	c.sessions, err = session.New(&cfg.Session)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}

	c.service = discovery.NewService(discovery.Deps{
		Profiles:    profiles,
		Recommender: gen,
		Ownership:   c.owned,
		Blocklist:   db,
		Aliases:     c.aliases,
		Scanners:    c.scanners,
		Sessions:    c.sessions,
	}, discovery.Options{
		GeneratePageSize: cfg.Discovery.GeneratePageSize,
		LoadMorePageSize: cfg.Discovery.LoadMorePageSize,
		MaxEmptyCycles:   cfg.Discovery.MaxEmptyCycles,
	})

	logging.Info().
		Int("scanners", len(c.scanners)).
		Str("session_store", cfg.Session.Store).
		Bool("critic", cfg.OMDb.Enabled).
		Bool("trending", cfg.Tautulli.Enabled).
		Msg("Discovery components initialized")
	return c, intervals, nil
}
