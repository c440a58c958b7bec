// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package config provides centralized configuration management for Smart Discovery.

Configuration is layered with koanf. Later sources override earlier ones:

 1. Defaults from defaultConfig()
 2. A YAML file: CONFIG_PATH, else the first of DefaultConfigPaths that exists
 3. Environment variables listed in envMappings

# Configuration Structure

  - ServerConfig: HTTP listener, CORS and per-IP rate limiting
  - DatabaseConfig: DuckDB file holding aliases, blocklist, scanner snapshots and leases
  - SessionConfig: discovery session store (memory or badger) and idle TTL
  - PlexConfig: watch history source, ignored users and libraries
  - TautulliConfig: optional trending fallback (get_home_stats)
  - TMDBConfig: catalog client throttle, concurrency cap and cooldown
  - ArrConfig: Radarr and Sonarr snapshot scanners
  - OMDbConfig: optional critic scores for the certified fresh filter
  - DiscoveryConfig: seed count, page sizes and filter thresholds
  - ScannerConfig: lease staleness for scanner mutual exclusion

# Environment Variables

Common variables:

  - PLEX_URL, PLEX_TOKEN: required
  - TMDB_API_KEY: required
  - PLEX_IGNORED_USERS, PLEX_IGNORED_LIBRARIES: comma-separated ids
  - TAUTULLI_ENABLED, TAUTULLI_URL, TAUTULLI_API_KEY, TAUTULLI_TIME_RANGE
  - RADARR_ENABLED, RADARR_URL, RADARR_API_KEY (same for SONARR_*)
  - OMDB_ENABLED, OMDB_API_KEY
  - DUCKDB_PATH, SESSION_STORE, SESSION_STORE_PATH, SESSION_TTL
  - HTTP_PORT, HTTP_HOST, CORS_ORIGINS, LOG_LEVEL, LOG_FORMAT

Unmapped environment variables are ignored.

# Validation

Validate runs one validator per section and returns the first error, phrased
in terms of the environment variable to fix:

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
*/
package config
