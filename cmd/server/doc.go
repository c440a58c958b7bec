// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package main is the entry point for the Smart Discovery server.

Smart Discovery recommends films and shows a Plex user does not own yet.
Taste profiles come from the user's watch history, candidates from the
TMDB catalog, and ownership from the Plex library plus Radarr and Sonarr.

# Application Architecture

	RootSupervisor ("smartdiscovery")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── scan-radarr, scan-sonarr (when enabled)
	│   ├── alias-sync
	│   ├── session-gc or session-cleanup
	│   └── db-checkpoint
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Initialization order:

 1. Configuration: koanf with defaults, config file and environment
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB with versioned migrations; stale scan leases cleared
 4. Clients: TMDB, Plex and Tautulli behind circuit breakers, OMDb, *arr
 5. Discovery: alias index, profile builder, generator, session store
 6. Supervisor tree: maintenance tasks and the HTTP server

# Configuration

Required:

	PLEX_URL, PLEX_TOKEN   history source and library
	TMDB_API_KEY           catalog

Optional collaborators are enabled with TAUTULLI_ENABLED, RADARR_ENABLED,
SONARR_ENABLED and OMDB_ENABLED. SESSION_STORE=badger keeps sessions
across restarts in SESSION_STORE_PATH.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests for HTTP_SHUTDOWN_TIMEOUT, then the database and the
session store are closed.
*/
package main
