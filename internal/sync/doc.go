// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package sync provides the media server clients that feed the recommendation
engine: Plex for watch history and library contents, and Tautulli for
server-wide trending titles.

Key Components:

  - PlexClient: watch history, library sections, section contents with
    external GUIDs, single item metadata and account names
  - TautulliClient: get_home_stats, reduced to trending titles per media type
  - CircuitBreakerPlex / CircuitBreakerClient: gobreaker wrappers used in
    production so an unreachable server fails fast

Plex Client Organization:
  - plex.go: Core PlexClient struct, history types and paged history reads
  - plex_request.go: HTTP request helpers, 429 backoff and metrics
  - plex_library.go: Library sections, contents and metadata
  - plex_history.go: Conversion of history rows (episodes collapse to shows)
  - plex_accounts.go: Account id to name lookup for ignored users

Error Handling:

Transport failures and 5xx answers are returned as *models.UnavailableError,
so callers can test errors.Is(err, models.ErrUpstreamUnavailable). A server
that keeps answering 429 past the retry budget yields *models.RateLimitedError.
An open circuit breaker is reported as unavailable.

Thread Safety:

All clients are safe for concurrent use.
*/
package sync
