// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package models defines the data structures shared by every Smart Discovery
package.

Catalog identifiers are TMDB ids. Native identifiers are Plex rating keys.
A title is addressed everywhere by the pair (CatalogID, MediaType) since
TMDB movie and tv ids overlap.

Model groups:

  - History and seeds: WatchHistoryEntry, Seed
  - Catalog output: CandidateItem, Filters
  - Ownership: AliasRecord, ScannerItem, OwnedSet, BlocklistEntry
  - Browsing: SessionState
  - API envelope: APIResponse, APIError, Metadata
  - Error taxonomy: ErrUpstreamUnavailable, RateLimitedError and friends
*/
package models
