// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package recommend turns taste profile seeds into a ranked page of catalog
// titles the user does not own.
//
// # Pipeline
//
// One generation cycle runs these steps:
//
//  1. Fan out per seed over the catalog (recommendations, then similar, then
//     discover by the seed's genres). Future mode discovers upcoming
//     releases instead. Per-seed results are cached for the day.
//  2. Merge in seed order, keeping the first copy of each title.
//  3. Drop owned, blocklisted and already served titles.
//  4. Apply the list filters: genres, year range, rating, region,
//     future-only and the obscure or standard vote mode.
//  5. Order by voteAverage x voteCount. Equal scores are ordered by the
//     session's shuffle seed.
//  6. Walk the ranked list, fetching details for a batch at a time, and
//     apply the filters that need them (content rating, runtime, keywords,
//     certified fresh) until the page is full.
//
// What is left after the page is the session remainder. Next serves it
// without querying the catalog for new candidates.
//
// When the seeds produce nothing usable, a popular discover query from a
// random start page fills the pool.
//
// # Modes
//
// Obscure and standard are mutually exclusive. Obscure keeps titles with
// fewer votes than the obscure threshold; standard keeps titles at or above
// it (and at or above the standard floor), in English unless a region is
// requested. A title can never be in both result sets.
//
// # Thread Safety
//
// A Generator is safe for concurrent use. The per-seed cache is the only
// shared state.
package recommend
