// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package alias maps media server library items to catalog (TMDB) ids.

Plex identifies items by rating key. Everything downstream (ownership,
seeds, exclusion) works on TMDB ids, so every library item is resolved
once and the result is stored in DuckDB as an alias record.

# Strategy Chain

Resolution tries strategies in order and the first match wins:

 1. DirectGUIDStrategy: the item already carries tmdb://N
 2. IMDbStrategy: imdb://ttN looked up through /find
 3. TVDBStrategy: shows only, tvdb://N looked up through /find
 4. TitleYearStrategy: search by title and year, accepted only when the
    normalized titles are at least 85% similar and the years differ by
    at most one

When every strategy misses, a record with catalog id 0 and method
"unresolved" is stored. It never counts as owned and is not retried until
the item changes or a force refresh is requested.

# Sync

Index.Sync walks every movie and show library section, re-resolves new or
changed items (at most MaxResolvesPerRun per run; the rest are picked up
by the next run) and deletes records for items no longer in the library.
*/
package alias
