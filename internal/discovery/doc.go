// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package discovery exposes the operations behind the HTTP API.

A browsing session starts with Generate: the user's taste profile is
built, one generation cycle runs, the first page is returned and the rest
of the ranked list is kept in the session store under a new session key.
Starting a new session discards the user's previous one.

LoadMore serves the next page from the stored remainder. When the
remainder runs dry a new generation cycle runs with freshly sampled seeds.
The session is exhausted after MaxEmptyCycles consecutive cycles that
produced nothing new. A session that expired, or whose filters changed,
is regenerated when the request carries the user id. Filters left out of
the request are those of the user's last Generate, remembered for
Options.RememberFor.

Concurrency:

  - LoadMore calls on one session key are serialized by session.Locker.
  - Every write goes through Store.Commit with the cycle the work started
    from, so a result computed for a session that has since been
    regenerated or deleted is dropped with models.ErrStaleCycle.

Maintenance operations (blocklist edits, ownership scans, alias refresh)
act on shared state and affect every session from their next page on.
*/
package discovery
