// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package session stores discovery sessions.

A session holds what one browsing interaction has served and the ranked
titles it has not reached yet. Two stores implement Store:

  - MemoryStore: process-local, backed by cache.TTLCache
  - BadgerStore: survives restarts, backed by BadgerDB with native TTLs

Commit is the only way to update a session. It succeeds only if the stored
session is still at the cycle the caller read, so a generation that was
overtaken by a regenerate or a filter change cannot overwrite the newer
state. It returns models.ErrStaleCycle in that case.

Locker serializes requests on one session key while leaving other sessions
alone.
*/
package session
