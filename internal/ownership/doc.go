// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package ownership decides which catalog titles a user already has.

A title is owned when any of these sources knows it:

  - a resolved alias record (the title is in the Plex library)
  - a Radarr movie with a file on disk
  - a Sonarr series with at least one episode file

The Resolver unions the sources into a models.OwnedSet, cached per media
type for a short TTL. Titles are matched by catalog id first and by
normalized title as a fallback.

Scanner keeps the Radarr and Sonarr snapshots current. Each scan holds a
timestamped lease in DuckDB so two scans of one source never overlap, even
across processes; leases older than the maximum scan duration are treated
as abandoned.
*/
package ownership
