// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package scanner reads the adjacent catalogs (Radarr for movies, Sonarr for
// series) whose snapshots feed the ownership resolver.
package scanner
