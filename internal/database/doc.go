// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package database provides DuckDB-backed persistence for Smart Discovery.

The database holds the durable state that must survive restarts:

  - Alias records mapping library items (Plex rating keys) to catalog ids,
    including stored misses so unresolvable items are not retried on every
    sync.
  - The blocklist of titles users never want recommended.
  - The latest snapshot of each adjacent catalog scan (Radarr, Sonarr).
  - Scan leases that keep two scans of the same source from overlapping,
    across processes sharing one database file.

Session state is not stored here; see package session.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	if err := db.UpsertAlias(ctx, &record); err != nil {
	    return err
	}

# Schema Management

Tables are created with CREATE TABLE IF NOT EXISTS on startup. Later changes
are applied as append-only versioned migrations tracked in schema_migrations.

# Thread Safety

DB is safe for concurrent use. Writes that must be atomic (a scan snapshot
replace, a lease acquisition) run in a single transaction.
*/
package database
