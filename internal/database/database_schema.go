// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
database_schema.go - Database Schema Management

Tables:
  - alias_records: Library item to catalog id mappings, including stored
    misses (catalog_id = 0). Unique on (native_id, media_type).
  - blocklist: Titles permanently excluded from discovery.
  - scanner_items: Latest snapshot of each adjacent catalog (Radarr, Sonarr).
  - scan_leases: One row per scanner source while a scan runs.

Timestamps are stored as UTC TIMESTAMP values written by the application,
so no time zone extension is required.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS alias_records (
			native_id VARCHAR NOT NULL,
			media_type VARCHAR NOT NULL,
			native_title VARCHAR NOT NULL,
			normalized_title VARCHAR NOT NULL,
			year INTEGER NOT NULL DEFAULT 0,
			catalog_id INTEGER NOT NULL DEFAULT 0,
			method VARCHAR NOT NULL,
			source_updated_at TIMESTAMP,
			resolved_at TIMESTAMP NOT NULL,
			PRIMARY KEY (native_id, media_type)
		);`,

		`CREATE TABLE IF NOT EXISTS blocklist (
			catalog_id INTEGER NOT NULL,
			media_type VARCHAR NOT NULL,
			title VARCHAR NOT NULL DEFAULT '',
			added_by VARCHAR NOT NULL DEFAULT '',
			added_at TIMESTAMP NOT NULL,
			PRIMARY KEY (catalog_id, media_type)
		);`,

		`CREATE TABLE IF NOT EXISTS scanner_items (
			source VARCHAR NOT NULL,
			catalog_id INTEGER NOT NULL,
			media_type VARCHAR NOT NULL,
			title VARCHAR NOT NULL,
			normalized_title VARCHAR NOT NULL,
			year INTEGER NOT NULL DEFAULT 0,
			monitored BOOLEAN NOT NULL DEFAULT false,
			has_file BOOLEAN NOT NULL DEFAULT false,
			scanned_at TIMESTAMP NOT NULL,
			PRIMARY KEY (source, catalog_id, media_type)
		);`,

		`CREATE TABLE IF NOT EXISTS scan_leases (
			source VARCHAR PRIMARY KEY,
			holder VARCHAR NOT NULL,
			acquired_at TIMESTAMP NOT NULL
		);`,
	}
}

// createIndexes creates indexes for the lookups done per request
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

func getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_alias_catalog ON alias_records(media_type, catalog_id);`,
		`CREATE INDEX IF NOT EXISTS idx_scanner_owned ON scanner_items(media_type, has_file);`,
	}
}
