// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// AcquireLease takes the scan lease of source for holder. A lease older
// than maxAge is treated as abandoned and taken over. It returns
// models.ErrScanInProgress when a live lease exists.
func (db *DB) AcquireLease(ctx context.Context, source models.ScannerSource, holder string, maxAge time.Duration) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := db.now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM scan_leases WHERE source = ? AND acquired_at < ?`,
		string(source), now.Add(-maxAge)); err != nil {
		return fmt.Errorf("failed to expire %s lease: %w", source, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO scan_leases (source, holder, acquired_at) VALUES (?, ?, ?)
		ON CONFLICT (source) DO NOTHING`,
		string(source), holder, now)
	if err != nil {
		return fmt.Errorf("failed to acquire %s lease: %w", source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrScanInProgress
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s lease: %w", source, err)
	}
	return nil
}

// ReleaseLease drops the lease of source if holder still owns it.
func (db *DB) ReleaseLease(ctx context.Context, source models.ScannerSource, holder string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM scan_leases WHERE source = ? AND holder = ?`,
		string(source), holder); err != nil {
		return fmt.Errorf("failed to release %s lease: %w", source, err)
	}
	return nil
}

// ClearStaleLeases removes leases older than maxAge. A zero maxAge clears
// every lease, which is what startup does: no scan survives a restart.
func (db *DB) ClearStaleLeases(ctx context.Context, maxAge time.Duration) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM scan_leases WHERE acquired_at <= ?`, db.now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to clear stale leases: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
