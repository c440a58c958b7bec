// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package ownership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/scanner"
)

// SnapshotStore persists scanner snapshots and leases. Implemented by
// *database.DB.
type SnapshotStore interface {
	AcquireLease(ctx context.Context, source models.ScannerSource, holder string, maxAge time.Duration) error
	ReleaseLease(ctx context.Context, source models.ScannerSource, holder string) error
	ReplaceScannerItems(ctx context.Context, source models.ScannerSource, items []models.ScannerItem) error
}

// LeaseCleaner removes abandoned leases. Implemented by *database.DB.
type LeaseCleaner interface {
	ClearStaleLeases(ctx context.Context, maxAge time.Duration) (int64, error)
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Source      models.ScannerSource `json:"source"`
	WithFile    int                  `json:"with_file"`
	WithoutFile int                  `json:"without_file"`
	Duration    time.Duration        `json:"duration"`
}

// Scanner refreshes the snapshot of one adjacent catalog.
type Scanner struct {
	source   scanner.Source
	store    SnapshotStore
	resolver *Resolver
	maxAge   time.Duration
}

// NewScanner creates a scanner for source. maxAge bounds a scan and is the
// age after which its lease counts as abandoned.
func NewScanner(source scanner.Source, store SnapshotStore, resolver *Resolver, maxAge time.Duration) *Scanner {
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	return &Scanner{source: source, store: store, resolver: resolver, maxAge: maxAge}
}

// Source returns the scanned catalog.
func (s *Scanner) Source() models.ScannerSource {
	return s.source.Name()
}

// Scan lists the catalog and replaces its stored snapshot. It returns
// models.ErrScanInProgress when another scan of the source holds the lease.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	name := s.source.Name()
	holder := uuid.NewString()

	if err := s.store.AcquireLease(ctx, name, holder, s.maxAge); err != nil {
		if errors.Is(err, models.ErrScanInProgress) {
			metrics.RecordScannerRun(string(name), "skipped")
		}
		return nil, err
	}
	defer func() {
		// The scan context may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.store.ReleaseLease(releaseCtx, name, holder); err != nil {
			logging.Warn().Err(err).Str("source", string(name)).Msg("Failed to release scan lease")
		}
	}()

	// A scan running past maxAge could have its lease taken over
	ctx, cancel := context.WithTimeout(ctx, s.maxAge)
	defer cancel()

	start := time.Now()
	items, err := s.source.List(ctx)
	if err != nil {
		metrics.RecordScannerRun(string(name), "failure")
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}
	if err := s.store.ReplaceScannerItems(ctx, name, items); err != nil {
		metrics.RecordScannerRun(string(name), "failure")
		return nil, fmt.Errorf("store %s snapshot: %w", name, err)
	}
	if s.resolver != nil {
		s.resolver.Invalidate()
	}

	res := &ScanResult{Source: name, Duration: time.Since(start)}
	for i := range items {
		if items[i].HasFile {
			res.WithFile++
		} else {
			res.WithoutFile++
		}
	}
	metrics.SetScannerItems(string(name), res.WithFile, res.WithoutFile)
	metrics.RecordScannerRun(string(name), "success")

	logging.Info().
		Str("source", string(name)).
		Int("with_file", res.WithFile).
		Int("without_file", res.WithoutFile).
		Dur("duration", res.Duration).
		Msg("Scanner snapshot refreshed")
	return res, nil
}

// ScanAll runs every scanner concurrently. Results of successful scans are
// returned alongside the joined errors of the failed ones, so
// errors.Is(err, models.ErrScanInProgress) reports a held lease.
func ScanAll(ctx context.Context, scanners []*Scanner) ([]*ScanResult, error) {
	p := pool.NewWithResults[*ScanResult]().WithErrors().WithContext(ctx)
	for _, s := range scanners {
		p.Go(func(ctx context.Context) (*ScanResult, error) {
			return s.Scan(ctx)
		})
	}
	return p.Wait()
}

// ClearStaleLeases drops leases older than maxAge. Run on startup so a scan
// killed mid-run does not block its source until the lease ages out.
func ClearStaleLeases(ctx context.Context, store LeaseCleaner, maxAge time.Duration) error {
	n, err := store.ClearStaleLeases(ctx, maxAge)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.StaleLeasesCleared.Add(float64(n))
		logging.Warn().Int64("count", n).Msg("Cleared stale scan leases")
	}
	return nil
}
