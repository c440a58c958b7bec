// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/alias"
	"github.com/tomtom215/smartdiscovery/internal/discovery"
	"github.com/tomtom215/smartdiscovery/internal/middleware"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/ownership"
)

// Discovery is the service behind the discovery endpoints.
// *discovery.Service implements it.
type Discovery interface {
	Generate(ctx context.Context, req discovery.GenerateRequest) (*discovery.GenerateResult, error)
	LoadMore(ctx context.Context, req discovery.LoadMoreRequest) (*discovery.LoadMoreResult, error)
	Blocklist(ctx context.Context, req discovery.BlocklistRequest) (*models.BlocklistEntry, error)
	Unblocklist(ctx context.Context, catalogID int, mt models.MediaType) (bool, error)
	ListBlocklist(ctx context.Context, mt models.MediaType) ([]models.BlocklistEntry, error)
	ForceRefreshOwnership(ctx context.Context) ([]*ownership.ScanResult, error)
	RefreshAliases(ctx context.Context) (*alias.SyncResult, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter exposes an upstream circuit breaker's state.
type BreakerReporter interface {
	State() string
}

// Handler handles HTTP requests for the API endpoints
type Handler struct {
	discovery Discovery
	db        Pinger
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time
	version   string

	mu       sync.RWMutex
	breakers map[string]BreakerReporter
}

// NewHandler creates a new Handler. db and perfMon may be nil.
func NewHandler(svc Discovery, db Pinger, perfMon *middleware.PerformanceMonitor, version string) *Handler {
	return &Handler{
		discovery: svc,
		db:        db,
		perfMon:   perfMon,
		startTime: time.Now(),
		version:   version,
		breakers:  make(map[string]BreakerReporter),
	}
}

// RegisterBreaker adds an upstream breaker to the health report.
func (h *Handler) RegisterBreaker(name string, b BreakerReporter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.breakers[name] = b
}

// breakerStates snapshots every registered breaker, sorted by name.
func (h *Handler) breakerStates() []BreakerStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]BreakerStatus, 0, len(h.breakers))
	for name, b := range h.breakers {
		out = append(out, BreakerStatus{Name: name, State: b.State()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
