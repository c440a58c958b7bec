// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package metrics holds the Prometheus collectors for Smart Discovery.
//
// Collectors are registered on the default registry through promauto and
// exposed by the API router at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream client metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_upstream_requests_total",
			Help: "Requests sent to upstream services",
		},
		[]string{"service", "endpoint", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_upstream_request_duration_seconds",
			Help:    "Latency of upstream requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "endpoint"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_upstream_retries_total",
			Help: "Upstream requests retried after a transient failure",
		},
		[]string{"service"},
	)

	CatalogInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discovery_catalog_in_flight",
			Help: "Catalog requests currently holding a concurrency slot",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits",
		},
		[]string{"cache_type"}, // history, keyword, seed_results
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Entries removed by expiry or capacity",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Discovery metrics
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_generation_duration_seconds",
			Help:    "Duration of one recommendation generation cycle",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"mode"}, // standard, obscure, future
	)

	GenerationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_generation_candidates",
			Help:    "Unique candidates fetched per generation cycle",
			Buckets: prometheus.ExponentialBuckets(10, 2, 9),
		},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_candidates_filtered_total",
			Help: "Candidates removed by exclusion or filter",
		},
		[]string{"reason"},
	)

	ItemsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_items_served_total",
			Help: "Items returned to clients",
		},
		[]string{"operation"}, // generate, load_more
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_sessions_expired_total",
			Help: "Load-more calls that hit an unknown session and regenerated",
		},
	)

	StaleCyclesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_stale_cycles_dropped_total",
			Help: "Generation results dropped because their session moved on",
		},
	)

	SeedSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_profile_seed_source_total",
			Help: "Where taste profile seeds came from",
		},
		[]string{"source"}, // history, override, trending, none
	)

	// Ownership metrics
	ScannerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_scanner_runs_total",
			Help: "Adjacent catalog scans by outcome",
		},
		[]string{"source", "result"}, // success, failure, skipped
	)

	ScannerItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "discovery_scanner_items",
			Help: "Items in the latest scanner snapshot",
		},
		[]string{"source", "has_file"},
	)

	StaleLeasesCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_stale_leases_cleared_total",
			Help: "Scan leases cleared at startup after an unclean shutdown",
		},
	)

	AliasResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_alias_resolutions_total",
			Help: "Alias resolutions by method",
		},
		[]string{"method"},
	)

	OwnedSetSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "discovery_owned_set_size",
			Help: "Catalog ids in the most recent owned set",
		},
		[]string{"media_type"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordUpstreamRequest records one upstream call.
func RecordUpstreamRequest(service, endpoint string, status int, duration time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	UpstreamRequests.WithLabelValues(service, endpoint, label).Inc()
	UpstreamRequestDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordScannerRun records the outcome of one adjacent catalog scan.
func RecordScannerRun(source, result string) {
	ScannerRuns.WithLabelValues(source, result).Inc()
}

// SetScannerItems publishes the size of a scanner snapshot.
func SetScannerItems(source string, withFile, withoutFile int) {
	ScannerItems.WithLabelValues(source, "true").Set(float64(withFile))
	ScannerItems.WithLabelValues(source, "false").Set(float64(withoutFile))
}

// RecordFiltered adds n candidates removed for reason.
func RecordFiltered(reason string, n int) {
	if n > 0 {
		CandidatesFiltered.WithLabelValues(reason).Add(float64(n))
	}
}
