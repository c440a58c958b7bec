// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package sync

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// breaker wraps a gobreaker circuit breaker for one media server API.
//
// Only unavailability counts as a failure. A 404 for a deleted item or a
// rate limit answer means the server is up.
type breaker struct {
	cb      *gobreaker.CircuitBreaker[any]
	name    string
	service string
}

// newBreaker creates a breaker that opens after 60% failures over at least
// 10 requests within a minute, and probes again after two minutes.
func newBreaker(name, service string) *breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, models.ErrUpstreamUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &breaker{cb: cb, name: name, service: service}
}

// execute runs fn through the breaker. A rejected call is reported as the
// service being unavailable.
func execute[T any](b *breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return zero, &models.UnavailableError{Service: b.service, Err: err}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return zero, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()

	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

// State reports the breaker state as "closed", "half-open" or "open".
func (b *breaker) State() string {
	return stateToString(b.cb.State())
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreakerPlex wraps PlexClient with circuit breaker protection.
type CircuitBreakerPlex struct {
	client *PlexClient
	*breaker
}

// NewCircuitBreakerPlex creates a Plex client guarded by a circuit breaker.
func NewCircuitBreakerPlex(cfg *config.PlexConfig) *CircuitBreakerPlex {
	return &CircuitBreakerPlex{
		client:  NewPlexClient(cfg),
		breaker: newBreaker("plex-api", plexService),
	}
}

// GetHistory fetches watch history with circuit breaker protection
func (p *CircuitBreakerPlex) GetHistory(ctx context.Context, q HistoryQuery) ([]PlexMetadata, error) {
	return execute(p.breaker, func() ([]PlexMetadata, error) {
		return p.client.GetHistory(ctx, q)
	})
}

// GetAccountNames fetches server accounts with circuit breaker protection
func (p *CircuitBreakerPlex) GetAccountNames(ctx context.Context) (map[string]string, error) {
	return execute(p.breaker, func() (map[string]string, error) {
		return p.client.GetAccountNames(ctx)
	})
}

// GetLibrarySections lists library sections with circuit breaker protection
func (p *CircuitBreakerPlex) GetLibrarySections(ctx context.Context) ([]PlexLibrarySection, error) {
	return execute(p.breaker, func() ([]PlexLibrarySection, error) {
		return p.client.GetLibrarySections(ctx)
	})
}

// GetAllSectionContent lists a whole section with circuit breaker protection
func (p *CircuitBreakerPlex) GetAllSectionContent(ctx context.Context, sectionKey string) ([]PlexLibraryMetadata, error) {
	return execute(p.breaker, func() ([]PlexLibraryMetadata, error) {
		return p.client.GetAllSectionContent(ctx, sectionKey)
	})
}

// GetMetadata fetches one item with circuit breaker protection
func (p *CircuitBreakerPlex) GetMetadata(ctx context.Context, ratingKey string) (*PlexLibraryMetadata, error) {
	return execute(p.breaker, func() (*PlexLibraryMetadata, error) {
		return p.client.GetMetadata(ctx, ratingKey)
	})
}

// CircuitBreakerClient wraps TautulliClient with circuit breaker protection.
type CircuitBreakerClient struct {
	client *TautulliClient
	cfg    config.TautulliConfig
	*breaker
}

// NewCircuitBreakerClient creates a Tautulli client guarded by a circuit breaker.
func NewCircuitBreakerClient(cfg *config.TautulliConfig) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		client:  NewTautulliClient(cfg),
		cfg:     *cfg,
		breaker: newBreaker("tautulli-api", tautulliService),
	}
}

// Trending returns the configured number of popular titles over the
// configured window, with circuit breaker protection.
func (c *CircuitBreakerClient) Trending(ctx context.Context, mt models.MediaType) ([]TrendingItem, error) {
	return execute(c.breaker, func() ([]TrendingItem, error) {
		return c.client.Trending(ctx, mt, c.cfg.TimeRange, c.cfg.StatCount)
	})
}
