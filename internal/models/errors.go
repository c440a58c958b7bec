// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package models

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by clients, resolvers and the API layer.
var (
	// ErrUpstreamUnavailable means the catalog or media server could not be
	// reached or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamRateLimited means a client is in its cooldown window.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")

	// ErrResolutionMiss means no alias strategy matched. Not a failure.
	ErrResolutionMiss = errors.New("alias resolution miss")

	// ErrEmptyHistory means the user has no usable watch history.
	ErrEmptyHistory = errors.New("empty watch history")

	// ErrSessionExpired means the session key is unknown or was discarded.
	ErrSessionExpired = errors.New("session expired")

	// ErrScanInProgress means another scan holds the source's lease.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrStaleCycle means a generation finished after its session moved on.
	ErrStaleCycle = errors.New("generation cycle superseded")

	// ErrNotConfigured means an optional collaborator is disabled.
	ErrNotConfigured = errors.New("service not configured")
)

// RateLimitedError carries how long the caller should wait.
type RateLimitedError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s rate limited, retry after %s", e.Service, e.RetryAfter.Round(time.Second))
}

// Unwrap lets errors.Is match ErrUpstreamRateLimited.
func (e *RateLimitedError) Unwrap() error {
	return ErrUpstreamRateLimited
}

// UnavailableError wraps the transport failure behind ErrUpstreamUnavailable.
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

// Unwrap lets errors.Is match both ErrUpstreamUnavailable and the cause.
func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

// RetryAfter extracts the retry hint from err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
