// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

func unavailable() error {
	return &models.UnavailableError{Service: "test", Err: errors.New("connection refused")}
}

// TestBreakerOpensAfterFailures verifies the circuit opens at 60% failures over 10 requests
func TestBreakerOpensAfterFailures(t *testing.T) {
	b := newBreaker("test-open", "test")

	for i := 0; i < 10; i++ {
		_, _ = execute(b, func() (string, error) {
			if i < 7 {
				return "", unavailable()
			}
			return "ok", nil
		})
	}

	if b.cb.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	called := false
	_, err := execute(b, func() (string, error) {
		called = true
		return "ok", nil
	})
	if called {
		t.Error("function ran while circuit open")
	}
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("error = %v, want ErrUpstreamUnavailable", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want to wrap ErrOpenState", err)
	}
}

// TestBreakerIgnoresClientErrors verifies non-availability errors never trip the circuit
func TestBreakerIgnoresClientErrors(t *testing.T) {
	b := newBreaker("test-client-errors", "test")

	for i := 0; i < 20; i++ {
		_, err := execute(b, func() (int, error) {
			return 0, fmt.Errorf("status 404")
		})
		if err == nil {
			t.Fatal("expected error to pass through")
		}
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestBreakerPassesResult(t *testing.T) {
	t.Parallel()

	b := newBreaker("test-result", "test")
	got, err := execute(b, func() ([]int, error) { return []int{1, 2}, nil })
	if err != nil || len(got) != 2 {
		t.Errorf("execute() = %v, %v", got, err)
	}

	// A nil typed result must not panic on assertion.
	var nilMap map[string]string
	m, err := execute(b, func() (map[string]string, error) { return nilMap, nil })
	if err != nil || m != nil {
		t.Errorf("execute() = %v, %v", m, err)
	}
}

func TestCircuitBreakerClientTrending(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("stats_count"); got != "3" {
			t.Errorf("stats_count = %q, want 3", got)
		}
		_, _ = w.Write([]byte(homeStatsBody))
	}))
	defer server.Close()

	cbc := NewCircuitBreakerClient(&config.TautulliConfig{URL: server.URL, APIKey: "k", TimeRange: 30, StatCount: 3})
	items, err := cbc.Trending(context.Background(), models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len(items) = %d, want 3", len(items))
	}
}

func TestStateToString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state gobreaker.State
		str   string
		num   float64
	}{
		{gobreaker.StateClosed, "closed", 0},
		{gobreaker.StateHalfOpen, "half-open", 1},
		{gobreaker.StateOpen, "open", 2},
	}
	for _, tt := range tests {
		if got := stateToString(tt.state); got != tt.str {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.str)
		}
		if got := stateToFloat(tt.state); got != tt.num {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.num)
		}
	}
}
