// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(&config.TMDBConfig{
		APIKey:         "tmdb-key",
		BaseURL:        server.URL,
		Timeout:        2 * time.Second,
		MaxConcurrency: 4,
		Cooldown:       time.Minute,
		TripThreshold:  3,
		Language:       "en-US",
	})
	c.retryDelay = time.Millisecond
	return c
}

func TestRetryOnceOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":5,"title":"Five"}]}`))
	})

	page, err := c.Recommendations(context.Background(), models.MediaTypeMovie, 1, 1)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].CatalogID != 5 {
		t.Errorf("items = %+v", page.Items)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestRetryGivesUpAfterOneRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Similar(context.Background(), models.MediaTypeShow, 1, 1)
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestNoRetryOnNotFound(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})

	_, err := c.Details(context.Background(), models.MediaTypeMovie, 404, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestNoRetryOnRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Details(context.Background(), models.MediaTypeMovie, 1, "")
	if !errors.Is(err, models.ErrUpstreamRateLimited) {
		t.Fatalf("error = %v, want ErrUpstreamRateLimited", err)
	}
	if got, _ := models.RetryAfter(err); got != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", got)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestBreakerCooldownReturnsRateLimited(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	for i := 0; i < 3; i++ {
		_, _ = c.Recommendations(context.Background(), models.MediaTypeMovie, 1, 1)
	}
	before := calls.Load()

	_, err := c.Recommendations(context.Background(), models.MediaTypeMovie, 1, 1)
	var rl *models.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want *RateLimitedError", err)
	}
	if rl.RetryAfter <= 0 || rl.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within cooldown", rl.RetryAfter)
	}
	if calls.Load() != before {
		t.Error("open breaker must not reach the network")
	}
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})

	for i := 0; i < 10; i++ {
		if _, err := c.Details(context.Background(), models.MediaTypeMovie, i, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("call %d error = %v, want ErrNotFound", i, err)
		}
	}
	if got := calls.Load(); got != 10 {
		t.Errorf("calls = %d, want 10", got)
	}
}

func TestNotConfigured(t *testing.T) {
	t.Parallel()

	c := NewClient(&config.TMDBConfig{BaseURL: "http://127.0.0.1:1"})
	if _, err := c.Search(context.Background(), models.MediaTypeMovie, "x", 0); !errors.Is(err, models.ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestUnreachableIsUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c := NewClient(&config.TMDBConfig{APIKey: "k", BaseURL: addr, Timeout: time.Second})
	c.retryDelay = time.Millisecond
	_, err := c.Discover(context.Background(), models.MediaTypeMovie, DiscoverQuery{})
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Recommendations(ctx, models.MediaTypeMovie, 1, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRequestCarriesKeyAndLanguage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "tmdb-key" || q.Get("language") != "en-US" {
			t.Errorf("query = %v", q)
		}
		if r.URL.Path != "/tv/7/recommendations" || q.Get("page") != "2" {
			t.Errorf("request = %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"page":2,"total_pages":3,"results":[]}`))
	})

	page, err := c.Recommendations(context.Background(), models.MediaTypeShow, 7, 2)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if page.Page != 2 || page.TotalPages != 3 {
		t.Errorf("page = %+v", page)
	}
}
