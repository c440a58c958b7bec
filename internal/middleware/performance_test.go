// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestPerformanceMonitor_SlidingWindow(t *testing.T) {
	t.Parallel()
	pm := NewPerformanceMonitor(3, 0)

	for i := int64(1); i <= 5; i++ {
		pm.RecordRequest(&RequestMetrics{Route: "/a", Method: "GET", DurationMS: i * 10, StatusCode: 200})
	}

	recent := pm.GetRecentMetrics(10)
	if len(recent) != 3 {
		t.Fatalf("window = %d, want 3", len(recent))
	}
	if recent[0].DurationMS != 30 || recent[2].DurationMS != 50 {
		t.Errorf("window kept %v, want the last three", recent)
	}
}

func TestPerformanceMonitor_GetStats(t *testing.T) {
	t.Parallel()
	pm := NewPerformanceMonitor(100, 0)

	for _, d := range []int64{10, 20, 30, 40, 100} {
		pm.RecordRequest(&RequestMetrics{Route: "/more", Method: "POST", DurationMS: d, StatusCode: 200})
	}
	pm.RecordRequest(&RequestMetrics{Route: "/generate", Method: "POST", DurationMS: 900, StatusCode: 503})

	stats := pm.GetStats()
	if len(stats) != 2 {
		t.Fatalf("endpoints = %d, want 2", len(stats))
	}

	more := stats[0]
	if more.Endpoint != "POST /more" || more.RequestCount != 5 {
		t.Fatalf("busiest = %+v", more)
	}
	if more.AvgDuration != 40 || more.P50Duration != 30 || more.MaxDuration != 100 {
		t.Errorf("stats = %+v", more)
	}
	if stats[1].ErrorCount != 1 {
		t.Errorf("generate errors = %d, want 1", stats[1].ErrorCount)
	}
}

func TestPerformanceMonitor_Middleware(t *testing.T) {
	t.Parallel()
	pm := NewPerformanceMonitor(10, time.Nanosecond)

	r := chi.NewRouter()
	r.Use(pm.Middleware)
	r.Post("/api/v1/discovery/generate", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/discovery/generate", http.NoBody))

	recent := pm.GetRecentMetrics(1)
	if len(recent) != 1 {
		t.Fatal("request not recorded")
	}
	if recent[0].Route != "/api/v1/discovery/generate" || recent[0].StatusCode != http.StatusTooManyRequests {
		t.Errorf("recorded %+v", recent[0])
	}
}

func TestPercentile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		sorted []int64
		p      float64
		want   int64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []int64{7}, 0.99, 7},
		{"median", []int64{1, 2, 3, 4, 5}, 0.5, 3},
		{"p95 of ten", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.95, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := percentile(tt.sorted, tt.p); got != tt.want {
				t.Errorf("percentile = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPerformanceMonitor_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	pm := NewPerformanceMonitor(50, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pm.RecordRequest(&RequestMetrics{Route: "/x", Method: "GET", DurationMS: int64(j)})
				_ = pm.GetStats()
			}
		}()
	}
	wg.Wait()

	if n := len(pm.GetRecentMetrics(100)); n != 50 {
		t.Errorf("window = %d, want 50", n)
	}
}
