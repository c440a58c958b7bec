// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package cache

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
)

// Option configures a cache.
type Option func(*options)

type options struct {
	name string
	now  func() time.Time
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName labels the cache in Prometheus metrics. Unnamed caches are not
// reported.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithClock replaces time.Now. Tests use it to step over expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func (o *options) hit() {
	if o.name != "" {
		metrics.CacheHits.WithLabelValues(o.name).Inc()
	}
}

func (o *options) miss() {
	if o.name != "" {
		metrics.CacheMisses.WithLabelValues(o.name).Inc()
	}
}

func (o *options) evicted(n int) {
	if o.name != "" && n > 0 {
		metrics.CacheEvictions.WithLabelValues(o.name).Add(float64(n))
	}
}

func (o *options) size(n int) {
	if o.name != "" {
		metrics.CacheSize.WithLabelValues(o.name).Set(float64(n))
	}
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// HitRate is Hits / (Hits + Misses) as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// GenerateKey builds a compact key from a prefix and any JSON-encodable
// parameters.
func GenerateKey(prefix string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", prefix, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}
