// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package middleware provides HTTP instrumentation for the discovery API.

Key Components:

  - PrometheusMetrics: request counts and latency per route
  - PerformanceMonitor: in-process latency percentiles over a sliding
    window of recent requests, reported by the health endpoint

Both label requests by their chi route pattern ("/api/v1/discovery/more")
rather than the raw path, so path parameters never create new series.
Requests that matched no route are labelled "unmatched".

Usage:

	r := chi.NewRouter()
	r.Use(middleware.PrometheusMetrics)
	r.Use(perfMon.Middleware)
*/
package middleware
