// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package services adapts long-running components to suture.Service.
//
// HTTPServerService wraps an *http.Server. PeriodicService runs a Task on a
// fixed interval: ownership scans, alias sync, session store GC and the
// DuckDB checkpoint are all registered this way.
package services
