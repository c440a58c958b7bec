// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordUpstreamRequest(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequests.WithLabelValues("tmdb", "discover", "200"))
	errBefore := testutil.ToFloat64(UpstreamRequests.WithLabelValues("tmdb", "discover", "error"))

	RecordUpstreamRequest("tmdb", "discover", 200, 120*time.Millisecond)
	RecordUpstreamRequest("tmdb", "discover", 0, time.Second)

	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("tmdb", "discover", "200")); got != before+1 {
		t.Errorf("200 counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("tmdb", "discover", "error")); got != errBefore+1 {
		t.Errorf("error counter = %v, want %v", got, errBefore+1)
	}
}

func TestRecordFilteredSkipsZero(t *testing.T) {
	before := testutil.ToFloat64(CandidatesFiltered.WithLabelValues("owned"))
	RecordFiltered("owned", 0)
	RecordFiltered("owned", 3)
	if got := testutil.ToFloat64(CandidatesFiltered.WithLabelValues("owned")); got != before+3 {
		t.Errorf("owned = %v, want %v", got, before+3)
	}
}

func TestSetScannerItems(t *testing.T) {
	SetScannerItems("radarr", 40, 2)
	if got := testutil.ToFloat64(ScannerItems.WithLabelValues("radarr", "true")); got != 40 {
		t.Errorf("has_file=true = %v, want 40", got)
	}
	if got := testutil.ToFloat64(ScannerItems.WithLabelValues("radarr", "false")); got != 2 {
		t.Errorf("has_file=false = %v, want 2", got)
	}
}
