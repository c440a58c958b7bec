// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

func TestPeriodicService_Interface(t *testing.T) {
	var _ suture.Service = (*PeriodicService)(nil)
}

func TestNewPeriodicService_Defaults(t *testing.T) {
	svc := NewPeriodicService("gc", func(context.Context) error { return nil }, PeriodicConfig{})
	if svc.config.Interval != time.Hour {
		t.Errorf("interval = %v, want 1h", svc.config.Interval)
	}
	if svc.config.Timeout != time.Hour {
		t.Errorf("timeout = %v, want interval", svc.config.Timeout)
	}
	if svc.String() != "gc" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestPeriodicService_Serve(t *testing.T) {
	t.Run("runs on start and on every tick", func(t *testing.T) {
		var runs atomic.Int32
		svc := NewPeriodicService("scan", func(context.Context) error {
			runs.Add(1)
			return nil
		}, PeriodicConfig{Interval: 20 * time.Millisecond, RunOnStart: true})

		ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want deadline exceeded", err)
		}
		if got := runs.Load(); got < 3 {
			t.Errorf("runs = %d, want at least 3", got)
		}
	})

	t.Run("waits for the first tick without RunOnStart", func(t *testing.T) {
		var runs atomic.Int32
		svc := NewPeriodicService("sync", func(context.Context) error {
			runs.Add(1)
			return nil
		}, PeriodicConfig{Interval: time.Hour})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_ = svc.Serve(ctx)

		if got := runs.Load(); got != 0 {
			t.Errorf("runs = %d, want 0", got)
		}
	})

	t.Run("keeps running after failures", func(t *testing.T) {
		var runs atomic.Int32
		svc := NewPeriodicService("flaky", func(context.Context) error {
			if runs.Add(1)%2 == 0 {
				return models.ErrScanInProgress
			}
			return errors.New("upstream down")
		}, PeriodicConfig{Interval: 10 * time.Millisecond, RunOnStart: true})

		ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
		defer cancel()
		_ = svc.Serve(ctx)

		if got := runs.Load(); got < 3 {
			t.Errorf("runs = %d, want at least 3", got)
		}
	})

	t.Run("bounds each run by the timeout", func(t *testing.T) {
		deadlineSet := make(chan bool, 1)
		svc := NewPeriodicService("bounded", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			select {
			case deadlineSet <- ok:
			default:
			}
			return nil
		}, PeriodicConfig{Interval: time.Hour, Timeout: time.Minute, RunOnStart: true})

		// The parent has no deadline of its own.
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)
		_ = svc.Serve(ctx)

		if !<-deadlineSet {
			t.Error("run context has no deadline")
		}
	})
}
