// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package main

import (
	"context"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/session"
	"github.com/tomtom215/smartdiscovery/internal/supervisor/services"
)

const (
	sessionGCInterval = 10 * time.Minute
	checkpointEvery   = time.Hour
)

// maintenanceTask is one periodic job of the maintenance layer.
type maintenanceTask struct {
	name string
	task services.Task
	cfg  services.PeriodicConfig
}

// maintenanceTasks lists the periodic jobs for the configured components.
func maintenanceTasks(cfg *config.Config, c *components, scans []scanInterval) []maintenanceTask {
	var tasks []maintenanceTask

	for _, si := range scans {
		sc := si.scanner
		tasks = append(tasks, maintenanceTask{
			name: "scan-" + string(sc.Source()),
			task: func(ctx context.Context) error {
				_, err := sc.Scan(ctx)
				return err
			},
			cfg: services.PeriodicConfig{Interval: si.cfg.Interval, RunOnStart: true, Timeout: cfg.Scanner.MaxScanDuration},
		})
	}

	if c.aliases != nil {
		idx, owned := c.aliases, c.owned
		tasks = append(tasks, maintenanceTask{
			name: "alias-sync",
			task: func(ctx context.Context) error {
				res, err := idx.Sync(ctx)
				if err != nil {
					return err
				}
				if owned != nil {
					owned.Invalidate()
				}
				logging.Info().
					Int("resolved", res.Resolved).
					Int("unresolved", res.Unresolved).
					Int("deferred", res.Deferred).
					Msg("Alias sync finished")
				return nil
			},
			cfg: services.PeriodicConfig{Interval: cfg.Discovery.AliasSyncInterval, RunOnStart: true},
		})
	}

	svc := c.service
	forgetUsers := func() {
		if svc == nil {
			return
		}
		if n := svc.Cleanup(); n > 0 {
			logging.Debug().Int("evicted", n).Msg("Idle users forgotten")
		}
	}

	switch store := c.sessions.(type) {
	case *session.BadgerStore:
		tasks = append(tasks, maintenanceTask{
			name: "session-gc",
			task: func(context.Context) error {
				forgetUsers()
				return store.RunGC()
			},
			cfg: services.PeriodicConfig{Interval: sessionGCInterval},
		})
	case *session.MemoryStore:
		tasks = append(tasks, maintenanceTask{
			name: "session-cleanup",
			task: func(context.Context) error {
				if n := store.Cleanup(); n > 0 {
					logging.Debug().Int("evicted", n).Msg("Expired sessions evicted")
				}
				forgetUsers()
				return nil
			},
			cfg: services.PeriodicConfig{Interval: time.Minute},
		})
	}

	if c.db != nil {
		db := c.db
		tasks = append(tasks, maintenanceTask{
			name: "db-checkpoint",
			task: db.Checkpoint,
			cfg:  services.PeriodicConfig{Interval: checkpointEvery},
		})
	}

	return tasks
}
