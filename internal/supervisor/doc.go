// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package supervisor provides process supervision using suture v4.

The tree has two layers that restart independently:

	RootSupervisor ("smartdiscovery")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── ownership scan per adjacent catalog (radarr, sonarr)
	│   ├── alias sync
	│   ├── session store GC (badger backend only)
	│   └── database checkpoint
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (starts, failures, backoff) are logged through
sutureslog into the slog adapter of the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMaintenanceService(services.NewPeriodicService("alias-sync", task, cfg))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

On shutdown, services still running after TreeConfig.ShutdownTimeout are
listed by UnstoppedServiceReport.
*/
package supervisor
