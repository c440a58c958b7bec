// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package logging wraps a process-wide zerolog logger.
//
// Call Init once from main. Packages either log through the package-level
// helpers (Info, Warn, Error) or hold a component logger obtained from
// WithComponent:
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	log := logging.WithComponent("catalog")
//	log.Info().Int("seeds", 10).Msg("Fan-out started")
//
// Request-scoped fields (request_id, correlation_id, user_id) travel in the
// context and are attached by Ctx:
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("History fetch failed")
//
// Libraries that only speak log/slog (sutureslog) get a zerolog-backed
// handler from NewSlogLogger.
package logging
