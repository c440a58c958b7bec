// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package api provides the HTTP surface of the discovery service.

Routing uses the chi router with middleware from the chi ecosystem
(go-chi/cors, go-chi/httprate) plus the local request id, security header
and instrumentation middleware.

Endpoints:

	POST   /api/v1/discovery/generate              start a session
	POST   /api/v1/discovery/more                  next page of a session
	GET    /api/v1/discovery/blocklist             list blocklisted titles
	POST   /api/v1/discovery/blocklist             blocklist a title
	DELETE /api/v1/discovery/blocklist/{type}/{id} remove a title
	POST   /api/v1/discovery/ownership/refresh     rescan Radarr and Sonarr now
	POST   /api/v1/discovery/aliases/refresh       re-resolve every library item
	GET    /api/v1/health, /health/live, /health/ready
	GET    /metrics

The caller's user id comes from the X-User-ID header set by the upstream
auth layer, or from the request body when the header is absent.

Every JSON response uses the models.APIResponse envelope. Service errors
map to status codes in one place (respondServiceError):

	validation failure          400 VALIDATION_ERROR
	upstream rate limited       429 UPSTREAM_RATE_LIMITED + Retry-After
	upstream unavailable        503 DISCOVERY_UNAVAILABLE
	scan already running        409 SCAN_IN_PROGRESS
	session superseded          409 SESSION_SUPERSEDED
	session expired             410 SESSION_EXPIRED
	collaborator not configured 501 NOT_CONFIGURED
*/
package api
