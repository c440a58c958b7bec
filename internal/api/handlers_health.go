// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/middleware"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// BreakerStatus is one upstream breaker in the health report.
type BreakerStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status            string                     `json:"status"`
	Version           string                     `json:"version"`
	DatabaseConnected bool                       `json:"database_connected"`
	Breakers          []BreakerStatus            `json:"breakers"`
	Endpoints         []middleware.EndpointStats `json:"endpoints,omitempty"`
	Uptime            float64                    `json:"uptime"`
}

// Health handles health check requests
//
// @Summary Get system health status
// @Description Returns database connectivity, upstream breaker states, per-endpoint latency and uptime
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=HealthStatus} "Health status retrieved successfully"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	breakers := h.breakerStates()

	// An open breaker degrades discovery without taking it down: history
	// and seeds fall back to other sources.
	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}
	for _, b := range breakers {
		if b.State == "open" {
			status = "degraded"
		}
	}

	health := HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: dbConnected,
		Breakers:          breakers,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.perfMon != nil {
		health.Endpoints = h.perfMon.GetStats()
	}

	respondSuccess(w, r, http.StatusOK, health, start)
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Kubernetes liveness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only if the database answers.
//
// @Summary Kubernetes readiness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse "Service is ready"
// @Failure 503 {object} models.APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.db != nil && h.db.Ping(r.Context()) == nil

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": ready,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}
