// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/smartdiscovery/internal/discovery"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const (
	// generateTimeout bounds one generation cycle including enrichment.
	generateTimeout = 45 * time.Second

	// maintenanceTimeout bounds a forced scan or alias refresh.
	maintenanceTimeout = 10 * time.Minute
)

// Generate starts a new browsing session.
//
// @Summary Start a discovery session
// @Description Builds the caller's taste profile, runs one generation cycle and returns the first page
// @Tags Discovery
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Caller's user id, overrides user_id in the body"
// @Param request body discovery.GenerateRequest true "Filters and optional seed override"
// @Success 200 {object} models.APIResponse{data=discovery.GenerateResult}
// @Failure 400 {object} models.APIResponse "Invalid filters"
// @Failure 429 {object} models.APIResponse "Catalog rate limited"
// @Failure 503 {object} models.APIResponse "Catalog unavailable"
// @Router /discovery/generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req discovery.GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err)
		return
	}
	req.UserID = userID(r, req.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	res, err := h.discovery.Generate(ctx, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("session_key", res.SessionKey).
		Int("items", len(res.Items)).
		Str("seed_source", res.SeedSource).
		Msg("Discovery session started")
	respondSuccess(w, r, http.StatusOK, res, start)
}

// LoadMore serves the next page of a session.
//
// @Summary Load the next page
// @Description Serves the next page of a session. An expired session is regenerated when a user id is supplied, from the request filters or the user's last ones.
// @Tags Discovery
// @Accept json
// @Produce json
// @Param request body discovery.LoadMoreRequest true "Session key and optional filters"
// @Success 200 {object} models.APIResponse{data=discovery.LoadMoreResult}
// @Failure 409 {object} models.APIResponse "Session superseded"
// @Failure 410 {object} models.APIResponse "Session expired"
// @Router /discovery/more [post]
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req discovery.LoadMoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err)
		return
	}
	req.UserID = userID(r, req.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	res, err := h.discovery.LoadMore(ctx, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res, start)
}

// ListBlocklist returns the blocklist.
//
// @Summary List blocklisted titles
// @Tags Blocklist
// @Produce json
// @Param media_type query string false "movie or show"
// @Success 200 {object} models.APIResponse{data=[]models.BlocklistEntry}
// @Router /discovery/blocklist [get]
func (h *Handler) ListBlocklist(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var mt models.MediaType
	if raw := r.URL.Query().Get("media_type"); raw != "" {
		parsed, err := models.ParseMediaType(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media_type must be movie or show", nil)
			return
		}
		mt = parsed
	}

	entries, err := h.discovery.ListBlocklist(r.Context(), mt)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, entries, start)
}

// AddBlocklist permanently excludes a title from discovery.
//
// @Summary Blocklist a title
// @Tags Blocklist
// @Accept json
// @Produce json
// @Param request body discovery.BlocklistRequest true "Title to blocklist"
// @Success 201 {object} models.APIResponse{data=models.BlocklistEntry}
// @Failure 400 {object} models.APIResponse "Invalid title"
// @Router /discovery/blocklist [post]
func (h *Handler) AddBlocklist(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req discovery.BlocklistRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err)
		return
	}
	req.UserID = userID(r, req.UserID)
	if req.MediaType != "" {
		if mt, err := models.ParseMediaType(string(req.MediaType)); err == nil {
			req.MediaType = mt
		}
	}

	entry, err := h.discovery.Blocklist(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, entry, start)
}

// RemoveBlocklist lifts a blocklist entry.
//
// @Summary Remove a title from the blocklist
// @Tags Blocklist
// @Produce json
// @Param mediaType path string true "movie or show"
// @Param catalogID path int true "Catalog id"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "Title was not blocklisted"
// @Router /discovery/blocklist/{mediaType}/{catalogID} [delete]
func (h *Handler) RemoveBlocklist(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	mt, err := models.ParseMediaType(chi.URLParam(r, "mediaType"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media type must be movie or show", nil)
		return
	}
	catalogID, err := strconv.Atoi(chi.URLParam(r, "catalogID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_CATALOG_ID", "Invalid catalog id", nil)
		return
	}

	removed, err := h.discovery.Unblocklist(r.Context(), catalogID, mt)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Title is not blocklisted", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{"removed": true}, start)
}

// RefreshOwnership rescans every adjacent catalog now.
//
// @Summary Force an ownership rescan
// @Tags Maintenance
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]ownership.ScanResult}
// @Failure 409 {object} models.APIResponse "A scan is already running"
// @Failure 501 {object} models.APIResponse "No adjacent catalog configured"
// @Router /discovery/ownership/refresh [post]
func (h *Handler) RefreshOwnership(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), maintenanceTimeout)
	defer cancel()

	results, err := h.discovery.ForceRefreshOwnership(ctx)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Int("sources", len(results)).Msg("Ownership rescan finished")
	respondSuccess(w, r, http.StatusOK, results, start)
}

// RefreshAliases re-resolves every library item regardless of age.
//
// @Summary Force an alias refresh
// @Tags Maintenance
// @Produce json
// @Success 200 {object} models.APIResponse{data=alias.SyncResult}
// @Failure 501 {object} models.APIResponse "No media server configured"
// @Router /discovery/aliases/refresh [post]
func (h *Handler) RefreshAliases(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), maintenanceTimeout)
	defer cancel()

	res, err := h.discovery.RefreshAliases(ctx)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res, start)
}
