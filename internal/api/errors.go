// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/validation"
)

// respondServiceError maps a discovery service error to its HTTP form.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		apiErr := verr.ToAPIError()
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)

	case errors.Is(err, models.ErrUpstreamRateLimited):
		wait, _ := models.RetryAfter(err)
		w.Header().Set("Retry-After", retryAfterSeconds(wait))
		respondErrorDetails(w, http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED",
			"The metadata catalog is rate limiting requests, try again later",
			map[string]interface{}{"retry_after_seconds": wait.Seconds()}, nil)

	case errors.Is(err, models.ErrUpstreamUnavailable):
		respondError(w, http.StatusServiceUnavailable, "DISCOVERY_UNAVAILABLE",
			"Recommendations are temporarily unavailable", err)

	case errors.Is(err, models.ErrScanInProgress):
		respondError(w, http.StatusConflict, "SCAN_IN_PROGRESS", "A scan is already running", nil)

	case errors.Is(err, models.ErrStaleCycle):
		respondError(w, http.StatusConflict, "SESSION_SUPERSEDED",
			"The session was replaced by a newer one", nil)

	case errors.Is(err, models.ErrSessionExpired):
		respondError(w, http.StatusGone, "SESSION_EXPIRED",
			"The session expired, start a new one", nil)

	case errors.Is(err, models.ErrNotConfigured):
		respondError(w, http.StatusNotImplemented, "NOT_CONFIGURED",
			"The required integration is not configured", nil)

	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "TIMEOUT", "The request took too long", err)

	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the response.
		logging.Ctx(r.Context()).Debug().Msg("Request canceled by client")

	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", err)
	}
}
