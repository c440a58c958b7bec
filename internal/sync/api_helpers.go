// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// apiRequest holds parameters for a Tautulli API request
type apiRequest struct {
	cmd    string
	params map[string]string
}

// newAPIRequest creates a new API request with the given command
func newAPIRequest(cmd string) *apiRequest {
	return &apiRequest{
		cmd:    cmd,
		params: make(map[string]string),
	}
}

// addParam adds a parameter to the request
func (r *apiRequest) addParam(key, value string) *apiRequest {
	if value != "" {
		r.params[key] = value
	}
	return r
}

// addIntParam adds an integer parameter to the request (only if > 0)
func (r *apiRequest) addIntParam(key string, value int) *apiRequest {
	if value > 0 {
		r.params[key] = strconv.Itoa(value)
	}
	return r
}

// buildURL constructs the full URL with all parameters
func (r *apiRequest) buildURL(baseURL, apiKey string) string {
	params := url.Values{}
	params.Set("apikey", apiKey)
	params.Set("cmd", r.cmd)

	for key, value := range r.params {
		params.Set(key, value)
	}

	return fmt.Sprintf("%s/api/v2?%s", baseURL, params.Encode())
}

// decodeResponse decodes JSON response and checks for success
func decodeResponse[T any](body io.Reader, result *T, getResult func(*T) string, getMessage func(*T) *string) error {
	if err := json.NewDecoder(body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if getResult(result) != "success" {
		msg := "unknown error"
		if m := getMessage(result); m != nil {
			msg = *m
		}
		return fmt.Errorf("request failed: %s", msg)
	}

	return nil
}

// executeAPIRequest is a generic helper that executes a Tautulli API request
// It handles URL building, HTTP request, JSON decoding, and error handling
func executeAPIRequest[T any](
	ctx context.Context,
	c *TautulliClient,
	req *apiRequest,
	getResult func(*T) string,
	getMessage func(*T) *string,
) (*T, error) {
	start := time.Now()
	resp, err := c.doRequestWithRateLimit(ctx, req.buildURL(c.baseURL, c.apiKey))
	if err != nil {
		metrics.RecordUpstreamRequest(tautulliService, req.cmd, 0, time.Since(start))
		return nil, fmt.Errorf("%s: %w", req.cmd, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(tautulliService, req.cmd, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		err := fmt.Errorf("%s request failed with status %d: %s", req.cmd, resp.StatusCode, body)
		if resp.StatusCode >= 500 {
			return nil, &models.UnavailableError{Service: tautulliService, Err: err}
		}
		return nil, err
	}

	var result T
	if err := decodeResponse(resp.Body, &result, getResult, getMessage); err != nil {
		return nil, fmt.Errorf("%s: %w", req.cmd, err)
	}
	return &result, nil
}
