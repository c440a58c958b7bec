// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const (
	// maxErrorBodySize limits the maximum amount of response body read for error reporting
	maxErrorBodySize = 4 * 1024

	// Scans run in the background, so an unreachable catalog is retried
	// with backoff before the run is reported as failed.
	listAttempts     = 3
	defaultRetryWait = 2 * time.Second
)

// Source lists the titles an adjacent catalog knows about.
type Source interface {
	Name() models.ScannerSource
	List(ctx context.Context) ([]models.ScannerItem, error)
}

// arrClient is the HTTP plumbing shared by the Radarr and Sonarr clients.
type arrClient struct {
	source     models.ScannerSource
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryWait  time.Duration
}

func newArrClient(source models.ScannerSource, cfg *config.ArrConfig) arrClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return arrClient{
		source:     source,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		retryWait:  defaultRetryWait,
	}
}

// Name returns the source the client scans.
func (c *arrClient) Name() models.ScannerSource {
	return c.source
}

// getJSON performs an authenticated GET and decodes the body into out.
// Unavailability is retried; client errors are returned at once.
func (c *arrClient) getJSON(ctx context.Context, path string, out any) error {
	return retry.Do(
		func() error { return c.getOnce(ctx, path, out) },
		retry.Context(ctx),
		retry.Attempts(listAttempts),
		retry.Delay(c.retryWait),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, models.ErrUpstreamUnavailable) }),
		retry.OnRetry(func(n uint, err error) {
			metrics.UpstreamRetries.WithLabelValues(string(c.source)).Inc()
			logging.Warn().Err(err).Str("source", string(c.source)).Uint("attempt", n+1).Msg("Retrying scanner request")
		}),
	)
}

func (c *arrClient) getOnce(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	service := string(c.source)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(service, path, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &models.UnavailableError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(service, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		err := fmt.Errorf("%s %s: status %d: %s", service, path, resp.StatusCode, body)
		if resp.StatusCode >= 500 {
			return &models.UnavailableError{Service: service, Err: err}
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}
