// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package config

import (
	"fmt"
	"net/url"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateSession,
		c.validatePlex,
		c.validateTautulli,
		c.validateTMDB,
		c.validateArr,
		c.validateOMDb,
		c.validateDiscovery,
		c.validateScanner,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitOff {
		return nil
	}
	if c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Store {
	case "memory":
	case "badger":
		if c.Session.Path == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be one of: memory, badger")
	}
	if c.Session.TTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m, got %s", c.Session.TTL)
	}
	return nil
}

// validatePlex validates the media server connection. Plex is the history
// source so it is always required.
func (c *Config) validatePlex() error {
	if c.Plex.URL == "" {
		return fmt.Errorf("PLEX_URL is required")
	}
	if err := validateHTTPURL(c.Plex.URL, "PLEX_URL", false); err != nil {
		return fmt.Errorf("PLEX_URL is invalid: %w", err)
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("PLEX_TOKEN is required")
	}
	if c.Plex.HistoryLimit < 1 {
		return fmt.Errorf("PLEX_HISTORY_LIMIT must be at least 1")
	}
	if c.Plex.HistoryPageSize < 1 {
		return fmt.Errorf("PLEX_HISTORY_PAGE_SIZE must be at least 1")
	}
	return nil
}

// validateTautulli validates the trending collaborator (only if enabled)
func (c *Config) validateTautulli() error {
	if !c.Tautulli.Enabled {
		return nil
	}
	if c.Tautulli.URL == "" {
		return fmt.Errorf("TAUTULLI_URL is required when TAUTULLI_ENABLED=true")
	}
	if err := validateHTTPURL(c.Tautulli.URL, "TAUTULLI_URL", false); err != nil {
		return fmt.Errorf("TAUTULLI_URL is invalid: %w", err)
	}
	if c.Tautulli.APIKey == "" {
		return fmt.Errorf("TAUTULLI_API_KEY is required when TAUTULLI_ENABLED=true")
	}
	if c.Tautulli.TimeRange < 1 || c.Tautulli.TimeRange > 365 {
		return fmt.Errorf("TAUTULLI_TIME_RANGE must be between 1 and 365 days, got %d", c.Tautulli.TimeRange)
	}
	if c.Tautulli.StatCount < 1 {
		return fmt.Errorf("TAUTULLI_STAT_COUNT must be at least 1")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	if err := validateHTTPURL(c.TMDB.BaseURL, "TMDB_BASE_URL", true); err != nil {
		return fmt.Errorf("TMDB_BASE_URL is invalid: %w", err)
	}
	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT must be positive")
	}
	if c.TMDB.RequestsPerSec <= 0 || c.TMDB.Burst < 1 {
		return fmt.Errorf("TMDB_REQUESTS_PER_SEC and TMDB_BURST must be positive")
	}
	if c.TMDB.MaxConcurrency < 1 {
		return fmt.Errorf("TMDB_MAX_CONCURRENCY must be at least 1")
	}
	if c.TMDB.TripThreshold < 1 {
		return fmt.Errorf("TMDB_TRIP_THRESHOLD must be at least 1")
	}
	if c.TMDB.Cooldown < time.Second {
		return fmt.Errorf("TMDB_COOLDOWN must be at least 1s, got %s", c.TMDB.Cooldown)
	}
	return nil
}

func (c *Config) validateArr() error {
	for _, s := range []struct {
		name string
		cfg  ArrConfig
	}{{"RADARR", c.Radarr}, {"SONARR", c.Sonarr}} {
		if !s.cfg.Enabled {
			continue
		}
		if s.cfg.URL == "" {
			return fmt.Errorf("%s_URL is required when %s_ENABLED=true", s.name, s.name)
		}
		if err := validateHTTPURL(s.cfg.URL, s.name+"_URL", true); err != nil {
			return fmt.Errorf("%s_URL is invalid: %w", s.name, err)
		}
		if s.cfg.APIKey == "" {
			return fmt.Errorf("%s_API_KEY is required when %s_ENABLED=true", s.name, s.name)
		}
		if s.cfg.Interval < time.Minute {
			return fmt.Errorf("%s_INTERVAL must be at least 1m, got %s", s.name, s.cfg.Interval)
		}
	}
	return nil
}

func (c *Config) validateOMDb() error {
	if c.OMDb.Enabled && c.OMDb.APIKey == "" {
		return fmt.Errorf("OMDB_API_KEY is required when OMDB_ENABLED=true")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	d := c.Discovery
	switch {
	case d.SeedCount < 1:
		return fmt.Errorf("DISCOVERY_SEED_COUNT must be at least 1")
	case d.GeneratePageSize < 1 || d.LoadMorePageSize < 1:
		return fmt.Errorf("discovery page sizes must be at least 1")
	case d.ObscureVoteThreshold < 1:
		return fmt.Errorf("DISCOVERY_OBSCURE_VOTE_THRESHOLD must be at least 1")
	case d.StandardVoteFloor < 0:
		return fmt.Errorf("DISCOVERY_STANDARD_VOTE_FLOOR must not be negative")
	case d.CriticThreshold < 0 || d.CriticThreshold > 100:
		return fmt.Errorf("DISCOVERY_CRITIC_THRESHOLD must be between 0 and 100")
	case d.MaxEmptyCycles < 1:
		return fmt.Errorf("DISCOVERY_MAX_EMPTY_CYCLES must be at least 1")
	case d.HistoryTTL <= 0:
		return fmt.Errorf("DISCOVERY_HISTORY_TTL must be positive")
	case d.KeywordCacheSize < 1:
		return fmt.Errorf("DISCOVERY_KEYWORD_CACHE_SIZE must be at least 1")
	case d.MaxResolvesPerRun < 1:
		return fmt.Errorf("DISCOVERY_MAX_RESOLVES_PER_RUN must be at least 1")
	case d.EnrichConcurrency < 1:
		return fmt.Errorf("DISCOVERY_ENRICH_CONCURRENCY must be at least 1")
	}
	return nil
}

func (c *Config) validateScanner() error {
	if c.Scanner.MaxScanDuration < time.Minute {
		return fmt.Errorf("SCANNER_MAX_SCAN_DURATION must be at least 1m, got %s", c.Scanner.MaxScanDuration)
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL validates that a URL is properly formatted for HTTP/HTTPS services.
// allowPath permits a base path such as TMDB's "/3" or a reverse proxy prefix.
func validateHTTPURL(rawURL, fieldName string, allowPath bool) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if !allowPath && parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
