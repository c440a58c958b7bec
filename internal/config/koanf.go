// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/config/config.yaml",
	"/etc/smartdiscovery/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// sliceConfigPaths are the koanf paths that accept comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"plex.ignored_users",
	"plex.ignored_libraries",
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8585,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second, // Generation fans out to the catalog
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/smartdiscovery.duckdb",
			MaxMemory: "512MB",
		},
		Session: SessionConfig{
			Store: "memory",
			Path:  "/data/sessions",
			TTL:   2 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Plex: PlexConfig{
			URL:             "",
			Token:           "",
			Timeout:         30 * time.Second,
			HistoryLimit:    5000,
			HistoryPageSize: 500,
		},
		Tautulli: TautulliConfig{
			Enabled:   false,
			Timeout:   15 * time.Second,
			TimeRange: 30,
			StatCount: 5,
		},
		TMDB: TMDBConfig{
			BaseURL:         "https://api.themoviedb.org/3",
			Timeout:         10 * time.Second,
			RequestsPerSec:  40,
			Burst:           40,
			MaxConcurrency:  30,
			Cooldown:        60 * time.Second,
			TripThreshold:   5,
			Language:        "en-US",
			DefaultRegion:   "US",
			DailyCacheLimit: 2000,
		},
		Radarr: ArrConfig{
			Timeout:  30 * time.Second,
			Interval: 6 * time.Hour,
		},
		Sonarr: ArrConfig{
			Timeout:  30 * time.Second,
			Interval: 6 * time.Hour,
		},
		OMDb: OMDbConfig{
			BaseURL:  "https://www.omdbapi.com",
			Timeout:  10 * time.Second,
			CacheTTL: 24 * time.Hour,
		},
		Discovery: DiscoveryConfig{
			SeedCount:            10,
			GeneratePageSize:     40,
			LoadMorePageSize:     30,
			ObscureVoteThreshold: 50,
			CriticThreshold:      70,
			MaxEmptyCycles:       2,
			HistoryTTL:           time.Hour,
			KeywordCacheSize:     1000,
			MaxResolvesPerRun:    200,
			AliasSyncInterval:    12 * time.Hour,
			EnrichConcurrency:    10,
		},
		Scanner: ScannerConfig{
			MaxScanDuration: 30 * time.Minute,
			OwnedSetTTL:     5 * time.Minute,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources.
//
// Loading order (later sources override earlier):
//  1. Default values from defaultConfig()
//  2. Config file (YAML) if found
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// PLEX_URL -> plex.url, TMDB_API_KEY -> tmdb.api_key
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Load is the entry point used by cmd/server.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// findConfigFile searches for a config file in the default locations.
// Returns empty string if no config file is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// processSliceFields splits comma-separated env values into slices.
// Values that arrived as YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		trimmed := make([]string, 0)
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Sessions
	"session_store":      "session.store",
	"session_store_path": "session.path",
	"session_ttl":        "session.ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Plex
	"plex_url":               "plex.url",
	"plex_token":             "plex.token",
	"plex_timeout":           "plex.timeout",
	"plex_history_limit":     "plex.history_limit",
	"plex_history_page_size": "plex.history_page_size",
	"plex_ignored_users":     "plex.ignored_users",
	"plex_ignored_libraries": "plex.ignored_libraries",
	"plex_per_user_history":  "plex.per_user_history",

	// Tautulli
	"tautulli_enabled":    "tautulli.enabled",
	"tautulli_url":        "tautulli.url",
	"tautulli_api_key":    "tautulli.api_key",
	"tautulli_timeout":    "tautulli.timeout",
	"tautulli_time_range": "tautulli.time_range",
	"tautulli_stat_count": "tautulli.stat_count",

	// TMDB
	"tmdb_api_key":           "tmdb.api_key",
	"tmdb_base_url":          "tmdb.base_url",
	"tmdb_timeout":           "tmdb.timeout",
	"tmdb_requests_per_sec":  "tmdb.requests_per_sec",
	"tmdb_burst":             "tmdb.burst",
	"tmdb_max_concurrency":   "tmdb.max_concurrency",
	"tmdb_cooldown":          "tmdb.cooldown",
	"tmdb_trip_threshold":    "tmdb.trip_threshold",
	"tmdb_language":          "tmdb.language",
	"tmdb_default_region":    "tmdb.default_region",
	"tmdb_daily_cache_limit": "tmdb.daily_cache_limit",

	// Radarr / Sonarr
	"radarr_enabled":  "radarr.enabled",
	"radarr_url":      "radarr.url",
	"radarr_api_key":  "radarr.api_key",
	"radarr_timeout":  "radarr.timeout",
	"radarr_interval": "radarr.interval",
	"sonarr_enabled":  "sonarr.enabled",
	"sonarr_url":      "sonarr.url",
	"sonarr_api_key":  "sonarr.api_key",
	"sonarr_timeout":  "sonarr.timeout",
	"sonarr_interval": "sonarr.interval",

	// OMDb
	"omdb_enabled":   "omdb.enabled",
	"omdb_api_key":   "omdb.api_key",
	"omdb_base_url":  "omdb.base_url",
	"omdb_timeout":   "omdb.timeout",
	"omdb_cache_ttl": "omdb.cache_ttl",

	// Discovery tuning
	"discovery_seed_count":             "discovery.seed_count",
	"discovery_generate_page_size":     "discovery.generate_page_size",
	"discovery_load_more_page_size":    "discovery.load_more_page_size",
	"discovery_obscure_vote_threshold": "discovery.obscure_vote_threshold",
	"discovery_standard_vote_floor":    "discovery.standard_vote_floor",
	"discovery_critic_threshold":       "discovery.critic_threshold",
	"discovery_max_empty_cycles":       "discovery.max_empty_cycles",
	"discovery_history_ttl":            "discovery.history_ttl",
	"discovery_keyword_cache_size":     "discovery.keyword_cache_size",
	"discovery_max_resolves_per_run":   "discovery.max_resolves_per_run",
	"discovery_alias_sync_interval":    "discovery.alias_sync_interval",
	"discovery_enrich_concurrency":     "discovery.enrich_concurrency",

	// Scanner
	"scanner_max_scan_duration": "scanner.max_scan_duration",
	"scanner_owned_set_ttl":     "scanner.owned_set_ttl",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return "" and are skipped so unrelated environment variables
// cannot pollute the config.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
