// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Session   SessionConfig   `koanf:"session"`
	Logging   LoggingConfig   `koanf:"logging"`
	Plex      PlexConfig      `koanf:"plex"`
	Tautulli  TautulliConfig  `koanf:"tautulli"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	Radarr    ArrConfig       `koanf:"radarr"`
	Sonarr    ArrConfig       `koanf:"sonarr"`
	OMDb      OMDbConfig      `koanf:"omdb"`
	Discovery DiscoveryConfig `koanf:"discovery"`
	Scanner   ScannerConfig   `koanf:"scanner"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`   // Requests per window per client IP
	RateLimitWindow time.Duration `koanf:"rate_limit_window"` // Window for RateLimitReqs
	RateLimitOff    bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig holds DuckDB configuration
type DatabaseConfig struct {
	Path      string `koanf:"path"`       // File path, or ":memory:"
	MaxMemory string `koanf:"max_memory"` // DuckDB memory_limit (e.g. "512MB")
	Threads   int    `koanf:"threads"`    // 0 lets DuckDB decide
}

// SessionConfig controls where discovery sessions live
type SessionConfig struct {
	Store string        `koanf:"store"` // "memory" or "badger"
	Path  string        `koanf:"path"`  // Badger directory when Store=badger
	TTL   time.Duration `koanf:"ttl"`   // Idle lifetime of a session
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// PlexConfig holds Plex Media Server connection settings
type PlexConfig struct {
	URL              string        `koanf:"url"`   // Plex Media Server URL (http://localhost:32400)
	Token            string        `koanf:"token"` // X-Plex-Token for authentication
	Timeout          time.Duration `koanf:"timeout"`
	HistoryLimit     int           `koanf:"history_limit"`     // Most recent entries considered per profile
	HistoryPageSize  int           `koanf:"history_page_size"` // Entries per history request
	IgnoredUsers     []string      `koanf:"ignored_users"`     // Account ids or names excluded from every profile
	IgnoredLibraries []string      `koanf:"ignored_libraries"` // Library section ids excluded from history and alias sync
	PerUserHistory   bool          `koanf:"per_user_history"`  // Read only the requesting account's plays instead of server-wide history
}

// TautulliConfig holds the optional trending collaborator settings
type TautulliConfig struct {
	Enabled   bool          `koanf:"enabled"`
	URL       string        `koanf:"url"`
	APIKey    string        `koanf:"api_key"`
	Timeout   time.Duration `koanf:"timeout"`
	TimeRange int           `koanf:"time_range"` // Days considered by get_home_stats (1..365)
	StatCount int           `koanf:"stat_count"` // Titles taken per stat
}

// TMDBConfig holds catalog client settings
type TMDBConfig struct {
	APIKey          string        `koanf:"api_key"`
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`          // Per call deadline
	RequestsPerSec  float64       `koanf:"requests_per_sec"` // Client-side throttle
	Burst           int           `koanf:"burst"`
	MaxConcurrency  int           `koanf:"max_concurrency"` // Shared semaphore across all calls
	Cooldown        time.Duration `koanf:"cooldown"`        // How long the breaker stays open
	TripThreshold   uint32        `koanf:"trip_threshold"`  // Consecutive failures that open the breaker
	Language        string        `koanf:"language"`
	DefaultRegion   string        `koanf:"default_region"`
	DailyCacheLimit int           `koanf:"daily_cache_limit"` // Per-seed result cache capacity
}

// ArrConfig holds Radarr or Sonarr connection settings
type ArrConfig struct {
	Enabled  bool          `koanf:"enabled"`
	URL      string        `koanf:"url"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"` // Snapshot refresh interval
}

// OMDbConfig holds the critic-score collaborator settings
type OMDbConfig struct {
	Enabled  bool          `koanf:"enabled"`
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// DiscoveryConfig holds recommendation tuning
type DiscoveryConfig struct {
	SeedCount            int           `koanf:"seed_count"`
	GeneratePageSize     int           `koanf:"generate_page_size"`
	LoadMorePageSize     int           `koanf:"load_more_page_size"`
	ObscureVoteThreshold int           `koanf:"obscure_vote_threshold"`
	StandardVoteFloor    int           `koanf:"standard_vote_floor"` // 0 keeps the 10/20 adaptive floor
	CriticThreshold      int           `koanf:"critic_threshold"`
	MaxEmptyCycles       int           `koanf:"max_empty_cycles"`
	HistoryTTL           time.Duration `koanf:"history_ttl"`
	KeywordCacheSize     int           `koanf:"keyword_cache_size"`
	MaxResolvesPerRun    int           `koanf:"max_resolves_per_run"`
	AliasSyncInterval    time.Duration `koanf:"alias_sync_interval"`
	EnrichConcurrency    int           `koanf:"enrich_concurrency"`
}

// ScannerConfig controls adjacent catalog scan exclusivity
type ScannerConfig struct {
	MaxScanDuration time.Duration `koanf:"max_scan_duration"` // Leases older than this are stale
	OwnedSetTTL     time.Duration `koanf:"owned_set_ttl"`
}

// Addr returns the HTTP listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
