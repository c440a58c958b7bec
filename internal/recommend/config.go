// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package recommend

import (
	"fmt"

	"github.com/tomtom215/smartdiscovery/internal/config"
)

// maxFanOut caps concurrent catalog calls of one generation.
const maxFanOut = 30

// Config contains the generator tuning.
type Config struct {
	// SeedConcurrency bounds simultaneous seed fetches.
	SeedConcurrency int

	// EnrichConcurrency bounds simultaneous detail and critic fetches.
	EnrichConcurrency int

	// ObscureVoteThreshold splits obscure (below) from standard (at or above).
	ObscureVoteThreshold int

	// StandardVoteFloor is a minimum vote count for standard mode. Zero
	// selects 10, or 20 when the fetched pool holds at least 100 titles.
	StandardVoteFloor int

	// CriticThreshold is the certified fresh cutoff when the request does
	// not carry one.
	CriticThreshold int

	// DefaultRegion is used for certifications and future releases.
	DefaultRegion string

	// DailyCacheLimit is the number of per-seed results kept for the day.
	DailyCacheLimit int

	// LastResortPages is how many popular discover pages are read when the
	// seeds produce nothing, starting at a random page up to
	// LastResortMaxStart.
	LastResortPages    int
	LastResortMaxStart int

	// FutureMinPopularity keeps placeholder entries out of future mode.
	FutureMinPopularity float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SeedConcurrency:      maxFanOut,
		EnrichConcurrency:    10,
		ObscureVoteThreshold: 50,
		CriticThreshold:      70,
		DefaultRegion:        "US",
		DailyCacheLimit:      2000,
		LastResortPages:      6,
		LastResortMaxStart:   10,
		FutureMinPopularity:  5,
	}
}

// ConfigFrom maps the service configuration onto generator tuning.
func ConfigFrom(d *config.DiscoveryConfig, tmdb *config.TMDBConfig) Config {
	cfg := DefaultConfig()
	cfg.EnrichConcurrency = d.EnrichConcurrency
	cfg.ObscureVoteThreshold = d.ObscureVoteThreshold
	cfg.StandardVoteFloor = d.StandardVoteFloor
	cfg.CriticThreshold = d.CriticThreshold
	if tmdb.DefaultRegion != "" {
		cfg.DefaultRegion = tmdb.DefaultRegion
	}
	if tmdb.DailyCacheLimit > 0 {
		cfg.DailyCacheLimit = tmdb.DailyCacheLimit
	}
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SeedConcurrency < 1 || c.SeedConcurrency > maxFanOut {
		return fmt.Errorf("seed concurrency must be between 1 and %d", maxFanOut)
	}
	if c.EnrichConcurrency < 1 || c.EnrichConcurrency > maxFanOut {
		return fmt.Errorf("enrich concurrency must be between 1 and %d", maxFanOut)
	}
	if c.ObscureVoteThreshold < 1 {
		return fmt.Errorf("obscure vote threshold must be positive")
	}
	if c.StandardVoteFloor < 0 {
		return fmt.Errorf("standard vote floor must be non-negative")
	}
	if c.CriticThreshold < 0 || c.CriticThreshold > 100 {
		return fmt.Errorf("critic threshold must be between 0 and 100")
	}
	if c.DailyCacheLimit < 1 {
		return fmt.Errorf("daily cache limit must be positive")
	}
	if c.LastResortPages < 1 || c.LastResortMaxStart < 1 {
		return fmt.Errorf("last resort pages and start must be positive")
	}
	return nil
}
