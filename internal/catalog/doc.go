// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package catalog is the TMDB v3 client used to turn seeds into candidates.
//
// One Client is shared by all generation cycles. It throttles with a token
// bucket, caps in-flight requests with a weighted semaphore, retries once on
// transient failures and backs off for a cooldown window through a circuit
// breaker when TMDB keeps rate limiting or failing. While cooling down every
// call returns *models.RateLimitedError without a network round trip.
//
// KeywordResolver adds an LRU cache in front of keyword search.
package catalog
