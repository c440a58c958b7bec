// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/smartdiscovery/internal/cache"
	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// Store persists sessions.
type Store interface {
	// Get returns the session, or models.ErrSessionExpired.
	Get(ctx context.Context, key string) (*models.SessionState, error)

	// Create stores a new session.
	Create(ctx context.Context, s *models.SessionState) error

	// Commit replaces the session if its stored Cycle is still cycle.
	// A missing session or a different cycle gives models.ErrStaleCycle.
	Commit(ctx context.Context, s *models.SessionState, cycle int64) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// New opens the store selected by cfg.
func New(cfg *config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "badger":
		return OpenBadger(cfg.Path, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// NewKey returns a fresh session key.
func NewKey() string {
	return uuid.NewString()
}

// Locker serializes work on one session key.
type Locker struct {
	km *cache.KeyedMutex
}

// NewLocker returns a Locker.
func NewLocker() *Locker {
	return &Locker{km: cache.NewKeyedMutex()}
}

// Lock blocks until key is free and returns the unlock function.
func (l *Locker) Lock(key string) (unlock func()) {
	return l.km.Lock(key)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	sessions *cache.TTLCache[*models.SessionState]
	locks    *cache.KeyedMutex
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire after ttl without a
// commit.
func NewMemoryStore(ttl time.Duration, opts ...cache.Option) *MemoryStore {
	opts = append([]cache.Option{cache.WithName("sessions")}, opts...)
	return &MemoryStore{
		sessions: cache.NewTTLCache[*models.SessionState](ttl, opts...),
		locks:    cache.NewKeyedMutex(),
		now:      time.Now,
	}
}

// Cleanup evicts expired sessions and reports how many were removed.
func (m *MemoryStore) Cleanup() int {
	return m.sessions.Cleanup()
}

func (m *MemoryStore) Get(_ context.Context, key string) (*models.SessionState, error) {
	s, ok := m.sessions.Get(key)
	if !ok {
		return nil, models.ErrSessionExpired
	}
	return clone(s), nil
}

func (m *MemoryStore) Create(_ context.Context, s *models.SessionState) error {
	unlock := m.locks.Lock(s.Key)
	defer unlock()
	s.UpdatedAt = m.now()
	m.sessions.Set(s.Key, clone(s))
	return nil
}

func (m *MemoryStore) Commit(_ context.Context, s *models.SessionState, cycle int64) error {
	unlock := m.locks.Lock(s.Key)
	defer unlock()

	cur, ok := m.sessions.Get(s.Key)
	if !ok || cur.Cycle != cycle {
		return models.ErrStaleCycle
	}
	s.UpdatedAt = m.now()
	m.sessions.Set(s.Key, clone(s))
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	unlock := m.locks.Lock(key)
	defer unlock()
	m.sessions.Delete(key)
	return nil
}

// Len is the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.sessions.Len()
}

func (m *MemoryStore) Close() error {
	m.sessions.Clear()
	return nil
}

// clone copies s deeply enough that callers can append to and reslice the
// copy without touching the stored session.
func clone(s *models.SessionState) *models.SessionState {
	cp := *s
	cp.Seeds = slices.Clone(s.Seeds)
	cp.Served = slices.Clone(s.Served)
	cp.Remainder = slices.Clone(s.Remainder)
	cp.Filters.Genres = slices.Clone(s.Filters.Genres)
	cp.Filters.ContentRatings = slices.Clone(s.Filters.ContentRatings)
	cp.Filters.Keywords = slices.Clone(s.Filters.Keywords)
	return &cp
}
