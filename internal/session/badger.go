// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const keyPrefix = "session/"

// gcDiscardRatio is the value log garbage share that triggers a rewrite.
const gcDiscardRatio = 0.5

// BadgerStore keeps sessions in BadgerDB. Entries carry the session TTL
// and are refreshed on every commit.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// OpenBadger opens (or creates) a store at path. An empty path opens an
// in-memory database.
func OpenBadger(path string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().Str("path", path).Dur("ttl", ttl).Msg("Session store opened")
	return &BadgerStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (b *BadgerStore) Get(_ context.Context, key string) (*models.SessionState, error) {
	var s *models.SessionState
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		s, err = readSession(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *BadgerStore) Create(_ context.Context, s *models.SessionState) error {
	s.UpdatedAt = b.now()
	return b.db.Update(func(txn *badger.Txn) error {
		return b.writeSession(txn, s)
	})
}

// Commit runs in one transaction. Badger aborts it with ErrConflict when
// another transaction wrote the key in between, which is reported as a
// stale cycle as well.
func (b *BadgerStore) Commit(_ context.Context, s *models.SessionState, cycle int64) error {
	s.UpdatedAt = b.now()
	err := b.db.Update(func(txn *badger.Txn) error {
		cur, err := readSession(txn, s.Key)
		if errors.Is(err, models.ErrSessionExpired) {
			return models.ErrStaleCycle
		}
		if err != nil {
			return err
		}
		if cur.Cycle != cycle {
			return models.ErrStaleCycle
		}
		return b.writeSession(txn, s)
	})
	if errors.Is(err, badger.ErrConflict) {
		return models.ErrStaleCycle
	}
	return err
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyPrefix + key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// RunGC reclaims value log space until there is nothing left to rewrite.
func (b *BadgerStore) RunGC() error {
	for {
		err := b.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("value log GC: %w", err)
		}
	}
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func readSession(txn *badger.Txn, key string) (*models.SessionState, error) {
	item, err := txn.Get([]byte(keyPrefix + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s models.SessionState
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &s)
	})
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (b *BadgerStore) writeSession(txn *badger.Txn, s *models.SessionState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	e := badger.NewEntry([]byte(keyPrefix+s.Key), data)
	if b.ttl > 0 {
		e = e.WithTTL(b.ttl)
	}
	if err := txn.SetEntry(e); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
