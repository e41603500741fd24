// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("pantrypilot.assistant.stores")

const sessionKeyPrefix = "session/"

// updateRetries bounds CAS retries under write contention.
const updateRetries = 3

// SessionRepository persists conversation sessions.
//
// # Description
//
// Sessions are the only mutable-in-place records in the store, so the
// repository serializes writes: Update holds a per-session mutex for the
// whole read-modify-write, and every committed write bumps Session.Version.
// A version mismatch inside the transaction means another writer slipped in
// between our read and commit; after bounded retries Update gives up with
// ErrVersionConflict rather than clobbering the newer state.
//
// Ownership is checked on every access. A session read by the wrong user
// returns ErrNotOwner, which callers surface identically to not-found.
//
// # Thread Safety
//
// Safe for concurrent use.
type SessionRepository struct {
	db *DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionRepository creates a repository over an open store.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

func sessionKey(sessionID string) []byte {
	return []byte(sessionKeyPrefix + sessionID)
}

// sessionLock returns the mutex serializing writes for one session id.
func (r *SessionRepository) sessionLock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[sessionID] = lock
	}
	return lock
}

// Create stores a brand-new session. Fails if the id is already taken.
func (r *SessionRepository) Create(ctx context.Context, session *datatypes.Session) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Create")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", session.SessionID))

	key := sessionKey(session.SessionID)
	return r.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("session %s already exists", session.SessionID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		session.Version = 1
		return setJSON(txn, key, session, r.db.cfg.SessionTTL)
	})
}

// Get loads a session and verifies ownership.
func (r *SessionRepository) Get(ctx context.Context, sessionID, userID string) (*datatypes.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.Get")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	var session datatypes.Session
	err := r.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, sessionKey(sessionID), &session)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, datatypes.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if session.UserID != userID {
		return nil, datatypes.ErrNotOwner
	}
	return &session, nil
}

// Update applies fn to the current session state atomically.
//
// # Description
//
// Loads the session, verifies ownership, runs fn on a private copy, then
// commits with a version check. fn must be side-effect free on failure
// paths because it can run more than once. The mutated session is returned
// on success with its bumped version.
//
// # Inputs
//
//   - ctx: cancellation.
//   - sessionID: session to mutate.
//   - userID: caller identity for the ownership check.
//   - fn: mutation. Returning an error aborts the update untouched.
//
// # Outputs
//
//   - *datatypes.Session: the committed state.
//   - error: ErrSessionNotFound, ErrNotOwner, ErrVersionConflict after
//     exhausted retries, or a wrapped storage error.
func (r *SessionRepository) Update(
	ctx context.Context,
	sessionID, userID string,
	fn func(*datatypes.Session) error,
) (*datatypes.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.Update")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	key := sessionKey(sessionID)
	var committed *datatypes.Session
	for attempt := 0; attempt < updateRetries; attempt++ {
		var session datatypes.Session
		err := r.db.WithTxn(ctx, func(txn *badger.Txn) error {
			if err := getJSON(txn, key, &session); err != nil {
				return err
			}
			if session.UserID != userID {
				return datatypes.ErrNotOwner
			}
			expected := session.Version
			if err := fn(&session); err != nil {
				return err
			}
			if session.Version != expected {
				return datatypes.ErrVersionConflict
			}
			session.Version = expected + 1
			return setJSON(txn, key, &session, r.db.cfg.SessionTTL)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, datatypes.ErrSessionNotFound
		}
		if err != nil {
			return nil, err
		}
		committed = &session
		return committed, nil
	}
	return nil, datatypes.ErrVersionConflict
}

// DeleteIdle removes every session whose LastUpdatedAt is older than
// maxIdle. Returns the number of sessions removed.
func (r *SessionRepository) DeleteIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.DeleteIdle")
	defer span.End()

	cutoff := time.Now().UTC().Add(-maxIdle)

	var stale []string
	err := r.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var session datatypes.Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			})
			if err != nil {
				continue
			}
			if session.LastUpdatedAt.Before(cutoff) {
				stale = append(stale, session.SessionID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan idle sessions: %w", err)
	}

	removed := 0
	for _, id := range stale {
		err := r.db.WithTxn(ctx, func(txn *badger.Txn) error {
			return txn.Delete(sessionKey(id))
		})
		if err != nil {
			return removed, fmt.Errorf("delete idle session %s: %w", id, err)
		}
		r.mu.Lock()
		delete(r.locks, id)
		r.mu.Unlock()
		removed++
	}
	span.SetAttributes(attribute.Int("sessions.removed", removed))
	return removed, nil
}

// Delete removes a session after an ownership check.
func (r *SessionRepository) Delete(ctx context.Context, sessionID, userID string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	if _, err := r.Get(ctx, sessionID, userID); err != nil {
		return err
	}
	err := r.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(sessionID))
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	r.mu.Lock()
	delete(r.locks, sessionID)
	r.mu.Unlock()
	return nil
}
