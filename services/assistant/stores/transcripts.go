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
	"sort"
	"time"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
)

const (
	transcriptKeyPrefix = "transcript/"

	// DefaultTranscriptRetention is how many transcripts survive per user.
	DefaultTranscriptRetention = 5

	// transcriptTitleLimit caps the derived title length.
	transcriptTitleLimit = 50
)

// transcriptRecord is the stored form of one session's transcript.
type transcriptRecord struct {
	SessionID string                      `json:"session_id"`
	UserID    string                      `json:"user_id"`
	Title     string                      `json:"title"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	Entries   []datatypes.TranscriptEntry `json:"entries"`
}

// TranscriptStore persists append-only conversation transcripts.
//
// # Description
//
// One record per (user, session). Appends are idempotent on EntryID so a
// retried request never double-writes a line. Each user keeps at most
// the configured retention count of transcripts; creating one beyond the
// cap evicts the least recently updated.
//
// # Thread Safety
//
// Safe for concurrent use. Appends for one session go through the same
// per-session serialization as session updates would, via transaction
// conflict retry.
type TranscriptStore struct {
	db        *DB
	retention int
}

// NewTranscriptStore creates a store keeping up to retention transcripts per
// user. Zero or negative retention falls back to the default.
func NewTranscriptStore(db *DB, retention int) *TranscriptStore {
	if retention <= 0 {
		retention = DefaultTranscriptRetention
	}
	return &TranscriptStore{db: db, retention: retention}
}

func transcriptKey(userID, sessionID string) []byte {
	return []byte(transcriptKeyPrefix + userID + "/" + sessionID)
}

func transcriptUserPrefix(userID string) []byte {
	return []byte(transcriptKeyPrefix + userID + "/")
}

// transcriptTitle derives the listing title from the first user message.
func transcriptTitle(content string) string {
	if len(content) > transcriptTitleLimit {
		return content[:transcriptTitleLimit] + "..."
	}
	return content
}

// Append adds entries to a session's transcript, creating it on first write.
//
// Entries whose EntryID is already present are skipped silently.
func (s *TranscriptStore) Append(
	ctx context.Context,
	userID, sessionID string,
	entries ...datatypes.TranscriptEntry,
) error {
	ctx, span := tracer.Start(ctx, "TranscriptStore.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("transcript.entries", len(entries)),
	)

	if len(entries) == 0 {
		return nil
	}

	key := transcriptKey(userID, sessionID)
	created := false
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var rec transcriptRecord
		err := getJSON(txn, key, &rec)
		if errors.Is(err, badger.ErrKeyNotFound) {
			created = true
			rec = transcriptRecord{
				SessionID: sessionID,
				UserID:    userID,
				CreatedAt: time.Now().UTC(),
			}
		} else if err != nil {
			return err
		}

		seen := make(map[string]bool, len(rec.Entries))
		for _, e := range rec.Entries {
			seen[e.EntryID] = true
		}
		for _, e := range entries {
			if e.EntryID == "" || seen[e.EntryID] {
				continue
			}
			seen[e.EntryID] = true
			rec.Entries = append(rec.Entries, e)
			if rec.Title == "" && e.Type == datatypes.TranscriptUser {
				rec.Title = transcriptTitle(e.Content)
			}
		}
		rec.UpdatedAt = time.Now().UTC()
		return setJSON(txn, key, &rec, 0)
	})
	if err != nil {
		return fmt.Errorf("append transcript for session %s: %w", sessionID, err)
	}

	if created {
		return s.enforceRetention(ctx, userID)
	}
	return nil
}

// enforceRetention evicts the least recently updated transcripts beyond the
// per-user cap.
func (s *TranscriptStore) enforceRetention(ctx context.Context, userID string) error {
	records, err := s.listRecords(ctx, userID)
	if err != nil {
		return err
	}
	if len(records) <= s.retention {
		return nil
	}

	// listRecords sorts newest first, so everything past the cap goes.
	excess := records[s.retention:]
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		for _, rec := range excess {
			if err := txn.Delete(transcriptKey(userID, rec.SessionID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns a session's transcript entries in append order.
func (s *TranscriptStore) Get(ctx context.Context, userID, sessionID string) ([]datatypes.TranscriptEntry, error) {
	ctx, span := tracer.Start(ctx, "TranscriptStore.Get")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	var rec transcriptRecord
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, transcriptKey(userID, sessionID), &rec)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, datatypes.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript for session %s: %w", sessionID, err)
	}
	return rec.Entries, nil
}

// ListSessions returns one summary per retained transcript, newest first.
func (s *TranscriptStore) ListSessions(ctx context.Context, userID string) ([]datatypes.SessionSummary, error) {
	ctx, span := tracer.Start(ctx, "TranscriptStore.ListSessions")
	defer span.End()

	records, err := s.listRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]datatypes.SessionSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, datatypes.SessionSummary{
			SessionID: rec.SessionID,
			Title:     rec.Title,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
			Turns:     len(rec.Entries),
		})
	}
	return summaries, nil
}

// Delete removes one session's transcript. Missing transcripts are not an
// error so deletes stay idempotent.
func (s *TranscriptStore) Delete(ctx context.Context, userID, sessionID string) error {
	ctx, span := tracer.Start(ctx, "TranscriptStore.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete(transcriptKey(userID, sessionID))
	})
}

// listRecords loads all of a user's transcripts sorted newest first, ties
// broken by session id for stable ordering.
func (s *TranscriptStore) listRecords(ctx context.Context, userID string) ([]transcriptRecord, error) {
	var records []transcriptRecord
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := transcriptUserPrefix(userID)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec transcriptRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list transcripts for user %s: %w", userID, err)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		}
		return records[i].SessionID < records[j].SessionID
	})
	return records, nil
}
