// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ttl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stores"
)

func TestDeleteIdle_RemovesOnlyStaleSessions(t *testing.T) {
	db, err := stores.Open(stores.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := stores.NewSessionRepository(db)
	ctx := context.Background()

	fresh := datatypes.NewSession("sess-fresh", "user-1")
	require.NoError(t, repo.Create(ctx, fresh))

	stale := datatypes.NewSession("sess-stale", "user-1")
	require.NoError(t, repo.Create(ctx, stale))
	_, err = repo.Update(ctx, "sess-stale", "user-1", func(s *datatypes.Session) error {
		s.LastUpdatedAt = time.Now().UTC().Add(-time.Hour)
		return nil
	})
	require.NoError(t, err)

	removed, err := repo.DeleteIdle(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "sess-stale", "user-1")
	assert.ErrorIs(t, err, datatypes.ErrSessionNotFound)

	_, err = repo.Get(ctx, "sess-fresh", "user-1")
	assert.NoError(t, err)
}

// recordingSweeper counts DeleteIdle invocations.
type recordingSweeper struct {
	mu    sync.Mutex
	calls int
}

func (r *recordingSweeper) DeleteIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return 0, nil
}

func TestSweeper_RunsOnIntervalUntilCancelled(t *testing.T) {
	rec := &recordingSweeper{}
	s := New(rec, Config{Interval: 10 * time.Millisecond, MaxIdle: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	rec.mu.Lock()
	calls := rec.calls
	rec.mu.Unlock()
	assert.GreaterOrEqual(t, calls, 2)
}

func TestNew_Defaults(t *testing.T) {
	s := New(&recordingSweeper{}, Config{})
	assert.Equal(t, defaultInterval, s.interval)
	assert.Equal(t, defaultMaxIdle, s.maxIdle)
}
