// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ttl removes idle conversation sessions on a schedule.
//
// Badger already expires session keys via key TTL; the sweeper is the
// belt for sessions that stop mid-flow on long-TTL deployments, and it
// produces the audit log line operators watch for.
package ttl

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pantrypilot.assistant.ttl")

const (
	defaultInterval = 5 * time.Minute
	defaultMaxIdle  = 30 * time.Minute
)

// SessionSweeper deletes sessions idle longer than maxIdle.
type SessionSweeper interface {
	DeleteIdle(ctx context.Context, maxIdle time.Duration) (int, error)
}

// Config controls the sweep schedule.
type Config struct {
	// Interval between sweeps. Defaults to 5 minutes.
	Interval time.Duration

	// MaxIdle is how long a session may go without a turn before it is
	// removed. Defaults to 30 minutes.
	MaxIdle time.Duration

	Logger *slog.Logger
}

// Sweeper periodically deletes idle sessions.
type Sweeper struct {
	sessions SessionSweeper
	interval time.Duration
	maxIdle  time.Duration
	logger   *slog.Logger
}

// New creates a sweeper over the session repository.
func New(sessions SessionSweeper, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = defaultMaxIdle
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sweeper{
		sessions: sessions,
		interval: cfg.Interval,
		maxIdle:  cfg.MaxIdle,
		logger:   cfg.Logger,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started",
		"interval", s.interval, "max_idle", s.maxIdle)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce runs a single sweep and logs the outcome.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Sweeper.sweepOnce")
	defer span.End()

	start := time.Now()
	removed, err := s.sessions.DeleteIdle(ctx, s.maxIdle)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("idle sessions removed",
			"count", removed,
			"max_idle", s.maxIdle,
			"elapsed", time.Since(start))
	}
}
