// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// defaultRatePerSecond and defaultBurst bound one user's request rate.
// Conversational traffic is human-paced, so the ceiling is generous.
const (
	defaultRatePerSecond = 10
	defaultBurst         = 20
)

// RateLimiterConfig tunes the per-user token buckets.
type RateLimiterConfig struct {
	RatePerSecond float64
	Burst         int
}

// userLimiters holds one token bucket per user id. Entries are never
// evicted; the per-entry footprint is tiny and the user set is bounded
// by the auth provider.
type userLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func (u *userLimiters) get(userID string) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.limiters[userID]
	if !ok {
		l = rate.NewLimiter(u.rps, u.burst)
		u.limiters[userID] = l
	}
	return l
}

// RateLimitMiddleware rejects requests exceeding the per-user rate with
// 429. Must run after AuthMiddleware so the user identity is available;
// unauthenticated requests share one bucket under the empty user id.
func RateLimitMiddleware(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	limiters := &userLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(cfg.RatePerSecond),
		burst:    cfg.Burst,
	}

	return func(c *gin.Context) {
		if !limiters.get(UserID(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
