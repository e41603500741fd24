// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"time"
)

// AuditEvent represents a security-relevant event for compliance logging.
//
// # Event Categories
//
// Events are categorized by type for filtering and alerting:
//   - Authentication: "auth.login", "auth.failed"
//   - Authorization: "authz.denied", "authz.granted"
//   - Conversation: "chat.turn", "chat.blocked"
//   - Cart: "cart.add", "cart.remove", "cart.clear"
//   - Data: "session.delete", "profile.read"
//
// # Compliance Fields
//
// For regulatory compliance, always populate UserID (required for GDPR
// right-to-know requests), Timestamp, and ResourceType/ResourceID.
//
// Example:
//
//	event := AuditEvent{
//	    EventType:    "cart.add",
//	    Timestamp:    time.Now().UTC(),
//	    UserID:       authInfo.UserID,
//	    Action:       "create",
//	    ResourceType: "cart",
//	    ResourceID:   "dairy-001",
//	    Outcome:      "success",
//	}
type AuditEvent struct {
	// EventType categorizes the event for filtering and alerting.
	// Format: "category.action" (e.g., "auth.login", "cart.add")
	EventType string

	// Timestamp is when the event occurred (always use UTC).
	// If zero, implementations should set it to time.Now().UTC().
	Timestamp time.Time

	// UserID identifies who performed the action.
	// Use "system" for automated actions like the session sweeper.
	UserID string

	// Action describes what operation was attempted.
	// Common values: "create", "read", "update", "delete"
	Action string

	// ResourceType is the category of resource involved.
	// Examples: "session", "cart", "profile", "transcript"
	ResourceType string

	// ResourceID is the specific resource instance (optional).
	ResourceID string

	// Outcome indicates the result of the action.
	// Values: "success", "failure", "blocked", "error"
	Outcome string

	// Metadata holds additional event-specific data, such as the error
	// message on failure or the client IP for security analysis.
	Metadata map[string]any
}

// AuditFilter defines criteria for querying audit events.
//
// All fields are optional. Only non-zero values are used as filters,
// combined with AND logic.
type AuditFilter struct {
	// EventTypes limits results to specific event types.
	EventTypes []string

	// UserID limits results to events from a specific user.
	UserID string

	// StartTime is the earliest event timestamp to include (inclusive).
	StartTime time.Time

	// EndTime is the latest event timestamp to include (exclusive).
	EndTime time.Time

	// ResourceType limits results to a resource category.
	ResourceType string

	// ResourceID limits results to a specific resource.
	ResourceID string

	// Outcome limits results to events with a specific outcome.
	Outcome string

	// Limit is the maximum number of events to return.
	// If zero, an implementation-specific default is used.
	Limit int

	// Offset is the number of events to skip (for pagination).
	Offset int
}

// AuditLogger records security-relevant events for compliance and
// analysis.
//
// Implementations must be safe for concurrent use by multiple
// goroutines. Log should be non-blocking or have reasonable timeouts so
// it does not add latency to conversation turns.
//
// # Open Source Behavior
//
// The default NopAuditLogger discards all events. Appropriate for local
// single-user deployments where audit trails aren't required.
//
// # Hosted Implementation
//
// Hosted versions send events to SIEM systems, cloud logging, or
// compliance databases. For compliance-critical events, synchronous
// logging is recommended; asynchronous implementations may lose
// buffered events on crash.
type AuditLogger interface {
	// Log records a security-relevant event. Implementations should set
	// Timestamp if zero and return quickly.
	Log(ctx context.Context, event AuditEvent) error

	// Query retrieves audit events matching the filter criteria,
	// ordered by Timestamp descending.
	Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)

	// Flush ensures all buffered events are persisted. Call before
	// shutdown to prevent event loss; sync implementations may no-op.
	Flush(ctx context.Context) error
}

// NopAuditLogger is the default audit logger for open source.
//
// It discards all events without recording them.
//
// Thread-safe: this implementation has no mutable state.
type NopAuditLogger struct{}

// Log discards the event without recording it.
func (l *NopAuditLogger) Log(ctx context.Context, event AuditEvent) error {
	return nil
}

// Query returns an empty slice (no events are stored).
func (l *NopAuditLogger) Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	return []AuditEvent{}, nil
}

// Flush is a no-op since nothing is buffered.
func (l *NopAuditLogger) Flush(ctx context.Context) error {
	return nil
}

var _ AuditLogger = (*NopAuditLogger)(nil)
