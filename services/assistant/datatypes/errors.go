// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Error Taxonomy
// =============================================================================

// Sentinel errors. Callers branch with errors.Is; handlers map them onto
// HTTP statuses without exposing internals to the client.
var (
	// ErrSessionNotFound means the session id is unknown to the repository.
	// Session state is left unchanged; the caller gets a terminal message.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotOwner means the session's owning user does not match the
	// caller. Fatal for the request and never retried. Handlers must
	// respond identically to ErrSessionNotFound so a non-owner cannot
	// probe for session existence.
	ErrNotOwner = errors.New("session does not belong to caller")

	// ErrVersionConflict means an optimistic write lost the race with a
	// concurrent turn on the same session. The repository retries
	// internally with backoff; surfacing this error means the retry
	// budget ran out.
	ErrVersionConflict = errors.New("session version conflict")

	// ErrProductNotFound means a catalog lookup returned nothing.
	ErrProductNotFound = errors.New("product not found")

	// ErrProfileNotFound means no stored profile exists for the user.
	ErrProfileNotFound = errors.New("profile not found")
)

// ValidationError reports malformed turn input, typically a feedback answer
// that failed its step grammar. Recovered locally: the engine re-prompts
// without advancing state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// DownstreamError reports a failing collaborator call (classifier, planner,
// catalog, persistence). The engine surfaces it as a turn-level error
// response carrying the elapsed time, and leaves CurrentStep unchanged so
// the same confirmation can be retried.
type DownstreamError struct {
	Component string
	Elapsed   time.Duration
	Err       error
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("%s failed after %s: %v", e.Component, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *DownstreamError) Unwrap() error {
	return e.Err
}

// NewDownstreamError wraps err with the failing component and elapsed time.
func NewDownstreamError(component string, elapsed time.Duration, err error) *DownstreamError {
	return &DownstreamError{Component: component, Elapsed: elapsed, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDownstream reports whether err is a DownstreamError.
func IsDownstream(err error) bool {
	var de *DownstreamError
	return errors.As(err, &de)
}
