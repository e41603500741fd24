// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"errors"
)

// ErrMessageBlocked is returned when a message is rejected by the filter.
// Hosted implementations should wrap this error with the reason.
//
// Example:
//
//	if containsPaymentCard(msg) {
//	    return "", fmt.Errorf("message contains card number: %w", ErrMessageBlocked)
//	}
var ErrMessageBlocked = errors.New("message blocked by filter")

// FilterResult contains the outcome of a filter operation.
//
// Provides detailed information about what the filter did, useful for
// debugging, audit trails, and user feedback.
//
// Example:
//
//	result := FilterResult{
//	    Original:    "Deliver to 12 Elm St, card 4111111111111111",
//	    Filtered:    "Deliver to [ADDRESS], card [REDACTED]",
//	    WasModified: true,
//	    Detections: []Detection{
//	        {Type: "credit_card", Action: "redacted"},
//	    },
//	}
type FilterResult struct {
	// Original is the input message before filtering.
	Original string

	// Filtered is the message after filtering transformations.
	// If WasModified is false, this equals Original.
	Filtered string

	// WasModified indicates if any transformations were applied.
	WasModified bool

	// WasBlocked indicates if the message was completely rejected.
	// If true, Filtered should not be used.
	WasBlocked bool

	// BlockReason explains why the message was blocked (if WasBlocked).
	BlockReason string

	// Detections lists what the filter found in the message.
	Detections []Detection
}

// Detection describes a single item found by the filter.
type Detection struct {
	// Type categorizes what was detected.
	// Common types: "credit_card", "email", "phone", "address",
	// "loyalty_number", "prompt_injection"
	Type string

	// Location describes where in the message the item was found.
	// Format is implementation-specific (e.g., "characters 10-20").
	Location string

	// Action describes what was done with the detected item.
	// Values: "redacted", "masked", "replaced", "blocked", "flagged"
	Action string

	// Original is the detected content (only populated in debug mode).
	// WARNING: may contain sensitive data - handle carefully.
	Original string

	// Replacement is what the content was replaced with (if Action is
	// "replaced").
	Replacement string
}

// MessageFilter transforms chat messages before and after processing.
//
// Implementations must be safe for concurrent use by multiple goroutines.
//
// # Filter Pipeline
//
// Messages flow through filters at two points:
//
//  1. FilterInput: before the message reaches the conversation engine
//     - Redact payment cards and delivery addresses
//     - Block policy violations
//     - Detect prompt injection attempts
//
//  2. FilterOutput: before the assistant's reply returns to the user
//     - Mask sensitive generated content
//     - Add compliance disclaimers
//
// # Open Source Behavior
//
// The default NopMessageFilter passes all messages through unchanged.
//
// # Blocking vs Transforming
//
// Filters can either transform content and allow it through (redact a
// card number) or reject the entire message (policy violation). To
// block, return a FilterResult with WasBlocked=true and BlockReason
// set; the caller should then return ErrMessageBlocked to the user.
type MessageFilter interface {
	// FilterInput processes a user message before engine processing.
	// The error is non-nil only for filter failures, not for blocks.
	FilterInput(ctx context.Context, message string) (*FilterResult, error)

	// FilterOutput processes an assistant reply before returning it to
	// the user. The error is non-nil only for filter failures.
	FilterOutput(ctx context.Context, message string) (*FilterResult, error)
}

// NopMessageFilter is the default message filter for open source.
//
// It passes all messages through unchanged without any transformation
// or blocking.
//
// Thread-safe: this implementation has no mutable state.
type NopMessageFilter struct{}

// FilterInput returns the message unchanged.
func (f *NopMessageFilter) FilterInput(ctx context.Context, message string) (*FilterResult, error) {
	return &FilterResult{
		Original: message,
		Filtered: message,
	}, nil
}

// FilterOutput returns the message unchanged.
func (f *NopMessageFilter) FilterOutput(ctx context.Context, message string) (*FilterResult, error) {
	return &FilterResult{
		Original: message,
		Filtered: message,
	}, nil
}

var _ MessageFilter = (*NopMessageFilter)(nil)
