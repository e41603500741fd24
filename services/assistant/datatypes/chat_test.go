// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"
)

// =============================================================================
// ChatRequest Validation Tests
// =============================================================================

func TestChatRequest_Validate_Success(t *testing.T) {
	req := &ChatRequest{
		Message: "How much does milk cost?",
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestChatRequest_Validate_WithSessionID(t *testing.T) {
	req := &ChatRequest{
		SessionID: "550e8400-e29b-41d4-a716-446655440000",
		Message:   "Plan 3 meals under $50",
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestChatRequest_Validate_EmptyMessage(t *testing.T) {
	req := &ChatRequest{}

	if err := req.Validate(); err == nil {
		t.Error("expected error for empty message, got nil")
	}
}

func TestChatRequest_Validate_InvalidSessionID(t *testing.T) {
	req := &ChatRequest{
		SessionID: "not-a-uuid",
		Message:   "hello",
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for malformed session_id, got nil")
	}
}

func TestChatRequest_Validate_OversizedMessage(t *testing.T) {
	req := &ChatRequest{
		Message: strings.Repeat("a", MaxMessageContentBytes+1),
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for oversized message, got nil")
	}
}

// =============================================================================
// ConfirmationRequest Validation Tests
// =============================================================================

func TestConfirmationRequest_Validate_Success(t *testing.T) {
	req := &ConfirmationRequest{
		SessionID: "550e8400-e29b-41d4-a716-446655440000",
		Confirmed: true,
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestConfirmationRequest_Validate_MissingSessionID(t *testing.T) {
	req := &ConfirmationRequest{Confirmed: true}

	if err := req.Validate(); err == nil {
		t.Error("expected error for missing session_id, got nil")
	}
}

// =============================================================================
// FeedbackStepRequest Validation Tests
// =============================================================================

func TestFeedbackStepRequest_Validate_Success(t *testing.T) {
	for _, key := range []string{"rating", "liked_items", "disliked_items", "suggestions", "purchase_intent"} {
		req := &FeedbackStepRequest{
			SessionID: "550e8400-e29b-41d4-a716-446655440000",
			StepKey:   key,
			Value:     "3",
		}
		if err := req.Validate(); err != nil {
			t.Errorf("step key %q: expected valid request, got error: %v", key, err)
		}
	}
}

func TestFeedbackStepRequest_Validate_UnknownStepKey(t *testing.T) {
	req := &FeedbackStepRequest{
		SessionID: "550e8400-e29b-41d4-a716-446655440000",
		StepKey:   "mood",
		Value:     "great",
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for unknown step key, got nil")
	}
}

func TestFeedbackStepRequest_Validate_OversizedValue(t *testing.T) {
	// The feedback cap is tighter than the general message cap: a value
	// just over 4KB must fail even though it is well under 32KB.
	req := &FeedbackStepRequest{
		SessionID: "550e8400-e29b-41d4-a716-446655440000",
		StepKey:   "suggestions",
		Value:     strings.Repeat("a", MaxFeedbackValueBytes+1),
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for oversized feedback value, got nil")
	}
}

func TestFeedbackStepRequest_Validate_EmptyValueAllowed(t *testing.T) {
	// Suggestions may legitimately be empty.
	req := &FeedbackStepRequest{
		SessionID: "550e8400-e29b-41d4-a716-446655440000",
		StepKey:   "suggestions",
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected empty value to validate, got error: %v", err)
	}
}
