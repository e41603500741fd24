// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Request and response types for the chat turn endpoints.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single user message.
	// Checked as byte length, not rune count, to bound memory per request.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxFeedbackValueBytes bounds a single feedback answer.
	MaxFeedbackValueBytes = 4 * 1024
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
	_ = chatValidate.RegisterValidation("feedbackbytes", validateFeedbackBytes)
	_ = chatValidate.RegisterValidation("stepkey", validateStepKey)
}

// validateMaxBytes enforces MaxMessageContentBytes on string fields tagged
// with "maxbytes". Byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// validateFeedbackBytes enforces MaxFeedbackValueBytes on feedback answers.
func validateFeedbackBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxFeedbackValueBytes
}

// feedbackStepKeys is the closed set of step keys accepted by the feedback
// endpoint.
var feedbackStepKeys = map[string]bool{
	"rating":          true,
	"liked_items":     true,
	"disliked_items":  true,
	"suggestions":     true,
	"purchase_intent": true,
}

// validateStepKey enforces the closed feedback step-key set.
func validateStepKey(fl validator.FieldLevel) bool {
	return feedbackStepKeys[fl.Field().String()]
}

// =============================================================================
// Turn Requests
// =============================================================================

// ChatRequest is the body of POST /v1/chat (sendMessage).
//
// # Fields
//
//   - SessionID: Optional. Omitted on the first message of a conversation;
//     the engine then creates a fresh session. Must be UUID v4 when set.
//   - Message: Required free-text user utterance, capped at 32KB.
//
// The caller's user identity comes from the auth middleware, not the body.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,uuid4"`
	Message   string `json:"message" validate:"required,maxbytes"`
}

// Validate validates the ChatRequest fields.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// ConfirmationRequest is the body of POST /v1/chat/confirm
// (sendConfirmation).
//
// FeedbackData carries the chosen action text at final_cart_ready and is
// ignored elsewhere.
type ConfirmationRequest struct {
	SessionID    string `json:"session_id" validate:"required,uuid4"`
	Confirmed    bool   `json:"confirmed"`
	FeedbackData string `json:"feedback_data,omitempty" validate:"omitempty,maxbytes"`
}

// Validate validates the ConfirmationRequest fields.
func (r *ConfirmationRequest) Validate() error {
	return chatValidate.Struct(r)
}

// FeedbackStepRequest is the body of POST /v1/chat/feedback
// (submitFeedbackStep). StepKey selects which of the five feedback answers
// Value carries. Value is capped at 4KB, tighter than the general message
// cap, since a feedback answer is a rating or a short list.
type FeedbackStepRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid4"`
	StepKey   string `json:"step_key" validate:"required,stepkey"`
	Value     string `json:"value" validate:"feedbackbytes"`
}

// Validate validates the FeedbackStepRequest fields.
func (r *FeedbackStepRequest) Validate() error {
	return chatValidate.Struct(r)
}

// AddCartItemsRequest is the body of POST /v1/cart/items.
type AddCartItemsRequest struct {
	Items []CartItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// Validate validates the AddCartItemsRequest fields.
func (r *AddCartItemsRequest) Validate() error {
	return chatValidate.Struct(r)
}

// =============================================================================
// Turn Response
// =============================================================================

// InputType hints how a client should render the next-input widget.
type InputType string

const (
	InputTypeNumber InputType = "number"
	InputTypeText   InputType = "text"
)

// Response is the single outward contract of every turn. Every path,
// including every error path, returns this shape so the client can always
// render something and the conversation never lands in an undefined UI
// state.
//
// # Fields
//
//   - SessionID: the session this turn belongs to
//   - Message: echo of the inbound text, or contextual text for
//     confirmations
//   - Step: current state tag after the turn
//   - StepNumber: informational ordering for the UI
//   - RequiresConfirmation / ConfirmationPrompt: set when the next event
//     must be a yes/no confirmation
//   - Data: opaque payload (recipes, products, cart, lookup results)
//   - IsComplete: true once the session reached a terminal step
//   - NextStep: the step a confirmation would advance to, when known
//   - RequiresInput / InputPrompt / InputType / InputOptions: set when the
//     next event must be a structured answer (feedback sub-flow, action
//     menus)
//   - QueryType / Classification: classifier echo for the current message
//   - AssistantMessage: the canonical user-facing text. Distinct from
//     Message, which may merely echo input.
type Response struct {
	SessionID            string         `json:"session_id"`
	Message              string         `json:"message"`
	Step                 Step           `json:"step"`
	StepNumber           int            `json:"step_number"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	ConfirmationPrompt   string         `json:"confirmation_prompt,omitempty"`
	Data                 map[string]any `json:"data,omitempty"`
	IsComplete           bool           `json:"is_complete"`
	NextStep             Step           `json:"next_step,omitempty"`
	RequiresInput        bool           `json:"requires_input"`
	InputPrompt          string         `json:"input_prompt,omitempty"`
	InputType            InputType      `json:"input_type,omitempty"`
	InputOptions         []string       `json:"input_options,omitempty"`
	QueryType            string         `json:"query_type,omitempty"`
	Classification       string         `json:"classification,omitempty"`
	AssistantMessage     string         `json:"assistant_message"`
}

// NewResponse seeds a Response from the session after a turn. Callers fill
// in the turn-specific fields afterwards.
func NewResponse(s *Session, inbound string) *Response {
	return &Response{
		SessionID:        s.SessionID,
		Message:          inbound,
		Step:             s.CurrentStep,
		StepNumber:       s.StepNumber,
		IsComplete:       s.CurrentStep.IsTerminal(),
		QueryType:        s.QueryType,
		Classification:   s.Classification,
		AssistantMessage: "",
	}
}

// =============================================================================
// Session Listings
// =============================================================================

// SessionSummary is one row of the GET /v1/sessions listing.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     int       `json:"turns"`
}

// generateUUID returns a new UUID v4 string.
func generateUUID() string {
	return uuid.NewString()
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return generateUUID()
}

// NewEntryID returns a fresh transcript entry identifier.
func NewEntryID() string {
	return generateUUID()
}
