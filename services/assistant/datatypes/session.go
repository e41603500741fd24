// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the assistant service.
//
// This file contains the Session model and the closed Step enumeration that
// drives the conversation state machine. The Step set is exhaustive: every
// value the engine can write to Session.CurrentStep is declared here, and
// the dispatch table in the engine package matches over this set.
package datatypes

import (
	"time"
)

// =============================================================================
// Conversation Steps
// =============================================================================

// Step identifies the current position of a session inside the conversation
// state machine.
//
// # Description
//
// Step is a closed enumeration. The engine owns all transitions; no other
// component writes Session.CurrentStep. Values serialize as snake_case
// strings on the wire and in the session store.
//
// Steps fall into three groups:
//
//   - flow steps: the session is mid-conversation and the next inbound
//     event (message, confirmation, or feedback answer) advances it
//   - feedback steps: owned by the feedback sub-flow; free text on these
//     steps is interpreted as a structured answer, never reclassified
//   - terminal steps: the conversation is finished; the next free-text
//     message starts a fresh classification pass
type Step string

const (
	// StepConversationStart is the initial step of every new session.
	StepConversationStart Step = "conversation_start"

	// StepConversationProcessed marks that classification ran on the most
	// recent free-text message.
	StepConversationProcessed Step = "conversation_processed"

	// StepGoalConfirmation awaits a yes/no on a detected goal-based query.
	StepGoalConfirmation Step = "goal_confirmation"

	// StepCasualResponse marks a one-shot conversational answer; confirming
	// from here triggers a deeper catalog search.
	StepCasualResponse Step = "casual_response"

	// StepGeneralQuerySearch marks the deeper catalog search that follows a
	// confirmed casual response.
	StepGeneralQuerySearch Step = "general_query_search"

	// StepIntentConfirmation awaits confirmation of the extracted intent
	// before the domain pipeline runs.
	StepIntentConfirmation Step = "intent_confirmation"

	// StepProfileLoaded marks that the user profile snapshot was loaded for
	// the current flow.
	StepProfileLoaded Step = "profile_loaded"

	// StepRecipesReady awaits confirmation of a generated meal plan.
	StepRecipesReady Step = "recipes_ready"

	// StepProductsReady awaits confirmation of a product recommendation set.
	StepProductsReady Step = "products_ready"

	// StepCartReady awaits confirmation of the built (pre-adjustment) cart.
	StepCartReady Step = "cart_ready"

	// StepFinalCartReady presents the adjusted cart plus the action menu.
	StepFinalCartReady Step = "final_cart_ready"

	// StepCartActionSelection awaits the user's pick from the final-cart
	// action menu.
	StepCartActionSelection Step = "cart_action_selection"
)

// Feedback sub-flow steps. The engine delegates any session on one of these
// steps to the feedback collector without reclassifying the input.
const (
	StepFeedbackRating        Step = "feedback_rating"
	StepFeedbackLikedItems    Step = "feedback_liked_items"
	StepFeedbackDislikedItems Step = "feedback_disliked_items"
	StepFeedbackSuggestions   Step = "feedback_suggestions"
	StepFeedbackPurchase      Step = "feedback_purchase"
)

// Terminal steps. A session on a terminal step accepts no further
// confirmations; the next free-text message restarts classification.
const (
	StepComplete              Step = "complete"
	StepDeclined              Step = "declined"
	StepNoRecipes             Step = "no_recipes"
	StepNoProducts            Step = "no_products"
	StepNoCartItems           Step = "no_cart_items"
	StepNoMatchingRecipe      Step = "no_matching_recipe"
	StepCartOperationComplete Step = "cart_operation_complete"
	StepCartOperationFailed   Step = "cart_operation_failed"
	StepCartOperationError    Step = "cart_operation_error"
	StepProductLookupComplete Step = "product_lookup_complete"
	StepProductLookupFailed   Step = "product_lookup_failed"
	StepBasketBuilderError    Step = "basket_builder_error"
)

// feedbackSteps is the fixed order of the feedback sub-flow.
var feedbackSteps = map[Step]bool{
	StepFeedbackRating:        true,
	StepFeedbackLikedItems:    true,
	StepFeedbackDislikedItems: true,
	StepFeedbackSuggestions:   true,
	StepFeedbackPurchase:      true,
}

// terminalSteps is the set of steps after which the conversation is over.
var terminalSteps = map[Step]bool{
	StepComplete:              true,
	StepDeclined:              true,
	StepNoRecipes:             true,
	StepNoProducts:            true,
	StepNoCartItems:           true,
	StepNoMatchingRecipe:      true,
	StepCartOperationComplete: true,
	StepCartOperationFailed:   true,
	StepCartOperationError:    true,
	StepProductLookupComplete: true,
	StepProductLookupFailed:   true,
	StepBasketBuilderError:    true,
}

// IsFeedback reports whether s belongs to the feedback sub-flow.
func (s Step) IsFeedback() bool {
	return feedbackSteps[s]
}

// IsTerminal reports whether s ends the conversation.
func (s Step) IsTerminal() bool {
	return terminalSteps[s]
}

// String returns the wire form of the step.
func (s Step) String() string {
	return string(s)
}

// =============================================================================
// Intent
// =============================================================================

// CartOperation identifies which cart mutation a cart-operation query asks for.
type CartOperation string

const (
	CartOpAdd    CartOperation = "add"
	CartOpDelete CartOperation = "delete"
	CartOpView   CartOperation = "view"
	CartOpClear  CartOperation = "clear"
)

// Intent holds the structured fields extracted once per goal-based flow.
//
// # Fields
//
//   - QueryType: resolved query type driving dispatch from intent confirmation
//   - CartOperation: populated only for cart-operation queries
//   - MealCount: requested number of meals (default 3)
//   - Budget: budget ceiling in dollars; 0 means no ceiling
//   - DietaryPreference: e.g. "vegetarian", "keto"; empty if unstated
//   - ProductCategory: e.g. "dairy", "produce"; empty if unstated
//   - SpecialRequirements: free-text constraints ("quick meals", "organic")
type Intent struct {
	QueryType           string        `json:"query_type"`
	CartOperation       CartOperation `json:"cart_operation,omitempty"`
	MealCount           int           `json:"number_of_meals,omitempty"`
	Budget              float64       `json:"budget,omitempty"`
	DietaryPreference   string        `json:"dietary_preference,omitempty"`
	ProductCategory     string        `json:"product_category,omitempty"`
	SpecialRequirements string        `json:"special_requirements,omitempty"`
}

// =============================================================================
// Profile
// =============================================================================

// Profile is the snapshot of a user's dietary and budget data loaded once per
// flow. The profile store owns the long-lived record; the session carries a
// copy so a flow is not affected by concurrent profile edits.
type Profile struct {
	UserID            string            `json:"user_id"`
	DietaryPreference string            `json:"dietary_preference"`
	Allergies         []string          `json:"allergies,omitempty"`
	BudgetPerMeal     float64           `json:"budget_per_meal"`
	MealGoal          string            `json:"meal_goal"`
	CookingSkill      string            `json:"cooking_skill"`
	PastPurchases     []string          `json:"past_purchases,omitempty"`
	FeedbackHistory   []FeedbackRecord  `json:"feedback_history,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// FeedbackRecord is one completed feedback object persisted against a profile.
type FeedbackRecord struct {
	SessionID   string         `json:"session_id"`
	QueryType   string         `json:"query_type,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Values      map[string]any `json:"values"`
}

// Feedback keys written by the feedback sub-flow. The accumulator merge is
// append-only: no step erases a previously written key.
const (
	FeedbackKeySatisfaction = "overall_satisfaction"
	FeedbackKeyLikedItems   = "liked_items"
	FeedbackKeyDisliked     = "disliked_items"
	FeedbackKeySuggestions  = "suggestions"
	FeedbackKeyWillPurchase = "will_purchase"
)

// =============================================================================
// Session
// =============================================================================

// Session is the central mutable entity: the unit of conversational state
// for one user's ongoing interaction.
//
// # Description
//
// Created on the first message of a conversation, mutated on every inbound
// message or confirmation, and implicitly finished once CurrentStep reaches
// a terminal value. Only the conversation engine mutates a Session; all
// other components are pure functions over inputs they are handed.
//
// # Invariants
//
//   - CurrentStep fully determines which handler runs on the next event
//   - StepNumber is monotonically non-decreasing
//   - Feedback accumulates keys incrementally (append-only merge)
//   - FinalCart is only set after Cart is non-empty and stock adjustment ran
//   - A session belongs to exactly one user; cross-user access is a hard
//     authorization error
//
// # Thread Safety
//
// Not safe for concurrent mutation. The session repository serializes all
// writes for a given session id; Version supports its compare-and-swap.
type Session struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	CurrentStep Step   `json:"current_step"`
	StepNumber  int    `json:"step_number"`

	// LastMessage is the most recent raw user utterance, kept for
	// reprocessing in later steps (intent re-parsing, deeper search).
	LastMessage string `json:"last_message"`

	// Classification and QueryType cache the classifier output for the
	// current message. Both are cleared on every new free-text message.
	Classification string `json:"classification,omitempty"`
	QueryType      string `json:"query_type,omitempty"`

	Intent      *Intent  `json:"intent,omitempty"`
	UserProfile *Profile `json:"user_profile,omitempty"`

	Recipes                []Recipe  `json:"recipes,omitempty"`
	ProductRecommendations []Product `json:"product_recommendations,omitempty"`

	// Cart is the basket builder output before stock adjustment; FinalCart
	// is the user-facing cart after promotions and substitutions.
	Cart      []CartItem `json:"cart,omitempty"`
	FinalCart []CartItem `json:"final_cart,omitempty"`

	// Feedback accumulates the five feedback answers under fixed keys.
	Feedback map[string]any `json:"feedback,omitempty"`

	// Version increments on every repository write and backs optimistic
	// concurrency control in the session store.
	Version uint64 `json:"version"`

	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// NewSession creates a session at the conversation start step.
func NewSession(sessionID, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:     sessionID,
		UserID:        userID,
		CurrentStep:   StepConversationStart,
		StepNumber:    1,
		Feedback:      map[string]any{},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// Touch bumps LastUpdatedAt. Called by the engine after every mutation.
func (s *Session) Touch() {
	s.LastUpdatedAt = time.Now().UTC()
}

// Advance moves the session to step and raises StepNumber to at least n.
// StepNumber never decreases, so re-entering an earlier step for a retry
// keeps the ordering visible to the UI intact.
func (s *Session) Advance(step Step, n int) {
	s.CurrentStep = step
	if n > s.StepNumber {
		s.StepNumber = n
	}
	s.Touch()
}

// ResetClassification clears the per-message classifier cache and intent.
// Called when a brand-new free-text message arrives.
func (s *Session) ResetClassification() {
	s.Classification = ""
	s.QueryType = ""
	s.Intent = nil
	s.Touch()
}

// MergeFeedback writes value under key without erasing other keys.
func (s *Session) MergeFeedback(key string, value any) {
	if s.Feedback == nil {
		s.Feedback = map[string]any{}
	}
	s.Feedback[key] = value
	s.Touch()
}

// =============================================================================
// Transcript
// =============================================================================

// TranscriptEntryType distinguishes user from assistant transcript lines.
type TranscriptEntryType string

const (
	TranscriptUser      TranscriptEntryType = "user"
	TranscriptAssistant TranscriptEntryType = "assistant"
)

// TranscriptEntry is one append-only line of a session transcript.
//
// EntryID doubles as the idempotency key: appending the same EntryID twice
// must not duplicate the line, so a retried request cannot double-write.
type TranscriptEntry struct {
	EntryID   string              `json:"entry_id"`
	Type      TranscriptEntryType `json:"type"`
	Content   string              `json:"content"`
	Timestamp time.Time           `json:"timestamp"`
	Metadata  map[string]string   `json:"metadata,omitempty"`
}
