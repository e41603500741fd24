// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/observability"
)

// =============================================================================
// Feedback Sub-flow
// =============================================================================

// feedbackQuestion is one fixed station of the feedback sub-flow.
type feedbackQuestion struct {
	step       datatypes.Step
	key        string // session feedback accumulator key
	requestKey string // step_key accepted on the structured endpoint
	prompt     string
	inputType  datatypes.InputType
	options    []string
	number     int
	parse      func(string) (any, error)
}

// feedbackQuestions is the fixed question order. Each answer advances to
// the next entry; the last valid answer completes the session.
var feedbackQuestions = []feedbackQuestion{
	{
		step:       datatypes.StepFeedbackRating,
		key:        datatypes.FeedbackKeySatisfaction,
		requestKey: "rating",
		prompt:     "How satisfied are you with these results? (1-5)",
		inputType:  datatypes.InputTypeNumber,
		number:     9,
		parse:      parseRating,
	},
	{
		step:       datatypes.StepFeedbackLikedItems,
		key:        datatypes.FeedbackKeyLikedItems,
		requestKey: "liked_items",
		prompt:     "Which items did you like? (comma-separated, or \"none\")",
		inputType:  datatypes.InputTypeText,
		number:     10,
		parse:      parseItemList,
	},
	{
		step:       datatypes.StepFeedbackDislikedItems,
		key:        datatypes.FeedbackKeyDisliked,
		requestKey: "disliked_items",
		prompt:     "Were there any items you didn't like? (comma-separated, or \"none\")",
		inputType:  datatypes.InputTypeText,
		number:     11,
		parse:      parseItemList,
	},
	{
		step:       datatypes.StepFeedbackSuggestions,
		key:        datatypes.FeedbackKeySuggestions,
		requestKey: "suggestions",
		prompt:     "Any suggestions for how I could do better?",
		inputType:  datatypes.InputTypeText,
		number:     12,
		parse:      parseFreeText,
	},
	{
		step:       datatypes.StepFeedbackPurchase,
		key:        datatypes.FeedbackKeyWillPurchase,
		requestKey: "purchase_intent",
		prompt:     "Will you be purchasing these items?",
		inputType:  datatypes.InputTypeText,
		options:    []string{"yes", "no"},
		number:     13,
		parse:      parsePurchase,
	},
}

// questionForStep returns the feedback question a step collects.
func questionForStep(step datatypes.Step) (feedbackQuestion, bool) {
	for _, q := range feedbackQuestions {
		if q.step == step {
			return q, true
		}
	}
	return feedbackQuestion{}, false
}

// questionByRequestKey resolves the structured endpoint's step_key.
func questionByRequestKey(requestKey string) (feedbackQuestion, bool) {
	for _, q := range feedbackQuestions {
		if q.requestKey == requestKey {
			return q, true
		}
	}
	return feedbackQuestion{}, false
}

// requestKeyFor returns the step_key the current step expects.
func requestKeyFor(step datatypes.Step) string {
	if q, ok := questionForStep(step); ok {
		return q.requestKey
	}
	return ""
}

// submitFeedback records one answer for the session's current feedback
// step. Invalid answers re-prompt the same step without mutating the
// accumulator, so a retry is always safe.
func (e *Engine) submitFeedback(ctx context.Context, s *datatypes.Session, value string) (*datatypes.Response, error) {
	q, ok := questionForStep(s.CurrentStep)
	if !ok {
		return nil, datatypes.NewValidationError("step", "session is not collecting feedback")
	}

	parsed, err := q.parse(value)
	if err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordFeedback(q.requestKey, false)
		}
		resp := e.feedbackPrompt(s)
		resp.Data = map[string]any{"error": err.Error()}
		return resp, nil
	}
	if m := observability.DefaultMetrics; m != nil {
		m.RecordFeedback(q.requestKey, true)
	}

	s.MergeFeedback(q.key, parsed)

	if q.step == datatypes.StepFeedbackPurchase {
		return e.completeFeedback(ctx, s, parsed.(bool))
	}

	// Advance to the next question in the fixed order.
	for i, question := range feedbackQuestions {
		if question.step == q.step {
			next := feedbackQuestions[i+1]
			s.Advance(next.step, next.number)
			break
		}
	}
	return e.feedbackPrompt(s), nil
}

// completeFeedback persists the full feedback object and ends the session.
func (e *Engine) completeFeedback(ctx context.Context, s *datatypes.Session, willPurchase bool) (*datatypes.Response, error) {
	record := datatypes.FeedbackRecord{
		SessionID:   s.SessionID,
		QueryType:   s.QueryType,
		SubmittedAt: timeNow().UTC(),
		Values:      s.Feedback,
	}
	if _, err := downstream(ctx, e.timeout, "profile_store", func(c context.Context) (struct{}, error) {
		return struct{}{}, e.profiles.RecordFeedback(c, s.UserID, record)
	}); err != nil {
		return nil, err
	}

	s.Advance(datatypes.StepComplete, 14)
	resp := datatypes.NewResponse(s, "")
	resp.IsComplete = true
	if willPurchase {
		resp.AssistantMessage = "Great! Your items are ready to purchase. Thanks for shopping with us!"
	} else {
		resp.AssistantMessage = "Thanks for the feedback! Come back any time."
	}
	resp.Data = map[string]any{
		"feedback":        s.Feedback,
		"purchase_intent": willPurchase,
	}
	return resp, nil
}

// feedbackPrompt builds the input request for the session's current
// feedback question.
func (e *Engine) feedbackPrompt(s *datatypes.Session) *datatypes.Response {
	resp := datatypes.NewResponse(s, "")
	q, ok := questionForStep(s.CurrentStep)
	if !ok {
		resp.AssistantMessage = "This conversation is not collecting feedback right now."
		return resp
	}
	resp.RequiresInput = true
	resp.InputPrompt = q.prompt
	resp.InputType = q.inputType
	resp.InputOptions = q.options
	resp.AssistantMessage = q.prompt
	return resp
}

// =============================================================================
// Answer Parsers
// =============================================================================

// parseRating accepts a whole number from 1 to 5.
func parseRating(value string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, datatypes.NewValidationError("rating", "must be a whole number from 1 to 5")
	}
	if n < 1 || n > 5 {
		return nil, datatypes.NewValidationError("rating", "must be between 1 and 5")
	}
	return n, nil
}

// parseItemList splits a comma-separated item list. "none" and the empty
// string both mean no items.
func parseItemList(value string) (any, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return []string{}, nil
	}
	parts := strings.Split(trimmed, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items, nil
}

// parseFreeText accepts anything, including an empty answer.
func parseFreeText(value string) (any, error) {
	return strings.TrimSpace(value), nil
}

// parsePurchase maps an affirmative answer to true and everything else
// to false. There is no invalid input at this station.
func parsePurchase(value string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "1":
		return true, nil
	default:
		return false, nil
	}
}
