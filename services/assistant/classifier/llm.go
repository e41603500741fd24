// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PantryPilotAI/PantryPilot/services/llm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// classifyPrompt asks the model for a strict JSON verdict. Kept short on
// purpose: the keyword fallback handles everything the model cannot.
const classifyPrompt = `Classify the following grocery-store customer message.

Respond with ONLY a JSON object, no prose:
{"classification": "goal" or "casual", "query_type": "<one of: price_inquiry, product_search, substitution_request, store_navigation, promotion_inquiry, dietary_filter, recommendation_request, meal_planning, availability_check, general_inquiry, cart_operation>"}

Message: %q`

// llmClassifyTimeout bounds the model call so a slow backend cannot stall
// a conversation turn; the keyword fallback answers instead.
const llmClassifyTimeout = 10 * time.Second

// LLMClassifier classifies via a language model with a deterministic
// keyword fallback.
//
// # Description
//
// The model is asked for a strict JSON verdict. On any failure, which
// includes transport errors, timeouts, unparseable output, and out-of-
// taxonomy query types, the keyword classifier answers instead. The
// fallback path never returns an error, so classification as a whole
// never hard-fails a turn.
type LLMClassifier struct {
	client   llm.LLMClient
	fallback *KeywordClassifier
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier wraps client with the keyword fallback.
func NewLLMClassifier(client llm.LLMClient) *LLMClassifier {
	return &LLMClassifier{
		client:   client,
		fallback: NewKeywordClassifier(),
	}
}

// llmVerdict is the JSON shape expected back from the model.
type llmVerdict struct {
	Classification string `json:"classification"`
	QueryType      string `json:"query_type"`
}

// Classify implements the Classifier interface.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Result, error) {
	ctx, span := tracer.Start(ctx, "LLMClassifier.Classify")
	defer span.End()

	result, err := c.classifyWithModel(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm classification failed")
		span.SetAttributes(attribute.Bool("classifier.fallback", true))
		slog.Debug("LLM classification failed, using keyword fallback", "error", err)
		return c.fallback.Classify(ctx, text)
	}
	span.SetAttributes(
		attribute.String("classifier.query_type", result.QueryType),
		attribute.Bool("classifier.fallback", false),
	)
	return result, nil
}

func (c *LLMClassifier) classifyWithModel(ctx context.Context, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, llmClassifyTimeout)
	defer cancel()

	maxTokens := 128
	temp := float32(0.0)
	raw, err := c.client.Generate(ctx, fmt.Sprintf(classifyPrompt, text), llm.GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return Result{}, err
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return Result{}, err
	}

	if _, known := flowPatterns[verdict.QueryType]; !known {
		return Result{}, fmt.Errorf("model returned unknown query type %q", verdict.QueryType)
	}
	classification := verdict.Classification
	if classification != ClassificationGoal && classification != ClassificationCasual {
		return Result{}, fmt.Errorf("model returned unknown classification %q", classification)
	}

	return withPattern(Result{
		Classification: classification,
		QueryType:      verdict.QueryType,
		Confidence:     0.95,
	}), nil
}

// parseVerdict tolerates models that wrap the JSON in code fences or prose
// by extracting the first balanced object.
func parseVerdict(raw string) (llmVerdict, error) {
	var v llmVerdict
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return v, fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return v, fmt.Errorf("failed to parse model verdict: %w", err)
	}
	return v, nil
}
