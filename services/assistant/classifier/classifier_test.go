// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/PantryPilotAI/PantryPilot/services/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifier_QueryTypes(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		queryType string
		class     string
	}{
		{"price inquiry", "How much does milk cost?", QueryPriceInquiry, ClassificationCasual},
		{"meal planning", "Plan 3 meals under $50", QueryMealPlanning, ClassificationGoal},
		{"meal planning count first", "3 meals for this week please", QueryMealPlanning, ClassificationGoal},
		{"cart add", "add milk to my cart", QueryCartOperation, ClassificationGoal},
		{"cart view reversed", "cart show me please", QueryCartOperation, ClassificationGoal},
		{"recommendation", "can you recommend some snacks", QueryRecommendation, ClassificationGoal},
		{"dietary filter", "show me vegan options", QueryDietaryFilter, ClassificationGoal},
		{"substitution", "what can I use instead of butter", QuerySubstitution, ClassificationCasual},
		{"availability", "is salmon in stock?", QueryAvailabilityCheck, ClassificationCasual},
		{"promotion", "any deals on cheese today", QueryPromotionInquiry, ClassificationCasual},
		{"navigation", "where can i find the pasta", QueryStoreNavigation, ClassificationCasual},
		{"basket builder", "ingredients for veggie pasta", QueryBasketBuilder, ClassificationGoal},
		{"product search", "I need some tomatoes", QueryProductSearch, ClassificationGoal},
		{"greeting", "hello there", QueryGeneralInquiry, ClassificationCasual},
		{"unmatched", "the weather is nice", QueryGeneralInquiry, ClassificationCasual},
	}

	c := NewKeywordClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.queryType, got.QueryType)
			assert.Equal(t, tt.class, got.Classification)
			assert.NotEmpty(t, got.Complexity)
			assert.NotEmpty(t, got.RequiredAgents)
		})
	}
}

func TestKeywordClassifier_Deterministic(t *testing.T) {
	c := NewKeywordClassifier()
	first, err := c.Classify(context.Background(), "plan 4 dinners under $80")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Classify(context.Background(), "plan 4 dinners under $80")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestKeywordClassifier_ComplexityMapping(t *testing.T) {
	c := NewKeywordClassifier()

	got, err := c.Classify(context.Background(), "how much is bread")
	require.NoError(t, err)
	assert.Equal(t, ComplexitySimple, got.Complexity)

	got, err = c.Classify(context.Background(), "plan meals for the week")
	require.NoError(t, err)
	assert.Equal(t, ComplexityComplex, got.Complexity)
	assert.Contains(t, got.RequiredAgents, "meal_planner")
}

// fakeLLM returns a canned response or error.
type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestLLMClassifier_UsesModelVerdict(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{
		response: `{"classification": "goal", "query_type": "meal_planning"}`,
	})

	got, err := c.Classify(context.Background(), "sort out dinner for the week")
	require.NoError(t, err)
	assert.Equal(t, QueryMealPlanning, got.QueryType)
	assert.Equal(t, ClassificationGoal, got.Classification)
	assert.Equal(t, ComplexityComplex, got.Complexity)
}

func TestLLMClassifier_ToleratesCodeFences(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{
		response: "```json\n{\"classification\": \"casual\", \"query_type\": \"price_inquiry\"}\n```",
	})

	got, err := c.Classify(context.Background(), "how much is milk")
	require.NoError(t, err)
	assert.Equal(t, QueryPriceInquiry, got.QueryType)
}

func TestLLMClassifier_FallsBackOnError(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{err: errors.New("model unavailable")})

	got, err := c.Classify(context.Background(), "plan 3 meals under $50")
	require.NoError(t, err)
	assert.Equal(t, QueryMealPlanning, got.QueryType)
	assert.Equal(t, ClassificationGoal, got.Classification)
}

func TestLLMClassifier_FallsBackOnGarbage(t *testing.T) {
	tests := []string{
		"I think this is a question about milk.",
		`{"classification": "goal", "query_type": "weather_report"}`,
		`{"classification": "maybe", "query_type": "price_inquiry"}`,
	}
	for _, response := range tests {
		c := NewLLMClassifier(&fakeLLM{response: response})
		got, err := c.Classify(context.Background(), "how much does milk cost")
		require.NoError(t, err)
		assert.Equal(t, QueryPriceInquiry, got.QueryType, "response %q", response)
	}
}

func TestLLMClassifier_DisabledBackend(t *testing.T) {
	c := NewLLMClassifier(llm.DisabledClient{})

	got, err := c.Classify(context.Background(), "any deals on cheese")
	require.NoError(t, err)
	assert.Equal(t, QueryPromotionInquiry, got.QueryType)
}
