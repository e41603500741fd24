// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package classifier maps raw user messages to query types and complexity
// tiers.
//
// # Description
//
// Two implementations share one contract. The KeywordClassifier matches
// regex rule tables in fixed priority order and is fully deterministic.
// The LLMClassifier asks a language model first and falls back to the
// keyword rules on any failure, so classification can never hard-fail a
// conversation turn.
//
// # Thread Safety
//
// Both implementations are stateless after construction and safe for
// concurrent use.
package classifier

import (
	"context"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pantrypilot.assistant.classifier")

// =============================================================================
// Taxonomy
// =============================================================================

// Query types. These drive dispatch out of intent confirmation.
const (
	QueryPriceInquiry      = "price_inquiry"
	QueryProductSearch     = "product_search"
	QuerySubstitution      = "substitution_request"
	QueryStoreNavigation   = "store_navigation"
	QueryPromotionInquiry  = "promotion_inquiry"
	QueryDietaryFilter     = "dietary_filter"
	QueryRecommendation    = "recommendation_request"
	QueryMealPlanning      = "meal_planning"
	QueryAvailabilityCheck = "availability_check"
	QueryGeneralInquiry    = "general_inquiry"
	QueryCartOperation     = "cart_operation"
	QueryBasketBuilder     = "basket_builder"
	QueryProductLookup     = "product_lookup"
)

// Complexity tiers select which fixed pipeline pattern fulfills a query.
// They never change the shape of the state machine, only which domain
// handler runs from intent confirmation.
const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// Top-level classifications: goal-directed queries enter the confirmation
// pipeline, casual ones get a one-shot answer.
const (
	ClassificationGoal   = "goal"
	ClassificationCasual = "casual"
)

// Result is the classifier output for one message.
type Result struct {
	Classification   string   `json:"classification"`
	QueryType        string   `json:"query_type"`
	Complexity       string   `json:"complexity"`
	RequiredAgents   []string `json:"required_agents,omitempty"`
	EstimatedSeconds int      `json:"estimated_time_seconds,omitempty"`
	Confidence       float64  `json:"confidence"`
}

// Classifier is the classification contract consumed by the engine.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// =============================================================================
// Pipeline Patterns
// =============================================================================

// flowPattern maps a query type onto its fulfillment pipeline.
type flowPattern struct {
	complexity       string
	requiredAgents   []string
	estimatedSeconds int
}

// flowPatterns is the fixed pipeline pattern per query type.
var flowPatterns = map[string]flowPattern{
	QueryPriceInquiry:      {ComplexitySimple, []string{"product_lookup"}, 3},
	QueryAvailabilityCheck: {ComplexitySimple, []string{"product_lookup", "stock_checker"}, 3},
	QueryStoreNavigation:   {ComplexitySimple, []string{"product_lookup"}, 3},
	QueryPromotionInquiry:  {ComplexitySimple, []string{"product_lookup", "stock_checker"}, 4},
	QueryGeneralInquiry:    {ComplexitySimple, []string{"general_search"}, 3},
	QueryProductSearch:     {ComplexityMedium, []string{"intent", "product_lookup"}, 8},
	QuerySubstitution:      {ComplexityMedium, []string{"product_lookup", "stock_checker"}, 8},
	QueryDietaryFilter:     {ComplexityMedium, []string{"intent", "preference", "product_recommendation"}, 10},
	QueryCartOperation:     {ComplexityMedium, []string{"cart_operation"}, 5},
	QueryRecommendation:    {ComplexityComplex, []string{"intent", "preference", "product_recommendation", "stock_checker"}, 15},
	QueryMealPlanning:      {ComplexityComplex, []string{"intent", "preference", "meal_planner", "basket_builder", "stock_checker"}, 20},
	QueryBasketBuilder:     {ComplexityComplex, []string{"basket_builder", "stock_checker"}, 12},
}

// withPattern fills the pipeline fields of r from the pattern table.
func withPattern(r Result) Result {
	p, ok := flowPatterns[r.QueryType]
	if !ok {
		p = flowPatterns[QueryGeneralInquiry]
	}
	r.Complexity = p.complexity
	r.RequiredAgents = p.requiredAgents
	r.EstimatedSeconds = p.estimatedSeconds
	return r
}

// IsGoalDirected reports whether a query type implies a multi-step
// fulfillment pipeline rather than a one-shot answer.
func IsGoalDirected(queryType string) bool {
	switch queryType {
	case QueryMealPlanning, QueryRecommendation, QueryDietaryFilter,
		QueryBasketBuilder, QueryCartOperation, QueryProductSearch:
		return true
	}
	return false
}
