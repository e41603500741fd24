// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package classifier

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// KeywordClassifier classifies messages with ordered regex rule tables.
//
// # Description
//
// Rules are evaluated top to bottom and the first match wins, so more
// specific intents (meal planning, cart operations) must appear before
// broader ones (product search). A message matching no rule classifies as
// a casual general inquiry. The classifier is pure: identical input always
// produces identical output, which is what makes it a safe fallback when
// the LLM path fails.
//
// # Thread Safety
//
// Safe for concurrent use; the rule tables are immutable after init.
type KeywordClassifier struct{}

var _ Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier creates the deterministic rule-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// queryRules map message patterns to query types, first match wins.
// Order matters: cart operations and meal planning outrank the generic
// product rules that would also match their wording.
var queryRules = []struct {
	pattern   *regexp.Regexp
	queryType string
}{
	{regexp.MustCompile(`(?i)\b(add|remove|delete|clear|empty|view|show)\b.*\b(cart|basket)\b`), QueryCartOperation},
	{regexp.MustCompile(`(?i)\b(cart|basket)\b.*\b(add|remove|delete|clear|empty|view|show)\b`), QueryCartOperation},
	{regexp.MustCompile(`(?i)\b(plan|planning)\b.*\b(meal|meals|dinner|dinners|week|menu)\b`), QueryMealPlanning},
	{regexp.MustCompile(`(?i)\b\d+\s*(meal|meals|dinner|dinners|day|days)\b`), QueryMealPlanning},
	{regexp.MustCompile(`(?i)\bmeal\s*plan\b`), QueryMealPlanning},
	{regexp.MustCompile(`(?i)\b(ingredients?|shopping list)\s+(for|to make)\b`), QueryBasketBuilder},
	{regexp.MustCompile(`(?i)\b(make|cook)\b.*\brecipe\b`), QueryBasketBuilder},
	{regexp.MustCompile(`(?i)\b(recommend|suggest|suggestion|ideas?)\b`), QueryRecommendation},
	{regexp.MustCompile(`(?i)\b(vegan|vegetarian|keto|gluten[- ]free|dairy[- ]free|low[- ]carb|paleo)\b.*\b(options?|products?|foods?|items?|show|find)\b`), QueryDietaryFilter},
	{regexp.MustCompile(`(?i)\b(substitute|substitution|replacement|instead of|alternative)\b`), QuerySubstitution},
	{regexp.MustCompile(`(?i)\b(how much|price|cost|costs|expensive)\b`), QueryPriceInquiry},
	{regexp.MustCompile(`(?i)\b(in stock|available|availability|do you have|carry)\b`), QueryAvailabilityCheck},
	{regexp.MustCompile(`(?i)\b(sale|sales|discount|promotion|promo|deal|deals|offer)\b`), QueryPromotionInquiry},
	{regexp.MustCompile(`(?i)\b(aisle|where (is|are|can i find)|locate|section)\b`), QueryStoreNavigation},
	{regexp.MustCompile(`(?i)\b(find|search|looking for|need|want to buy|buy)\b`), QueryProductSearch},
}

// casualPatterns short-circuit obviously conversational messages before
// the query rules run.
var casualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good (morning|afternoon|evening))\b`),
	regexp.MustCompile(`(?i)^\s*(thanks|thank you|bye|goodbye)\b`),
	regexp.MustCompile(`(?i)^\s*(how are you|what can you do|who are you)\b`),
}

// Classify implements the Classifier interface.
func (c *KeywordClassifier) Classify(ctx context.Context, text string) (Result, error) {
	_, span := tracer.Start(ctx, "KeywordClassifier.Classify")
	defer span.End()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		r := withPattern(Result{
			Classification: ClassificationCasual,
			QueryType:      QueryGeneralInquiry,
			Confidence:     1.0,
		})
		return r, nil
	}

	for _, p := range casualPatterns {
		if p.MatchString(trimmed) {
			r := withPattern(Result{
				Classification: ClassificationCasual,
				QueryType:      QueryGeneralInquiry,
				Confidence:     0.9,
			})
			span.SetAttributes(attribute.String("classifier.query_type", r.QueryType))
			return r, nil
		}
	}

	for _, rule := range queryRules {
		if rule.pattern.MatchString(trimmed) {
			classification := ClassificationCasual
			if IsGoalDirected(rule.queryType) {
				classification = ClassificationGoal
			}
			r := withPattern(Result{
				Classification: classification,
				QueryType:      rule.queryType,
				Confidence:     0.8,
			})
			span.SetAttributes(
				attribute.String("classifier.query_type", r.QueryType),
				attribute.String("classifier.complexity", r.Complexity),
			)
			return r, nil
		}
	}

	r := withPattern(Result{
		Classification: ClassificationCasual,
		QueryType:      QueryGeneralInquiry,
		Confidence:     0.5,
	})
	span.SetAttributes(attribute.String("classifier.query_type", r.QueryType))
	return r, nil
}
