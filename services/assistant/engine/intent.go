// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/classifier"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
)

// =============================================================================
// Intent Extraction
// =============================================================================

// budgetPatterns are tried in order; the first capture wins. The bare
// dollar pattern goes last so "under $50" never matches it with a
// truncated amount.
var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)under\s+\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)below\s+\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)less\s+than\s+\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)budget\s+of\s+\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\$?(\d+(?:\.\d{1,2})?)\s+budget`),
	regexp.MustCompile(`\$(\d+(?:\.\d{1,2})?)`),
}

var mealCountPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:meals?|days?|dinners?|lunches?|breakfasts?)`)

// dietKeywords are checked in order against the lowered message; the
// first match wins, so longer phrases precede their substrings.
var dietKeywords = []string{
	"plant-based",
	"pescatarian",
	"vegetarian",
	"vegan",
	"keto",
	"low-carb",
	"paleo",
	"whole30",
	"high-protein",
	"gluten-free",
	"gluten free",
}

// categoryKeywords map message words to catalog categories.
var categoryKeywords = map[string]string{
	"dairy":      "dairy",
	"produce":    "produce",
	"vegetables": "produce",
	"vegetable":  "produce",
	"fruit":      "produce",
	"fruits":     "produce",
	"meat":       "meat",
	"pantry":     "pantry",
	"bakery":     "bakery",
	"frozen":     "frozen",
}

// specialTerms are free-text constraints carried through to planning.
var specialTerms = []string{"quick", "easy", "organic", "healthy", "spicy"}

// ExtractIntent parses the structured intent out of a free-text message.
// It is deterministic: the same message and query type always produce
// the same intent.
func ExtractIntent(message, queryType string) datatypes.Intent {
	lower := strings.ToLower(message)
	intent := datatypes.Intent{QueryType: queryType}

	for _, p := range budgetPatterns {
		if m := p.FindStringSubmatch(message); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				intent.Budget = v
			}
			break
		}
	}

	if m := mealCountPattern.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			intent.MealCount = n
		}
	}
	if intent.MealCount == 0 && queryType == classifier.QueryMealPlanning {
		intent.MealCount = 3
	}

	for _, diet := range dietKeywords {
		if strings.Contains(lower, diet) {
			intent.DietaryPreference = strings.ReplaceAll(diet, " ", "-")
			break
		}
	}

	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?\"'")
		if cat, ok := categoryKeywords[word]; ok {
			intent.ProductCategory = cat
			break
		}
	}

	var special []string
	for _, term := range specialTerms {
		if strings.Contains(lower, term) {
			special = append(special, term)
		}
	}
	intent.SpecialRequirements = strings.Join(special, ", ")

	if queryType == classifier.QueryCartOperation {
		if op, _, ok := detectCartOperation(message); ok {
			intent.CartOperation = op
		} else {
			intent.CartOperation = datatypes.CartOpView
		}
	}
	return intent
}

// =============================================================================
// Cart Operation Detection
// =============================================================================

var (
	cartAddPattern    = regexp.MustCompile(`(?i)\badd\s+(.+?)\s+to\s+(?:my\s+)?cart\b`)
	cartDeletePattern = regexp.MustCompile(`(?i)\b(?:remove|delete)\s+(.+?)\s+from\s+(?:my\s+)?cart\b`)
	cartViewPattern   = regexp.MustCompile(`(?i)(?:show|view|see|what'?s\s+in)\s+(?:my\s+)?cart\b`)
	cartClearPattern  = regexp.MustCompile(`(?i)\b(?:clear|empty)\s+(?:my\s+)?cart\b`)
)

// detectCartOperation recognizes explicit cart commands ahead of
// classification. The returned item is the raw phrase between the verb
// and "cart", trimmed; empty for view and clear.
func detectCartOperation(message string) (datatypes.CartOperation, string, bool) {
	if m := cartAddPattern.FindStringSubmatch(message); m != nil {
		return datatypes.CartOpAdd, strings.TrimSpace(m[1]), true
	}
	if m := cartDeletePattern.FindStringSubmatch(message); m != nil {
		return datatypes.CartOpDelete, strings.TrimSpace(m[1]), true
	}
	if cartClearPattern.MatchString(message) {
		return datatypes.CartOpClear, "", true
	}
	if cartViewPattern.MatchString(message) {
		return datatypes.CartOpView, "", true
	}
	return "", "", false
}
