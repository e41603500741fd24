// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package planner builds meal plans and product recommendation sets from
// the catalog and a user profile.
//
// Planning is deterministic: scoring, ordering, and budget selection are
// pure functions of the catalog snapshot, the profile, and the intent.
// The engine relies on that to keep retried confirmations stable.
package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("pantrypilot.assistant.planner")

// maxRecommendations caps a product recommendation set.
const maxRecommendations = 8

// dietTags expands a stated dietary preference into the catalog tags that
// satisfy it. Preferences without an entry match their own name only.
var dietTags = map[string][]string{
	"low-carb":    {"keto", "low-fat"},
	"paleo":       {"high-protein", "gluten-free"},
	"plant-based": {"vegan", "vegetarian"},
	"pescatarian": {"vegetarian", "high-protein"},
	"whole30":     {"gluten-free", "high-protein"},
}

// Planner builds meal plans and recommendation sets.
//
// # Thread Safety
//
// Safe for concurrent use; all state lives in the catalog.
type Planner struct {
	catalog catalog.Catalog
}

// New creates a planner over the given catalog.
func New(cat catalog.Catalog) *Planner {
	return &Planner{catalog: cat}
}

// PlanMeals selects up to intent.MealCount recipes for the profile.
//
// # Description
//
// Recipes are scored by preference fit, filtered by allergies, ordered by
// score then estimated cost, and then greedily selected cheapest-first
// within the budget ceiling. A zero result is valid; the engine turns it
// into a terminal no-recipes step.
//
// Scoring:
//
//   - +3 if the recipe carries a tag satisfying the dietary preference
//   - +2 if a special-requirement word appears in the cuisine or name
//   - +1 if the skill level matches the profile's cooking skill
//   - +1 for recipes of 5 ingredients or fewer (weeknight friendly)
func (p *Planner) PlanMeals(ctx context.Context, profile *datatypes.Profile, intent *datatypes.Intent) ([]datatypes.Recipe, error) {
	ctx, span := tracer.Start(ctx, "Planner.PlanMeals")
	defer span.End()

	recipes, err := p.catalog.Recipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	mealCount := intent.MealCount
	if mealCount <= 0 {
		mealCount = 3
	}
	budget := intent.Budget
	if budget <= 0 && profile.BudgetPerMeal > 0 {
		budget = profile.BudgetPerMeal * float64(mealCount)
	}
	diet := strings.ToLower(intent.DietaryPreference)
	if diet == "" {
		diet = strings.ToLower(profile.DietaryPreference)
	}

	type scored struct {
		recipe datatypes.Recipe
		score  int
	}
	var candidates []scored
	for _, r := range recipes {
		if conflictsWithAllergies(r, profile.Allergies) {
			continue
		}
		candidates = append(candidates, scored{recipe: r, score: scoreRecipe(r, diet, profile, intent)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].recipe.EstimatedCost != candidates[j].recipe.EstimatedCost {
			return candidates[i].recipe.EstimatedCost < candidates[j].recipe.EstimatedCost
		}
		return candidates[i].recipe.RecipeID < candidates[j].recipe.RecipeID
	})

	var selected []datatypes.Recipe
	var spent float64
	for _, c := range candidates {
		if len(selected) >= mealCount {
			break
		}
		if budget > 0 && spent+c.recipe.EstimatedCost > budget {
			continue
		}
		selected = append(selected, c.recipe)
		spent += c.recipe.EstimatedCost
	}

	span.SetAttributes(
		attribute.Int("planner.candidates", len(candidates)),
		attribute.Int("planner.selected", len(selected)),
	)
	return selected, nil
}

// RecommendProducts builds a recommendation set for the intent and profile,
// capped at 8 items. A nil profile applies no preference filtering.
func (p *Planner) RecommendProducts(ctx context.Context, intent *datatypes.Intent, profile *datatypes.Profile) ([]datatypes.Product, error) {
	ctx, span := tracer.Start(ctx, "Planner.RecommendProducts")
	defer span.End()

	if profile == nil {
		profile = &datatypes.Profile{}
	}

	query := intent.ProductCategory
	if query == "" {
		query = intent.SpecialRequirements
	}

	var pool []datatypes.Product
	if query != "" {
		found, err := p.catalog.Search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("recommendation search failed: %w", err)
		}
		pool = found
	}
	// A thin or empty keyword pool falls back to browsing the whole
	// catalog through the category lens.
	if len(pool) < maxRecommendations {
		browse, err := p.browseByCategory(ctx, intent.ProductCategory)
		if err != nil {
			return nil, err
		}
		pool = appendUnique(pool, browse)
	}

	diet := strings.ToLower(intent.DietaryPreference)
	if diet == "" {
		diet = strings.ToLower(profile.DietaryPreference)
	}

	var out []datatypes.Product
	for _, prod := range pool {
		if !prod.InStock {
			continue
		}
		if diet != "" && !satisfiesDiet(prod.Tags, diet) {
			continue
		}
		out = append(out, prod)
		if len(out) >= maxRecommendations {
			break
		}
	}

	span.SetAttributes(attribute.Int("planner.recommended", len(out)))
	return out, nil
}

// browseByCategory lists catalog products, optionally restricted to a
// category, in the catalog's stable order.
func (p *Planner) browseByCategory(ctx context.Context, category string) ([]datatypes.Product, error) {
	out, err := p.catalog.Browse(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("catalog browse failed: %w", err)
	}
	return out, nil
}

func scoreRecipe(r datatypes.Recipe, diet string, profile *datatypes.Profile, intent *datatypes.Intent) int {
	score := 0
	if diet != "" && satisfiesDiet(r.Tags, diet) {
		score += 3
	}
	if intent.SpecialRequirements != "" {
		req := strings.ToLower(intent.SpecialRequirements)
		if strings.Contains(req, strings.ToLower(r.Cuisine)) && r.Cuisine != "" {
			score += 2
		}
		for _, w := range strings.Fields(strings.ToLower(r.Name)) {
			if len(w) > 2 && strings.Contains(req, w) {
				score += 2
				break
			}
		}
	}
	if profile.CookingSkill != "" && strings.EqualFold(profile.CookingSkill, r.SkillLevel) {
		score++
	}
	if len(r.Ingredients) <= 5 {
		score++
	}
	return score
}

// satisfiesDiet reports whether tags satisfy the stated preference,
// expanding synonyms through the dietTags table.
func satisfiesDiet(tags []string, diet string) bool {
	accepted := append([]string{diet}, dietTags[diet]...)
	for _, t := range tags {
		for _, a := range accepted {
			if strings.EqualFold(t, a) {
				return true
			}
		}
	}
	return false
}

func conflictsWithAllergies(r datatypes.Recipe, allergies []string) bool {
	for _, allergy := range allergies {
		a := strings.ToLower(strings.TrimSpace(allergy))
		if a == "" {
			continue
		}
		for _, ing := range r.Ingredients {
			if strings.Contains(strings.ToLower(ing), a) {
				return true
			}
		}
	}
	return false
}

func appendUnique(base, extra []datatypes.Product) []datatypes.Product {
	seen := map[string]bool{}
	for _, p := range base {
		seen[p.ItemID] = true
	}
	for _, p := range extra {
		if !seen[p.ItemID] {
			seen[p.ItemID] = true
			base = append(base, p)
		}
	}
	return base
}
