// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package planner

import (
	"context"
	"testing"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlanner() *Planner {
	products, recipes := catalog.DefaultSeed()
	return New(catalog.NewMemoryCatalog(products, recipes))
}

func TestPlanMeals_RespectsMealCount(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1", BudgetPerMeal: 60}
	intent := &datatypes.Intent{MealCount: 2}

	got, err := p.PlanMeals(context.Background(), profile, intent)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPlanMeals_RespectsBudget(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1"}
	intent := &datatypes.Intent{MealCount: 3, Budget: 25}

	got, err := p.PlanMeals(context.Background(), profile, intent)
	require.NoError(t, err)

	var total float64
	for _, r := range got {
		total += r.EstimatedCost
	}
	assert.LessOrEqual(t, total, 25.0)
}

func TestPlanMeals_DietaryPreferenceWins(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1", DietaryPreference: "vegetarian", BudgetPerMeal: 60}
	intent := &datatypes.Intent{MealCount: 3}

	got, err := p.PlanMeals(context.Background(), profile, intent)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	// Vegetarian recipes outscore meat dishes, so the top picks carry
	// the tag.
	for _, r := range got {
		assert.True(t, satisfiesDiet(r.Tags, "vegetarian"), "recipe %s", r.Name)
	}
}

func TestPlanMeals_AllergyFiltering(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1", Allergies: []string{"egg"}, BudgetPerMeal: 60}
	intent := &datatypes.Intent{MealCount: 6}

	got, err := p.PlanMeals(context.Background(), profile, intent)
	require.NoError(t, err)
	for _, r := range got {
		for _, ing := range r.Ingredients {
			assert.NotContains(t, ing, "egg", "recipe %s", r.Name)
		}
	}
}

func TestPlanMeals_Deterministic(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1", DietaryPreference: "vegetarian"}
	intent := &datatypes.Intent{MealCount: 3, Budget: 50}

	first, err := p.PlanMeals(context.Background(), profile, intent)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.PlanMeals(context.Background(), profile, intent)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRecommendProducts_CapAndStock(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1"}
	intent := &datatypes.Intent{}

	got, err := p.RecommendProducts(context.Background(), intent, profile)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 8)
	for _, prod := range got {
		assert.True(t, prod.InStock, "product %s", prod.Name)
	}
}

func TestRecommendProducts_DietFilter(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1"}
	intent := &datatypes.Intent{DietaryPreference: "vegan"}

	got, err := p.RecommendProducts(context.Background(), intent, profile)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, prod := range got {
		assert.True(t, satisfiesDiet(prod.Tags, "vegan"), "product %s", prod.Name)
	}
}

func TestRecommendProducts_CategoryRestriction(t *testing.T) {
	p := testPlanner()
	profile := &datatypes.Profile{UserID: "u1"}
	intent := &datatypes.Intent{ProductCategory: "dairy"}

	got, err := p.RecommendProducts(context.Background(), intent, profile)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, prod := range got {
		assert.Equal(t, "dairy", prod.Category, "product %s", prod.Name)
	}
}

func TestRecommendProducts_NilProfile(t *testing.T) {
	p := testPlanner()

	got, err := p.RecommendProducts(context.Background(), &datatypes.Intent{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestSatisfiesDiet_SynonymExpansion(t *testing.T) {
	assert.True(t, satisfiesDiet([]string{"keto"}, "low-carb"))
	assert.True(t, satisfiesDiet([]string{"vegan"}, "plant-based"))
	assert.False(t, satisfiesDiet([]string{"high-protein"}, "vegan"))
}
