// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"
)

func TestStep_IsTerminal(t *testing.T) {
	terminals := []Step{
		StepComplete, StepDeclined, StepNoRecipes, StepNoProducts,
		StepNoCartItems, StepNoMatchingRecipe, StepCartOperationComplete,
		StepCartOperationFailed, StepCartOperationError,
		StepProductLookupComplete, StepProductLookupFailed,
		StepBasketBuilderError,
	}
	for _, s := range terminals {
		if !s.IsTerminal() {
			t.Errorf("step %q should be terminal", s)
		}
	}

	flow := []Step{
		StepConversationStart, StepGoalConfirmation, StepIntentConfirmation,
		StepRecipesReady, StepCartReady, StepFinalCartReady,
		StepFeedbackRating, StepFeedbackPurchase,
	}
	for _, s := range flow {
		if s.IsTerminal() {
			t.Errorf("step %q should not be terminal", s)
		}
	}
}

func TestStep_IsFeedback(t *testing.T) {
	for _, s := range []Step{
		StepFeedbackRating, StepFeedbackLikedItems, StepFeedbackDislikedItems,
		StepFeedbackSuggestions, StepFeedbackPurchase,
	} {
		if !s.IsFeedback() {
			t.Errorf("step %q should be a feedback step", s)
		}
	}
	if StepCartReady.IsFeedback() || StepComplete.IsFeedback() {
		t.Error("non-feedback steps misclassified as feedback")
	}
}

func TestSession_Advance_StepNumberMonotonic(t *testing.T) {
	s := NewSession(NewSessionID(), "user-1")
	if s.StepNumber != 1 {
		t.Fatalf("new session step number = %d, want 1", s.StepNumber)
	}

	s.Advance(StepConversationProcessed, 2)
	if s.StepNumber != 2 {
		t.Errorf("step number = %d, want 2", s.StepNumber)
	}

	// Re-entering an earlier step must never lower the step number.
	s.Advance(StepGoalConfirmation, 1)
	if s.StepNumber != 2 {
		t.Errorf("step number decreased to %d", s.StepNumber)
	}
}

func TestSession_MergeFeedback_AppendOnly(t *testing.T) {
	s := NewSession(NewSessionID(), "user-1")
	s.MergeFeedback(FeedbackKeySatisfaction, 4)
	s.MergeFeedback(FeedbackKeyLikedItems, []string{"eggs"})
	s.MergeFeedback(FeedbackKeyWillPurchase, true)

	for _, key := range []string{FeedbackKeySatisfaction, FeedbackKeyLikedItems, FeedbackKeyWillPurchase} {
		if _, ok := s.Feedback[key]; !ok {
			t.Errorf("feedback key %q missing after merge", key)
		}
	}
}

func TestSession_ResetClassification(t *testing.T) {
	s := NewSession(NewSessionID(), "user-1")
	s.Classification = "goal"
	s.QueryType = "meal_planning"
	s.Intent = &Intent{MealCount: 3, Budget: 50}

	s.ResetClassification()

	if s.Classification != "" || s.QueryType != "" || s.Intent != nil {
		t.Error("classification cache not cleared")
	}
}

func TestCartTotals(t *testing.T) {
	items := []CartItem{
		{ItemID: "a", Price: 2.50, Quantity: 2},
		{ItemID: "b", Price: 1.20, OriginalPrice: 1.50, Quantity: 1},
		{ItemID: "c", Price: 9.99, Quantity: 1, Unavailable: true},
	}

	if got, want := CartTotal(items), 6.20; got != want {
		t.Errorf("CartTotal = %v, want %v", got, want)
	}
	if got, want := CartSavings(items), 0.30; got != want {
		t.Errorf("CartSavings = %v, want %v", got, want)
	}
}
