// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/basket"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/classifier"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/planner"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stock"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stores"
)

// newTestEngine wires an engine over the in-memory stores and the
// built-in catalog.
func newTestEngine(t *testing.T, mutate func(*Options)) *Engine {
	t.Helper()

	db, err := stores.Open(stores.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cat := catalog.NewMemoryCatalog(catalog.DefaultSeed())
	opts := Options{
		Classifier:  classifier.NewKeywordClassifier(),
		Catalog:     cat,
		Planner:     planner.New(cat),
		Basket:      basket.New(cat),
		Stock:       stock.New(cat),
		Sessions:    stores.NewSessionRepository(db),
		Transcripts: stores.NewTranscriptStore(db, 0),
		Profiles:    stores.NewProfileStore(db),
		Carts:       stores.NewCartStore(db),
	}
	if mutate != nil {
		mutate(&opts)
	}

	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func confirm(t *testing.T, e *Engine, userID, sessionID string) *datatypes.Response {
	t.Helper()
	resp, err := e.SendConfirmation(context.Background(), userID, sessionID, true, "")
	require.NoError(t, err)
	return resp
}

// =============================================================================
// Single-turn Lookups
// =============================================================================

func TestSendMessage_PriceInquiry_AnswersInOneTurn(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.SendMessage(context.Background(), "user-1", "", "How much does milk cost?")
	require.NoError(t, err)

	assert.Equal(t, datatypes.StepProductLookupComplete, resp.Step)
	assert.True(t, resp.IsComplete)
	assert.False(t, resp.RequiresConfirmation)
	assert.Equal(t, "Milk", resp.Data["product_name"])
	assert.Equal(t, 3.49, resp.Data["price"])
	assert.Contains(t, resp.AssistantMessage, "$3.49")
}

func TestSendMessage_UnknownProduct_TerminalFailure(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.SendMessage(context.Background(), "user-1", "", "how much does dragonfruit jam cost")
	require.NoError(t, err)

	assert.Equal(t, datatypes.StepProductLookupFailed, resp.Step)
	assert.True(t, resp.IsComplete)
	assert.False(t, resp.RequiresConfirmation)
	assert.False(t, resp.RequiresInput)
}

func TestSendMessage_StoreNavigation(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.SendMessage(context.Background(), "user-1", "", "Which aisle has olive oil?")
	require.NoError(t, err)

	assert.Equal(t, datatypes.StepProductLookupComplete, resp.Step)
	assert.Contains(t, resp.AssistantMessage, "pantry section")
}

func TestSendMessage_Casual_OffersCatalogSearch(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.SendMessage(context.Background(), "user-1", "", "hello there")
	require.NoError(t, err)

	assert.Equal(t, datatypes.StepCasualResponse, resp.Step)
	assert.True(t, resp.RequiresConfirmation)
	assert.Equal(t, datatypes.StepGeneralQuerySearch, resp.NextStep)
	assert.NotEmpty(t, resp.AssistantMessage)
}

// =============================================================================
// Goal Flow
// =============================================================================

func TestMealPlanning_FullFlow(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	userID := "user-plan"

	// Goal detection.
	resp, err := e.SendMessage(ctx, userID, "", "Plan 3 meals under $50")
	require.NoError(t, err)
	sessionID := resp.SessionID
	require.NotEmpty(t, sessionID)
	assert.Equal(t, datatypes.StepGoalConfirmation, resp.Step)
	assert.True(t, resp.RequiresConfirmation)

	// Intent confirmation with budget and meal count extracted.
	resp = confirm(t, e, userID, sessionID)
	assert.Equal(t, datatypes.StepIntentConfirmation, resp.Step)
	intent, ok := resp.Data["intent"].(datatypes.Intent)
	require.True(t, ok)
	assert.Equal(t, 50.0, intent.Budget)
	assert.Equal(t, 3, intent.MealCount)

	// Recipes proposed.
	resp = confirm(t, e, userID, sessionID)
	assert.Equal(t, datatypes.StepRecipesReady, resp.Step)
	assert.True(t, resp.RequiresConfirmation)
	recipes, ok := resp.Data["recipes"].([]datatypes.Recipe)
	require.True(t, ok)
	require.NotEmpty(t, recipes)
	assert.LessOrEqual(t, len(recipes), 3)

	// Cart built within budget.
	resp = confirm(t, e, userID, sessionID)
	assert.Equal(t, datatypes.StepCartReady, resp.Step)
	total, ok := resp.Data["total"].(float64)
	require.True(t, ok)
	assert.Greater(t, total, 0.0)
	assert.LessOrEqual(t, total, 50.0)

	// Stock adjustment and the action menu.
	resp = confirm(t, e, userID, sessionID)
	assert.Equal(t, datatypes.StepFinalCartReady, resp.Step)
	assert.True(t, resp.RequiresInput)
	assert.Equal(t, finalCartOptions, resp.InputOptions)

	// Into the feedback sub-flow.
	resp, err = e.SendConfirmation(ctx, userID, sessionID, true, "Continue with Feedback")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackRating, resp.Step)
	assert.True(t, resp.RequiresInput)
	assert.Equal(t, datatypes.InputTypeNumber, resp.InputType)

	// Five answers complete the session.
	resp, err = e.SubmitFeedbackStep(ctx, userID, sessionID, "rating", "4")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackLikedItems, resp.Step)

	resp, err = e.SubmitFeedbackStep(ctx, userID, sessionID, "liked_items", "eggs, spinach")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackDislikedItems, resp.Step)

	resp, err = e.SubmitFeedbackStep(ctx, userID, sessionID, "disliked_items", "none")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackSuggestions, resp.Step)

	resp, err = e.SubmitFeedbackStep(ctx, userID, sessionID, "suggestions", "")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackPurchase, resp.Step)
	assert.Equal(t, []string{"yes", "no"}, resp.InputOptions)

	resp, err = e.SubmitFeedbackStep(ctx, userID, sessionID, "purchase_intent", "yes")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepComplete, resp.Step)
	assert.True(t, resp.IsComplete)
	assert.Equal(t, true, resp.Data["purchase_intent"])

	// Answers from earlier turns went through the store's JSON encoding,
	// so numbers come back as float64 and lists as []any.
	feedback, ok := resp.Data["feedback"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 4, feedback[datatypes.FeedbackKeySatisfaction])
	assert.Equal(t, []any{"eggs", "spinach"}, feedback[datatypes.FeedbackKeyLikedItems])
	assert.Equal(t, []any{}, feedback[datatypes.FeedbackKeyDisliked])
	assert.Equal(t, true, feedback[datatypes.FeedbackKeyWillPurchase])
}

func TestGoalConfirmation_Declined(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	resp, err := e.SendMessage(ctx, "user-2", "", "Plan some meals for the week")
	require.NoError(t, err)
	require.Equal(t, datatypes.StepGoalConfirmation, resp.Step)

	resp, err = e.SendConfirmation(ctx, "user-2", resp.SessionID, false, "")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepDeclined, resp.Step)
	assert.True(t, resp.IsComplete)
	assert.Equal(t, declinedMessage, resp.AssistantMessage)
}

func TestAddAllToCart_PersistsCartAndPurchases(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	userID := "user-cartflow"

	resp, err := e.SendMessage(ctx, userID, "", "Plan 2 meals under $40")
	require.NoError(t, err)
	sessionID := resp.SessionID

	for _, want := range []datatypes.Step{
		datatypes.StepIntentConfirmation,
		datatypes.StepRecipesReady,
		datatypes.StepCartReady,
		datatypes.StepFinalCartReady,
	} {
		resp = confirm(t, e, userID, sessionID)
		require.Equal(t, want, resp.Step)
	}

	resp, err = e.SendConfirmation(ctx, userID, sessionID, true, "Add All to Cart")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepCartOperationComplete, resp.Step)
	assert.True(t, resp.IsComplete)

	// The durable cart now holds the purchased lines.
	cart, err := e.carts.Get(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, cart)

	profile, err := e.profiles.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, profile.PastPurchases)
}

func TestBasketBuilder_ViewCatalogAfterFinalCart(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	userID := "user-basket-catalog"

	resp, err := e.SendMessage(ctx, userID, "", "ingredients for veggie pasta")
	require.NoError(t, err)
	sessionID := resp.SessionID
	assert.Equal(t, datatypes.StepGoalConfirmation, resp.Step)

	resp = confirm(t, e, userID, sessionID)
	assert.Equal(t, datatypes.StepIntentConfirmation, resp.Step)

	resp = confirm(t, e, userID, sessionID)
	assert.Equal(t, datatypes.StepCartReady, resp.Step)

	resp = confirm(t, e, userID, sessionID)
	assert.Equal(t, datatypes.StepFinalCartReady, resp.Step)

	// The basket-builder path reaches the final-cart menu without a
	// recommendation turn, so catalog browsing must not assume one
	// populated the profile.
	resp, err = e.SendConfirmation(ctx, userID, sessionID, true, "View Product Catalog")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepCartActionSelection, resp.Step)
	products, ok := resp.Data["catalog"].([]datatypes.Product)
	require.True(t, ok)
	assert.NotEmpty(t, products)
	assert.Equal(t, finalCartOptions, resp.InputOptions)
}

// =============================================================================
// Feedback Validation
// =============================================================================

func TestFeedback_InvalidRating_RepromptsWithoutAdvancing(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	userID := "user-fb"
	sessionID := startFeedback(t, e, userID)

	for _, bad := range []string{"0", "6", "abc", ""} {
		resp, err := e.SubmitFeedbackStep(ctx, userID, sessionID, "rating", bad)
		require.NoError(t, err)
		assert.Equal(t, datatypes.StepFeedbackRating, resp.Step, "input %q must not advance", bad)
		assert.True(t, resp.RequiresInput)
		assert.Contains(t, resp.Data, "error")
	}

	s, err := e.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.NotContains(t, s.Feedback, datatypes.FeedbackKeySatisfaction)

	resp, err := e.SubmitFeedbackStep(ctx, userID, sessionID, "rating", "3")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackLikedItems, resp.Step)
}

func TestFeedback_WrongStepKey_RepromptsCurrentQuestion(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	userID := "user-fb2"
	sessionID := startFeedback(t, e, userID)

	resp, err := e.SubmitFeedbackStep(ctx, userID, sessionID, "suggestions", "more vegan options")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackRating, resp.Step)
	assert.Contains(t, resp.Data["error"], "rating")
}

func TestFeedback_FreeTextAnswersInsideSubflow(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	userID := "user-fb3"
	sessionID := startFeedback(t, e, userID)

	// Free text inside the sub-flow is an answer, never a new query.
	resp, err := e.SendMessage(ctx, userID, sessionID, "5")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepFeedbackLikedItems, resp.Step)

	resp, err = e.SendMessage(ctx, userID, sessionID, "plan 3 meals")
	require.NoError(t, err)
	// "plan 3 meals" parses as a liked-items list, not a meal plan.
	assert.Equal(t, datatypes.StepFeedbackDislikedItems, resp.Step)
}

func TestFeedback_OutsideFeedbackFlow_ValidationError(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	resp, err := e.SendMessage(ctx, "user-fb4", "", "hello")
	require.NoError(t, err)

	_, err = e.SubmitFeedbackStep(ctx, "user-fb4", resp.SessionID, "rating", "4")
	var verr *datatypes.ValidationError
	require.ErrorAs(t, err, &verr)
}

// startFeedback drives a session to the first feedback question.
func startFeedback(t *testing.T, e *Engine, userID string) string {
	t.Helper()
	ctx := context.Background()

	resp, err := e.SendMessage(ctx, userID, "", "Plan 2 meals under $40")
	require.NoError(t, err)
	sessionID := resp.SessionID
	for range 4 {
		resp = confirm(t, e, userID, sessionID)
	}
	require.Equal(t, datatypes.StepFinalCartReady, resp.Step)

	resp, err = e.SendConfirmation(ctx, userID, sessionID, true, "Continue with Feedback")
	require.NoError(t, err)
	require.Equal(t, datatypes.StepFeedbackRating, resp.Step)
	return sessionID
}

// =============================================================================
// Direct Cart Operations
// =============================================================================

func TestCartOperations_AddViewRemoveClear(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	userID := "user-cart"

	resp, err := e.SendMessage(ctx, userID, "", "add milk to my cart")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepCartOperationComplete, resp.Step)
	assert.Contains(t, resp.AssistantMessage, "Milk")

	resp, err = e.SendMessage(ctx, userID, "", "show my cart")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepCartOperationComplete, resp.Step)
	assert.Equal(t, 1, resp.Data["item_count"])

	resp, err = e.SendMessage(ctx, userID, "", "remove milk from my cart")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepCartOperationComplete, resp.Step)

	resp, err = e.SendMessage(ctx, userID, "", "clear my cart")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepCartOperationComplete, resp.Step)
	assert.Equal(t, "Your cart is now empty.", resp.AssistantMessage)
}

func TestCartOperation_UnknownItem_TerminalFailure(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.SendMessage(context.Background(), "user-cart2", "", "add unobtainium to my cart")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepCartOperationFailed, resp.Step)
	assert.True(t, resp.IsComplete)
}

// =============================================================================
// Downstream Failures
// =============================================================================

// failingPlanner fails every call after an optional delay.
type failingPlanner struct {
	delay time.Duration
}

func (f failingPlanner) PlanMeals(ctx context.Context, _ *datatypes.Profile, _ *datatypes.Intent) ([]datatypes.Recipe, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, assert.AnError
}

func (f failingPlanner) RecommendProducts(ctx context.Context, _ *datatypes.Intent, _ *datatypes.Profile) ([]datatypes.Product, error) {
	return nil, assert.AnError
}

func TestDownstreamFailure_StepUnchangedAndRetryable(t *testing.T) {
	e := newTestEngine(t, func(o *Options) {
		o.Planner = failingPlanner{}
	})
	ctx := context.Background()
	userID := "user-down"

	resp, err := e.SendMessage(ctx, userID, "", "Plan 3 meals under $50")
	require.NoError(t, err)
	sessionID := resp.SessionID

	resp = confirm(t, e, userID, sessionID)
	require.Equal(t, datatypes.StepIntentConfirmation, resp.Step)

	// The planner fails; the turn yields an error response, never an error.
	resp, err = e.SendConfirmation(ctx, userID, sessionID, true, "")
	require.NoError(t, err)
	assert.Contains(t, resp.AssistantMessage, "Please try again")
	assert.Equal(t, "planner failed", resp.Data["error"])
	assert.Contains(t, resp.Data, "elapsed_ms")

	// CurrentStep stayed put, so the same confirmation can be retried.
	s, err := e.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.StepIntentConfirmation, s.CurrentStep)
}

func TestDownstreamTimeout_SurfacesErrorResponse(t *testing.T) {
	e := newTestEngine(t, func(o *Options) {
		o.Planner = failingPlanner{delay: time.Second}
		o.DownstreamTimeout = 20 * time.Millisecond
	})
	ctx := context.Background()
	userID := "user-slow"

	resp, err := e.SendMessage(ctx, userID, "", "Plan 3 meals")
	require.NoError(t, err)
	sessionID := resp.SessionID
	confirm(t, e, userID, sessionID)

	resp, err = e.SendConfirmation(ctx, userID, sessionID, true, "")
	require.NoError(t, err)
	assert.Equal(t, "planner failed", resp.Data["error"])
}

// =============================================================================
// Concurrency
// =============================================================================

// slowPlanner delays long enough for turns to overlap without the
// repository's serialization.
type slowPlanner struct {
	inner Planner
	mu    sync.Mutex
	busy  bool
	raced bool
}

func (p *slowPlanner) PlanMeals(ctx context.Context, profile *datatypes.Profile, intent *datatypes.Intent) ([]datatypes.Recipe, error) {
	p.mu.Lock()
	if p.busy {
		p.raced = true
	}
	p.busy = true
	p.mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
	return p.inner.PlanMeals(ctx, profile, intent)
}

func (p *slowPlanner) RecommendProducts(ctx context.Context, intent *datatypes.Intent, profile *datatypes.Profile) ([]datatypes.Product, error) {
	return p.inner.RecommendProducts(ctx, intent, profile)
}

func TestConcurrentTurns_SameSession_NeverInterleave(t *testing.T) {
	cat := catalog.NewMemoryCatalog(catalog.DefaultSeed())
	slow := &slowPlanner{inner: planner.New(cat)}
	e := newTestEngine(t, func(o *Options) {
		o.Planner = slow
	})
	ctx := context.Background()
	userID := "user-race"

	resp, err := e.SendMessage(ctx, userID, "", "Plan 3 meals under $50")
	require.NoError(t, err)
	sessionID := resp.SessionID
	confirm(t, e, userID, sessionID)

	// Fire overlapping confirmations at intent_confirmation. Only the
	// first reaches the planner; the rest observe the already-advanced
	// step and route without planning again, but none may interleave.
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.SendConfirmation(ctx, userID, sessionID, true, "")
		}()
	}
	wg.Wait()

	slow.mu.Lock()
	raced := slow.raced
	slow.mu.Unlock()
	assert.False(t, raced, "planner calls for one session overlapped")

	s, err := e.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.StepNumber, 5)
}

// =============================================================================
// Ownership
// =============================================================================

func TestSession_CrossUserAccessRejected(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	resp, err := e.SendMessage(ctx, "owner", "", "hello")
	require.NoError(t, err)

	_, err = e.SendMessage(ctx, "intruder", resp.SessionID, "hi")
	require.ErrorIs(t, err, datatypes.ErrNotOwner)

	_, err = e.GetSession(ctx, "intruder", resp.SessionID)
	require.ErrorIs(t, err, datatypes.ErrNotOwner)
}

// =============================================================================
// Intent Extraction
// =============================================================================

func TestExtractIntent_BudgetForms(t *testing.T) {
	cases := []struct {
		message string
		budget  float64
	}{
		{"plan meals under $50", 50},
		{"keep it below 30", 30},
		{"less than $25.50 please", 25.50},
		{"I have a budget of 100", 100},
		{"a $75 budget for the week", 75},
		{"spend $42 total", 42},
		{"plan some meals", 0},
	}
	for _, tc := range cases {
		intent := ExtractIntent(tc.message, classifier.QueryMealPlanning)
		assert.Equal(t, tc.budget, intent.Budget, "message %q", tc.message)
	}
}

func TestExtractIntent_MealCountAndDefaults(t *testing.T) {
	intent := ExtractIntent("plan 5 dinners", classifier.QueryMealPlanning)
	assert.Equal(t, 5, intent.MealCount)

	intent = ExtractIntent("plan my meals", classifier.QueryMealPlanning)
	assert.Equal(t, 3, intent.MealCount)

	intent = ExtractIntent("find snacks", classifier.QueryProductSearch)
	assert.Equal(t, 0, intent.MealCount)
}

func TestExtractIntent_DietAndCategory(t *testing.T) {
	intent := ExtractIntent("vegetarian meals with fresh produce, something quick", classifier.QueryMealPlanning)
	assert.Equal(t, "vegetarian", intent.DietaryPreference)
	assert.Equal(t, "produce", intent.ProductCategory)
	assert.Equal(t, "quick", intent.SpecialRequirements)

	intent = ExtractIntent("gluten free bakery items", classifier.QueryDietaryFilter)
	assert.Equal(t, "gluten-free", intent.DietaryPreference)
	assert.Equal(t, "bakery", intent.ProductCategory)
}

func TestExtractIntent_Deterministic(t *testing.T) {
	a := ExtractIntent("Plan 3 vegetarian meals under $50", classifier.QueryMealPlanning)
	b := ExtractIntent("Plan 3 vegetarian meals under $50", classifier.QueryMealPlanning)
	assert.Equal(t, a, b)
}

func TestDetectCartOperation(t *testing.T) {
	op, item, ok := detectCartOperation("add organic milk to my cart")
	require.True(t, ok)
	assert.Equal(t, datatypes.CartOpAdd, op)
	assert.Equal(t, "organic milk", item)

	op, item, ok = detectCartOperation("remove eggs from cart")
	require.True(t, ok)
	assert.Equal(t, datatypes.CartOpDelete, op)
	assert.Equal(t, "eggs", item)

	op, _, ok = detectCartOperation("what's in my cart?")
	require.True(t, ok)
	assert.Equal(t, datatypes.CartOpView, op)

	op, _, ok = detectCartOperation("empty my cart")
	require.True(t, ok)
	assert.Equal(t, datatypes.CartOpClear, op)

	_, _, ok = detectCartOperation("I bought a shopping cart yesterday")
	assert.False(t, ok)
}
