// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/classifier"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/observability"
)

// finalCartOptions is the action menu offered once the final cart is ready.
var finalCartOptions = []string{
	"Add All to Cart",
	"View Product Catalog",
	"Continue with Feedback",
}

// declinedMessage is the terminal text for a declined confirmation.
const declinedMessage = "No problem! Feel free to ask me anything else."

// =============================================================================
// Confirmation Routing
// =============================================================================

// processConfirmation handles a yes/no confirmation against the current
// state. actionData carries the chosen option at the final-cart menu.
func (e *Engine) processConfirmation(ctx context.Context, s *datatypes.Session, confirmed bool, actionData string) (*datatypes.Response, error) {
	// At the purchase question the confirmation IS the answer being
	// recorded, so a "no" is data, not a decline.
	if s.CurrentStep == datatypes.StepFeedbackPurchase {
		answer := "no"
		if confirmed {
			answer = "yes"
		}
		return e.submitFeedback(ctx, s, answer)
	}
	if s.CurrentStep.IsFeedback() {
		// A bare confirmation is not a valid feedback answer.
		return e.feedbackPrompt(s), nil
	}
	if s.CurrentStep.IsTerminal() {
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "This conversation has finished. Send a new message to start another one."
		return resp, nil
	}

	if !confirmed {
		s.Advance(datatypes.StepDeclined, s.StepNumber)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = declinedMessage
		resp.IsComplete = true
		return resp, nil
	}

	return e.dispatch(ctx, s, actionData)
}

// dispatch is the fixed lookup table: current step to action on a
// confirmed turn. The match over Step is exhaustive for every
// non-feedback, non-terminal value; anything unexpected falls back to
// intent extraction.
func (e *Engine) dispatch(ctx context.Context, s *datatypes.Session, actionData string) (*datatypes.Response, error) {
	switch s.CurrentStep {
	case datatypes.StepGoalConfirmation:
		return e.confirmIntent(ctx, s)
	case datatypes.StepIntentConfirmation:
		return e.routeIntent(ctx, s)
	case datatypes.StepRecipesReady:
		return e.buildCart(ctx, s, true)
	case datatypes.StepProductsReady:
		return e.buildCart(ctx, s, false)
	case datatypes.StepCartReady:
		return e.adjustCart(ctx, s)
	case datatypes.StepFinalCartReady, datatypes.StepCartActionSelection:
		return e.resolveCartAction(ctx, s, actionData)
	case datatypes.StepCasualResponse:
		return e.generalSearch(ctx, s)
	case datatypes.StepConversationStart, datatypes.StepConversationProcessed,
		datatypes.StepGeneralQuerySearch, datatypes.StepProfileLoaded:
		return e.confirmIntent(ctx, s)
	default:
		return e.confirmIntent(ctx, s)
	}
}

// =============================================================================
// Flow Handlers
// =============================================================================

// confirmIntent extracts the structured intent from the last message and
// asks the user to confirm it.
func (e *Engine) confirmIntent(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	queryType := s.QueryType
	if queryType == "" {
		queryType = classifier.QueryMealPlanning
	}
	intent := ExtractIntent(s.LastMessage, queryType)
	s.Intent = &intent
	s.Advance(datatypes.StepIntentConfirmation, 3)

	resp := datatypes.NewResponse(s, "")
	resp.RequiresConfirmation = true
	resp.ConfirmationPrompt = intentPrompt(&intent)
	resp.AssistantMessage = resp.ConfirmationPrompt
	resp.NextStep = datatypes.StepProfileLoaded
	resp.Data = map[string]any{"intent": intent}
	return resp, nil
}

// routeIntent dispatches a confirmed intent to its fulfillment pipeline.
func (e *Engine) routeIntent(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	if s.Intent == nil {
		intent := ExtractIntent(s.LastMessage, s.QueryType)
		s.Intent = &intent
	}

	switch s.Intent.QueryType {
	case classifier.QueryProductLookup, classifier.QueryPriceInquiry,
		classifier.QueryAvailabilityCheck, classifier.QueryPromotionInquiry,
		classifier.QueryStoreNavigation, classifier.QuerySubstitution,
		classifier.QueryGeneralInquiry:
		return e.generalSearch(ctx, s)
	case classifier.QueryCartOperation:
		op := s.Intent.CartOperation
		if op == "" {
			op = datatypes.CartOpView
		}
		_, item, _ := detectCartOperation(s.LastMessage)
		return e.runCartOperation(ctx, s, op, item)
	case classifier.QueryBasketBuilder:
		return e.buildSingleRecipe(ctx, s)
	case classifier.QueryRecommendation, classifier.QueryDietaryFilter,
		classifier.QueryProductSearch:
		return e.recommendProducts(ctx, s)
	case classifier.QueryMealPlanning:
		return e.planMeals(ctx, s)
	default:
		return e.planMeals(ctx, s)
	}
}

// planMeals loads the profile and produces a meal plan for confirmation.
func (e *Engine) planMeals(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	profile, err := downstream(ctx, e.timeout, "profile_store", func(c context.Context) (*datatypes.Profile, error) {
		return e.profiles.GetOrCreate(c, s.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.UserProfile = profile
	s.Advance(datatypes.StepProfileLoaded, 4)

	recipes, err := downstream(ctx, e.timeout, "planner", func(c context.Context) ([]datatypes.Recipe, error) {
		return e.planner.PlanMeals(c, profile, s.Intent)
	})
	if err != nil {
		return nil, err
	}

	if len(recipes) == 0 {
		s.Advance(datatypes.StepNoRecipes, 5)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "I couldn't find any recipes matching your preferences. Try relaxing a constraint and ask again."
		resp.IsComplete = true
		return resp, nil
	}

	s.Recipes = recipes
	s.Advance(datatypes.StepRecipesReady, 5)

	var total float64
	names := make([]string, 0, len(recipes))
	for _, r := range recipes {
		total += r.EstimatedCost
		names = append(names, r.Name)
	}

	resp := datatypes.NewResponse(s, "")
	resp.RequiresConfirmation = true
	resp.ConfirmationPrompt = fmt.Sprintf("I picked %d meals: %s (estimated $%.2f total). Shall I build your shopping cart?",
		len(recipes), strings.Join(names, ", "), datatypes.RoundCents(total))
	resp.AssistantMessage = resp.ConfirmationPrompt
	resp.NextStep = datatypes.StepCartReady
	resp.Data = map[string]any{
		"recipes":         recipes,
		"estimated_total": datatypes.RoundCents(total),
	}
	return resp, nil
}

// recommendProducts loads the profile and produces a recommendation set.
func (e *Engine) recommendProducts(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	profile, err := downstream(ctx, e.timeout, "profile_store", func(c context.Context) (*datatypes.Profile, error) {
		return e.profiles.GetOrCreate(c, s.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.UserProfile = profile
	s.Advance(datatypes.StepProfileLoaded, 4)

	products, err := downstream(ctx, e.timeout, "planner", func(c context.Context) ([]datatypes.Product, error) {
		return e.planner.RecommendProducts(c, s.Intent, profile)
	})
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		s.Advance(datatypes.StepNoProducts, 5)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "I couldn't find any products matching that. Try a different category or preference."
		resp.IsComplete = true
		return resp, nil
	}

	s.ProductRecommendations = products
	s.Advance(datatypes.StepProductsReady, 5)

	resp := datatypes.NewResponse(s, "")
	resp.RequiresConfirmation = true
	resp.ConfirmationPrompt = fmt.Sprintf("I found %d products for you. Shall I add them to a cart?", len(products))
	resp.AssistantMessage = resp.ConfirmationPrompt
	resp.NextStep = datatypes.StepCartReady
	resp.Data = map[string]any{"products": products}
	return resp, nil
}

// buildSingleRecipe handles a direct "ingredients for X" request by
// matching one recipe and building its basket without the planner.
func (e *Engine) buildSingleRecipe(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	profile, err := downstream(ctx, e.timeout, "profile_store", func(c context.Context) (*datatypes.Profile, error) {
		return e.profiles.GetOrCreate(c, s.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.UserProfile = profile

	recipes, err := downstream(ctx, e.timeout, "catalog", func(c context.Context) ([]datatypes.Recipe, error) {
		return e.catalog.Recipes(c)
	})
	if err != nil {
		return nil, err
	}

	match := matchRecipeByName(recipes, s.LastMessage)
	if match == nil {
		s.Advance(datatypes.StepNoMatchingRecipe, 4)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "I don't have a recipe matching that. Ask me to plan meals instead and I'll suggest some."
		resp.IsComplete = true
		return resp, nil
	}
	s.Recipes = []datatypes.Recipe{*match}

	budget := 0.0
	if s.Intent != nil {
		budget = s.Intent.Budget
	}
	cart, err := e.basket.BuildFromRecipes(ctx, s.Recipes, budget)
	if err != nil {
		s.Advance(datatypes.StepBasketBuilderError, 5)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "I couldn't assemble a basket for that recipe. Please try again."
		resp.IsComplete = true
		resp.Data = map[string]any{"error": "basket build failed"}
		return resp, nil
	}
	if len(cart) == 0 {
		s.Advance(datatypes.StepNoCartItems, 5)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "None of that recipe's ingredients are available right now."
		resp.IsComplete = true
		return resp, nil
	}

	s.Cart = cart
	s.Advance(datatypes.StepCartReady, 6)
	resp := datatypes.NewResponse(s, "")
	resp.RequiresConfirmation = true
	resp.ConfirmationPrompt = fmt.Sprintf("Ingredients for %s come to $%.2f. Apply stock and promotion checks?",
		match.Name, datatypes.CartTotal(cart))
	resp.AssistantMessage = resp.ConfirmationPrompt
	resp.NextStep = datatypes.StepFinalCartReady
	resp.Data = map[string]any{"cart": cart, "total": datatypes.CartTotal(cart)}
	return resp, nil
}

// matchRecipeByName finds the recipe whose name shares the most words
// with the message. Ties and zero overlap resolve to no match.
func matchRecipeByName(recipes []datatypes.Recipe, message string) *datatypes.Recipe {
	msgWords := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(message)) {
		if len(w) > 2 {
			msgWords[w] = true
		}
	}

	best := -1
	bestScore := 0
	for i, r := range recipes {
		score := 0
		for _, w := range strings.Fields(strings.ToLower(r.Name)) {
			if msgWords[w] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return &recipes[best]
}

// buildCart prices the planned recipes or products into a cart.
func (e *Engine) buildCart(ctx context.Context, s *datatypes.Session, fromRecipes bool) (*datatypes.Response, error) {
	budget := 0.0
	if s.Intent != nil {
		budget = s.Intent.Budget
	}

	cart, err := downstream(ctx, e.timeout, "basket", func(c context.Context) ([]datatypes.CartItem, error) {
		if fromRecipes {
			return e.basket.BuildFromRecipes(c, s.Recipes, budget)
		}
		return e.basket.BuildFromProducts(c, s.ProductRecommendations, budget)
	})
	if err != nil {
		return nil, err
	}

	if len(cart) == 0 {
		s.Advance(datatypes.StepNoCartItems, 6)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "I couldn't put together a cart from those items. Try a different request."
		resp.IsComplete = true
		return resp, nil
	}

	s.Cart = cart
	s.Advance(datatypes.StepCartReady, 6)
	resp := datatypes.NewResponse(s, "")
	resp.RequiresConfirmation = true
	resp.ConfirmationPrompt = fmt.Sprintf("Your cart totals $%.2f. Apply stock and promotion adjustments?",
		datatypes.CartTotal(cart))
	resp.AssistantMessage = resp.ConfirmationPrompt
	resp.NextStep = datatypes.StepFinalCartReady
	resp.Data = map[string]any{"cart": cart, "total": datatypes.CartTotal(cart)}
	return resp, nil
}

// adjustCart runs stock adjustment and presents the final cart with the
// action menu.
func (e *Engine) adjustCart(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	final, err := downstream(ctx, e.timeout, "stock", func(c context.Context) ([]datatypes.CartItem, error) {
		return e.stock.Adjust(c, s.Cart)
	})
	if err != nil {
		return nil, err
	}

	s.FinalCart = final
	s.Advance(datatypes.StepFinalCartReady, 7)

	total := datatypes.CartTotal(final)
	savings := datatypes.CartSavings(final)
	resp := datatypes.NewResponse(s, "")
	resp.RequiresInput = true
	resp.InputPrompt = "Your final cart is ready. What would you like to do next?"
	resp.InputType = datatypes.InputTypeText
	resp.InputOptions = finalCartOptions
	resp.AssistantMessage = fmt.Sprintf("Your final cart comes to $%.2f", total)
	if savings > 0 {
		resp.AssistantMessage += fmt.Sprintf(" after $%.2f in savings", savings)
	}
	resp.AssistantMessage += ". " + resp.InputPrompt
	resp.Data = map[string]any{
		"final_cart": final,
		"total":      total,
		"savings":    savings,
	}
	return resp, nil
}

// resolveCartAction handles the user's pick from the final-cart menu.
func (e *Engine) resolveCartAction(ctx context.Context, s *datatypes.Session, action string) (*datatypes.Response, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "add all to cart":
		return e.addFinalCart(ctx, s)

	case "view product catalog":
		products, err := downstream(ctx, e.timeout, "planner", func(c context.Context) ([]datatypes.Product, error) {
			return e.planner.RecommendProducts(c, &datatypes.Intent{}, s.UserProfile)
		})
		if err != nil {
			return nil, err
		}
		s.Advance(datatypes.StepCartActionSelection, 8)
		resp := datatypes.NewResponse(s, "")
		resp.RequiresInput = true
		resp.InputPrompt = "Here is a sample of our catalog. What would you like to do next?"
		resp.InputType = datatypes.InputTypeText
		resp.InputOptions = finalCartOptions
		resp.AssistantMessage = resp.InputPrompt
		resp.Data = map[string]any{"catalog": products}
		return resp, nil

	case "continue with feedback", "":
		s.Advance(datatypes.StepFeedbackRating, 9)
		resp := e.feedbackPrompt(s)
		resp.AssistantMessage = "Before you go, I'd love your feedback. " + resp.InputPrompt
		return resp, nil

	default:
		resp := datatypes.NewResponse(s, action)
		resp.RequiresInput = true
		resp.InputPrompt = "Please choose one of the options."
		resp.InputType = datatypes.InputTypeText
		resp.InputOptions = finalCartOptions
		resp.AssistantMessage = resp.InputPrompt
		return resp, nil
	}
}

// addFinalCart persists the adjusted cart and records the purchases.
func (e *Engine) addFinalCart(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	purchasable := make([]datatypes.CartItem, 0, len(s.FinalCart))
	names := make([]string, 0, len(s.FinalCart))
	for _, item := range s.FinalCart {
		if item.Unavailable {
			continue
		}
		purchasable = append(purchasable, item)
		names = append(names, item.Name)
	}

	if err := e.carts.Add(ctx, s.UserID, purchasable); err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordCartOperation(string(datatypes.CartOpAdd), false)
		}
		s.Advance(datatypes.StepCartOperationError, 8)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "Something went wrong saving your cart. Please try again."
		resp.IsComplete = true
		resp.Data = map[string]any{"error": "cart store failed"}
		e.logger.Error("cart add failed", "session_id", s.SessionID, "error", err)
		return resp, nil
	}
	if m := observability.DefaultMetrics; m != nil {
		m.RecordCartOperation(string(datatypes.CartOpAdd), true)
	}
	if err := e.profiles.RecordPurchases(ctx, s.UserID, names); err != nil {
		e.logger.Warn("purchase history update failed", "user_id", s.UserID, "error", err)
	}

	s.Advance(datatypes.StepCartOperationComplete, 8)
	resp := datatypes.NewResponse(s, "")
	resp.IsComplete = true
	resp.AssistantMessage = fmt.Sprintf("Added %d items to your cart ($%.2f total). Happy cooking!",
		len(purchasable), datatypes.CartTotal(purchasable))
	resp.Data = map[string]any{
		"added": len(purchasable),
		"total": datatypes.CartTotal(purchasable),
	}
	return resp, nil
}

// generalSearch runs the deeper catalog search that follows a confirmed
// casual answer or a routed general query.
func (e *Engine) generalSearch(ctx context.Context, s *datatypes.Session) (*datatypes.Response, error) {
	products, err := downstream(ctx, e.timeout, "catalog", func(c context.Context) ([]datatypes.Product, error) {
		return e.catalog.Search(c, s.LastMessage)
	})
	if err != nil {
		return nil, err
	}

	s.Advance(datatypes.StepGeneralQuerySearch, 3)
	resp := datatypes.NewResponse(s, "")
	if len(products) == 0 {
		resp.AssistantMessage = "I couldn't find anything matching that in our catalog. Ask me about a specific product or a meal plan."
		return resp, nil
	}

	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	resp.AssistantMessage = fmt.Sprintf("Here's what I found: %s. Ask about any of them for details.",
		strings.Join(names, ", "))
	resp.Data = map[string]any{"products": products}
	return resp, nil
}

// =============================================================================
// Cart Operations
// =============================================================================

// runCartOperation executes a direct cart mutation and lands on a cart
// operation terminal.
func (e *Engine) runCartOperation(ctx context.Context, s *datatypes.Session, op datatypes.CartOperation, item string) (*datatypes.Response, error) {
	recordOp := func(success bool) {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordCartOperation(string(op), success)
		}
	}

	fail := func(message string) (*datatypes.Response, error) {
		recordOp(false)
		s.Advance(datatypes.StepCartOperationFailed, 8)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = message
		resp.IsComplete = true
		return resp, nil
	}
	storeError := func(err error) (*datatypes.Response, error) {
		recordOp(false)
		s.Advance(datatypes.StepCartOperationError, 8)
		resp := datatypes.NewResponse(s, "")
		resp.AssistantMessage = "Something went wrong with your cart. Please try again."
		resp.IsComplete = true
		resp.Data = map[string]any{"error": "cart store failed"}
		e.logger.Error("cart operation failed",
			"session_id", s.SessionID, "operation", string(op), "error", err)
		return resp, nil
	}

	switch op {
	case datatypes.CartOpAdd:
		if item == "" {
			return fail("What would you like to add to your cart?")
		}
		products, err := downstream(ctx, e.timeout, "catalog", func(c context.Context) ([]datatypes.Product, error) {
			return e.catalog.Search(c, item)
		})
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return fail(fmt.Sprintf("I couldn't find %q in our catalog.", item))
		}
		p := products[0]
		line := datatypes.CartItem{ItemID: p.ItemID, Name: p.Name, Price: p.Price, Quantity: 1}
		if err := e.carts.Add(ctx, s.UserID, []datatypes.CartItem{line}); err != nil {
			return storeError(err)
		}
		recordOp(true)
		s.Advance(datatypes.StepCartOperationComplete, 8)
		resp := datatypes.NewResponse(s, "")
		resp.IsComplete = true
		resp.AssistantMessage = fmt.Sprintf("Added %s ($%.2f) to your cart.", p.Name, p.Price)
		resp.Data = map[string]any{"item": p.Name, "price": p.Price}
		return resp, nil

	case datatypes.CartOpDelete:
		if item == "" {
			return fail("What would you like to remove from your cart?")
		}
		cart, err := e.carts.Get(ctx, s.UserID)
		if err != nil {
			return storeError(err)
		}
		target := strings.ToLower(item)
		for _, line := range cart {
			if strings.Contains(strings.ToLower(line.Name), target) {
				if err := e.carts.Remove(ctx, s.UserID, line.ItemID); err != nil {
					return storeError(err)
				}
				recordOp(true)
				s.Advance(datatypes.StepCartOperationComplete, 8)
				resp := datatypes.NewResponse(s, "")
				resp.IsComplete = true
				resp.AssistantMessage = fmt.Sprintf("Removed %s from your cart.", line.Name)
				resp.Data = map[string]any{"item": line.Name}
				return resp, nil
			}
		}
		return fail(fmt.Sprintf("I couldn't find %q in your cart.", item))

	case datatypes.CartOpClear:
		if err := e.carts.Clear(ctx, s.UserID); err != nil {
			return storeError(err)
		}
		recordOp(true)
		s.Advance(datatypes.StepCartOperationComplete, 8)
		resp := datatypes.NewResponse(s, "")
		resp.IsComplete = true
		resp.AssistantMessage = "Your cart is now empty."
		return resp, nil

	default: // view
		summary, err := e.carts.Summarize(ctx, s.UserID)
		if err != nil {
			return storeError(err)
		}
		recordOp(true)
		s.Advance(datatypes.StepCartOperationComplete, 8)
		resp := datatypes.NewResponse(s, "")
		resp.IsComplete = true
		if summary.ItemCount == 0 {
			resp.AssistantMessage = "Your cart is empty."
		} else {
			resp.AssistantMessage = fmt.Sprintf("You have %d items in your cart, totaling $%.2f.",
				summary.ItemCount, summary.Total)
		}
		resp.Data = map[string]any{
			"items":      summary.Items,
			"item_count": summary.ItemCount,
			"total":      summary.Total,
			"savings":    summary.Savings,
		}
		return resp, nil
	}
}

// =============================================================================
// Prompts
// =============================================================================

// goalPrompt asks the user to confirm a detected goal-based query.
func goalPrompt(queryType string) string {
	switch queryType {
	case classifier.QueryMealPlanning:
		return "It sounds like you'd like me to plan some meals for you. Shall I get started?"
	case classifier.QueryRecommendation:
		return "I can put together some product recommendations for you. Shall I get started?"
	case classifier.QueryDietaryFilter:
		return "I can find products matching your dietary needs. Shall I get started?"
	case classifier.QueryBasketBuilder:
		return "I can gather the ingredients for that. Shall I get started?"
	case classifier.QueryProductSearch:
		return "I can search our catalog for that. Shall I get started?"
	case classifier.QueryCartOperation:
		return "I can update your cart. Shall I go ahead?"
	default:
		return "I can help with that. Shall I get started?"
	}
}

// intentPrompt summarizes an extracted intent for confirmation.
func intentPrompt(intent *datatypes.Intent) string {
	var b strings.Builder
	switch intent.QueryType {
	case classifier.QueryMealPlanning:
		count := intent.MealCount
		if count <= 0 {
			count = 3
		}
		fmt.Fprintf(&b, "I'll plan %d meals", count)
	case classifier.QueryRecommendation, classifier.QueryDietaryFilter,
		classifier.QueryProductSearch:
		b.WriteString("I'll find some products")
		if intent.ProductCategory != "" {
			fmt.Fprintf(&b, " in %s", intent.ProductCategory)
		}
	case classifier.QueryBasketBuilder:
		b.WriteString("I'll gather the ingredients")
	default:
		b.WriteString("I'll work on that")
	}
	if intent.DietaryPreference != "" {
		fmt.Fprintf(&b, ", keeping it %s", intent.DietaryPreference)
	}
	if intent.Budget > 0 {
		fmt.Fprintf(&b, ", with a $%.0f budget", intent.Budget)
	}
	if intent.SpecialRequirements != "" {
		fmt.Fprintf(&b, " (%s)", intent.SpecialRequirements)
	}
	b.WriteString(". Sound good?")
	return b.String()
}

// timeNow is split out for tests that need a fixed clock.
var timeNow = time.Now
