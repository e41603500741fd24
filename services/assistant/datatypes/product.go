// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Product, recipe and cart line-item types shared across the catalog,
// planner, basket and stock packages.
package datatypes

import "math"

// Product is one catalog SKU.
type Product struct {
	ItemID   string   `json:"item_id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    float64  `json:"price"`
	Tags     []string `json:"tags,omitempty"`
	InStock  bool     `json:"in_stock"`

	// PromoPercent is the active discount in whole percent, 0 if none.
	PromoPercent int `json:"promo_percent,omitempty"`

	// ReplacementID names a preferred substitute when the item is out of
	// stock. Empty means the stock adjuster searches by category instead.
	ReplacementID string `json:"replacement_id,omitempty"`
}

// Recipe is one plannable meal with its shopping list.
type Recipe struct {
	RecipeID      string   `json:"recipe_id"`
	Name          string   `json:"name"`
	Cuisine       string   `json:"cuisine,omitempty"`
	Ingredients   []string `json:"ingredients"`
	Tags          []string `json:"tags,omitempty"`
	EstimatedCost float64  `json:"estimated_cost,omitempty"`
	SkillLevel    string   `json:"skill_level,omitempty"`
}

// CartItem is one priced, quantified line item of a basket.
//
// OriginalPrice and DiscountPercent are present only after the stock
// adjuster ran; Price then carries the post-discount unit price.
type CartItem struct {
	ItemID          string  `json:"item_id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	Quantity        int     `json:"quantity"`
	OriginalPrice   float64 `json:"original_price,omitempty"`
	DiscountPercent int     `json:"discount_percent,omitempty"`

	// Substituted marks a line replaced by the stock adjuster because the
	// requested item was out of stock.
	Substituted bool `json:"substituted,omitempty"`

	// Unavailable marks a line that was out of stock with no acceptable
	// substitute. Unavailable lines do not count toward the cart total.
	Unavailable bool `json:"unavailable,omitempty"`
}

// LineTotal is the extended price of the line. Unavailable lines total zero.
func (c CartItem) LineTotal() float64 {
	if c.Unavailable {
		return 0
	}
	return RoundCents(c.Price * float64(c.Quantity))
}

// CartTotal sums line totals across items.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	return RoundCents(total)
}

// CartSavings sums the per-line savings introduced by stock adjustment.
func CartSavings(items []CartItem) float64 {
	var saved float64
	for _, it := range items {
		if it.OriginalPrice > it.Price && !it.Unavailable {
			saved += (it.OriginalPrice - it.Price) * float64(it.Quantity)
		}
	}
	return RoundCents(saved)
}

// RoundCents rounds a dollar amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
