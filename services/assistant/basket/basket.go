// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package basket converts recipe or product lists into a priced,
// budget-constrained cart.
//
// # Budget policy
//
// When a budget ceiling is supplied, resolved items are sorted by unit
// price ascending (ties broken by item id) and added greedily while the
// running total stays within the ceiling. The policy is deterministic:
// the same inputs against the same catalog snapshot always produce the
// same cart, and the final total always reflects every drop.
package basket

import (
	"context"
	"sort"
	"strings"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("pantrypilot.assistant.basket")

// resolveConcurrency bounds parallel catalog lookups per build.
const resolveConcurrency = 4

// Builder resolves ingredients against the catalog and assembles carts.
//
// # Thread Safety
//
// Safe for concurrent use.
type Builder struct {
	catalog catalog.Catalog
}

// New creates a builder over the given catalog.
func New(cat catalog.Catalog) *Builder {
	return &Builder{catalog: cat}
}

// BuildFromRecipes assembles a cart covering every ingredient of every
// recipe.
//
// # Description
//
// Each distinct ingredient name resolves to its best catalog match; the
// first fuzzy-match tier that produces a hit wins and unresolvable
// ingredients are skipped. Quantities merge by item id, so two recipes
// sharing an ingredient yield one line with quantity 2. A positive budget
// applies the package-level budget policy. An empty cart is a valid
// result; the engine maps it to a terminal step.
func (b *Builder) BuildFromRecipes(ctx context.Context, recipes []datatypes.Recipe, budget float64) ([]datatypes.CartItem, error) {
	ctx, span := tracer.Start(ctx, "Builder.BuildFromRecipes")
	defer span.End()
	span.SetAttributes(
		attribute.Int("basket.recipes", len(recipes)),
		attribute.Float64("basket.budget", budget),
	)

	// Count ingredient occurrences across recipes, preserving first-seen
	// order for the deterministic resolve pass.
	counts := map[string]int{}
	var order []string
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			key := strings.ToLower(strings.TrimSpace(ing))
			if key == "" {
				continue
			}
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	// Each goroutine writes only its own slot, so no lock is needed.
	resolved := make([]*datatypes.Product, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, name := range order {
		g.Go(func() error {
			products, err := b.catalog.Search(gctx, name)
			if err != nil {
				return err
			}
			if len(products) > 0 {
				resolved[i] = &products[0]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge into cart lines by item id, in resolve order.
	var items []datatypes.CartItem
	lineByID := map[string]int{}
	for i, name := range order {
		p := resolved[i]
		if p == nil {
			continue
		}
		if idx, ok := lineByID[p.ItemID]; ok {
			items[idx].Quantity += counts[name]
			continue
		}
		lineByID[p.ItemID] = len(items)
		items = append(items, datatypes.CartItem{
			ItemID:   p.ItemID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: counts[name],
		})
	}

	items = applyBudget(items, budget)
	span.SetAttributes(
		attribute.Int("basket.lines", len(items)),
		attribute.Float64("basket.total", datatypes.CartTotal(items)),
	)
	return items, nil
}

// BuildFromProducts assembles a cart from already-resolved products.
// The list passes through priced as-is, subject only to the budget policy.
func (b *Builder) BuildFromProducts(ctx context.Context, products []datatypes.Product, budget float64) ([]datatypes.CartItem, error) {
	_, span := tracer.Start(ctx, "Builder.BuildFromProducts")
	defer span.End()

	var items []datatypes.CartItem
	lineByID := map[string]int{}
	for _, p := range products {
		if idx, ok := lineByID[p.ItemID]; ok {
			items[idx].Quantity++
			continue
		}
		lineByID[p.ItemID] = len(items)
		items = append(items, datatypes.CartItem{
			ItemID:   p.ItemID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: 1,
		})
	}

	items = applyBudget(items, budget)
	span.SetAttributes(attribute.Int("basket.lines", len(items)))
	return items, nil
}

// applyBudget enforces the deterministic price-ascending greedy policy.
// A non-positive budget means no ceiling.
func applyBudget(items []datatypes.CartItem, budget float64) []datatypes.CartItem {
	if budget <= 0 || datatypes.CartTotal(items) <= budget {
		return items
	}

	sorted := make([]datatypes.CartItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].ItemID < sorted[j].ItemID
	})

	var kept []datatypes.CartItem
	var total float64
	for _, it := range sorted {
		line := it.LineTotal()
		if total+line > budget {
			continue
		}
		kept = append(kept, it)
		total += line
	}
	return kept
}
