// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"go.opentelemetry.io/otel/attribute"
)

// substitutePriceTolerance bounds how far a substitute's price may deviate
// from the out-of-stock item's price (fraction of the original price).
const substitutePriceTolerance = 0.5

// MemoryCatalog is the in-process Catalog implementation.
//
// # Description
//
// Holds the full product and recipe set in memory behind a RWMutex and
// answers searches with the deterministic tiered fuzzy matcher. The data
// set is replaced wholesale by ApplySeed, which the seed watcher calls on
// file change, so readers never observe a half-updated catalog.
//
// # Thread Safety
//
// Safe for concurrent use.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products []datatypes.Product
	recipes  []datatypes.Recipe
	byID     map[string]int
}

var _ Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog creates a catalog over the given data set.
func NewMemoryCatalog(products []datatypes.Product, recipes []datatypes.Recipe) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.ApplySeed(products, recipes)
	return c
}

// ApplySeed atomically replaces the catalog contents.
func (c *MemoryCatalog) ApplySeed(products []datatypes.Product, recipes []datatypes.Recipe) {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ItemID] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.recipes = recipes
	c.byID = byID
}

// Search returns products matching the free-text query, best match first.
func (c *MemoryCatalog) Search(ctx context.Context, query string) ([]datatypes.Product, error) {
	_, span := tracer.Start(ctx, "MemoryCatalog.Search")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.query", query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.products))
	for i, p := range c.products {
		names[i] = p.Name
	}

	var out []datatypes.Product
	for _, idx := range matchByName(query, names) {
		out = append(out, c.products[idx])
	}
	span.SetAttributes(attribute.Int("catalog.results", len(out)))
	return out, nil
}

// Browse lists products, optionally restricted to one category, in seed
// order.
func (c *MemoryCatalog) Browse(ctx context.Context, category string) ([]datatypes.Product, error) {
	_, span := tracer.Start(ctx, "MemoryCatalog.Browse")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.category", category))

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []datatypes.Product
	for _, p := range c.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetByID resolves a single SKU. Returns datatypes.ErrProductNotFound for
// unknown ids.
func (c *MemoryCatalog) GetByID(ctx context.Context, itemID string) (*datatypes.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.byID[itemID]
	if !ok {
		return nil, datatypes.ErrProductNotFound
	}
	p := c.products[idx]
	return &p, nil
}

// FindSubstitute proposes a replacement for an out-of-stock product.
//
// A configured ReplacementID wins when it resolves to an in-stock item.
// Otherwise the cheapest in-stock item of the same category whose price is
// within the tolerance band is chosen, ties broken by item id, which keeps
// the choice stable across calls.
func (c *MemoryCatalog) FindSubstitute(ctx context.Context, product datatypes.Product) (*datatypes.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if product.ReplacementID != "" {
		if idx, ok := c.byID[product.ReplacementID]; ok && c.products[idx].InStock {
			sub := c.products[idx]
			return &sub, nil
		}
	}

	var candidates []datatypes.Product
	for _, p := range c.products {
		if p.ItemID == product.ItemID || !p.InStock || p.Category != product.Category {
			continue
		}
		if math.Abs(p.Price-product.Price) > product.Price*substitutePriceTolerance {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, datatypes.ErrProductNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Price != candidates[j].Price {
			return candidates[i].Price < candidates[j].Price
		}
		return candidates[i].ItemID < candidates[j].ItemID
	})
	sub := candidates[0]
	slog.Debug("substitute selected",
		"item_id", product.ItemID,
		"substitute_id", sub.ItemID)
	return &sub, nil
}

// Recipes returns the plannable recipe set.
func (c *MemoryCatalog) Recipes(ctx context.Context) ([]datatypes.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]datatypes.Recipe, len(c.recipes))
	copy(out, c.recipes)
	return out, nil
}
