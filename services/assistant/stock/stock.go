// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stock applies availability and promotional-price adjustment to a
// built cart.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("pantrypilot.assistant.stock")

// Adjuster resolves stock and promotions for cart items.
//
// # Description
//
// Adjust is a pure function of (cart, catalog snapshot): no hidden
// cross-item coupling exists beyond the total-savings aggregation the
// caller computes for display. Input carts are never mutated.
//
// # Thread Safety
//
// Safe for concurrent use.
type Adjuster struct {
	catalog catalog.Catalog
}

// New creates an adjuster over the given catalog.
func New(cat catalog.Catalog) *Adjuster {
	return &Adjuster{catalog: cat}
}

// Adjust returns the final cart after promotions and substitutions.
//
// Per item:
//
//   - an active promo discounts the unit price, rounded to cents, with
//     the original price retained on the line
//   - an out-of-stock item is replaced by the catalog's substitute at the
//     substitute's price (promo applied likewise), or flagged unavailable
//     when no substitute exists
//   - items unknown to the catalog pass through unchanged
func (a *Adjuster) Adjust(ctx context.Context, cart []datatypes.CartItem) ([]datatypes.CartItem, error) {
	ctx, span := tracer.Start(ctx, "Adjuster.Adjust")
	defer span.End()
	span.SetAttributes(attribute.Int("stock.lines", len(cart)))

	out := make([]datatypes.CartItem, 0, len(cart))
	substituted, unavailable, discounted := 0, 0, 0
	for _, item := range cart {
		product, err := a.catalog.GetByID(ctx, item.ItemID)
		if err != nil {
			if errors.Is(err, datatypes.ErrProductNotFound) {
				out = append(out, item)
				continue
			}
			return nil, fmt.Errorf("stock lookup for %s failed: %w", item.ItemID, err)
		}

		if !product.InStock {
			sub, err := a.catalog.FindSubstitute(ctx, *product)
			if err != nil {
				if errors.Is(err, datatypes.ErrProductNotFound) {
					flagged := item
					flagged.Unavailable = true
					out = append(out, flagged)
					unavailable++
					continue
				}
				return nil, fmt.Errorf("substitute lookup for %s failed: %w", item.ItemID, err)
			}
			line := datatypes.CartItem{
				ItemID:      sub.ItemID,
				Name:        sub.Name,
				Price:       sub.Price,
				Quantity:    item.Quantity,
				Substituted: true,
			}
			applyPromo(&line, sub.PromoPercent)
			out = append(out, line)
			substituted++
			continue
		}

		line := item
		line.Price = product.Price
		applyPromo(&line, product.PromoPercent)
		if line.DiscountPercent > 0 {
			discounted++
		}
		out = append(out, line)
	}

	span.SetAttributes(
		attribute.Int("stock.substituted", substituted),
		attribute.Int("stock.unavailable", unavailable),
		attribute.Int("stock.discounted", discounted),
	)
	return out, nil
}

// applyPromo discounts the line price in place, keeping the original.
func applyPromo(line *datatypes.CartItem, promoPercent int) {
	if promoPercent <= 0 {
		return
	}
	line.OriginalPrice = line.Price
	line.DiscountPercent = promoPercent
	line.Price = datatypes.RoundCents(line.Price * (1 - float64(promoPercent)/100))
}
