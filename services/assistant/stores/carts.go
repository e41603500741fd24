// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
)

const cartKeyPrefix = "cart/"

// CartSummary is the user-facing rollup of a stored cart.
type CartSummary struct {
	Items     []datatypes.CartItem `json:"items"`
	ItemCount int                  `json:"item_count"`
	Total     float64              `json:"total"`
	Savings   float64              `json:"savings"`
}

// CartStore persists the durable per-user cart.
//
// The cart outlives conversations: "add all to cart" at the end of a flow
// lands here, and the cart endpoints operate on this record directly.
//
// # Thread Safety
//
// Safe for concurrent use.
type CartStore struct {
	db *DB
}

// NewCartStore creates a store over an open database.
func NewCartStore(db *DB) *CartStore {
	return &CartStore{db: db}
}

func cartKey(userID string) []byte {
	return []byte(cartKeyPrefix + userID)
}

// Get returns the user's cart items. A user with no cart gets an empty slice.
func (s *CartStore) Get(ctx context.Context, userID string) ([]datatypes.CartItem, error) {
	ctx, span := tracer.Start(ctx, "CartStore.Get")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var items []datatypes.CartItem
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, cartKey(userID), &items)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []datatypes.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart for user %s: %w", userID, err)
	}
	return items, nil
}

// Add merges items into the cart. Lines sharing an item id merge by summing
// quantity; the incoming price wins so re-adding picks up current pricing.
func (s *CartStore) Add(ctx context.Context, userID string, items []datatypes.CartItem) error {
	ctx, span := tracer.Start(ctx, "CartStore.Add")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("cart.added", len(items)),
	)

	if len(items) == 0 {
		return nil
	}
	return s.update(ctx, userID, func(cart []datatypes.CartItem) ([]datatypes.CartItem, error) {
		index := make(map[string]int, len(cart))
		for i, line := range cart {
			index[line.ItemID] = i
		}
		for _, item := range items {
			if item.Quantity <= 0 {
				item.Quantity = 1
			}
			if i, ok := index[item.ItemID]; ok {
				qty := cart[i].Quantity + item.Quantity
				cart[i] = item
				cart[i].Quantity = qty
				continue
			}
			index[item.ItemID] = len(cart)
			cart = append(cart, item)
		}
		return cart, nil
	})
}

// Remove deletes one line by item id.
func (s *CartStore) Remove(ctx context.Context, userID, itemID string) error {
	ctx, span := tracer.Start(ctx, "CartStore.Remove")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("cart.item_id", itemID),
	)

	return s.update(ctx, userID, func(cart []datatypes.CartItem) ([]datatypes.CartItem, error) {
		for i, line := range cart {
			if line.ItemID == itemID {
				return append(cart[:i], cart[i+1:]...), nil
			}
		}
		return nil, datatypes.ErrProductNotFound
	})
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
func (s *CartStore) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	ctx, span := tracer.Start(ctx, "CartStore.UpdateQuantity")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("cart.item_id", itemID),
		attribute.Int("cart.quantity", quantity),
	)

	if quantity <= 0 {
		return s.Remove(ctx, userID, itemID)
	}
	return s.update(ctx, userID, func(cart []datatypes.CartItem) ([]datatypes.CartItem, error) {
		for i := range cart {
			if cart[i].ItemID == itemID {
				cart[i].Quantity = quantity
				return cart, nil
			}
		}
		return nil, datatypes.ErrProductNotFound
	})
}

// Clear empties the cart. Clearing an absent cart is a no-op.
func (s *CartStore) Clear(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "CartStore.Clear")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete(cartKey(userID))
	})
	if err != nil {
		return fmt.Errorf("clear cart for user %s: %w", userID, err)
	}
	return nil
}

// Summarize returns the cart with totals and savings computed.
func (s *CartStore) Summarize(ctx context.Context, userID string) (*CartSummary, error) {
	items, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, line := range items {
		count += line.Quantity
	}
	return &CartSummary{
		Items:     items,
		ItemCount: count,
		Total:     datatypes.CartTotal(items),
		Savings:   datatypes.CartSavings(items),
	}, nil
}

// update applies fn to the stored cart inside one transaction.
func (s *CartStore) update(
	ctx context.Context,
	userID string,
	fn func([]datatypes.CartItem) ([]datatypes.CartItem, error),
) error {
	key := cartKey(userID)
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var cart []datatypes.CartItem
		err := getJSON(txn, key, &cart)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		cart, err = fn(cart)
		if err != nil {
			return err
		}
		return setJSON(txn, key, cart, 0)
	})
	if err != nil {
		if errors.Is(err, datatypes.ErrProductNotFound) {
			return datatypes.ErrProductNotFound
		}
		return fmt.Errorf("update cart for user %s: %w", userID, err)
	}
	return nil
}
