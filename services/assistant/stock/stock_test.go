// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stock

import (
	"context"
	"testing"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultAdjuster() *Adjuster {
	products, recipes := catalog.DefaultSeed()
	return New(catalog.NewMemoryCatalog(products, recipes))
}

func TestAdjust_AppliesPromotions(t *testing.T) {
	adj := defaultAdjuster()

	cart := []datatypes.CartItem{
		{ItemID: "dairy-003", Name: "Cheddar Cheese", Price: 5.99, Quantity: 1},
		{ItemID: "produce-004", Name: "Tomatoes", Price: 2.99, Quantity: 2},
	}
	out, err := adj.Adjust(context.Background(), cart)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.InDelta(t, 5.39, out[0].Price, 0.001)
	assert.InDelta(t, 5.99, out[0].OriginalPrice, 0.001)
	assert.Equal(t, 10, out[0].DiscountPercent)

	assert.InDelta(t, 2.54, out[1].Price, 0.001)
	assert.InDelta(t, 2.99, out[1].OriginalPrice, 0.001)
	assert.Equal(t, 15, out[1].DiscountPercent)
}

func TestAdjust_SubstitutesOutOfStock(t *testing.T) {
	adj := defaultAdjuster()

	cart := []datatypes.CartItem{
		{ItemID: "dairy-005", Name: "Butter", Price: 4.49, Quantity: 1},
	}
	out, err := adj.Adjust(context.Background(), cart)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, "pantry-006", out[0].ItemID)
	assert.Equal(t, "Coconut Oil", out[0].Name)
	assert.InDelta(t, 7.49, out[0].Price, 0.001)
	assert.True(t, out[0].Substituted)
	assert.False(t, out[0].Unavailable)
	assert.Equal(t, 1, out[0].Quantity)
}

func TestAdjust_FlagsUnavailableWithoutSubstitute(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]datatypes.Product{
		{ItemID: "exotic-001", Name: "Saffron", Category: "spices", Price: 14.99, InStock: false},
	}, nil)
	adj := New(cat)

	cart := []datatypes.CartItem{
		{ItemID: "exotic-001", Name: "Saffron", Price: 14.99, Quantity: 1},
	}
	out, err := adj.Adjust(context.Background(), cart)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.True(t, out[0].Unavailable)
	assert.Equal(t, "exotic-001", out[0].ItemID)
	assert.Zero(t, out[0].LineTotal())
}

func TestAdjust_PassesThroughUnknownItems(t *testing.T) {
	adj := defaultAdjuster()

	cart := []datatypes.CartItem{
		{ItemID: "mystery-001", Name: "Mystery Jar", Price: 1.23, Quantity: 3},
	}
	out, err := adj.Adjust(context.Background(), cart)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, cart[0], out[0])
}

func TestAdjust_RefreshesStalePrices(t *testing.T) {
	adj := defaultAdjuster()

	cart := []datatypes.CartItem{
		{ItemID: "dairy-001", Name: "Milk", Price: 2.99, Quantity: 1},
	}
	out, err := adj.Adjust(context.Background(), cart)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 3.49, out[0].Price, 0.001)
}

func TestAdjust_DoesNotMutateInput(t *testing.T) {
	adj := defaultAdjuster()

	cart := []datatypes.CartItem{
		{ItemID: "meat-003", Name: "Salmon Fillet", Price: 11.99, Quantity: 1},
	}
	_, err := adj.Adjust(context.Background(), cart)
	require.NoError(t, err)

	assert.InDelta(t, 11.99, cart[0].Price, 0.001)
	assert.Zero(t, cart[0].DiscountPercent)
}

func TestAdjust_SavingsAggregate(t *testing.T) {
	adj := defaultAdjuster()

	cart := []datatypes.CartItem{
		{ItemID: "meat-003", Name: "Salmon Fillet", Price: 11.99, Quantity: 2},
		{ItemID: "pantry-001", Name: "Rice", Price: 3.29, Quantity: 1},
	}
	out, err := adj.Adjust(context.Background(), cart)
	require.NoError(t, err)

	assert.InDelta(t, 4.80, datatypes.CartSavings(out), 0.001)
	assert.InDelta(t, 22.47, datatypes.CartTotal(out), 0.001)
}

func TestAdjust_EmptyCart(t *testing.T) {
	adj := defaultAdjuster()

	out, err := adj.Adjust(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
