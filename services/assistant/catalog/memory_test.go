// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultCatalog() *MemoryCatalog {
	products, recipes := DefaultSeed()
	return NewMemoryCatalog(products, recipes)
}

func TestMemoryCatalog_Search_Exact(t *testing.T) {
	c := defaultCatalog()

	results, err := c.Search(context.Background(), "Milk")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Milk", results[0].Name)
	assert.Equal(t, 3.49, results[0].Price)
}

func TestMemoryCatalog_Search_Substring(t *testing.T) {
	c := defaultCatalog()

	results, err := c.Search(context.Background(), "cheese")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Cheddar Cheese", results[0].Name)
}

func TestMemoryCatalog_Search_WordOverlap(t *testing.T) {
	c := defaultCatalog()

	// No exact or substring match, but "chicken" overlaps.
	results, err := c.Search(context.Background(), "chicken thighs")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Chicken Breast", results[0].Name)
}

func TestMemoryCatalog_Search_SimilarityFallback(t *testing.T) {
	c := defaultCatalog()

	// Misspelling: neither substring nor word overlap, similarity only.
	results, err := c.Search(context.Background(), "brocoli")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Broccoli", results[0].Name)
}

func TestMemoryCatalog_Search_NoMatch(t *testing.T) {
	c := defaultCatalog()

	results, err := c.Search(context.Background(), "xylophone")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryCatalog_Search_Deterministic(t *testing.T) {
	c := defaultCatalog()

	first, err := c.Search(context.Background(), "oil")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := c.Search(context.Background(), "oil")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMemoryCatalog_GetByID(t *testing.T) {
	c := defaultCatalog()

	p, err := c.GetByID(context.Background(), "dairy-001")
	require.NoError(t, err)
	assert.Equal(t, "Milk", p.Name)

	_, err = c.GetByID(context.Background(), "missing-999")
	assert.ErrorIs(t, err, datatypes.ErrProductNotFound)
}

func TestMemoryCatalog_FindSubstitute_PreferredReplacement(t *testing.T) {
	c := defaultCatalog()

	butter, err := c.GetByID(context.Background(), "dairy-005")
	require.NoError(t, err)
	require.False(t, butter.InStock)

	sub, err := c.FindSubstitute(context.Background(), *butter)
	require.NoError(t, err)
	assert.Equal(t, "pantry-006", sub.ItemID)
}

func TestMemoryCatalog_FindSubstitute_SameCategoryWithinTolerance(t *testing.T) {
	products := []datatypes.Product{
		{ItemID: "a", Name: "Oat Milk", Category: "dairy", Price: 4.00, InStock: false},
		{ItemID: "b", Name: "Almond Milk", Category: "dairy", Price: 4.50, InStock: true},
		{ItemID: "c", Name: "Fancy Milk", Category: "dairy", Price: 9.00, InStock: true},
		{ItemID: "d", Name: "Juice", Category: "beverages", Price: 4.00, InStock: true},
	}
	c := NewMemoryCatalog(products, nil)

	sub, err := c.FindSubstitute(context.Background(), products[0])
	require.NoError(t, err)
	// Same category, within the price band, cheapest first.
	assert.Equal(t, "b", sub.ItemID)
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	seed := `
products:
  - item_id: test-001
    name: Test Apple
    category: produce
    price: 0.99
    in_stock: true
    tags: [vegan]
recipes:
  - recipe_id: rec-100
    name: Apple Snack
    ingredients: [test apple]
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	products, recipes, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Test Apple", products[0].Name)
	assert.Equal(t, []string{"test apple"}, recipes[0].Ingredients)
}

func TestLoadSeedFile_RejectsMissingIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - name: Nameless\n"), 0o644))

	_, _, err := LoadSeedFile(path)
	assert.Error(t, err)
}
