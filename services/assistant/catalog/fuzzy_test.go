// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"milk", "milk", 1.0, 1.0},
		{"brocoli", "broccoli", 0.8, 0.95},
		{"milk", "salmon fillet", 0.0, 0.3},
		{"", "", 1.0, 1.0},
	}
	for _, tt := range tests {
		got := similarityRatio(tt.a, tt.b)
		assert.GreaterOrEqual(t, got, tt.min, "ratio(%q,%q)", tt.a, tt.b)
		assert.LessOrEqual(t, got, tt.max, "ratio(%q,%q)", tt.a, tt.b)
	}
}

func TestMatchByName_TierPriority(t *testing.T) {
	names := []string{"Whole Milk", "Milk", "Milkshake Mix"}

	// Exact match wins over substring matches.
	got := matchByName("milk", names)
	assert.Equal(t, []int{1}, got)
}

func TestMatchByName_ReverseSubstring(t *testing.T) {
	names := []string{"Rice", "Soy Sauce"}

	// Product name contained in the query.
	got := matchByName("long grain rice please", names)
	assert.Equal(t, []int{0}, got)
}

func TestMatchByName_ShortWordsIgnored(t *testing.T) {
	// Words of <= 2 chars never count toward overlap.
	names := []string{"A1 Sauce"}
	got := matchByName("a1 of in", names)
	assert.Empty(t, got)
}

func TestMatchByName_EmptyQuery(t *testing.T) {
	assert.Nil(t, matchByName("   ", []string{"Milk"}))
}
