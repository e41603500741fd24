// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"sort"
	"strings"
)

// Fuzzy product-name matching. Tiers run in strict priority order and the
// first tier that produces any match wins:
//
//  1. exact normalized-name equality
//  2. query contained in product name
//  3. product name contained in query
//  4. word overlap (only words longer than 2 characters count)
//  5. similarity ratio >= similarityThreshold, top 3 by ratio
//
// Results within a tier are ordered deterministically (overlap count or
// ratio descending, then item id ascending) so repeated calls against the
// same catalog snapshot return the same ranking.

const similarityThreshold = 0.6

// normalizeName lowercases and collapses whitespace for comparison.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// contentWords returns the words of s longer than 2 characters.
func contentWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(normalizeName(s)) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// wordOverlap counts shared content words between a query and a name.
func wordOverlap(query, name string) int {
	nameWords := map[string]bool{}
	for _, w := range contentWords(name) {
		nameWords[w] = true
	}
	overlap := 0
	for _, w := range contentWords(query) {
		if nameWords[w] {
			overlap++
		}
	}
	return overlap
}

// similarityRatio returns a [0,1] similarity between two strings based on
// edit distance over the longer length. 1.0 means identical.
func similarityRatio(a, b string) float64 {
	a, b = normalizeName(a), normalizeName(b)
	if a == b {
		return 1.0
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1.0
	}
	return 1.0 - float64(editDistance(a, b))/float64(longer)
}

// editDistance computes the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// scoredProduct pairs a product index with its tier score for ranking.
type scoredProduct struct {
	idx   int
	score float64
}

// matchByName runs the tiered matcher over names and returns the indices of
// matching entries, best first, deduplicated.
func matchByName(query string, names []string) []int {
	q := normalizeName(query)
	if q == "" {
		return nil
	}

	// Tier 1: exact.
	var hits []scoredProduct
	for i, n := range names {
		if normalizeName(n) == q {
			hits = append(hits, scoredProduct{idx: i, score: 1})
		}
	}
	if len(hits) > 0 {
		return indices(hits)
	}

	// Tier 2: query contained in name.
	for i, n := range names {
		if strings.Contains(normalizeName(n), q) {
			hits = append(hits, scoredProduct{idx: i, score: 1})
		}
	}
	if len(hits) > 0 {
		return indices(hits)
	}

	// Tier 3: name contained in query.
	for i, n := range names {
		nn := normalizeName(n)
		if nn != "" && strings.Contains(q, nn) {
			hits = append(hits, scoredProduct{idx: i, score: float64(len(nn))})
		}
	}
	if len(hits) > 0 {
		sortHits(hits)
		return indices(hits)
	}

	// Tier 4: word overlap.
	for i, n := range names {
		if ov := wordOverlap(q, n); ov > 0 {
			hits = append(hits, scoredProduct{idx: i, score: float64(ov)})
		}
	}
	if len(hits) > 0 {
		sortHits(hits)
		return indices(hits)
	}

	// Tier 5: similarity ratio, top 3.
	for i, n := range names {
		if r := similarityRatio(q, n); r >= similarityThreshold {
			hits = append(hits, scoredProduct{idx: i, score: r})
		}
	}
	sortHits(hits)
	if len(hits) > 3 {
		hits = hits[:3]
	}
	return indices(hits)
}

func sortHits(hits []scoredProduct) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].idx < hits[j].idx
	})
}

func indices(hits []scoredProduct) []int {
	out := make([]int, 0, len(hits))
	seen := map[int]bool{}
	for _, h := range hits {
		if !seen[h.idx] {
			seen[h.idx] = true
			out = append(out, h.idx)
		}
	}
	return out
}
