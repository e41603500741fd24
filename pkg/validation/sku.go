// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up in
// database keys, search queries, or URL paths. Using these validators
// prevents injection attacks and malformed keys in the embedded store.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// skuPattern matches valid product SKUs.
// Allows: lowercase letters, digits, hyphens (dairy-001, produce-12)
// Max length: 32 characters
var skuPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{0,31}$`)

// ValidateSKU validates a product SKU before it is used as a store key
// or URL path segment.
//
// Valid SKUs:
//   - 1-32 characters
//   - Lowercase letters a-z
//   - Digits 0-9
//   - Hyphens (-) as separators, like dairy-001
//
// Returns an error if the SKU is invalid.
//
// Example:
//
//	if err := validation.ValidateSKU(itemID); err != nil {
//	    return nil, fmt.Errorf("invalid item id: %w", err)
//	}
func ValidateSKU(sku string) error {
	if sku == "" {
		return fmt.Errorf("sku cannot be empty")
	}

	if !skuPattern.MatchString(sku) {
		return fmt.Errorf("invalid sku format: %q (must be 1-32 lowercase alphanumeric chars or hyphens)", sku)
	}

	return nil
}

// ValidateSKUs validates multiple SKUs.
// Returns an error listing all invalid SKUs if any fail validation.
func ValidateSKUs(skus []string) error {
	var invalid []string
	for _, s := range skus {
		if err := ValidateSKU(s); err != nil {
			invalid = append(invalid, s)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid skus: %v", invalid)
	}
	return nil
}

// SanitizeSKU normalizes and validates a SKU.
// Returns the lowercase SKU if valid, or an error if invalid.
//
// Use this when you need both validation and normalization:
//
//	safeSKU, err := validation.SanitizeSKU(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeSKU(sku string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(sku))
	if err := ValidateSKU(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
