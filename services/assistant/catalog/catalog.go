// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog provides product and recipe lookup for the assistant.
//
// # Description
//
// The Catalog interface is the single read surface every fulfillment
// component (planner, basket builder, stock adjuster, product lookup)
// uses. Two implementations exist:
//
//   - MemoryCatalog: in-process catalog seeded from a YAML file with
//     deterministic fuzzy name matching. Always available; the service
//     runs on it alone in lightweight mode.
//   - WeaviateCatalog: BM25 keyword search over a GroceryProduct class,
//     used when a Weaviate endpoint is configured. Falls back to the
//     memory catalog for recipes and on query failure.
//
// # Thread Safety
//
// All implementations are safe for concurrent use.
package catalog

import (
	"context"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pantrypilot.assistant.catalog")

// Catalog is the read-only product and recipe surface consumed by the
// conversation pipelines.
//
// # Description
//
// Search returns ranked candidate products for a free-text query, best
// match first. Browse lists the catalog, optionally restricted to one
// category. GetByID resolves a single SKU. FindSubstitute proposes a
// replacement for an out-of-stock product from the same category within a
// price tolerance. Recipes returns the plannable recipe set.
//
// # Assumptions
//
//   - Implementations never mutate their arguments.
//   - An empty result slice with a nil error means "nothing matched"; callers
//     translate that into the terminal no-results steps.
type Catalog interface {
	Search(ctx context.Context, query string) ([]datatypes.Product, error)
	Browse(ctx context.Context, category string) ([]datatypes.Product, error)
	GetByID(ctx context.Context, itemID string) (*datatypes.Product, error)
	FindSubstitute(ctx context.Context, product datatypes.Product) (*datatypes.Product, error)
	Recipes(ctx context.Context) ([]datatypes.Recipe, error)
}
