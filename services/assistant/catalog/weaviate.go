// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// GroceryProductClassName is the Weaviate class holding the product index.
const GroceryProductClassName = "GroceryProduct"

// WeaviateCatalog answers product searches over a Weaviate BM25 index.
//
// # Description
//
// Product search goes through Weaviate keyword (BM25) retrieval, which
// handles misspellings and partial matches better than the in-memory tiers
// on large catalogs. Recipe listing and substitute selection stay on the
// wrapped MemoryCatalog: recipes are a small static set, and substitute
// choice must be deterministic, which a rank-based index does not promise.
// Any Weaviate query failure falls back to the memory catalog so a flaky
// index never fails a conversation turn.
//
// # Thread Safety
//
// Safe for concurrent use.
type WeaviateCatalog struct {
	client   *weaviate.Client
	fallback *MemoryCatalog
}

var _ Catalog = (*WeaviateCatalog)(nil)

// NewWeaviateCatalog creates a catalog over the given Weaviate client.
// The fallback memory catalog must hold the same product set; SyncProducts
// pushes it into the index.
func NewWeaviateCatalog(client *weaviate.Client, fallback *MemoryCatalog) *WeaviateCatalog {
	return &WeaviateCatalog{client: client, fallback: fallback}
}

// EnsureSchema creates the GroceryProduct class if it does not exist.
func (c *WeaviateCatalog) EnsureSchema(ctx context.Context) error {
	_, err := c.client.Schema().ClassGetter().
		WithClassName(GroceryProductClassName).Do(ctx)
	if err == nil {
		slog.Info("weaviate schema already exists", "class", GroceryProductClassName)
		return nil
	}

	class := &models.Class{
		Class:       GroceryProductClassName,
		Description: "Grocery catalog products for keyword retrieval.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "item_id", DataType: []string{"text"}, Description: "Catalog SKU identifier."},
			{Name: "name", DataType: []string{"text"}, Description: "Product display name."},
			{Name: "category", DataType: []string{"text"}, Description: "Product category."},
			{Name: "price", DataType: []string{"number"}, Description: "Unit price in dollars."},
			{Name: "tags", DataType: []string{"text[]"}, Description: "Dietary tags."},
			{Name: "in_stock", DataType: []string{"boolean"}, Description: "Availability flag."},
			{Name: "promo_percent", DataType: []string{"int"}, Description: "Active discount in whole percent."},
			{Name: "replacement_id", DataType: []string{"text"}, Description: "Preferred substitute SKU."},
		},
	}
	if err := c.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s schema: %w", GroceryProductClassName, err)
	}
	slog.Info("created weaviate schema", "class", GroceryProductClassName)
	return nil
}

// SyncProducts batch-imports the given products into the index.
func (c *WeaviateCatalog) SyncProducts(ctx context.Context, products []datatypes.Product) error {
	if len(products) == 0 {
		return nil
	}
	objects := make([]*models.Object, len(products))
	for i, p := range products {
		objects[i] = &models.Object{
			Class: GroceryProductClassName,
			Properties: map[string]any{
				"item_id":        p.ItemID,
				"name":           p.Name,
				"category":       p.Category,
				"price":          p.Price,
				"tags":           p.Tags,
				"in_stock":       p.InStock,
				"promo_percent":  p.PromoPercent,
				"replacement_id": p.ReplacementID,
			},
		}
	}

	result, err := c.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("product batch import failed: %w", err)
	}
	imported := 0
	for _, obj := range result {
		if obj.Result != nil && obj.Result.Errors == nil {
			imported++
		}
	}
	slog.Info("synced products to weaviate", "imported", imported, "total", len(products))
	return nil
}

// Search runs BM25 retrieval over the product index.
func (c *WeaviateCatalog) Search(ctx context.Context, query string) ([]datatypes.Product, error) {
	ctx, span := tracer.Start(ctx, "WeaviateCatalog.Search")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.query", query))

	result, err := c.client.GraphQL().Get().
		WithClassName(GroceryProductClassName).
		WithFields(productFields()...).
		WithBM25(c.client.GraphQL().Bm25ArgBuilder().WithQuery(query)).
		WithLimit(10).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bm25 search failed")
		slog.Warn("weaviate search failed, falling back to memory catalog",
			"query", query, "error", err)
		return c.fallback.Search(ctx, query)
	}
	if len(result.Errors) > 0 {
		slog.Warn("weaviate search returned errors, falling back to memory catalog",
			"query", query, "error", result.Errors[0].Message)
		return c.fallback.Search(ctx, query)
	}

	products := parseProductResults(result.Data)
	span.SetAttributes(attribute.Int("catalog.results", len(products)))
	return products, nil
}

// GetByID resolves a SKU through a filtered query, falling back to the
// memory catalog on failure.
func (c *WeaviateCatalog) GetByID(ctx context.Context, itemID string) (*datatypes.Product, error) {
	where := filters.Where().
		WithPath([]string{"item_id"}).
		WithOperator(filters.Equal).
		WithValueString(itemID)

	result, err := c.client.GraphQL().Get().
		WithClassName(GroceryProductClassName).
		WithFields(productFields()...).
		WithWhere(where).
		WithLimit(1).
		Do(ctx)
	if err != nil || len(result.Errors) > 0 {
		return c.fallback.GetByID(ctx, itemID)
	}

	products := parseProductResults(result.Data)
	if len(products) == 0 {
		return nil, datatypes.ErrProductNotFound
	}
	p := products[0]
	return &p, nil
}

// Browse delegates to the memory catalog; a category listing does not
// benefit from BM25 ranking.
func (c *WeaviateCatalog) Browse(ctx context.Context, category string) ([]datatypes.Product, error) {
	return c.fallback.Browse(ctx, category)
}

// FindSubstitute delegates to the memory catalog for a deterministic pick.
func (c *WeaviateCatalog) FindSubstitute(ctx context.Context, product datatypes.Product) (*datatypes.Product, error) {
	return c.fallback.FindSubstitute(ctx, product)
}

// Recipes delegates to the memory catalog.
func (c *WeaviateCatalog) Recipes(ctx context.Context) ([]datatypes.Recipe, error) {
	return c.fallback.Recipes(ctx)
}

func productFields() []graphql.Field {
	return []graphql.Field{
		{Name: "item_id"},
		{Name: "name"},
		{Name: "category"},
		{Name: "price"},
		{Name: "tags"},
		{Name: "in_stock"},
		{Name: "promo_percent"},
		{Name: "replacement_id"},
	}
}

// parseProductResults walks the untyped GraphQL response into products.
func parseProductResults(data map[string]models.JSONObject) []datatypes.Product {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := get[GroceryProductClassName].([]interface{})
	if !ok {
		return nil
	}

	products := make([]datatypes.Product, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		p := datatypes.Product{
			ItemID:        getString(m, "item_id"),
			Name:          getString(m, "name"),
			Category:      getString(m, "category"),
			Price:         getFloat(m, "price"),
			InStock:       getBool(m, "in_stock"),
			PromoPercent:  int(getFloat(m, "promo_percent")),
			ReplacementID: getString(m, "replacement_id"),
		}
		if raw, ok := m["tags"].([]interface{}); ok {
			for _, t := range raw {
				if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
					p.Tags = append(p.Tags, s)
				}
			}
		}
		if p.ItemID != "" {
			products = append(products, p)
		}
	}
	return products
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}
