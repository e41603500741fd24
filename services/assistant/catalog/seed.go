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
	"os"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Seed File
// =============================================================================

// SeedFile is the YAML layout of a catalog seed file.
//
// Example:
//
//	products:
//	  - item_id: dairy-001
//	    name: Milk
//	    category: dairy
//	    price: 3.49
//	    in_stock: true
//	    tags: [vegetarian]
//	recipes:
//	  - recipe_id: rec-001
//	    name: Vegetable Stir Fry
//	    cuisine: asian
//	    ingredients: [broccoli, bell pepper, soy sauce, rice]
type SeedFile struct {
	Products []SeedProduct `yaml:"products"`
	Recipes  []SeedRecipe  `yaml:"recipes"`
}

// SeedProduct is one product entry of the seed file.
type SeedProduct struct {
	ItemID        string   `yaml:"item_id"`
	Name          string   `yaml:"name"`
	Category      string   `yaml:"category"`
	Price         float64  `yaml:"price"`
	Tags          []string `yaml:"tags"`
	InStock       bool     `yaml:"in_stock"`
	PromoPercent  int      `yaml:"promo_percent"`
	ReplacementID string   `yaml:"replacement_id"`
}

// SeedRecipe is one recipe entry of the seed file.
type SeedRecipe struct {
	RecipeID      string   `yaml:"recipe_id"`
	Name          string   `yaml:"name"`
	Cuisine       string   `yaml:"cuisine"`
	Ingredients   []string `yaml:"ingredients"`
	Tags          []string `yaml:"tags"`
	EstimatedCost float64  `yaml:"estimated_cost"`
	SkillLevel    string   `yaml:"skill_level"`
}

// LoadSeedFile parses a YAML seed file into catalog data.
func LoadSeedFile(path string) ([]datatypes.Product, []datatypes.Recipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog seed %s: %w", path, err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog seed %s: %w", path, err)
	}

	products := make([]datatypes.Product, 0, len(seed.Products))
	for _, p := range seed.Products {
		if p.ItemID == "" || p.Name == "" {
			return nil, nil, fmt.Errorf("catalog seed %s: product entries require item_id and name", path)
		}
		products = append(products, datatypes.Product{
			ItemID:        p.ItemID,
			Name:          p.Name,
			Category:      p.Category,
			Price:         p.Price,
			Tags:          p.Tags,
			InStock:       p.InStock,
			PromoPercent:  p.PromoPercent,
			ReplacementID: p.ReplacementID,
		})
	}

	recipes := make([]datatypes.Recipe, 0, len(seed.Recipes))
	for _, r := range seed.Recipes {
		if r.RecipeID == "" || r.Name == "" {
			return nil, nil, fmt.Errorf("catalog seed %s: recipe entries require recipe_id and name", path)
		}
		recipes = append(recipes, datatypes.Recipe{
			RecipeID:      r.RecipeID,
			Name:          r.Name,
			Cuisine:       r.Cuisine,
			Ingredients:   r.Ingredients,
			Tags:          r.Tags,
			EstimatedCost: r.EstimatedCost,
			SkillLevel:    r.SkillLevel,
		})
	}

	return products, recipes, nil
}

// WatchSeedFile reloads the catalog whenever the seed file changes on disk.
//
// # Description
//
// Starts an fsnotify watcher on path and calls target.ApplySeed with the
// re-parsed contents on every write or create event. Parse failures keep
// the previous catalog and log a warning, so a half-saved edit never wipes
// the running data set. Returns once ctx is cancelled.
//
// # Inputs
//
//   - ctx: cancellation for the watch loop.
//   - path: seed file path. Must exist when the watcher starts.
//   - target: catalog to apply reloads to.
func WatchSeedFile(ctx context.Context, path string, target *MemoryCatalog) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create seed watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch catalog seed %s: %w", path, err)
	}

	slog.Info("watching catalog seed file", "path", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			products, recipes, err := LoadSeedFile(path)
			if err != nil {
				slog.Warn("catalog seed reload failed, keeping previous data",
					"path", path, "error", err)
				continue
			}
			target.ApplySeed(products, recipes)
			slog.Info("catalog seed reloaded",
				"products", len(products), "recipes", len(recipes))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog seed watcher error", "error", err)
		}
	}
}

// =============================================================================
// Default Data Set
// =============================================================================

// DefaultSeed returns the built-in catalog used when no seed file is
// configured. Small but broad enough to exercise every pipeline: staples
// across categories, a few promotions, one out-of-stock item with a
// configured replacement, and recipes spanning cuisines and skill levels.
func DefaultSeed() ([]datatypes.Product, []datatypes.Recipe) {
	products := []datatypes.Product{
		{ItemID: "dairy-001", Name: "Milk", Category: "dairy", Price: 3.49, InStock: true, Tags: []string{"vegetarian"}},
		{ItemID: "dairy-002", Name: "Eggs", Category: "dairy", Price: 4.29, InStock: true, Tags: []string{"vegetarian", "high-protein"}},
		{ItemID: "dairy-003", Name: "Cheddar Cheese", Category: "dairy", Price: 5.99, InStock: true, Tags: []string{"vegetarian"}, PromoPercent: 10},
		{ItemID: "dairy-004", Name: "Greek Yogurt", Category: "dairy", Price: 4.79, InStock: true, Tags: []string{"vegetarian", "high-protein"}},
		{ItemID: "dairy-005", Name: "Butter", Category: "dairy", Price: 4.49, InStock: false, ReplacementID: "pantry-006", Tags: []string{"vegetarian"}},
		{ItemID: "produce-001", Name: "Broccoli", Category: "produce", Price: 1.99, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free"}},
		{ItemID: "produce-002", Name: "Bell Pepper", Category: "produce", Price: 1.29, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free"}},
		{ItemID: "produce-003", Name: "Spinach", Category: "produce", Price: 2.49, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free", "keto"}},
		{ItemID: "produce-004", Name: "Tomatoes", Category: "produce", Price: 2.99, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free"}, PromoPercent: 15},
		{ItemID: "produce-005", Name: "Onion", Category: "produce", Price: 0.89, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free"}},
		{ItemID: "produce-006", Name: "Garlic", Category: "produce", Price: 0.69, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free"}},
		{ItemID: "produce-007", Name: "Avocado", Category: "produce", Price: 1.79, InStock: true, Tags: []string{"vegan", "keto", "gluten-free"}},
		{ItemID: "meat-001", Name: "Chicken Breast", Category: "meat", Price: 7.99, InStock: true, Tags: []string{"high-protein", "keto", "gluten-free"}},
		{ItemID: "meat-002", Name: "Ground Beef", Category: "meat", Price: 6.49, InStock: true, Tags: []string{"high-protein", "keto"}},
		{ItemID: "meat-003", Name: "Salmon Fillet", Category: "meat", Price: 11.99, InStock: true, Tags: []string{"high-protein", "keto", "gluten-free"}, PromoPercent: 20},
		{ItemID: "pantry-001", Name: "Rice", Category: "pantry", Price: 3.29, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free"}},
		{ItemID: "pantry-002", Name: "Pasta", Category: "pantry", Price: 2.19, InStock: true, Tags: []string{"vegan", "vegetarian"}},
		{ItemID: "pantry-003", Name: "Soy Sauce", Category: "pantry", Price: 3.79, InStock: true, Tags: []string{"vegan", "vegetarian"}},
		{ItemID: "pantry-004", Name: "Olive Oil", Category: "pantry", Price: 8.99, InStock: true, Tags: []string{"vegan", "vegetarian", "keto", "gluten-free"}},
		{ItemID: "pantry-005", Name: "Black Beans", Category: "pantry", Price: 1.49, InStock: true, Tags: []string{"vegan", "vegetarian", "high-protein", "gluten-free"}},
		{ItemID: "pantry-006", Name: "Coconut Oil", Category: "pantry", Price: 7.49, InStock: true, Tags: []string{"vegan", "keto", "gluten-free"}},
		{ItemID: "pantry-007", Name: "Tortillas", Category: "pantry", Price: 2.99, InStock: true, Tags: []string{"vegetarian"}},
		{ItemID: "bakery-001", Name: "Whole Wheat Bread", Category: "bakery", Price: 3.19, InStock: true, Tags: []string{"vegetarian"}},
		{ItemID: "frozen-001", Name: "Frozen Peas", Category: "frozen", Price: 1.89, InStock: true, Tags: []string{"vegan", "vegetarian", "gluten-free"}},
	}

	recipes := []datatypes.Recipe{
		{
			RecipeID: "rec-001", Name: "Vegetable Stir Fry", Cuisine: "asian",
			Ingredients: []string{"broccoli", "bell pepper", "soy sauce", "rice", "garlic"},
			Tags:        []string{"vegan", "vegetarian"}, EstimatedCost: 11.05, SkillLevel: "beginner",
		},
		{
			RecipeID: "rec-002", Name: "Chicken Burrito Bowls", Cuisine: "mexican",
			Ingredients: []string{"chicken breast", "rice", "black beans", "tomatoes", "onion"},
			Tags:        []string{"high-protein"}, EstimatedCost: 16.65, SkillLevel: "intermediate",
		},
		{
			RecipeID: "rec-003", Name: "Spinach Omelette", Cuisine: "french",
			Ingredients: []string{"eggs", "spinach", "cheddar cheese"},
			Tags:        []string{"vegetarian", "keto"}, EstimatedCost: 12.77, SkillLevel: "beginner",
		},
		{
			RecipeID: "rec-004", Name: "Garlic Salmon with Greens", Cuisine: "mediterranean",
			Ingredients: []string{"salmon fillet", "spinach", "garlic", "olive oil"},
			Tags:        []string{"keto", "gluten-free", "high-protein"}, EstimatedCost: 24.16, SkillLevel: "intermediate",
		},
		{
			RecipeID: "rec-005", Name: "Veggie Pasta", Cuisine: "italian",
			Ingredients: []string{"pasta", "tomatoes", "garlic", "olive oil", "spinach"},
			Tags:        []string{"vegetarian", "vegan"}, EstimatedCost: 17.35, SkillLevel: "beginner",
		},
		{
			RecipeID: "rec-006", Name: "Bean and Avocado Tacos", Cuisine: "mexican",
			Ingredients: []string{"black beans", "tortillas", "avocado", "onion", "tomatoes"},
			Tags:        []string{"vegan", "vegetarian"}, EstimatedCost: 10.15, SkillLevel: "beginner",
		},
	}

	return products, recipes
}
