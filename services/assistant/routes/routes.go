// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the assistant's HTTP surface onto a Gin router.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PantryPilotAI/PantryPilot/pkg/extensions"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/engine"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/handlers"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/middleware"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stores"
)

// Deps carries the wired components the routes close over.
type Deps struct {
	Engine      *engine.Engine
	Catalog     catalog.Catalog
	Sessions    *stores.SessionRepository
	Transcripts *stores.TranscriptStore
	Carts       *stores.CartStore

	AuthProvider extensions.AuthProvider
	RateLimit    middleware.RateLimiterConfig

	// Options supplies the hosted-integration hooks the handlers call on
	// every turn. Nil fields fall back to the Nop implementations.
	Options extensions.ServiceOptions
}

// withDefaults fills unset extension hooks with their Nop versions so
// the handlers never nil-check them.
func withDefaults(opts extensions.ServiceOptions) extensions.ServiceOptions {
	if opts.AuthzProvider == nil {
		opts.AuthzProvider = &extensions.NopAuthzProvider{}
	}
	if opts.AuditLogger == nil {
		opts.AuditLogger = &extensions.NopAuditLogger{}
	}
	if opts.MessageFilter == nil {
		opts.MessageFilter = &extensions.NopMessageFilter{}
	}
	return opts
}

// SetupRoutes registers every endpoint of the assistant API.
func SetupRoutes(router *gin.Engine, deps Deps) {
	opts := withDefaults(deps.Options)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.AuthProvider))
	v1.Use(middleware.RateLimitMiddleware(deps.RateLimit))
	{
		chat := v1.Group("/chat")
		{
			chat.POST("", handlers.HandleChat(deps.Engine, opts))
			chat.POST("/confirm", handlers.HandleConfirm(deps.Engine, opts))
			chat.POST("/feedback", handlers.HandleFeedbackStep(deps.Engine, opts))
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("", handlers.ListSessions(deps.Transcripts))
			sessions.GET("/:sessionId/history", handlers.GetSessionHistory(deps.Transcripts))
			sessions.DELETE("/:sessionId", handlers.DeleteSession(deps.Sessions, deps.Transcripts, opts))
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", handlers.GetCart(deps.Carts))
			cart.POST("/items", handlers.AddCartItems(deps.Carts, opts))
			cart.DELETE("/items/:itemId", handlers.RemoveCartItem(deps.Carts, opts))
			cart.DELETE("", handlers.ClearCart(deps.Carts, opts))
		}

		v1.GET("/products", handlers.ListProducts(deps.Catalog))
	}
}
