// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/PantryPilotAI/PantryPilot/pkg/extensions"
	"github.com/PantryPilotAI/PantryPilot/pkg/validation"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stores"
)

// auditCart records a successful cart mutation.
func auditCart(ctx context.Context, opts extensions.ServiceOptions, eventType, userID, itemID string) {
	_ = opts.AuditLogger.Log(ctx, extensions.AuditEvent{
		EventType:    eventType,
		Timestamp:    time.Now().UTC(),
		UserID:       userID,
		Action:       "update",
		ResourceType: "cart",
		ResourceID:   itemID,
		Outcome:      "success",
	})
}

// GetCart answers GET /v1/cart with the caller's cart summary.
func GetCart(carts *stores.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "GetCart")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		summary, err := carts.Summarize(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// AddCartItems answers POST /v1/cart/items.
func AddCartItems(carts *stores.CartStore, opts extensions.ServiceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "AddCartItems")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req datatypes.AddCartItemsRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := carts.Add(ctx, userID, req.Items); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		summary, err := carts.Summarize(ctx, userID)
		if err != nil {
			span.RecordError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		auditCart(ctx, opts, "cart.add", userID, "")
		c.JSON(http.StatusOK, summary)
	}
}

// RemoveCartItem answers DELETE /v1/cart/items/:itemId.
func RemoveCartItem(carts *stores.CartStore, opts extensions.ServiceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "RemoveCartItem")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		// The item id becomes part of a store key, so reject anything
		// that is not a well-formed SKU before touching the cart.
		itemID, err := validation.SanitizeSKU(c.Param("itemId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := carts.Remove(ctx, userID, itemID); err != nil {
			if errors.Is(err, datatypes.ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		auditCart(ctx, opts, "cart.remove", userID, itemID)
		c.JSON(http.StatusOK, gin.H{"removed": itemID})
	}
}

// ClearCart answers DELETE /v1/cart.
func ClearCart(carts *stores.CartStore, opts extensions.ServiceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "ClearCart")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		if err := carts.Clear(ctx, userID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		auditCart(ctx, opts, "cart.clear", userID, "")
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	}
}
