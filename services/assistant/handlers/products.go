// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
)

// ListProducts answers GET /v1/products. With ?q= it runs the fuzzy
// catalog search; without it the full catalog is returned via an empty
// category browse.
func ListProducts(cat catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "ListProducts")
		defer span.End()

		if _, ok := requireUser(c); !ok {
			return
		}

		query := c.Query("q")
		span.SetAttributes(attribute.String("products.query", query))

		var products []datatypes.Product
		var err error
		if query != "" {
			products, err = cat.Search(ctx, query)
		} else {
			products, err = cat.Browse(ctx, c.Query("category"))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if products == nil {
			products = []datatypes.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}
