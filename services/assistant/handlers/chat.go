// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the Gin handlers for the assistant API.
//
// Every handler resolves the caller identity from the auth middleware,
// validates the request body with the datatypes validators, and maps the
// engine's error taxonomy onto HTTP statuses. Not-found and not-owner map
// to the same 404 so a session's existence never leaks across users.
//
// User-supplied text passes through the configured MessageFilter before
// it reaches the engine, and every turn is recorded with the configured
// AuditLogger. The open-source Nop implementations make both hooks free.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/PantryPilotAI/PantryPilot/pkg/extensions"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/engine"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/middleware"
)

var tracer = otel.Tracer("pantrypilot.assistant.handlers")

// requireUser resolves the authenticated user id or aborts with 401.
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return "", false
	}
	return userID, true
}

// writeEngineError maps the engine error taxonomy to HTTP statuses.
func writeEngineError(c *gin.Context, err error) {
	var verr *datatypes.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, datatypes.ErrSessionNotFound),
		errors.Is(err, datatypes.ErrNotOwner):
		// Identical responses: existence must not leak across users.
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, datatypes.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "session was modified concurrently, retry"})
	default:
		slog.Error("turn failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// filterInbound runs user text through the message filter. Returns the
// filtered text and false if the request was already answered (filter
// failure or block).
func filterInbound(ctx context.Context, c *gin.Context, opts extensions.ServiceOptions, userID, sessionID, text string) (string, bool) {
	if text == "" {
		return "", true
	}

	result, err := opts.MessageFilter.FilterInput(ctx, text)
	if err != nil {
		slog.Error("message filter failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message processing failed"})
		return "", false
	}
	if result.WasBlocked {
		_ = opts.AuditLogger.Log(ctx, extensions.AuditEvent{
			EventType:    "chat.blocked",
			Timestamp:    time.Now().UTC(),
			UserID:       userID,
			Action:       "send",
			ResourceType: "chat",
			ResourceID:   sessionID,
			Outcome:      "blocked",
			Metadata:     map[string]any{"reason": result.BlockReason},
		})
		c.JSON(http.StatusForbidden, gin.H{
			"error":  "message blocked by content filter",
			"reason": result.BlockReason,
		})
		return "", false
	}
	return result.Filtered, true
}

// filterOutbound runs the assistant reply through the message filter.
// A filter failure degrades to the unfiltered text rather than dropping
// an already-completed turn.
func filterOutbound(ctx context.Context, opts extensions.ServiceOptions, resp *datatypes.Response) {
	if resp.AssistantMessage == "" {
		return
	}
	result, err := opts.MessageFilter.FilterOutput(ctx, resp.AssistantMessage)
	if err != nil {
		slog.Error("output filter failed", "error", err)
		return
	}
	resp.AssistantMessage = result.Filtered
}

// auditTurn records a completed conversation turn.
func auditTurn(ctx context.Context, opts extensions.ServiceOptions, userID, action string, resp *datatypes.Response) {
	_ = opts.AuditLogger.Log(ctx, extensions.AuditEvent{
		EventType:    "chat.turn",
		Timestamp:    time.Now().UTC(),
		UserID:       userID,
		Action:       action,
		ResourceType: "chat",
		ResourceID:   resp.SessionID,
		Outcome:      "success",
		Metadata:     map[string]any{"step": string(resp.Step)},
	})
}

// HandleChat processes POST /v1/chat (sendMessage).
func HandleChat(e *engine.Engine, opts extensions.ServiceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		message, ok := filterInbound(ctx, c, opts, userID, req.SessionID, req.Message)
		if !ok {
			return
		}

		resp, err := e.SendMessage(ctx, userID, req.SessionID, message)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeEngineError(c, err)
			return
		}
		filterOutbound(ctx, opts, resp)
		auditTurn(ctx, opts, userID, "send", resp)
		c.JSON(http.StatusOK, resp)
	}
}

// HandleConfirm processes POST /v1/chat/confirm (sendConfirmation).
func HandleConfirm(e *engine.Engine, opts extensions.ServiceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleConfirm")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req datatypes.ConfirmationRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		feedbackData, ok := filterInbound(ctx, c, opts, userID, req.SessionID, req.FeedbackData)
		if !ok {
			return
		}

		resp, err := e.SendConfirmation(ctx, userID, req.SessionID, req.Confirmed, feedbackData)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeEngineError(c, err)
			return
		}
		filterOutbound(ctx, opts, resp)
		auditTurn(ctx, opts, userID, "confirm", resp)
		c.JSON(http.StatusOK, resp)
	}
}

// HandleFeedbackStep processes POST /v1/chat/feedback (submitFeedbackStep).
func HandleFeedbackStep(e *engine.Engine, opts extensions.ServiceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleFeedbackStep")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req datatypes.FeedbackStepRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		value, ok := filterInbound(ctx, c, opts, userID, req.SessionID, req.Value)
		if !ok {
			return
		}

		resp, err := e.SubmitFeedbackStep(ctx, userID, req.SessionID, req.StepKey, value)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeEngineError(c, err)
			return
		}
		filterOutbound(ctx, opts, resp)
		auditTurn(ctx, opts, userID, "feedback", resp)
		c.JSON(http.StatusOK, resp)
	}
}

// HealthCheck answers GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
