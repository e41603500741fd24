// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/PantryPilotAI/PantryPilot/pkg/extensions"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/middleware"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stores"
)

// ListSessions answers GET /v1/sessions with the caller's retained
// conversations, newest first.
func ListSessions(transcripts *stores.TranscriptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "ListSessions")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}

		summaries, err := transcripts.ListSessions(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if summaries == nil {
			summaries = []datatypes.SessionSummary{}
		}
		c.JSON(http.StatusOK, gin.H{"sessions": summaries})
	}
}

// GetSessionHistory answers GET /v1/sessions/:sessionId/history.
func GetSessionHistory(transcripts *stores.TranscriptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "GetSessionHistory")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}
		sessionID := c.Param("sessionId")

		entries, err := transcripts.Get(ctx, userID, sessionID)
		if err != nil {
			if errors.Is(err, datatypes.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"history":    entries,
		})
	}
}

// DeleteSession answers DELETE /v1/sessions/:sessionId. Removes both the
// live session state and the transcript; deleting an unknown session is a
// no-op success so retries are safe. Deletion is the one session
// operation gated by the AuthzProvider, since hosted deployments let
// support staff read sessions but never destroy them.
func DeleteSession(sessions *stores.SessionRepository, transcripts *stores.TranscriptStore, opts extensions.ServiceOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "DeleteSession")
		defer span.End()

		userID, ok := requireUser(c)
		if !ok {
			return
		}
		sessionID := c.Param("sessionId")

		if err := opts.AuthzProvider.Authorize(ctx, extensions.AuthzRequest{
			User:         middleware.GetAuthInfo(c),
			Action:       "delete",
			ResourceType: "session",
			ResourceID:   sessionID,
		}); err != nil {
			span.SetStatus(codes.Error, "authorization denied")
			_ = opts.AuditLogger.Log(ctx, extensions.AuditEvent{
				EventType:    "authz.denied",
				Timestamp:    time.Now().UTC(),
				UserID:       userID,
				Action:       "delete",
				ResourceType: "session",
				ResourceID:   sessionID,
				Outcome:      "denied",
				Metadata:     map[string]any{"reason": err.Error()},
			})
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if err := sessions.Delete(ctx, sessionID, userID); err != nil {
			if errors.Is(err, datatypes.ErrNotOwner) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			if !errors.Is(err, datatypes.ErrSessionNotFound) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
		}
		if err := transcripts.Delete(ctx, userID, sessionID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		_ = opts.AuditLogger.Log(ctx, extensions.AuditEvent{
			EventType:    "session.delete",
			Timestamp:    time.Now().UTC(),
			UserID:       userID,
			Action:       "delete",
			ResourceType: "session",
			ResourceID:   sessionID,
			Outcome:      "success",
		})
		c.JSON(http.StatusOK, gin.H{"deleted": sessionID})
	}
}
