// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine implements the conversation state machine.
//
// # Description
//
// The Engine owns session lifecycle and the CurrentStep transition table.
// Every inbound event (free-text message, confirmation, structured
// feedback answer) is routed through exactly one of three entry points,
// and the routing is total: a session inside the feedback sub-flow
// delegates to the feedback collector without reclassifying input, and
// everything else goes through classification. The Engine is the only
// component that mutates a Session; classifiers, planners, the catalog,
// and the basket builder are pure collaborators over inputs they are
// handed.
//
// All writes for one session are serialized through the session
// repository's atomic update, so two concurrent turns on the same session
// never interleave. Downstream collaborator calls run under a bounded
// timeout; when one fails, the turn surfaces a structured error response
// with the elapsed time and CurrentStep stays where it was, so the user
// can retry the same confirmation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/classifier"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/datatypes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/observability"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stores"
	"github.com/PantryPilotAI/PantryPilot/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pantrypilot.assistant.engine")

// defaultDownstreamTimeout bounds any single collaborator call.
const defaultDownstreamTimeout = 15 * time.Second

// =============================================================================
// Collaborator Contracts
// =============================================================================

// SessionRepository persists sessions with per-session write serialization.
type SessionRepository interface {
	Create(ctx context.Context, session *datatypes.Session) error
	Get(ctx context.Context, sessionID, userID string) (*datatypes.Session, error)
	Update(ctx context.Context, sessionID, userID string, fn func(*datatypes.Session) error) (*datatypes.Session, error)
}

// TranscriptStore records the conversation as append-only entries.
type TranscriptStore interface {
	Append(ctx context.Context, userID, sessionID string, entries ...datatypes.TranscriptEntry) error
}

// ProfileStore owns long-lived user profiles.
type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID string) (*datatypes.Profile, error)
	RecordFeedback(ctx context.Context, userID string, record datatypes.FeedbackRecord) error
	RecordPurchases(ctx context.Context, userID string, items []string) error
}

// CartStore owns the durable per-user cart.
type CartStore interface {
	Get(ctx context.Context, userID string) ([]datatypes.CartItem, error)
	Add(ctx context.Context, userID string, items []datatypes.CartItem) error
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
	Summarize(ctx context.Context, userID string) (*stores.CartSummary, error)
}

// Planner builds meal plans and product recommendation sets.
type Planner interface {
	PlanMeals(ctx context.Context, profile *datatypes.Profile, intent *datatypes.Intent) ([]datatypes.Recipe, error)
	RecommendProducts(ctx context.Context, intent *datatypes.Intent, profile *datatypes.Profile) ([]datatypes.Product, error)
}

// BasketBuilder prices recipe or product lists into a cart.
type BasketBuilder interface {
	BuildFromRecipes(ctx context.Context, recipes []datatypes.Recipe, budget float64) ([]datatypes.CartItem, error)
	BuildFromProducts(ctx context.Context, products []datatypes.Product, budget float64) ([]datatypes.CartItem, error)
}

// StockAdjuster applies availability and promotions to a built cart.
type StockAdjuster interface {
	Adjust(ctx context.Context, cart []datatypes.CartItem) ([]datatypes.CartItem, error)
}

var (
	_ SessionRepository = (*stores.SessionRepository)(nil)
	_ TranscriptStore   = (*stores.TranscriptStore)(nil)
	_ ProfileStore      = (*stores.ProfileStore)(nil)
	_ CartStore         = (*stores.CartStore)(nil)
)

// =============================================================================
// Engine
// =============================================================================

// Options configures an Engine. All collaborators except LLM are required.
type Options struct {
	Classifier  classifier.Classifier
	Catalog     catalog.Catalog
	Planner     Planner
	Basket      BasketBuilder
	Stock       StockAdjuster
	Sessions    SessionRepository
	Transcripts TranscriptStore
	Profiles    ProfileStore
	Carts       CartStore

	// LLM generates casual conversational answers. Optional; nil or the
	// disabled backend falls back to canned responses.
	LLM llm.LLMClient

	// DownstreamTimeout bounds any single collaborator call.
	DownstreamTimeout time.Duration

	Logger *slog.Logger
}

// Engine is the conversation state machine.
//
// # Thread Safety
//
// Safe for concurrent use. Per-session write ordering comes from the
// session repository.
type Engine struct {
	classifier  classifier.Classifier
	catalog     catalog.Catalog
	planner     Planner
	basket      BasketBuilder
	stock       StockAdjuster
	sessions    SessionRepository
	transcripts TranscriptStore
	profiles    ProfileStore
	carts       CartStore
	llm         llm.LLMClient
	timeout     time.Duration
	logger      *slog.Logger
}

// New creates an Engine from its collaborators.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Classifier == nil:
		return nil, errors.New("classifier is required")
	case opts.Catalog == nil:
		return nil, errors.New("catalog is required")
	case opts.Planner == nil:
		return nil, errors.New("planner is required")
	case opts.Basket == nil:
		return nil, errors.New("basket builder is required")
	case opts.Stock == nil:
		return nil, errors.New("stock adjuster is required")
	case opts.Sessions == nil:
		return nil, errors.New("session repository is required")
	case opts.Transcripts == nil:
		return nil, errors.New("transcript store is required")
	case opts.Profiles == nil:
		return nil, errors.New("profile store is required")
	case opts.Carts == nil:
		return nil, errors.New("cart store is required")
	}

	e := &Engine{
		classifier:  opts.Classifier,
		catalog:     opts.Catalog,
		planner:     opts.Planner,
		basket:      opts.Basket,
		stock:       opts.Stock,
		sessions:    opts.Sessions,
		transcripts: opts.Transcripts,
		profiles:    opts.Profiles,
		carts:       opts.Carts,
		llm:         opts.LLM,
		timeout:     opts.DownstreamTimeout,
		logger:      opts.Logger,
	}
	if e.llm == nil {
		e.llm = llm.DisabledClient{}
	}
	if e.timeout <= 0 {
		e.timeout = defaultDownstreamTimeout
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// downstream runs one collaborator call under the engine's timeout and
// wraps any failure as a DownstreamError carrying the elapsed time.
func downstream[T any](ctx context.Context, timeout time.Duration, component string, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	v, err := fn(callCtx)
	if err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordDownstreamError(component)
		}
		return v, datatypes.NewDownstreamError(component, time.Since(start), err)
	}
	return v, nil
}

// =============================================================================
// Entry Points
// =============================================================================

// SendMessage processes a free-text message turn. An empty sessionID
// starts a new conversation.
func (e *Engine) SendMessage(ctx context.Context, userID, sessionID, message string) (*datatypes.Response, error) {
	ctx, span := tracer.Start(ctx, "Engine.SendMessage")
	defer span.End()
	start := time.Now()

	if sessionID == "" {
		session := datatypes.NewSession(datatypes.NewSessionID(), userID)
		if err := e.sessions.Create(ctx, session); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("create session: %w", err)
		}
		sessionID = session.SessionID
		if m := observability.DefaultMetrics; m != nil {
			m.SessionStarted()
		}
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	resp, err := e.turn(ctx, observability.TurnMessage, userID, sessionID, message, start, span,
		func(s *datatypes.Session) (*datatypes.Response, error) {
			return e.processMessage(ctx, s, message)
		})
	if err != nil {
		return nil, err
	}
	e.appendTranscript(ctx, userID, sessionID, message, resp)
	return resp, nil
}

// SendConfirmation processes a yes/no confirmation turn. actionData
// carries the chosen option at the final-cart action menu.
func (e *Engine) SendConfirmation(ctx context.Context, userID, sessionID string, confirmed bool, actionData string) (*datatypes.Response, error) {
	ctx, span := tracer.Start(ctx, "Engine.SendConfirmation")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Bool("turn.confirmed", confirmed),
	)
	start := time.Now()

	resp, err := e.turn(ctx, observability.TurnConfirmation, userID, sessionID, "", start, span,
		func(s *datatypes.Session) (*datatypes.Response, error) {
			return e.processConfirmation(ctx, s, confirmed, actionData)
		})
	if err != nil {
		return nil, err
	}

	echo := "no"
	if confirmed {
		echo = "yes"
	}
	if actionData != "" {
		echo = actionData
	}
	e.appendTranscript(ctx, userID, sessionID, echo, resp)
	return resp, nil
}

// SubmitFeedbackStep processes one structured feedback answer.
func (e *Engine) SubmitFeedbackStep(ctx context.Context, userID, sessionID, stepKey, value string) (*datatypes.Response, error) {
	ctx, span := tracer.Start(ctx, "Engine.SubmitFeedbackStep")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("feedback.step_key", stepKey),
	)
	start := time.Now()

	resp, err := e.turn(ctx, observability.TurnFeedback, userID, sessionID, "", start, span,
		func(s *datatypes.Session) (*datatypes.Response, error) {
			if !s.CurrentStep.IsFeedback() {
				return nil, datatypes.NewValidationError("step_key", "session is not collecting feedback")
			}
			expected, ok := questionByRequestKey(stepKey)
			if !ok {
				return nil, datatypes.NewValidationError("step_key", "unknown feedback step")
			}
			if expected.step != s.CurrentStep {
				// Mismatched retry: re-prompt the step we are actually on.
				resp := e.feedbackPrompt(s)
				resp.Data = map[string]any{"error": fmt.Sprintf("expected answer for %q", requestKeyFor(s.CurrentStep))}
				return resp, nil
			}
			return e.submitFeedback(ctx, s, value)
		})
	if err != nil {
		return nil, err
	}
	e.appendTranscript(ctx, userID, sessionID, value, resp)
	return resp, nil
}

// GetSession loads a session on behalf of its owner.
func (e *Engine) GetSession(ctx context.Context, userID, sessionID string) (*datatypes.Session, error) {
	return e.sessions.Get(ctx, sessionID, userID)
}

// =============================================================================
// Turn Plumbing
// =============================================================================

// turn runs one event against the session under the repository's atomic
// update and converts failures into the outward response contract.
func (e *Engine) turn(
	ctx context.Context,
	kind observability.TurnKind,
	userID, sessionID, inbound string,
	start time.Time,
	span trace.Span,
	process func(*datatypes.Session) (*datatypes.Response, error),
) (*datatypes.Response, error) {
	var resp *datatypes.Response
	var wasTerminal bool
	updated, err := e.sessions.Update(ctx, sessionID, userID, func(s *datatypes.Session) error {
		wasTerminal = s.CurrentStep.IsTerminal()
		r, perr := process(s)
		if perr != nil {
			return perr
		}
		resp = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.recordTurn(kind, false, start)

		var de *datatypes.DownstreamError
		if errors.As(err, &de) {
			// CurrentStep is unchanged; tell the user what failed and let
			// them retry the same confirmation.
			errResp := &datatypes.Response{SessionID: sessionID, Message: inbound}
			if s, gerr := e.sessions.Get(ctx, sessionID, userID); gerr == nil {
				errResp = datatypes.NewResponse(s, inbound)
			}
			errResp.AssistantMessage = fmt.Sprintf(
				"Sorry, something went wrong while processing that. Please try again. (%s, %.1fs)",
				de.Component, de.Elapsed.Seconds())
			errResp.Data = map[string]any{
				"error":      de.Component + " failed",
				"elapsed_ms": de.Elapsed.Milliseconds(),
			}
			e.logger.Error("downstream failure",
				"session_id", sessionID,
				"component", de.Component,
				"elapsed", de.Elapsed,
				"error", de.Err)
			return errResp, nil
		}
		return nil, err
	}

	e.recordTurn(kind, true, start)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordStep(string(updated.CurrentStep))
		if !wasTerminal && updated.CurrentStep.IsTerminal() {
			m.SessionEnded()
		}
	}
	return resp, nil
}

func (e *Engine) recordTurn(kind observability.TurnKind, success bool, start time.Time) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordTurn(kind, success, time.Since(start).Seconds())
	}
}

// appendTranscript records the user utterance and the assistant reply.
// Transcript failures are logged, never turned into turn failures.
func (e *Engine) appendTranscript(ctx context.Context, userID, sessionID, userText string, resp *datatypes.Response) {
	var entries []datatypes.TranscriptEntry
	now := time.Now().UTC()
	if strings.TrimSpace(userText) != "" {
		entries = append(entries, datatypes.TranscriptEntry{
			EntryID:   datatypes.NewEntryID(),
			Type:      datatypes.TranscriptUser,
			Content:   userText,
			Timestamp: now,
		})
	}
	if resp != nil && resp.AssistantMessage != "" {
		entries = append(entries, datatypes.TranscriptEntry{
			EntryID:   datatypes.NewEntryID(),
			Type:      datatypes.TranscriptAssistant,
			Content:   resp.AssistantMessage,
			Timestamp: now,
			Metadata:  map[string]string{"step": string(resp.Step)},
		})
	}
	if len(entries) == 0 {
		return
	}
	if err := e.transcripts.Append(ctx, userID, sessionID, entries...); err != nil {
		e.logger.Warn("transcript append failed",
			"session_id", sessionID, "error", err)
	}
}

// =============================================================================
// Message Processing
// =============================================================================

// processMessage handles a free-text message against the current state.
func (e *Engine) processMessage(ctx context.Context, s *datatypes.Session, message string) (*datatypes.Response, error) {
	message = strings.TrimSpace(message)

	// Re-entrancy rule: inside the feedback sub-flow free text is a
	// structured answer, never a new query.
	if s.CurrentStep.IsFeedback() {
		return e.submitFeedback(ctx, s, message)
	}

	// Cart-operation keywords short-circuit classification entirely.
	if op, item, ok := detectCartOperation(message); ok {
		s.ResetClassification()
		s.LastMessage = message
		s.Classification = classifier.ClassificationGoal
		s.QueryType = classifier.QueryCartOperation
		return e.runCartOperation(ctx, s, op, item)
	}

	s.ResetClassification()
	s.LastMessage = message

	result, err := downstream(ctx, e.timeout, "classifier", func(c context.Context) (classifier.Result, error) {
		return e.classifier.Classify(c, message)
	})
	if err != nil {
		return nil, err
	}
	s.Classification = result.Classification
	s.QueryType = result.QueryType
	s.Advance(datatypes.StepConversationProcessed, 2)

	if result.Classification == classifier.ClassificationGoal &&
		classifier.IsGoalDirected(result.QueryType) &&
		result.QueryType != classifier.QueryGeneralInquiry {
		s.Advance(datatypes.StepGoalConfirmation, 2)
		resp := datatypes.NewResponse(s, message)
		resp.RequiresConfirmation = true
		resp.ConfirmationPrompt = goalPrompt(result.QueryType)
		resp.NextStep = datatypes.StepIntentConfirmation
		resp.AssistantMessage = resp.ConfirmationPrompt
		resp.Data = map[string]any{
			"complexity":             result.Complexity,
			"estimated_time_seconds": result.EstimatedSeconds,
		}
		return resp, nil
	}

	// One-shot informational questions answer within the same turn.
	if isLookupQuery(result.QueryType) {
		return e.productLookup(ctx, s, message, result.QueryType)
	}

	return e.casualResponse(ctx, s, message)
}

// isLookupQuery reports whether a query type gets the direct product
// lookup shortcut instead of the full pipeline.
func isLookupQuery(queryType string) bool {
	switch queryType {
	case classifier.QueryPriceInquiry, classifier.QueryAvailabilityCheck,
		classifier.QueryPromotionInquiry, classifier.QueryStoreNavigation,
		classifier.QuerySubstitution, classifier.QueryProductLookup:
		return true
	}
	return false
}

// productLookup answers a simple product question in one turn.
func (e *Engine) productLookup(ctx context.Context, s *datatypes.Session, message, queryType string) (*datatypes.Response, error) {
	products, err := downstream(ctx, e.timeout, "catalog", func(c context.Context) ([]datatypes.Product, error) {
		return e.catalog.Search(c, message)
	})
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		s.Advance(datatypes.StepProductLookupFailed, 3)
		resp := datatypes.NewResponse(s, message)
		resp.AssistantMessage = "I couldn't find that product in our catalog. Could you try a different name?"
		resp.IsComplete = true
		return resp, nil
	}

	product := products[0]
	s.Advance(datatypes.StepProductLookupComplete, 3)
	resp := datatypes.NewResponse(s, message)
	resp.IsComplete = true
	resp.Data = map[string]any{
		"product_name": product.Name,
		"price":        product.Price,
		"in_stock":     product.InStock,
		"category":     product.Category,
	}

	switch queryType {
	case classifier.QueryAvailabilityCheck:
		if product.InStock {
			resp.AssistantMessage = fmt.Sprintf("Yes, %s is in stock at $%.2f.", product.Name, product.Price)
		} else {
			resp.AssistantMessage = fmt.Sprintf("%s is currently out of stock.", product.Name)
			if sub, serr := e.catalog.FindSubstitute(ctx, product); serr == nil {
				resp.AssistantMessage += fmt.Sprintf(" %s ($%.2f) would make a good substitute.", sub.Name, sub.Price)
				resp.Data["substitute"] = sub.Name
			}
		}
	case classifier.QueryPromotionInquiry:
		if product.PromoPercent > 0 {
			discounted := datatypes.RoundCents(product.Price * (1 - float64(product.PromoPercent)/100))
			resp.AssistantMessage = fmt.Sprintf("%s is %d%% off right now: $%.2f (was $%.2f).",
				product.Name, product.PromoPercent, discounted, product.Price)
			resp.Data["promo_percent"] = product.PromoPercent
		} else {
			resp.AssistantMessage = fmt.Sprintf("%s has no active promotion. The regular price is $%.2f.",
				product.Name, product.Price)
		}
	case classifier.QueryStoreNavigation:
		resp.AssistantMessage = fmt.Sprintf("You can find %s in the %s section.", product.Name, product.Category)
	case classifier.QuerySubstitution:
		sub, serr := e.catalog.FindSubstitute(ctx, product)
		if serr != nil {
			resp.AssistantMessage = fmt.Sprintf("I couldn't find a good substitute for %s.", product.Name)
		} else {
			resp.AssistantMessage = fmt.Sprintf("Instead of %s you could try %s at $%.2f.",
				product.Name, sub.Name, sub.Price)
			resp.Data["substitute"] = sub.Name
		}
	default:
		resp.AssistantMessage = fmt.Sprintf("Sure! The price of %s is $%.2f. Anything else I can help you with?",
			product.Name, product.Price)
	}
	return resp, nil
}

// casualResponse answers conversationally and offers a deeper catalog
// search as the follow-up confirmation.
func (e *Engine) casualResponse(ctx context.Context, s *datatypes.Session, message string) (*datatypes.Response, error) {
	answer := ""
	llmCtx, cancel := context.WithTimeout(ctx, e.timeout)
	out, err := e.llm.Generate(llmCtx, casualAnswerPrompt(message), llm.GenerationParams{})
	cancel()
	if err == nil {
		answer = strings.TrimSpace(out)
	} else if !errors.Is(err, llm.ErrDisabled) {
		e.logger.Warn("casual answer generation failed", "error", err)
	}
	if answer == "" {
		answer = "I'm happy to help with meal planning, finding products, and managing your cart. What are you looking for today?"
	}

	s.Advance(datatypes.StepCasualResponse, 2)
	resp := datatypes.NewResponse(s, message)
	resp.AssistantMessage = answer
	resp.RequiresConfirmation = true
	resp.ConfirmationPrompt = "Would you like me to search our catalog for anything related?"
	resp.NextStep = datatypes.StepGeneralQuerySearch
	return resp, nil
}

// casualAnswerPrompt frames a casual message for the LLM backend.
func casualAnswerPrompt(message string) string {
	return "You are a friendly grocery shopping assistant. Reply briefly and helpfully to this message, " +
		"without inventing prices or products: " + message
}
