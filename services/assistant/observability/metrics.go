// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the assistant.
//
// # Description
//
// Metrics cover conversation turns (by kind and status), state-machine
// step transitions, feedback submissions, cart operations, and downstream
// collaborator failures. Exposed via the /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "pantrypilot"

// Subsystem for conversation metrics
const conversationSubsystem = "conversation"

// ConversationMetrics holds all Prometheus metrics for conversation turns.
//
// # Description
//
// Initialize once at startup via InitMetrics(). Components read the
// DefaultMetrics singleton and skip recording when it is nil, so tests
// run without a registry.
//
// # Thread Safety
//
// All operations are thread-safe.
type ConversationMetrics struct {
	// TurnsTotal counts processed turns.
	// Labels: kind (message, confirmation, feedback), status (success, error)
	TurnsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures full turn processing latency.
	// Labels: kind
	TurnDurationSeconds *prometheus.HistogramVec

	// StepTransitionsTotal counts state-machine arrivals per step.
	// Labels: step
	StepTransitionsTotal *prometheus.CounterVec

	// ActiveSessions tracks sessions currently mid-conversation.
	ActiveSessions prometheus.Gauge

	// FeedbackSubmissionsTotal counts feedback answers by step and validity.
	// Labels: step_key, valid (true, false)
	FeedbackSubmissionsTotal *prometheus.CounterVec

	// CartOperationsTotal counts cart mutations by operation and status.
	// Labels: operation (add, delete, view, clear), status
	CartOperationsTotal *prometheus.CounterVec

	// DownstreamErrorsTotal counts collaborator failures by component.
	// Labels: component (classifier, planner, catalog, basket, stock, store)
	DownstreamErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of ConversationMetrics.
// Initialized by InitMetrics(); nil until then.
var DefaultMetrics *ConversationMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics with the default registry.
// Call once at application startup; a second call panics on duplicate
// registration.
func InitMetrics() *ConversationMetrics {
	DefaultMetrics = &ConversationMetrics{
		TurnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "turns_total",
				Help:      "Total conversation turns by kind and status",
			},
			[]string{"kind", "status"},
		),

		TurnDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "Full turn processing latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),

		StepTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "step_transitions_total",
				Help:      "State machine arrivals per step",
			},
			[]string{"step"},
		),

		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "active_sessions",
				Help:      "Sessions currently mid-conversation",
			},
		),

		FeedbackSubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "feedback_submissions_total",
				Help:      "Feedback answers by step key and validity",
			},
			[]string{"step_key", "valid"},
		),

		CartOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "cart_operations_total",
				Help:      "Cart mutations by operation and status",
			},
			[]string{"operation", "status"},
		),

		DownstreamErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "downstream_errors_total",
				Help:      "Collaborator failures by component",
			},
			[]string{"component"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Turn Kinds
// =============================================================================

// TurnKind labels which entry point processed a turn.
type TurnKind string

const (
	// TurnMessage is a free-text message turn.
	TurnMessage TurnKind = "message"

	// TurnConfirmation is a yes/no confirmation turn.
	TurnConfirmation TurnKind = "confirmation"

	// TurnFeedback is a structured feedback-answer turn.
	TurnFeedback TurnKind = "feedback"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordTurn records a completed turn with its latency.
func (m *ConversationMetrics) RecordTurn(kind TurnKind, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "error"
	}
	m.TurnsTotal.WithLabelValues(string(kind), status).Inc()
	m.TurnDurationSeconds.WithLabelValues(string(kind)).Observe(seconds)
}

// RecordStep records an arrival at a state-machine step.
func (m *ConversationMetrics) RecordStep(step string) {
	m.StepTransitionsTotal.WithLabelValues(step).Inc()
}

// RecordFeedback records one feedback answer.
func (m *ConversationMetrics) RecordFeedback(stepKey string, valid bool) {
	v := "true"
	if !valid {
		v = "false"
	}
	m.FeedbackSubmissionsTotal.WithLabelValues(stepKey, v).Inc()
}

// RecordCartOperation records one cart mutation.
func (m *ConversationMetrics) RecordCartOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.CartOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDownstreamError records a collaborator failure.
func (m *ConversationMetrics) RecordDownstreamError(component string) {
	m.DownstreamErrorsTotal.WithLabelValues(component).Inc()
}

// SessionStarted increments the active sessions gauge.
func (m *ConversationMetrics) SessionStarted() {
	m.ActiveSessions.Inc()
}

// SessionEnded decrements the active sessions gauge.
func (m *ConversationMetrics) SessionEnded() {
	m.ActiveSessions.Dec()
}
