// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PantryPilotAI/PantryPilot/pkg/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup
// =============================================================================

// testConfig returns a Config safe for repeated construction in one
// process: in-memory store, no metric registration, no background
// sweeper.
func testConfig() Config {
	return Config{
		LLMBackend:      "disabled",
		GinMode:         "test",
		DisableMetrics:  true,
		SweeperDisabled: true,
	}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	result := applyConfigDefaults(Config{})

	assert.Equal(t, 12310, result.Port, "default port should be 12310")
	assert.Equal(t, "disabled", result.LLMBackend, "default LLM backend should be disabled")
	assert.Equal(t, "pantrypilot-otel-collector:4317", result.OTelEndpoint)
	assert.Equal(t, 5, result.TranscriptRetention)
	assert.Equal(t, 30*time.Minute, result.SessionMaxIdle)
	assert.Equal(t, 5*time.Minute, result.SweepInterval)
	assert.Equal(t, 15*time.Second, result.DownstreamTimeout)
}

func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	cfg := Config{
		Port:                8080,
		LLMBackend:          "ollama",
		OTelEndpoint:        "custom-collector:4317",
		WeaviateURL:         "http://weaviate:8080",
		TranscriptRetention: 10,
		SessionMaxIdle:      time.Hour,
	}

	result := applyConfigDefaults(cfg)

	assert.Equal(t, 8080, result.Port)
	assert.Equal(t, "ollama", result.LLMBackend)
	assert.Equal(t, "custom-collector:4317", result.OTelEndpoint)
	assert.Equal(t, "http://weaviate:8080", result.WeaviateURL)
	assert.Equal(t, 10, result.TranscriptRetention)
	assert.Equal(t, time.Hour, result.SessionMaxIdle)
}

// =============================================================================
// Constructor Tests
// =============================================================================

// TestNew_BuildsWorkingService constructs the full service offline and
// drives one conversational turn through the router.
func TestNew_BuildsWorkingService(t *testing.T) {
	svc, err := New(testConfig(), nil)
	require.NoError(t, err)

	router := svc.Router()
	require.NotNil(t, router)

	// Health endpoint is unauthenticated.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// One full turn: a price inquiry resolves in a single message.
	body, err := json.Marshal(map[string]string{"message": "How much does milk cost?"})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "$3.49")
}

func TestNew_UnknownLLMBackendFails(t *testing.T) {
	cfg := testConfig()
	cfg.LLMBackend = "frobnicator"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM client")
}

func TestNew_MissingSeedFileFails(t *testing.T) {
	cfg := testConfig()
	cfg.SeedPath = "testdata/does-not-exist.yaml"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")
}

// TestNew_CustomAuthProvider verifies injected extensions reach the
// middleware chain.
func TestNew_CustomAuthProvider(t *testing.T) {
	opts := extensions.DefaultOptions().WithAuth(&rejectingAuthProvider{})

	svc, err := New(testConfig(), &opts)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"message": "hello"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	svc.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceOptions_NilUsesDefaults(t *testing.T) {
	svc, err := New(testConfig(), nil)
	require.NoError(t, err)

	// NopAuthProvider admits every request as the local user.
	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// =============================================================================
// Test Doubles
// =============================================================================

type rejectingAuthProvider struct{}

func (rejectingAuthProvider) Validate(ctx context.Context, token string) (*extensions.AuthInfo, error) {
	return nil, extensions.ErrUnauthorized
}
