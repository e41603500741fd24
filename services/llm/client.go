// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm abstracts the text-generation backends used by the assistant
// for query classification and casual conversational answers.
//
// The assistant never depends on a working LLM: every caller carries a
// deterministic fallback, and the "disabled" backend makes that fallback
// the only path. Supported backends: openai, ollama, disabled.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// GenerationParams are the optional sampling knobs passed per call.
// Nil pointers mean backend defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient is the standard interface for any text-generation backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// ErrDisabled is returned by the disabled backend on every call.
var ErrDisabled = errors.New("llm backend disabled")

// DisabledClient is the no-LLM backend. Callers receive ErrDisabled and
// take their deterministic fallback path.
type DisabledClient struct{}

// Generate implements the LLMClient interface.
func (DisabledClient) Generate(context.Context, string, GenerationParams) (string, error) {
	return "", ErrDisabled
}

// NewFromBackend constructs the client named by backend.
//
// Accepted values: "openai", "ollama", "disabled" (or empty). Anything
// else is an error so a typo in configuration fails fast instead of
// silently running without a model.
func NewFromBackend(backend string) (LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	case "disabled", "":
		return DisabledClient{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM backend %q", backend)
	}
}
