// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command assistant starts the PantryPilot shopping assistant HTTP server.
//
// Configuration is read from flags, with environment variables as
// fallbacks for container deployments.
//
// # Environment Variables
//
//   - ASSISTANT_PORT: HTTP server port (default: 12310)
//   - LLM_BACKEND_TYPE: LLM provider - openai, ollama, disabled (default: disabled)
//   - ASSISTANT_DATA_DIR: session store directory (default: in-memory)
//   - ASSISTANT_SEED_PATH: catalog seed YAML (default: built-in seed)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (optional)
//   - ASSISTANT_LOG_DIR: directory for log files (default: stdout only)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: pantrypilot-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o assistant ./cmd/assistant
//
//	# Run
//	./assistant serve
//
//	# Or via container
//	podman-compose up assistant
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/PantryPilotAI/PantryPilot/pkg/logging"
	"github.com/PantryPilotAI/PantryPilot/services/assistant"
	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var (
	port        int
	llmBackend  string
	dataDir     string
	seedPath    string
	weaviateURL string
	ginMode     string
	logDir      string
	sessionTTL  time.Duration

	rootCmd = &cobra.Command{
		Use:   "assistant",
		Short: "The PantryPilot conversational shopping assistant",
		Long: `Assistant runs the PantryPilot conversational shopping service:
meal planning, product search, cart management, and feedback collection
over a session-based HTTP API.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant HTTP server",
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the assistant version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", getEnvInt("ASSISTANT_PORT", 12310),
		"HTTP server port")
	serveCmd.Flags().StringVar(&llmBackend, "llm-backend",
		getEnvString("LLM_BACKEND_TYPE", "disabled"),
		"LLM provider: openai, ollama, disabled")
	serveCmd.Flags().StringVar(&dataDir, "data-dir",
		os.Getenv("ASSISTANT_DATA_DIR"),
		"session store directory (empty for in-memory)")
	serveCmd.Flags().StringVar(&seedPath, "seed",
		os.Getenv("ASSISTANT_SEED_PATH"),
		"catalog seed YAML file (empty for built-in seed)")
	serveCmd.Flags().StringVar(&weaviateURL, "weaviate-url",
		os.Getenv("WEAVIATE_SERVICE_URL"),
		"Weaviate vector DB URL (empty disables BM25 search)")
	serveCmd.Flags().StringVar(&ginMode, "gin-mode", "", "Gin mode: debug, release, test")
	serveCmd.Flags().StringVar(&logDir, "log-dir",
		os.Getenv("ASSISTANT_LOG_DIR"),
		"directory for log files (empty for stdout only)")
	serveCmd.Flags().DurationVar(&sessionTTL, "session-ttl", 0,
		"idle time before a session expires (default 30m)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  logDir,
		Service: "assistant",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := assistant.Config{
		Port:           port,
		LLMBackend:     llmBackend,
		DataDir:        dataDir,
		SeedPath:       seedPath,
		WeaviateURL:    weaviateURL,
		OTelEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		GinMode:        ginMode,
		SessionMaxIdle: sessionTTL,
	}

	slog.Info("Starting assistant",
		"version", version,
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"data_dir", cfg.DataDir,
		"weaviate_url", cfg.WeaviateURL,
	)

	// Hosted builds pass custom ServiceOptions here.
	svc, err := assistant.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create assistant: %w", err)
	}

	return svc.Run()
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
