// Copyright (C) 2025 PantryPilot Labs (dev@pantrypilot.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package assistant provides the conversational shopping assistant service.
//
// This package contains the main Service type that wires together every
// component of the assistant: the conversation engine, query classifier,
// product catalog, embedded session store, HTTP routing, and observability
// infrastructure.
//
// # Enterprise Integration
//
// The service supports dependency injection via extensions.ServiceOptions,
// allowing a hosted deployment to provide custom implementations of:
//   - AuthProvider: Token-based authentication (JWT, API keys)
//   - AuthzProvider: Role-based access control
//   - AuditLogger: Compliance audit logging
//   - MessageFilter: PII detection and redaction
//
// # Usage
//
// Open source (uses no-op defaults):
//
//	cfg := assistant.Config{Port: 12310}
//	svc, err := assistant.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PantryPilotAI/PantryPilot/pkg/extensions"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/basket"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/catalog"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/classifier"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/engine"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/middleware"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/observability"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/planner"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/routes"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stock"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/stores"
	"github.com/PantryPilotAI/PantryPilot/services/assistant/ttl"
	"github.com/PantryPilotAI/PantryPilot/services/llm"
	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the assistant service.
//
// # Description
//
// Service abstracts the assistant lifecycle, enabling testing and
// alternative implementations. Only essential lifecycle methods are
// exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for integration testing.
	// Callers must not modify the router after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds assistant service configuration options.
//
// All fields are optional; New applies defaults for zero values.
//
// # Examples
//
//	// Minimal config (uses all defaults, in-memory store)
//	cfg := Config{}
//
//	// Persistent store with an LLM backend
//	cfg := Config{
//	    Port:       12310,
//	    LLMBackend: "ollama",
//	    DataDir:    "/var/lib/pantrypilot",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// LLMBackend specifies the text-generation provider used for casual
	// replies and classification.
	// Valid values: "openai", "ollama", "disabled"
	// Default: "disabled" (keyword classification, canned replies)
	LLMBackend string

	// DataDir is the directory for the embedded session store.
	// If empty, the store runs in memory and nothing survives a restart.
	DataDir string

	// SeedPath is a YAML file with the product and recipe catalog.
	// If empty, the built-in seed catalog is used. When set, the file is
	// watched and the catalog reloads on change.
	SeedPath string

	// WeaviateURL is the Weaviate vector database URL used for BM25
	// product search. If empty, search falls back to in-memory fuzzy
	// matching.
	// Example: "http://localhost:8080"
	WeaviateURL string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "pantrypilot-otel-collector:4317"
	OTelEndpoint string

	// DisableMetrics skips Prometheus metric registration. Metrics use
	// the default registry, so only one metered service may exist per
	// process; tests that build several services set this.
	DisableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// TranscriptRetention is how many sessions of transcript history to
	// keep per user. Default: 5
	TranscriptRetention int

	// SessionMaxIdle is how long a session may go without a turn before
	// the sweeper removes it. Default: 30 minutes
	SessionMaxIdle time.Duration

	// SweepInterval is how often the idle-session sweeper runs.
	// Default: 5 minutes
	SweepInterval time.Duration

	// SweeperDisabled turns off the background idle-session sweeper.
	// The store's key TTL still expires sessions either way.
	SweeperDisabled bool

	// DownstreamTimeout bounds any single collaborator call inside the
	// engine. Default: 15 seconds
	DownstreamTimeout time.Duration

	// RateLimitRPS is the sustained per-user request rate.
	// Default: 10
	RateLimitRPS float64

	// RateLimitBurst is the per-user burst allowance. Default: 20
	RateLimitBurst int
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
var _ Service = (*service)(nil)

type service struct {
	config         Config
	opts           extensions.ServiceOptions
	router         *gin.Engine
	db             *stores.DB
	eng            *engine.Engine
	cat            catalog.Catalog
	weaviateClient *weaviate.Client
	tracerCleanup  func(context.Context)
	stopBackground context.CancelFunc

	// The session repository serializes turns with an in-process lock
	// map, so every consumer must share this one instance.
	sessions    *stores.SessionRepository
	transcripts *stores.TranscriptStore
	carts       *stores.CartStore
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new assistant Service with the given configuration.
//
// # Description
//
// New initializes every component:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Opens the embedded session store
//  5. Loads the product catalog (seed file or built-in) and, when
//     configured, the Weaviate search index
//  6. Creates the LLM client and query classifier
//  7. Wires the conversation engine and background sweeper
//  8. Sets up HTTP routes with extension options
//
// If opts is nil, DefaultOptions() is used (no-op implementations).
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - opts: Extension options for hosted deployments. May be nil.
//
// # Outputs
//
//   - Service: Ready-to-run assistant service
//   - error: Non-nil if initialization fails
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions()
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if !s.config.DisableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus conversation metrics")
	}

	// Background goroutines (sweeper, seed watcher) stop when this
	// context is cancelled by cleanup.
	bgCtx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel

	if err := s.initStores(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	if err := s.initCatalog(bgCtx); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if err := s.initEngine(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	s.initSweeper(bgCtx)
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
// Cleanup is automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting assistant server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "disabled"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "pantrypilot-otel-collector:4317"
	}
	if cfg.TranscriptRetention == 0 {
		cfg.TranscriptRetention = 5
	}
	if cfg.SessionMaxIdle == 0 {
		cfg.SessionMaxIdle = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.DownstreamTimeout == 0 {
		cfg.DownstreamTimeout = 15 * time.Second
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for internal networks.
// The connection is lazy, so an unreachable collector does not fail
// startup.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("assistant-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initStores opens the embedded BadgerDB session store.
func (s *service) initStores() error {
	var storeCfg stores.Config
	if s.config.DataDir == "" {
		storeCfg = stores.InMemoryConfig()
		slog.Info("No data directory configured, session store is in-memory")
	} else {
		storeCfg = stores.DefaultConfig()
		storeCfg.Path = s.config.DataDir
	}
	storeCfg.SessionTTL = s.config.SessionMaxIdle
	storeCfg.Logger = slog.Default()

	db, err := stores.Open(storeCfg)
	if err != nil {
		return err
	}
	s.db = db
	s.sessions = stores.NewSessionRepository(db)
	s.transcripts = stores.NewTranscriptStore(db, s.config.TranscriptRetention)
	s.carts = stores.NewCartStore(db)
	return nil
}

// initCatalog loads the product catalog and, when configured, attaches
// the Weaviate search index on top of it.
//
// Weaviate failures are not fatal: the service logs a warning and keeps
// the in-memory catalog, matching the lightweight-mode behavior of the
// rest of the stack.
func (s *service) initCatalog(bgCtx context.Context) error {
	products, recipes := catalog.DefaultSeed()
	if s.config.SeedPath != "" {
		var err error
		products, recipes, err = catalog.LoadSeedFile(s.config.SeedPath)
		if err != nil {
			return fmt.Errorf("load seed file %s: %w", s.config.SeedPath, err)
		}
	}

	memory := catalog.NewMemoryCatalog(products, recipes)
	s.cat = memory
	slog.Info("Catalog loaded", "products", len(products), "recipes", len(recipes))

	if s.config.SeedPath != "" {
		go func() {
			if err := catalog.WatchSeedFile(bgCtx, s.config.SeedPath, memory); err != nil {
				slog.Warn("Seed file watcher stopped", "error", err)
			}
		}()
	}

	if err := s.initWeaviate(memory); err != nil {
		slog.Warn("Weaviate initialization failed, using in-memory search",
			"error", err)
	}

	return nil
}

// initWeaviate creates the Weaviate client and syncs the catalog into it.
// Returns nil without doing anything when no URL is configured.
func (s *service) initWeaviate(memory *catalog.MemoryCatalog) error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, using in-memory search")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	wc := catalog.NewWeaviateCatalog(client, memory)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := wc.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	products, err := memory.Browse(ctx, "")
	if err != nil {
		return fmt.Errorf("read catalog for sync: %w", err)
	}
	if err := wc.SyncProducts(ctx, products); err != nil {
		return fmt.Errorf("sync products: %w", err)
	}

	s.weaviateClient = client
	s.cat = wc
	slog.Info("Weaviate search index initialized", "url", weaviateURL)

	return nil
}

// initEngine builds the LLM client, classifier, and conversation engine.
func (s *service) initEngine() error {
	llmClient, err := llm.NewFromBackend(s.config.LLMBackend)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	slog.Info("LLM backend configured", "backend", s.config.LLMBackend)

	var cls classifier.Classifier
	if _, disabled := llmClient.(llm.DisabledClient); disabled {
		cls = classifier.NewKeywordClassifier()
	} else {
		cls = classifier.NewLLMClassifier(llmClient)
	}

	s.eng, err = engine.New(engine.Options{
		Classifier:        cls,
		Catalog:           s.cat,
		Planner:           planner.New(s.cat),
		Basket:            basket.New(s.cat),
		Stock:             stock.New(s.cat),
		Sessions:          s.sessions,
		Transcripts:       s.transcripts,
		Profiles:          stores.NewProfileStore(s.db),
		Carts:             s.carts,
		LLM:               llmClient,
		DownstreamTimeout: s.config.DownstreamTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create conversation engine: %w", err)
	}

	return nil
}

// initSweeper starts the background idle-session sweeper.
func (s *service) initSweeper(bgCtx context.Context) {
	if s.config.SweeperDisabled {
		return
	}

	sweeper := ttl.New(s.sessions, ttl.Config{
		Interval: s.config.SweepInterval,
		MaxIdle:  s.config.SessionMaxIdle,
	})
	go sweeper.Run(bgCtx)
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("assistant-service"))

	routes.SetupRoutes(s.router, routes.Deps{
		Engine:       s.eng,
		Catalog:      s.cat,
		Sessions:     s.sessions,
		Transcripts:  s.transcripts,
		Carts:        s.carts,
		AuthProvider: s.opts.AuthProvider,
		RateLimit: middleware.RateLimiterConfig{
			RatePerSecond: s.config.RateLimitRPS,
			Burst:         s.config.RateLimitBurst,
		},
		Options: s.opts,
	})
}

// cleanup releases all resources held by the service.
// Called when Run() exits or on initialization failure.
func (s *service) cleanup() {
	if s.stopBackground != nil {
		s.stopBackground()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Warn("Session store close error", "error", err)
		}
	}

	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
