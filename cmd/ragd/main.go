// Ragd is a multilingual retrieval-augmented generation daemon.
//
// This binary starts the ragd HTTP server with full service initialization,
// including the vector store, embeddings, the LLM client, NATS eventing and
// the agent layer with self-assessment.
//
// Configuration is loaded from a YAML file and environment variables. See
// internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	ragd
//
//	# Configure via environment
//	SERVER_PORT=9090 VECTORSTORE_PROVIDER=chromem ragd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/agent"
	"github.com/temafey/rag-vector-doc-claude/internal/config"
	"github.com/temafey/rag-vector-doc-claude/internal/document"
	"github.com/temafey/rag-vector-doc-claude/internal/embeddings"
	"github.com/temafey/rag-vector-doc-claude/internal/evaluation"
	"github.com/temafey/rag-vector-doc-claude/internal/events"
	httpserver "github.com/temafey/rag-vector-doc-claude/internal/http"
	"github.com/temafey/rag-vector-doc-claude/internal/language"
	"github.com/temafey/rag-vector-doc-claude/internal/llm"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
	"github.com/temafey/rag-vector-doc-claude/internal/planner"
	"github.com/temafey/rag-vector-doc-claude/internal/rag"
	"github.com/temafey/rag-vector-doc-claude/internal/reranker"
	"github.com/temafey/rag-vector-doc-claude/internal/splitter"
	"github.com/temafey/rag-vector-doc-claude/internal/telemetry"
	"github.com/temafey/rag-vector-doc-claude/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  ragd           Start the ragd daemon\n")
			fmt.Fprintf(os.Stderr, "  ragd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("ragd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the ragd server and blocks until context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Connects to infrastructure (NATS, vector store, LLM)
//  4. Initializes business services (documents, RAG, evaluation, agents)
//  5. Starts the HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting ragd",
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout),
	)

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := initDependencies(cfg, logger, registry)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info(ctx, "dependencies initialized",
		zap.Bool("events_enabled", cfg.NATS.Enabled),
		zap.String("embedding_model", cfg.Embeddings.Model),
	)

	services, err := initServices(cfg, deps, logger, registry)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	srv, err := httpserver.NewServer(
		httpserver.Services{
			RAG:         services.rag,
			Documents:   services.documents,
			Agents:      services.agents,
			Planner:     services.planner,
			Loop:        services.loop,
			Improver:    services.improver,
			Evaluations: services.evaluations,
		},
		registry,
		httpserver.NewMetrics(registry),
		logger.Underlying(),
		&httpserver.Config{Host: cfg.Server.Host, Port: cfg.Server.Port},
	)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	publisher events.Publisher
	store     vectorstore.Store
	embedder  *embeddings.Router
	llmClient llm.Client
}

// Close releases all infrastructure resources in reverse initialization
// order.
func (d *dependencies) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.embedder != nil {
		_ = d.embedder.Close()
	}
	if d.publisher != nil {
		_ = d.publisher.Close()
	}
}

// initDependencies connects to NATS, builds the embedding router and opens
// the configured vector store.
func initDependencies(cfg *config.Config, logger *logging.Logger, registry prometheus.Registerer) (*dependencies, error) {
	publisher, err := events.NewNATSPublisher(cfg.NATS, logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	embedder, err := embeddings.NewRouter(cfg.Embeddings, embeddings.NewMetrics(registry))
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create embedding router: %w", err)
	}

	store, err := vectorstore.NewStore(cfg, embedder, logger.Underlying())
	if err != nil {
		_ = embedder.Close()
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	return &dependencies{
		publisher: publisher,
		store:     store,
		embedder:  embedder,
		llmClient: llmClient,
	}, nil
}

// services holds all business services.
type services struct {
	documents   *document.Service
	rag         *rag.Service
	loop        *evaluation.Loop
	improver    *evaluation.Improver
	agents      *agent.Service
	planner     *planner.Service
	evaluations *evaluation.Repository
}

// initServices wires the document pipeline, the RAG query path, the
// self-assessment loop and the agent layer on top of the infrastructure
// dependencies.
func initServices(cfg *config.Config, deps *dependencies, logger *logging.Logger, registry prometheus.Registerer) (*services, error) {
	detector := language.NewDetector(cfg.RAG.Languages)

	documents, err := document.NewService(
		deps.store,
		splitter.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		detector,
		deps.publisher,
		logger.Named("document"),
		"",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create document service: %w", err)
	}

	generator, err := rag.NewLLMGenerator(deps.llmClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	ragSvc, err := rag.NewService(deps.store, detector, generator, rag.Options{
		Translator: language.NewTranslator(deps.llmClient),
		Reranker:   reranker.NewSimpleReranker(),
		Publisher:  deps.publisher,
		Metrics:    rag.NewMetrics(registry),
		Logger:     logger.Named("rag"),
		TopK:       cfg.RAG.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rag service: %w", err)
	}

	policy, err := evaluation.NewPolicy(cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create quality policy: %w", err)
	}
	evaluator, err := evaluation.NewEvaluator(deps.llmClient, policy, logger.Named("evaluation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}
	improver, err := evaluation.NewImprover(deps.llmClient, logger.Named("evaluation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create improver: %w", err)
	}
	loop, err := evaluation.NewLoop(evaluator, improver, policy, deps.publisher, logger.Named("evaluation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluation loop: %w", err)
	}

	actionRegistry := agent.NewRegistry()
	if err := agent.RegisterBuiltins(actionRegistry, ragSvc, generator, loop, improver); err != nil {
		return nil, fmt.Errorf("failed to register agent actions: %w", err)
	}

	agents, err := agent.NewService(actionRegistry, agent.NewRepository(), deps.publisher, logger.Named("agent"))
	if err != nil {
		return nil, fmt.Errorf("failed to create agent service: %w", err)
	}

	plannerSvc, err := planner.NewService(agents, deps.llmClient, planner.NewRepository(), deps.publisher, logger.Named("planner"))
	if err != nil {
		return nil, fmt.Errorf("failed to create planner service: %w", err)
	}

	return &services{
		documents:   documents,
		rag:         ragSvc,
		loop:        loop,
		improver:    improver,
		agents:      agents,
		planner:     plannerSvc,
		evaluations: evaluation.NewRepository(),
	}, nil
}
