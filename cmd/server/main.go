package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lunexa/zimlaw-orchestrator/internal/cache"
	"github.com/lunexa/zimlaw-orchestrator/internal/config"
	"github.com/lunexa/zimlaw-orchestrator/internal/intent"
	"github.com/lunexa/zimlaw-orchestrator/internal/iterative"
	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
	"github.com/lunexa/zimlaw-orchestrator/internal/memory"
	appmw "github.com/lunexa/zimlaw-orchestrator/internal/middleware"
	"github.com/lunexa/zimlaw-orchestrator/internal/orchestrator"
	"github.com/lunexa/zimlaw-orchestrator/internal/parentfetch"
	"github.com/lunexa/zimlaw-orchestrator/internal/quality"
	"github.com/lunexa/zimlaw-orchestrator/internal/rerank"
	"github.com/lunexa/zimlaw-orchestrator/internal/retrieval"
	"github.com/lunexa/zimlaw-orchestrator/internal/rewrite"
	"github.com/lunexa/zimlaw-orchestrator/internal/selfcritic"
	"github.com/lunexa/zimlaw-orchestrator/internal/store/postgres"
	"github.com/lunexa/zimlaw-orchestrator/internal/store/redisstore"
	"github.com/lunexa/zimlaw-orchestrator/internal/synthesize"
	"github.com/lunexa/zimlaw-orchestrator/internal/telemetry"
	"github.com/lunexa/zimlaw-orchestrator/internal/tokenutil"
	"github.com/lunexa/zimlaw-orchestrator/internal/transport"
)

const Version = "0.1.0"

func newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(appmw.Logging)
	r.Use(appmw.SecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, Version)
	})

	return r
}

func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

// app bundles the built router and an ordered shutdown function for every
// resource buildApp opened (connection pools, Redis clients).
type app struct {
	router   *chi.Mux
	shutdown func()
}

// buildApp constructs every collaborator named in the dependency graph
// (config -> stores -> llm adapters -> pipeline stages -> orchestrator ->
// transport) and mounts the query route alongside the health check.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	dbPool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return nil, fmt.Errorf("buildApp: postgres: %w", err)
	}

	cacheRedis, err := redisstore.NewClient(ctx, cfg.RedisURL, cfg.RedisCacheDB)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("buildApp: cache redis: %w", err)
	}
	memoryRedis, err := redisstore.NewClient(ctx, cfg.RedisURL, cfg.RedisMemoryDB)
	if err != nil {
		dbPool.Close()
		cacheRedis.Close()
		return nil, fmt.Errorf("buildApp: memory redis: %w", err)
	}

	shutdown := func() {
		dbPool.Close()
		_ = cacheRedis.Close()
		_ = memoryRedis.Close()
	}

	largeModel, err := llm.NewVertexLarge(ctx, cfg.GCPProject, cfg.VertexAILocation, cfg.VertexAIModel)
	if err != nil {
		shutdown()
		return nil, fmt.Errorf("buildApp: vertex large model: %w", err)
	}
	embedder, err := llm.NewVertexEmbedder(ctx, cfg.GCPProject, cfg.EmbeddingLocation, cfg.EmbeddingModel)
	if err != nil {
		shutdown()
		return nil, fmt.Errorf("buildApp: vertex embedder: %w", err)
	}
	smallModel := llm.NewAnthropicSmall(cfg.AnthropicAPIKey, cfg.AnthropicSmallModel)

	semanticCache := cache.NewSemanticCache(cacheRedis)
	intentCache := cache.NewIntentCache(cacheRedis)

	shortTerm := memory.NewShortTermStore(memoryRedis, cfg.ShortTermWindowSize, cfg.ShortTermTTL)
	longTerm := memory.NewLongTermStore(dbPool)
	tokenCounter := tokenutil.NewCounter()
	memCoordinator := memory.NewCoordinator(shortTerm, longTerm, tokenCounter)

	classifier := intent.NewClassifier(smallModel, intentCache)
	rewriter := rewrite.NewRewriter(smallModel)

	vectorIndex := retrieval.NewPgVectorIndex(dbPool)
	sparseIndex := retrieval.NewPgFullTextIndex(dbPool)
	retrievalEngine := retrieval.NewEngine(vectorIndex, sparseIndex, embedder, cfg.DenseRetrievalDeadline, cfg.SparseRetrievalDeadline)

	crossEncoder := rerank.NewHTTPCrossEncoder(cfg.CrossEncoderEndpoint, cfg.CrossEncoderTimeout)
	reranker := rerank.NewReranker(crossEncoder)

	parentStore, err := parentfetch.NewGCSStore(ctx, cfg.GCSBucketName)
	if err != nil {
		shutdown()
		return nil, fmt.Errorf("buildApp: parent document store: %w", err)
	}
	parentFetcher := parentfetch.NewFetcher(parentStore, cfg.ParentFetchConcurrency)

	synthesizer := synthesize.NewSynthesizer(largeModel)
	refiner := synthesize.NewRefinedSynthesizer(synthesizer)

	coherenceChecker := quality.NewCoherenceChecker(smallModel)
	gate := quality.NewGate(coherenceChecker)
	critic := selfcritic.NewCritic(smallModel)
	iterativeRetriever := iterative.NewRetriever(retrievalEngine)

	orch, err := orchestrator.NewOrchestrator(orchestrator.Deps{
		SemanticCache: semanticCache,
		Embedder:      embedder,
		Memory:        memCoordinator,
		ShortTerm:     shortTerm,
		LongTerm:      longTerm,
		Classifier:    classifier,
		Rewriter:      rewriter,
		Retrieval:     retrievalEngine,
		Reranker:      reranker,
		Parents:       parentFetcher,
		Synthesizer:   synthesizer,
		Refiner:       refiner,
		Gate:          gate,
		Critic:        critic,
		More:          iterativeRetriever,
	})
	if err != nil {
		shutdown()
		return nil, fmt.Errorf("buildApp: orchestrator: %w", err)
	}

	metrics := telemetry.NewMetrics(nil)

	rateLimiter := appmw.NewRateLimiter(appmw.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
	})
	oldShutdown := shutdown
	shutdown = func() {
		rateLimiter.Stop()
		oldShutdown()
	}

	router := newRouter()
	router.Handle("/metrics", metrics.Handler())
	transport.NewHandler(orch).Routes(router.With(appmw.RateLimit(rateLimiter)))

	// chi rejects Use once a mux has routes, so the global CORS and
	// monitoring middlewares wrap the finished router from an outer mux.
	root := chi.NewRouter()
	root.Use(appmw.CORS(cfg.FrontendURL))
	root.Use(telemetry.Monitoring(metrics))
	root.Mount("/", router)

	return &app{router: root, shutdown: shutdown}, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	ctx := context.Background()
	built, err := buildApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer built.shutdown()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      built.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming SSE responses must not be write-deadlined
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("zimlaw-orchestrator starting", "version", Version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received signal, shutting down gracefully", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
