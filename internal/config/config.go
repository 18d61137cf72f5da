package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// It is immutable after Load() returns.
type Config struct {
	Port             int
	Environment      string
	InternalAuthSecret string

	DatabaseURL      string
	DatabaseMaxConns int

	RedisURL         string
	RedisCacheDB     int
	RedisMemoryDB    int

	GCPProject        string
	GCPRegion         string
	VertexAILocation  string
	VertexAIModel     string
	VertexAIFastModel string

	EmbeddingLocation   string
	EmbeddingModel      string
	EmbeddingDimensions int

	AnthropicAPIKey   string
	AnthropicSmallModel string

	CrossEncoderEndpoint string
	CrossEncoderTimeout  time.Duration

	GCSBucketName string

	FrontendURL string

	QualityConfidenceThreshold float64
	SemanticCacheThreshold     float64
	SelfRAGMaxIterations       int

	DenseRetrievalDeadline  time.Duration
	SparseRetrievalDeadline time.Duration
	RerankDeadline          time.Duration
	ParentFetchConcurrency  int
	SubQuestionDeadline     time.Duration

	ShortTermWindowSize int
	ShortTermTTL        time.Duration

	RateLimitMaxRequests int
	RateLimitWindow       time.Duration
}

// Load reads configuration from environment variables.
// Required variables (DATABASE_URL, GOOGLE_CLOUD_PROJECT) cause an error if missing.
// Optional variables use sensible defaults.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("config.Load: DATABASE_URL is required")
	}

	gcpProject := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if gcpProject == "" {
		return nil, fmt.Errorf("config.Load: GOOGLE_CLOUD_PROJECT is required")
	}

	cfg := &Config{
		Port:               envInt("PORT", 8080),
		Environment:        envStr("ENVIRONMENT", "development"),
		InternalAuthSecret: envStr("INTERNAL_AUTH_SECRET", ""),

		DatabaseURL:      dbURL,
		DatabaseMaxConns: envInt("DATABASE_MAX_CONNS", 25),

		RedisURL:      envStr("REDIS_URL", "redis://localhost:6379/0"),
		RedisCacheDB:  envInt("REDIS_CACHE_DB", 0),
		RedisMemoryDB: envInt("REDIS_MEMORY_DB", 1),

		GCPProject:        gcpProject,
		GCPRegion:         envStr("GCP_REGION", "us-east4"),
		VertexAILocation:  envStr("VERTEX_AI_LOCATION", "global"),
		VertexAIModel:     envStr("VERTEX_AI_MODEL", "gemini-3-pro-preview"),
		VertexAIFastModel: envStr("VERTEX_AI_FAST_MODEL", "gemini-3-flash-preview"),

		EmbeddingLocation:   envStr("VERTEX_AI_EMBEDDING_LOCATION", envStr("GCP_REGION", "us-east4")),
		EmbeddingModel:      envStr("VERTEX_AI_EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDimensions: envInt("EMBEDDING_DIMENSIONS", 768),

		AnthropicAPIKey:     envStr("ANTHROPIC_API_KEY", ""),
		AnthropicSmallModel: envStr("ANTHROPIC_SMALL_MODEL", "claude-haiku-4-5"),

		CrossEncoderEndpoint: envStr("CROSS_ENCODER_ENDPOINT", ""),
		CrossEncoderTimeout:  envDuration("CROSS_ENCODER_TIMEOUT_MS", 400*time.Millisecond),

		GCSBucketName: envStr("GCS_BUCKET_NAME", ""),

		FrontendURL: envStr("FRONTEND_URL", "http://localhost:3000"),

		QualityConfidenceThreshold: envFloat("QUALITY_CONFIDENCE_THRESHOLD", 0.80),
		SemanticCacheThreshold:     envFloat("SEMANTIC_CACHE_THRESHOLD", 0.95),
		SelfRAGMaxIterations:       envInt("SELF_RAG_MAX_ITERATIONS", 2),

		DenseRetrievalDeadline:  envDuration("DENSE_RETRIEVAL_DEADLINE_MS", 500*time.Millisecond),
		SparseRetrievalDeadline: envDuration("SPARSE_RETRIEVAL_DEADLINE_MS", 300*time.Millisecond),
		RerankDeadline:          envDuration("RERANK_DEADLINE_MS", 400*time.Millisecond),
		ParentFetchConcurrency:  envInt("PARENT_FETCH_CONCURRENCY", 16),
		SubQuestionDeadline:     envDuration("SUB_QUESTION_DEADLINE_MS", 600*time.Millisecond),

		ShortTermWindowSize: envInt("SHORT_TERM_WINDOW_SIZE", 10),
		ShortTermTTL:        envDuration("SHORT_TERM_TTL_SECONDS", 24*time.Hour),

		RateLimitMaxRequests: envInt("RATE_LIMIT_MAX_REQUESTS", 30),
		RateLimitWindow:       envDuration("RATE_LIMIT_WINDOW_SECONDS", time.Minute),
	}

	if cfg.Environment != "development" && cfg.InternalAuthSecret == "" {
		return nil, fmt.Errorf("config.Load: INTERNAL_AUTH_SECRET is required in %s environment", cfg.Environment)
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// envDuration reads an integer millisecond (or second, per suffix convention
// of the key name) count and returns it as a time.Duration.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	if len(key) > 7 && key[len(key)-7:] == "SECONDS" {
		return time.Duration(n) * time.Second
	}
	return time.Duration(n) * time.Millisecond
}
