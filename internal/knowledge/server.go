// Package knowledgesvc provides the knowledge service server implementation.
package knowledgesvc

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lexfisc/lexfisc/internal/knowledge/biz"
	"github.com/lexfisc/lexfisc/internal/knowledge/handler"
	"github.com/lexfisc/lexfisc/internal/knowledge/metrics"
	"github.com/lexfisc/lexfisc/internal/knowledge/router"
	"github.com/lexfisc/lexfisc/internal/knowledge/store"
	"github.com/lexfisc/lexfisc/internal/knowledge/vector"
	"github.com/lexfisc/lexfisc/pkg/component/milvus"
	"github.com/lexfisc/lexfisc/pkg/component/postgres"
	"github.com/lexfisc/lexfisc/pkg/infra/pool"
	"github.com/lexfisc/lexfisc/pkg/llm"
	knowledgeopts "github.com/lexfisc/lexfisc/pkg/options/knowledge"
	llmopts "github.com/lexfisc/lexfisc/pkg/options/llm"
	logopts "github.com/lexfisc/lexfisc/pkg/options/logger"
	milvusopts "github.com/lexfisc/lexfisc/pkg/options/milvus"
	postgresopts "github.com/lexfisc/lexfisc/pkg/options/postgres"
	redisopts "github.com/lexfisc/lexfisc/pkg/options/redis"
	httpopts "github.com/lexfisc/lexfisc/pkg/options/server/http"

	// Register LLM providers.
	_ "github.com/lexfisc/lexfisc/pkg/llm/ollama"
	_ "github.com/lexfisc/lexfisc/pkg/llm/openai"
)

// Name is the name of the application.
const Name = "lexfisc-knowledge"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	PostgresOptions  *postgresopts.Options
	MilvusOptions    *milvusopts.Options
	RedisOptions     *redisopts.Options
	CacheEnabled     bool
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	KnowledgeOptions *knowledgeopts.Options
	ShutdownTimeout  time.Duration
}

// Server represents the knowledge server.
type Server struct {
	httpServer      *http.Server
	factory         store.Factory
	milvusClose     func()
	redisClose      func()
	shutdownTimeout time.Duration
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", version.Get().GitVersion)
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting knowledge service...")

	if err := pool.InitGlobal(); err != nil {
		return nil, fmt.Errorf("failed to initialize worker pools: %w", err)
	}

	pgClient, err := postgres.NewWithContext(ctx, cfg.PostgresOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	logger.Info("Postgres client initialized")

	factory := store.NewFactory(pgClient.DB())
	if err := factory.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	index, milvusClose := cfg.buildVectorIndex(ctx, factory)

	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	embedder, redisClose := cfg.wrapEmbeddingCache(embedProvider)

	ko := cfg.KnowledgeOptions
	chunker := biz.NewChunker(ko.ChunkSize, ko.ChunkOverlap)
	extractor := biz.NewPDFExtractor(ko.MinTextChars)
	ingestor := biz.NewIngestor(factory, index, embedder, extractor, chunker, biz.IngestConfig{
		BatchSize: ko.BatchSize,
		Timeout:   ko.IngestTimeout,
	})
	synthesizer := biz.NewSynthesizer(chatProvider, ko.SystemPrompt)
	service := biz.NewService(factory, index, embedder, ingestor, synthesizer, biz.ServiceConfig{
		TopK:     ko.TopK,
		MinScore: float32(ko.MinScore),
		DataDir:  ko.DataDir,
	})
	logger.Infow("Knowledge service initialized",
		"chunk_size", ko.ChunkSize,
		"chunk_overlap", ko.ChunkOverlap,
		"top_k", ko.TopK,
		"min_score", ko.MinScore,
		"vector_index", index.Name(),
	)

	engine := router.New(handler.NewKnowledgeHandler(service))

	httpServer := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("Knowledge service is ready")
	return &Server{
		httpServer:      httpServer,
		factory:         factory,
		milvusClose:     milvusClose,
		redisClose:      redisClose,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// buildVectorIndex connects Milvus when reachable and always keeps the
// brute-force scan as fallback. When Milvus is unavailable at startup the
// service runs on the scan alone.
func (cfg *Config) buildVectorIndex(ctx context.Context, factory store.Factory) (vector.Index, func()) {
	ko := cfg.KnowledgeOptions
	bruteForce := vector.NewBruteForceIndex(factory.Chunks(), ko.CandidateLimit)

	milvusClient, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		logger.Warnw("milvus unavailable, using brute-force retrieval only",
			"address", cfg.MilvusOptions.Address, "error", err.Error())
		return bruteForce, nil
	}

	milvusIndex, err := vector.NewMilvusIndex(ctx, milvusClient, ko.Collection, ko.EmbeddingDim)
	if err != nil {
		logger.Warnw("milvus collection setup failed, using brute-force retrieval only",
			"collection", ko.Collection, "error", err.Error())
		_ = milvusClient.Close(context.Background())
		return bruteForce, nil
	}
	logger.Infow("Milvus index initialized", "collection", ko.Collection, "dimension", ko.EmbeddingDim)

	m := metrics.Get()
	index := vector.NewFallbackIndex(milvusIndex, bruteForce, m.RecordFallback)
	return index, func() { _ = milvusClient.Close(context.Background()) }
}

// wrapEmbeddingCache wraps the embedding provider with the Redis cache
// when caching is enabled and Redis is reachable.
func (cfg *Config) wrapEmbeddingCache(provider llm.EmbeddingProvider) (llm.EmbeddingProvider, func()) {
	if !cfg.CacheEnabled {
		logger.Info("Embedding cache is disabled")
		return provider, nil
	}

	ro := cfg.RedisOptions
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         fmt.Sprintf("%s:%d", ro.Host, ro.Port),
		Password:     ro.Password,
		DB:           ro.Database,
		MaxRetries:   ro.MaxRetries,
		PoolSize:     ro.PoolSize,
		MinIdleConns: ro.MinIdleConns,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warnw("failed to connect to redis, embedding cache disabled", "error", err.Error())
		_ = redisClient.Close()
		return provider, nil
	}

	logger.Infow("Embedding cache initialized", "host", ro.Host, "port", ro.Port)
	cached := llm.NewCachedEmbeddingProvider(provider, redisClient, nil)
	return cached, func() { _ = redisClient.Close() }
}

// Run starts the HTTP server and blocks until a termination signal.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if s.milvusClose != nil {
			s.milvusClose()
		}
		if s.redisClose != nil {
			s.redisClose()
		}
		if err := s.factory.Close(); err != nil {
			logger.Warnw("failed to close store", "error", err.Error())
		}
		if err := pool.CloseGlobal(); err != nil {
			logger.Warnw("failed to close worker pools", "error", err.Error())
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-sigCtx.Done():
	}

	logger.Info("Shutting down knowledge service...")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Knowledge service stopped")
	return nil
}
