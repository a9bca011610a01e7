package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/config"
	dbRedis "github.com/kailas-cloud/stylesearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
	"github.com/kailas-cloud/stylesearch/internal/repository/captioncache"
	catalogrepo "github.com/kailas-cloud/stylesearch/internal/repository/catalog"
	chiTransport "github.com/kailas-cloud/stylesearch/internal/transport/chi"
	openaiGen "github.com/kailas-cloud/stylesearch/internal/transport/openai"
	augmentuc "github.com/kailas-cloud/stylesearch/internal/usecase/augment"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
	"github.com/kailas-cloud/stylesearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "stylesearch", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting stylesearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("ai_enabled", cfg.AI.Enabled()),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create catalog store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Catalog store not ready", zap.Error(err))
	}
	logger.Info("Connected to catalog store")

	metrics.RegisterAIMetrics()
	metrics.RegisterHTTPMetrics(prometheus.DefaultRegisterer)

	catalog := catalogrepo.New(store, cfg.Storage.KeyPrefix)
	if err := catalog.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure catalog index", zap.Error(err), zap.String("index", catalog.IndexName()))
	}

	// Nil interfaces (not typed nil pointers) when AI is disabled.
	var (
		captioner searchuc.Captioner
		parser    searchuc.Parser
		advisor   augmentuc.Advisor
		aiChecker healthuc.AIChecker
	)
	if cfg.AI.Enabled() {
		gen := openaiGen.NewGenerator(&openaiGen.Config{
			APIKey:            cfg.AI.APIKey,
			BaseURL:           cfg.AI.BaseURL,
			TextModel:         cfg.AI.TextModel,
			VisionModel:       cfg.AI.VisionModel,
			MaxTokens:         cfg.AI.MaxTokens,
			Temperature:       cfg.AI.Temperature,
			RequestsPerSecond: cfg.AI.RequestsPerSecond,
			Burst:             cfg.AI.Burst,
			HTTPClient:        &http.Client{Timeout: time.Duration(cfg.AI.TimeoutSec) * time.Second},
			Logger:            logger,
		})
		adapter := expansion.New(gen, logger,
			expansion.WithRetrier(expansion.NewRetrier(cfg.AI.RetryAttempts, cfg.AI.RetryBaseDelay())))

		captioner = adapter
		if ttl := cfg.AI.CaptionTTL(); ttl > 0 {
			captioner = captioncache.New(adapter, store, cfg.Storage.KeyPrefix, ttl, metrics.CaptionCacheTotal, logger)
		}
		parser = adapter
		advisor = adapter
		aiChecker = gen
		logger.Info("AI expansion enabled",
			zap.String("text_model", cfg.AI.TextModel),
			zap.String("vision_model", cfg.AI.VisionModel),
			zap.Float64("requests_per_second", cfg.AI.RequestsPerSecond),
		)
	} else {
		logger.Warn("AI expansion disabled: ai.api_key is empty, searches run on keywords only")
	}

	searchSvc := searchuc.New(
		searchuc.NewBuilder(cfg.Search.MaxPageSize, cfg.Search.MaxKeywords),
		searchuc.NewEngine(catalog, cfg.Search.CandidateWindow, logger),
		captioner, parser, logger,
	)
	augmentSvc := augmentuc.New(catalog, advisor, augmentuc.Config{
		PriceBand:     cfg.Search.ComparisonBand,
		Limit:         cfg.Search.AugmentLimit,
		RelatedLimit:  cfg.Search.RelatedLimit,
		MaxCompareIDs: cfg.Search.MaxCompareIDs,
	}, logger)
	healthSvc := healthuc.New(store, aiChecker)

	server := chiTransport.NewServer(searchSvc, augmentSvc, catalog, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
