package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/quietcreek/soil-intel-service/internal/adapter/elevation"
	httpadapter "github.com/quietcreek/soil-intel-service/internal/adapter/http"
	kafkaadapter "github.com/quietcreek/soil-intel-service/internal/adapter/kafka"
	"github.com/quietcreek/soil-intel-service/internal/adapter/soilgrids"
	"github.com/quietcreek/soil-intel-service/internal/config"
	"github.com/quietcreek/soil-intel-service/internal/observability"
	"github.com/quietcreek/soil-intel-service/internal/soil"
	"github.com/quietcreek/soil-intel-service/internal/soildb"
	"github.com/quietcreek/soil-intel-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Persist cache and circuit state on disk when a directory is
	// configured; otherwise both live in memory for the process lifetime.
	var kv store.KeyValueStore
	if cfg.CacheDir != "" {
		fileStore, err := store.NewFileStore(cfg.CacheDir)
		if err != nil {
			logger.Warn("file store unavailable, using memory store", "dir", cfg.CacheDir, "error", err)
			kv = store.NewMemoryStore()
		} else {
			kv = fileStore
		}
	} else {
		kv = store.NewMemoryStore()
	}

	restClient := soilgrids.NewClient(cfg.SoilGridsRestURL, cfg.FetchTimeout, logger, metrics)
	rasterClient := soilgrids.NewRasterClient(cfg.SoilGridsWcsURL, cfg.FetchTimeout, cfg.WCSConcurrency, logger, metrics)
	elevClient := elevation.NewClient(cfg.ElevationURL, cfg.FetchTimeout, logger, metrics)

	// Optional analytics sink (feature-flagged via KAFKA_ENABLED).
	var publisher soil.DetectionPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaDetectionsTopic, logger)
		publisher = kafkaPublisher
		logger.Info("detection event publishing enabled", "topic", cfg.KafkaDetectionsTopic)
	}

	svc := soil.NewService(soil.Options{
		Primary:   restClient,
		Fallback:  rasterClient,
		Elevation: elevClient,
		Cache:     soil.NewGeoCache(kv, clock, logger),
		Health:    soil.NewHealthTracker(kv, clock, logger, metrics),
		SoilDB:    soildb.New(),
		Publisher: publisher,
		Clock:     clock,
		Logger:    logger,
		Metrics:   metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
