package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-hydrology-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-hydrology-service/internal/adapter/kafka"
	"github.com/couchcryptid/storm-hydrology-service/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-hydrology-service/internal/adapter/store"
	"github.com/couchcryptid/storm-hydrology-service/internal/config"
	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/couchcryptid/storm-hydrology-service/internal/hydrology"
	"github.com/couchcryptid/storm-hydrology-service/internal/observability"
	"github.com/couchcryptid/storm-hydrology-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// The change feed is optional; without it the service only records metrics.
	// The feed runs on its own context so it outlives the HTTP server during shutdown.
	var (
		publisher   hydrology.ChangePublisher
		kafkaWriter *kafkaadapter.Publisher
		feed        *pipeline.Pipeline
		feedDone    = make(chan struct{})
	)
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewPublisher(cfg, logger)
		feed = pipeline.New(kafkaWriter, logger, metrics, cfg.BatchSize, cfg.ChangeQueueSize, cfg.BatchFlushInterval)
		publisher = feed
		go func() {
			defer close(feedDone)
			if err := feed.Run(feedCtx); err != nil {
				logger.Error("change feed error", "error", err)
			}
		}()
		logger.Info("change feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		close(feedDone)
		logger.Info("change feed disabled")
	}

	svc := hydrology.New(db, geocoder, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, httpadapter.Options{
		Prefix:       cfg.APIPrefix,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	stopFeed()
	<-feedDone
	if feed != nil {
		if err := feed.Drain(shutdownCtx); err != nil {
			logger.Error("change feed drain error", "error", err)
		}
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}
