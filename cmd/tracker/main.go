package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/parcel-delay-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/parcel-delay-service/internal/adapter/kafka"
	"github.com/couchcryptid/parcel-delay-service/internal/adapter/openweather"
	"github.com/couchcryptid/parcel-delay-service/internal/config"
	"github.com/couchcryptid/parcel-delay-service/internal/dataset"
	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/i18n"
	"github.com/couchcryptid/parcel-delay-service/internal/notify"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/couchcryptid/parcel-delay-service/internal/pipeline"
	"github.com/couchcryptid/parcel-delay-service/internal/probe"
	"github.com/couchcryptid/parcel-delay-service/internal/store"
	"github.com/couchcryptid/parcel-delay-service/internal/store/memory"
	"github.com/couchcryptid/parcel-delay-service/internal/store/postgres"
	"github.com/couchcryptid/parcel-delay-service/internal/tracking"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Parcel store (PARCEL_STORE=memory|postgres).
	var (
		parcels domain.ParcelStore
		ready   sharedobs.ReadinessChecker
	)
	switch cfg.ParcelStore {
	case config.StorePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to open parcel database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		cached := store.NewCachedStore(pg, cfg.ParcelCacheSize, metrics)
		parcels, ready = cached, cached
		logger.Info("parcel store: postgres", "cache_size", cfg.ParcelCacheSize)
	default:
		mem := memory.New(dataset.Default())
		parcels, ready = mem, mem
		logger.Info("parcel store: embedded dataset")
	}

	// Live weather (feature-flagged via OPENWEATHER_ENABLED / OPENWEATHER_API_KEY).
	var source domain.WeatherSource
	if cfg.OpenWeatherEnabled {
		source = openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherTimeout, cfg.OpenWeatherMaxRetries, metrics, logger)
		logger.Info("openweather enabled", "timeout", cfg.OpenWeatherTimeout, "max_retries", cfg.OpenWeatherMaxRetries)
	} else {
		logger.Info("openweather disabled, using fallback weather")
	}

	var override probe.Override
	if cfg.HubOverrideEnabled {
		override = probe.NewHubOverride(cfg.HubLat, cfg.HubLon)
		logger.Info("hub weather override enabled", "lat", cfg.HubLat, "lon", cfg.HubLon)
	}
	weather := probe.New(source, override, metrics, logger)

	// Delay alert feed.
	var (
		publisher pipeline.AlertPublisher
		writer    *kafkaadapter.AlertWriter
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewAlertWriter(cfg, logger)
		publisher = writer
		logger.Info("delay alert feed enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	}

	translator, err := i18n.New(i18n.Language(cfg.DefaultLanguage))
	if err != nil {
		logger.Error("failed to load translations", "error", err)
		os.Exit(1)
	}

	feed := notify.NewCenter(metrics)
	evaluator := pipeline.New(weather, feed, publisher, translator, logger, metrics)
	session := tracking.New(parcels, evaluator, feed, translator, tracking.Options{Latency: cfg.SearchLatency}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, session, ready, logger)

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
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
