package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicavailability/internal/adapters/cache"
	"github.com/zatekoja/clinicavailability/internal/adapters/database"
	"github.com/zatekoja/clinicavailability/internal/adapters/events"
	"github.com/zatekoja/clinicavailability/internal/adapters/providers/scheduling"
	"github.com/zatekoja/clinicavailability/internal/api/handlers"
	"github.com/zatekoja/clinicavailability/internal/api/routes"
	"github.com/zatekoja/clinicavailability/internal/application/services"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
	"github.com/zatekoja/clinicavailability/internal/domain/repositories"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
	"github.com/zatekoja/clinicavailability/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Drafts and cross-session events go through Redis when it is reachable.
	var (
		draftStorage providers.CacheProvider
		eventBus     providers.EventBus
	)
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("redis unavailable, keeping drafts in memory")
		memory := cache.NewMemoryAdapter(time.Minute)
		defer memory.Close()
		draftStorage = memory
	} else {
		defer redisClient.Close()
		bus := events.NewRedisEventBus(redisClient)
		defer bus.Close()
		draftStorage = cache.NewRedisAdapter(redisClient)
		eventBus = bus
	}

	var ledger repositories.BookingLedgerRepository = database.NoopBookingLedger{}
	if cfg.Database.Enabled() {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()

		adapter := database.NewBookingLedgerAdapter(pgClient)
		if err := adapter.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare booking ledger schema")
		}
		ledger = adapter
	}

	location := cfg.Scheduler.Location()
	scheduler := scheduling.NewSchedulerProvider(scheduling.SchedulerProviderConfig{
		BaseURL:       cfg.Scheduler.BaseURL,
		APIKey:        cfg.Scheduler.APIKey,
		Timeout:       cfg.Scheduler.Timeout,
		RetryAttempts: cfg.Scheduler.RetryAttempts,
		Location:      location,
	})
	if cfg.Scheduler.BaseURL == "" {
		log.Warn().Msg("SCHEDULER_BASE_URL not set, serving mock availability")
	}

	fetcher := services.NewAvailabilityFetcher(scheduler, services.NewFetcherConfig(&cfg.Scheduler), metrics)
	registry := services.NewSessionRegistry(fetcher, metrics, cfg.Session.TTL, services.LoaderOptions{
		BatchWait:    cfg.Session.LoaderBatchWait,
		FetchTimeout: cfg.Scheduler.Timeout,
	})
	defer registry.Close()
	registry.Start(ctx)
	if eventBus != nil {
		if err := registry.Subscribe(ctx, eventBus); err != nil {
			log.Error().Err(err).Msg("failed to subscribe to slot booking events")
		}
	}

	drafts := services.NewBookingDraftStores(draftStorage, cfg.Draft.TTL)
	bookingService := services.NewBookingService(drafts, registry, scheduler, ledger, eventBus,
		services.BookingConfig{SlotDurationMinutes: cfg.Scheduler.SlotDurationMinutes, Location: location}, metrics)

	router := routes.NewRouter(
		handlers.NewSearchSessionHandler(registry),
		handlers.NewBookingDraftHandler(drafts),
		handlers.NewBookingHandler(bookingService),
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
