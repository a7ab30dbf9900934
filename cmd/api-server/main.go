package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/slotwise/appointment-scheduling/internal/api"
	"github.com/slotwise/appointment-scheduling/internal/appointment"
	"github.com/slotwise/appointment-scheduling/internal/config"
	"github.com/slotwise/appointment-scheduling/internal/db"
	"github.com/slotwise/appointment-scheduling/internal/event"
	"github.com/slotwise/appointment-scheduling/internal/observability"
	"github.com/slotwise/appointment-scheduling/internal/observability/metrics"
	"github.com/slotwise/appointment-scheduling/internal/provider"
	redisclient "github.com/slotwise/appointment-scheduling/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	observability.InitLogger("api-server", cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	// Redis only backs the availability cache; failing to reach it degrades
	// reads, it does not stop the server.
	redisCli, err := redisclient.Connect(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, availability cache disabled")
		redisCli = nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewSchedulingMetrics(registry)

	apptRepo := appointment.NewPgRepository(pool)
	provRepo := provider.NewPgRepository(pool)

	bus := event.NewBus(m)
	bus.Subscribe(event.LogListener)
	bus.Subscribe(event.NewLogPersister(apptRepo))

	var cache appointment.Cache
	if redisCli != nil {
		cache = redisclient.NewAvailabilityCache(redisCli, cfg.AvailabilityCacheTTL)
	}

	provSvc := provider.NewService(provRepo, bus)
	apptSvc := appointment.NewService(apptRepo, provSvc, bus, cache, m, cfg.TxTimeout)

	router := api.NewRouter(api.RouterDeps{
		Appointments: apptSvc,
		Providers:    provSvc,
		Postgres:     pool,
		Redis:        redisCli,
		Metrics:      m,
		Registry:     registry,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := bus.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("event bus drain interrupted")
	}
	if redisCli != nil {
		_ = redisCli.Close()
	}

	log.Info().Msg("shutdown complete")
}
