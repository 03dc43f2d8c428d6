package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jvidal-dev/stokage-backend/api/routes"
	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/internal/partner"
	"github.com/jvidal-dev/stokage-backend/internal/promo"
	"github.com/jvidal-dev/stokage-backend/internal/slots"
	"github.com/jvidal-dev/stokage-backend/internal/units"
	"github.com/jvidal-dev/stokage-backend/internal/webhooks"
	"github.com/jvidal-dev/stokage-backend/pkg/config"
	"github.com/jvidal-dev/stokage-backend/pkg/db"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
	"github.com/jvidal-dev/stokage-backend/pkg/metrics"
	"github.com/jvidal-dev/stokage-backend/pkg/migrate"
	"github.com/jvidal-dev/stokage-backend/pkg/outbox"
	"github.com/jvidal-dev/stokage-backend/pkg/redis"
)

const shutdownGrace = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	promoRepo := promo.NewRepository(gormDB)
	promoSvc, err := promo.NewService(promoRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	slotsSvc, err := slots.NewService(slots.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create slots service", err)
		os.Exit(1)
	}

	unitsRepo := units.NewRepository(gormDB)
	bookingsRepo := bookings.NewRepository(gormDB)
	bookingsSvc, err := bookings.NewService(
		bookingsRepo,
		dbClient,
		units.NewLedger(),
		promoSvc,
		outboxSvc,
		logg,
		cfg.Bookings.NumberPrefix,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	partnerRepo := partner.NewRepository(gormDB)
	partnerSvc, err := partner.NewService(partnerRepo, bookingsRepo, slotsSvc, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create partner service", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)
	gate, err := webhooks.NewGate(
		webhooks.NewRepository(gormDB),
		redisClient,
		cfg.Webhooks,
		cfg.App.IsProd(),
		logg,
		webhookMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook gate", err)
		os.Exit(1)
	}
	bookingHandler := webhooks.NewBookingEventHandler(bookingsSvc, logg)
	for _, provider := range []string{"stripe", "square"} {
		gate.Register(provider, bookingHandler)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			bookingsSvc,
			promoSvc,
			promoRepo,
			unitsRepo,
			slotsSvc,
			partnerSvc,
			partnerRepo,
			gate,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
