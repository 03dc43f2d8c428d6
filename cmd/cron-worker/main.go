package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/internal/cron"
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

const (
	lockKeyFormat       = "cron-worker:%s"
	outboxRetentionDays = 7
	webhookRetryBatch   = 50
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	outboxRepo := outbox.NewRepository(gormDB)
	promoSvc, err := promo.NewService(promo.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}
	slotsSvc, err := slots.NewService(slots.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create slots service", err)
		os.Exit(1)
	}
	bookingsRepo := bookings.NewRepository(gormDB)
	bookingsSvc, err := bookings.NewService(
		bookingsRepo,
		dbClient,
		units.NewLedger(),
		promoSvc,
		outbox.NewService(outboxRepo, logg),
		logg,
		cfg.Bookings.NumberPrefix,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	gate, err := webhooks.NewGate(
		webhooks.NewRepository(gormDB),
		redisClient,
		cfg.Webhooks,
		cfg.App.IsProd(),
		logg,
		metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook gate", err)
		os.Exit(1)
	}
	gate.Register("stripe", webhooks.NewBookingEventHandler(bookingsSvc, logg))
	gate.Register("square", webhooks.NewBookingEventHandler(bookingsSvc, logg))

	readers := cron.NewReaders(gormDB)

	expiryJob, err := cron.NewBookingExpiryJob(cron.BookingExpiryJobParams{
		Logger:   logg,
		Reader:   bookingsRepo,
		Bookings: bookingsSvc,
		TTLHours: cfg.Bookings.PendingTTLHours,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create booking expiry job", err)
		os.Exit(1)
	}
	horizonJob, err := cron.NewSlotHorizonJob(cron.SlotHorizonJobParams{
		Logger:      logg,
		Settings:    readers,
		Sites:       readers,
		Slots:       slotsSvc,
		HorizonDays: cfg.Cron.SlotHorizonDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create slot horizon job", err)
		os.Exit(1)
	}
	retryJob, err := cron.NewWebhookRetryJob(cron.WebhookRetryJobParams{
		Logger:    logg,
		Gate:      gate,
		BatchSize: webhookRetryBatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook retry job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		Outbox:        outboxRepo,
		RetentionDays: outboxRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob, horizonJob, retryJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.BookingExpiryInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
