package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	cartsvc "github.com/sssssubin/cart-service/internal/cart"
	"github.com/sssssubin/cart-service/internal/catalog"
	"github.com/sssssubin/cart-service/internal/sale"
	"github.com/sssssubin/cart-service/pkg/config"
	"github.com/sssssubin/cart-service/pkg/db"
	"github.com/sssssubin/cart-service/pkg/logger"
	"github.com/sssssubin/cart-service/pkg/metrics"
	"github.com/sssssubin/cart-service/pkg/migrate"
	"github.com/sssssubin/cart-service/pkg/redis"
)

const (
	snapshotTTL        = 7 * 24 * time.Hour
	defaultMetricsAddr = ":9091"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sale-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sale-worker",
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

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	snapshots, err := cartsvc.NewSnapshotStore(redisClient, snapshotTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot store", err)
		os.Exit(1)
	}

	lock, err := sale.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Sale.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale lock", err)
		os.Exit(1)
	}

	worker, err := sale.NewWorker(sale.WorkerParams{
		Catalog:  catalogService,
		Selected: snapshots,
		Lock:     lock,
		Logger:   logg,
		Metrics:  metrics.NewSaleJobMetrics(prometheus.DefaultRegisterer),
		Config:   cfg.Sale,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sale worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	go serveMetrics(ctx, logg)

	logg.Info(ctx, "starting sale worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sale worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sale worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	addr := os.Getenv("CARTSVC_METRICS_ADDR")
	if addr == "" {
		addr = defaultMetricsAddr
	}
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("sale-worker:%s", env)
}
