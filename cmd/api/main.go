package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nmartinez-dev/expensio-backend/api/routes"
	"github.com/nmartinez-dev/expensio-backend/internal/transactions"
	"github.com/nmartinez-dev/expensio-backend/internal/users"
	"github.com/nmartinez-dev/expensio-backend/pkg/config"
	"github.com/nmartinez-dev/expensio-backend/pkg/db"
	"github.com/nmartinez-dev/expensio-backend/pkg/identity"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
	"github.com/nmartinez-dev/expensio-backend/pkg/metrics"
	"github.com/nmartinez-dev/expensio-backend/pkg/migrate"
	"github.com/nmartinez-dev/expensio-backend/pkg/rates"
	"github.com/nmartinez-dev/expensio-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "expensio"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "expensio",
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

	// Redis only backs the rate limiter, so a deployment without it still
	// boots; production without it just runs unthrottled (and says so).
	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else if cfg.App.IsProd() {
		logg.Warn(context.Background(), "redis not configured, rate limiting disabled")
	}

	var avatarSyncer users.AvatarSyncer
	if cfg.Identity.APIKey != "" {
		identityClient, err := identity.NewClient(cfg.Identity)
		if err != nil {
			logg.Error(context.Background(), "failed to create identity client", err)
			os.Exit(1)
		}
		avatarSyncer = identityClient
	} else {
		logg.Warn(context.Background(), "identity api key not set, avatar sync disabled")
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	txnService := transactions.NewService(transactions.NewRepository(dbClient.DB()), logg)
	usersService := users.NewService(users.NewRepository(dbClient.DB()), avatarSyncer, logg)
	ratesClient := rates.NewClient(cfg.Rates, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, registry, httpMetrics,
			dbClient, redisClient,
			txnService, usersService, ratesClient,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
