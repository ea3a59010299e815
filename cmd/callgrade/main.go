package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/callgrade/callgrade/internal/adapters/scorerhttp"
	"github.com/callgrade/callgrade/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	enabled, err := cfg.GetEnabledServices()
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "starting callgrade",
		"services", cfg.Services,
		"enabled_count", len(enabled),
		"worker_concurrency", cfg.Worker.Concurrency)

	db, err := bootstrap.ConnectDB(cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	redisClient := bootstrap.NewRedisClient(cfg.Redis)
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping record store migrations on startup", "reason", "disabled via config")
	}

	scorer, err := scorerhttp.New(scorerhttp.Options{URL: cfg.ScorerURL})
	if err != nil {
		return err
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
		Executor:    scorer,
	})
	if err != nil {
		return err
	}

	return bootstrap.Run(ctx, &cfg, services, logger)
}
