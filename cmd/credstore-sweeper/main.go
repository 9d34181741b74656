// The credstore-sweeper deletes expired exchange tokens on a schedule.
// It runs out-of-band from request traffic and needs no coordination
// with it beyond normal row-level isolation.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/credstore/internal/config"
	"github.com/tendant/credstore/internal/migrations"
	"github.com/tendant/credstore/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := migrations.Up(ctx, db); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	store := repository.NewStore(db)

	logger.Info("sweeper started", "interval", cfg.SweepInterval)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		removed, err := store.ExchangeTokens().CleanupExpired(ctx, time.Now())
		if err != nil {
			logger.Error("cleanup sweep failed", "error", err)
		} else if removed > 0 {
			logger.Info("removed expired exchange tokens", "count", removed)
		}

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
		}
	}
}
