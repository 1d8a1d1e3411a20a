package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mintworker "github.com/car-dano/inspection-backend/internal/app/mint-worker"
	"github.com/car-dano/inspection-backend/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting mint worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := mintworker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize mint worker", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("mint worker stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("mint worker stopped gracefully")
}
