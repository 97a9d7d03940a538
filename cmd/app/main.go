package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"snipe_go/internal/app"
	"snipe_go/internal/engine"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// System Bootstrapping
	bootstrap := app.NewBootstrap(*configPath)
	defer bootstrap.Close()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		return 1
	}

	sniper := bootstrap.NewSniper()
	err := sniper.Run(ctx)
	switch {
	case err == nil:
		slog.Info("✨ Purchase completed, exiting", slog.String("order_id", sniper.Order().ID))
		return 0
	case engine.IsInterrupted(err):
		slog.Info("👋 Interrupted by user, shutting down")
		return 0
	default:
		slog.Error("❌ Snipe bot stopped", slog.Any("error", err))
		return 1
	}
}
