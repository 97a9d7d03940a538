package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"snipe_go/internal/domain"
	"snipe_go/internal/engine"
	"snipe_go/internal/execution"
	"snipe_go/internal/infra"
	"snipe_go/internal/infra/okx"
	"snipe_go/internal/infra/storage"
	"snipe_go/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	ConfigPath string

	Config   *infra.Config
	Storage  *storage.Storage
	Client   *okx.Client
	Metrics  *infra.Metrics
	Exchange domain.Exchange
	Markets  *service.MarketService
	Prices   domain.PriceSource

	worker     *okx.TickerWorker
	metricsSrv *http.Server
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap(configPath string) *Bootstrap {
	return &Bootstrap{ConfigPath: configPath}
}

// Initialize performs core system initialization (config, logger, cache, exchange, price feed).
func (b *Bootstrap) Initialize(ctx context.Context) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(b.ConfigPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("🚀 Bootstrapping snipe bot...", slog.String("mode", cfg.Trading.Mode))

	// 3. Market cache (optional)
	var repo domain.MarketRepository
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		slog.Warn("Market cache unavailable, continuing without it", slog.Any("error", err))
	} else {
		b.Storage = store
		repo = store
		slog.Info("✅ Market cache initialized")
	}

	// 4. Exchange client
	client, err := okx.NewClient(cfg)
	if err != nil {
		return err
	}
	b.Client = client

	// 5. Metrics
	b.Metrics = infra.NewMetrics()
	if cfg.Metrics.Addr != "" {
		b.metricsSrv = b.Metrics.Serve(cfg.Metrics.Addr)
		slog.Info("✅ Metrics server started", slog.String("addr", cfg.Metrics.Addr))
	}

	// 6. Execution mode
	exchange, err := execution.NewExecutionFactory(cfg, client).CreateExchange()
	if err != nil {
		return err
	}
	b.Exchange = exchange
	b.Markets = service.NewMarketService(client, repo)

	// 7. Price feed
	switch cfg.Snipe.PriceSource {
	case "ws":
		worker := okx.NewTickerWorker(cfg.API.OKX.WSURL, []string{cfg.Snipe.Symbol}, cfg.API.OKX.Proxy)
		if err := worker.Connect(ctx); err != nil {
			return fmt.Errorf("failed to start ticker stream: %w", err)
		}
		b.worker = worker
		b.Prices = worker
		slog.Info("✅ WebSocket price feed started", slog.String("symbol", cfg.Snipe.Symbol))
	default:
		b.Prices = service.NewRestPriceSource(client)
	}

	return nil
}

// Environment describes where orders go, for the startup banner.
func (b *Bootstrap) Environment() string {
	switch b.Config.Trading.Mode {
	case infra.ModePaper:
		return "PAPER (simulated fills)"
	case infra.ModeReal:
		return "REAL (live trading)"
	default:
		return "DEMO (sandbox)"
	}
}

// NewSniper assembles the run loop from the initialized components.
func (b *Bootstrap) NewSniper() *engine.Sniper {
	return engine.NewSniper(b.Config.SnipeParams(), b.Exchange, b.Markets, b.Prices, b.Metrics, b.Environment())
}

// Close releases background resources.
func (b *Bootstrap) Close() {
	if b.worker != nil {
		b.worker.Disconnect()
	}
	if b.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := b.metricsSrv.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown failed", slog.Any("error", err))
		}
	}
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Warn("Failed to close market cache", slog.Any("error", err))
		}
	}
}
