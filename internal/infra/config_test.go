package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snipe_go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.App.Name != "snipe-test" {
		t.Errorf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Trading.Mode != ModeDemo {
		t.Errorf("expected mode normalized to DEMO, got %s", cfg.Trading.Mode)
	}
	if !cfg.IsSandbox() {
		t.Error("DEMO mode should use the sandbox")
	}
	if cfg.API.OKX.Proxy != "http://127.0.0.1:7890" {
		t.Errorf("unexpected proxy: %s", cfg.API.OKX.Proxy)
	}
	if cfg.API.OKX.TimeoutMS != 30000 {
		t.Errorf("expected default timeout 30000, got %d", cfg.API.OKX.TimeoutMS)
	}
	if !cfg.Snipe.QuoteAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected quote amount: %s", cfg.Snipe.QuoteAmount)
	}
	if !cfg.Snipe.MaxPrice.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("unexpected max price: %s", cfg.Snipe.MaxPrice)
	}
	if !cfg.Snipe.LimitPrice.IsZero() {
		t.Errorf("limit price should be unset, got %s", cfg.Snipe.LimitPrice)
	}
	if cfg.Snipe.PriceSource != "ws" {
		t.Errorf("unexpected price source: %s", cfg.Snipe.PriceSource)
	}
	if cfg.Logging.Dir != "logs" {
		t.Errorf("expected default log dir, got %s", cfg.Logging.Dir)
	}

	params := cfg.SnipeParams()
	if params.PollInterval != 500*time.Millisecond {
		t.Errorf("unexpected poll interval: %s", params.PollInterval)
	}
	if params.MaxRetries != domain.DefaultMaxRetries {
		t.Errorf("expected default retries, got %d", params.MaxRetries)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SNIPE_OKX_KEY", "env-key")
	t.Setenv("SNIPE_OKX_SECRET", "env-secret")
	t.Setenv("SNIPE_OKX_PASSPHRASE", "env-pass")
	t.Setenv("SNIPE_OKX_PROXY", "http://10.0.0.1:8080")

	cfg, err := LoadConfig(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.API.OKX.AccessKey != "env-key" {
		t.Errorf("expected env key override, got %s", cfg.API.OKX.AccessKey)
	}
	if cfg.API.OKX.SecretKey != "env-secret" {
		t.Errorf("expected env secret override, got %s", cfg.API.OKX.SecretKey)
	}
	if cfg.API.OKX.Passphrase != "env-pass" {
		t.Errorf("expected env passphrase override, got %s", cfg.API.OKX.Passphrase)
	}
	if cfg.API.OKX.Proxy != "http://10.0.0.1:8080" {
		t.Errorf("expected env proxy override, got %s", cfg.API.OKX.Proxy)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadConfig_InvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "trading:\n  mode: yolo\nsnipe:\n  symbol: ETH/USDT\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "trading.mode" {
		t.Errorf("unexpected field: %s", cfgErr.Field)
	}
}

func TestConfig_RealModeWSDefault(t *testing.T) {
	cfg := &Config{}
	cfg.Trading.Mode = "real"
	cfg.Snipe.Symbol = "ETH/USDT"
	cfg.applyDefaults()

	if cfg.IsSandbox() {
		t.Error("REAL mode must not use the sandbox")
	}
	if cfg.API.OKX.WSURL != "wss://ws.okx.com:8443/ws/v5/public" {
		t.Errorf("unexpected live WS URL: %s", cfg.API.OKX.WSURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}
