package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"snipe_go/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the bot to the exchange
	DefaultUserAgent = "snipe-go/1.0"

	// Trading modes
	ModePaper = "PAPER"
	ModeDemo  = "DEMO"
	ModeReal  = "REAL"
)

// Config holds every setting of the application.
// Secrets loaded from the file are overridden by environment variables (and .env).
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode string `yaml:"mode"` // PAPER, DEMO, REAL
	} `yaml:"trading"`

	API struct {
		OKX struct {
			RestURL         string `yaml:"rest_url"`
			WSURL           string `yaml:"ws_url"`
			AccessKey       string `yaml:"access_key"`
			SecretKey       string `yaml:"secret_key"`
			Passphrase      string `yaml:"passphrase"`
			Proxy           string `yaml:"proxy"`
			TimeoutMS       int    `yaml:"timeout_ms"`
			RateLimitPerSec int    `yaml:"rate_limit_per_sec"`
		} `yaml:"okx"`
	} `yaml:"api"`

	Snipe struct {
		Symbol         string          `yaml:"symbol"`
		QuoteAmount    decimal.Decimal `yaml:"quote_amount"`
		OrderType      string          `yaml:"order_type"` // market, limit
		LimitPrice     decimal.Decimal `yaml:"limit_price"`
		MaxPrice       decimal.Decimal `yaml:"max_price"`
		PollIntervalMS int             `yaml:"poll_interval_ms"`
		MaxRetries     int             `yaml:"max_retries"`
		PriceSource    string          `yaml:"price_source"` // rest, ws
	} `yaml:"snipe"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Trading.Mode == "" {
		c.Trading.Mode = ModeDemo
	}
	c.Trading.Mode = strings.ToUpper(c.Trading.Mode)
	if c.API.OKX.RestURL == "" {
		c.API.OKX.RestURL = "https://www.okx.com"
	}
	if c.API.OKX.WSURL == "" {
		if c.Trading.Mode == ModeReal {
			c.API.OKX.WSURL = "wss://ws.okx.com:8443/ws/v5/public"
		} else {
			c.API.OKX.WSURL = "wss://wspap.okx.com:8443/ws/v5/public"
		}
	}
	if c.API.OKX.TimeoutMS <= 0 {
		c.API.OKX.TimeoutMS = 30000
	}
	if c.API.OKX.RateLimitPerSec <= 0 {
		c.API.OKX.RateLimitPerSec = 10
	}
	if c.Snipe.PriceSource == "" {
		c.Snipe.PriceSource = "rest"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.Trading.Mode {
	case ModePaper, ModeDemo, ModeReal:
	default:
		return &domain.ConfigError{Field: "trading.mode", Err: fmt.Errorf("unknown mode %q", c.Trading.Mode)}
	}

	if !hasPrefix(c.API.OKX.RestURL, "http://") && !hasPrefix(c.API.OKX.RestURL, "https://") {
		return &domain.ConfigError{Field: "api.okx.rest_url", Err: fmt.Errorf("invalid URL %q", c.API.OKX.RestURL)}
	}
	if !hasPrefix(c.API.OKX.WSURL, "ws://") && !hasPrefix(c.API.OKX.WSURL, "wss://") {
		return &domain.ConfigError{Field: "api.okx.ws_url", Err: fmt.Errorf("invalid URL %q", c.API.OKX.WSURL)}
	}

	switch c.Snipe.PriceSource {
	case "rest", "ws":
	default:
		return &domain.ConfigError{Field: "snipe.price_source", Err: fmt.Errorf("must be rest or ws, got %q", c.Snipe.PriceSource)}
	}

	if c.Snipe.Symbol == "" {
		return &domain.ConfigError{Field: "snipe.symbol", Err: errors.New("required")}
	}

	return nil
}

// SnipeParams converts the snipe section into run parameters.
func (c *Config) SnipeParams() domain.SnipeParams {
	p := domain.SnipeParams{
		Symbol:       c.Snipe.Symbol,
		QuoteAmount:  c.Snipe.QuoteAmount,
		OrderType:    c.Snipe.OrderType,
		LimitPrice:   c.Snipe.LimitPrice,
		MaxPrice:     c.Snipe.MaxPrice,
		PollInterval: time.Duration(c.Snipe.PollIntervalMS) * time.Millisecond,
		MaxRetries:   c.Snipe.MaxRetries,
	}
	p.Defaults()
	return p
}

// IsSandbox reports whether requests should go to the exchange's simulated environment.
func (c *Config) IsSandbox() bool {
	return c.Trading.Mode != ModeReal
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv overrides secrets with environment variables when present.
func overrideWithEnv(cfg *Config) {
	if cfg.API.OKX.SecretKey != "" || cfg.API.OKX.Passphrase != "" {
		slog.Warn("API secrets found in config file; prefer SNIPE_OKX_KEY, SNIPE_OKX_SECRET, SNIPE_OKX_PASSPHRASE")
	}

	if key := os.Getenv("SNIPE_OKX_KEY"); key != "" {
		cfg.API.OKX.AccessKey = key
	}
	if secret := os.Getenv("SNIPE_OKX_SECRET"); secret != "" {
		cfg.API.OKX.SecretKey = secret
	}
	if pass := os.Getenv("SNIPE_OKX_PASSPHRASE"); pass != "" {
		cfg.API.OKX.Passphrase = pass
	}
	if proxy := os.Getenv("SNIPE_OKX_PROXY"); proxy != "" {
		cfg.API.OKX.Proxy = proxy
	}
}
