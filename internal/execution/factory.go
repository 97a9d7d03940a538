package execution

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"snipe_go/internal/domain"
	"snipe_go/internal/infra"
	"snipe_go/internal/infra/okx"

	"github.com/shopspring/decimal"
)

// PaperStartingBalance is the virtual quote balance of a PAPER run.
var PaperStartingBalance = decimal.NewFromInt(10_000)

// paperExchange reads market data from the exchange and simulates the account.
type paperExchange struct {
	domain.MarketDataProvider
	*PaperExecution
}

// ExecutionFactory creates the exchange surface for the configured mode
type ExecutionFactory struct {
	config *infra.Config
	client *okx.Client
}

// NewExecutionFactory creates a new factory
func NewExecutionFactory(cfg *infra.Config, client *okx.Client) *ExecutionFactory {
	return &ExecutionFactory{config: cfg, client: client}
}

// CreateExchange returns the domain.Exchange for the trading mode.
func (f *ExecutionFactory) CreateExchange() (domain.Exchange, error) {
	mode := strings.ToUpper(f.config.Trading.Mode)

	slog.Info("Initializing Execution System", "mode", mode)

	switch mode {
	case infra.ModePaper:
		paper := NewPaperExecution(f.client)
		if quote := domain.QuoteCurrency(f.config.Snipe.Symbol); quote != "" {
			paper.Deposit(quote, PaperStartingBalance)
		}
		return &paperExchange{MarketDataProvider: f.client, PaperExecution: paper}, nil

	case infra.ModeDemo:
		if !f.client.HasCredentials() {
			return nil, &domain.ConfigError{Field: "api.okx", Err: errors.New("DEMO mode requires demo trading API keys")}
		}
		slog.Info("Connecting to OKX DEMO (simulated trading)")
		return f.client, nil

	case infra.ModeReal:
		// SAFETY LATCH
		if os.Getenv("CONFIRM_REAL_MONEY") != "true" {
			err := fmt.Errorf("SAFETY_GUARD: Real trading requires 'CONFIRM_REAL_MONEY=true' environment variable")
			slog.Error(err.Error())
			return nil, err
		}
		if !f.client.HasCredentials() {
			return nil, &domain.ConfigError{Field: "api.okx", Err: errors.New("REAL mode requires API keys")}
		}
		slog.Warn("Connecting to OKX REAL (mainnet)")
		return f.client, nil

	default:
		return nil, fmt.Errorf("unknown execution mode: %s", mode)
	}
}
