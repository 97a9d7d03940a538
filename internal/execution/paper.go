package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"snipe_go/internal/domain"

	"github.com/shopspring/decimal"
)

// PaperExecution simulates order execution with virtual balances.
// Prices come from the real market data provider; nothing is sent to the exchange.
type PaperExecution struct {
	market   domain.MarketDataProvider
	balances map[string]decimal.Decimal
	seq      int
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewPaperExecution creates a new paper trading executor.
func NewPaperExecution(market domain.MarketDataProvider) *PaperExecution {
	return &PaperExecution{
		market:   market,
		balances: make(map[string]decimal.Decimal),
		logger:   slog.Default().With("module", "paper"),
	}
}

// Deposit adds funds to the virtual account.
func (p *PaperExecution) Deposit(currency string, amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[currency] = p.balances[currency].Add(amount)
}

// FetchBalance returns the virtual balances.
func (p *PaperExecution) FetchBalance(ctx context.Context) (domain.Balances, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(domain.Balances, len(p.balances))
	for ccy, amt := range p.balances {
		out[ccy] = domain.Balance{Currency: ccy, Free: amt, Total: amt}
	}
	return out, nil
}

// CreateMarketBuyOrder fills immediately at the current last price.
func (p *PaperExecution) CreateMarketBuyOrder(ctx context.Context, symbol string, amount, cost decimal.Decimal, params domain.OrderParams) (*domain.Order, error) {
	tk, err := p.market.FetchTicker(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("paper: %w", err)
	}
	if !tk.IsValid() {
		return nil, fmt.Errorf("paper: %w: no price for %s", domain.ErrPriceUnavailable, symbol)
	}

	price := tk.Last
	if params.TargetCcy == domain.TargetCcyQuote && cost.IsPositive() {
		amount = cost.Div(price)
	} else {
		cost = amount.Mul(price)
	}

	return p.fill(symbol, domain.OrderTypeMarket, amount, price, cost, params)
}

// CreateLimitBuyOrder fills immediately at the limit price.
func (p *PaperExecution) CreateLimitBuyOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, params domain.OrderParams) (*domain.Order, error) {
	return p.fill(symbol, domain.OrderTypeLimit, amount, price, amount.Mul(price), params)
}

func (p *PaperExecution) fill(symbol, orderType string, amount, price, cost decimal.Decimal, params domain.OrderParams) (*domain.Order, error) {
	base, quote, err := domain.ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[quote].LessThan(cost) {
		return nil, fmt.Errorf("paper: %w: need %s %s, have %s",
			domain.ErrInsufficientBalance, cost, quote, p.balances[quote])
	}

	p.balances[quote] = p.balances[quote].Sub(cost)
	p.balances[base] = p.balances[base].Add(amount)

	p.seq++
	order := &domain.Order{
		ID:            fmt.Sprintf("paper-%d", p.seq),
		ClientOrderID: params.ClientOrderID,
		Symbol:        symbol,
		Side:          domain.SideBuy,
		Type:          orderType,
		Amount:        amount,
		Price:         price,
		Cost:          cost,
		Status:        domain.OrderStatusFilled,
		CreatedAt:     time.Now(),
		Info:          map[string]string{"mode": "paper"},
	}

	p.logger.Info("PAPER fill",
		slog.String("id", order.ID),
		slog.String("symbol", symbol),
		slog.String("type", orderType),
		slog.String("amount", amount.String()),
		slog.String("price", price.String()),
	)
	return order, nil
}
