package execution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"snipe_go/internal/domain"
	"snipe_go/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// defaultCalcMinAmount floors the computed quantity when the market publishes no minimum.
	defaultCalcMinAmount = decimal.RequireFromString("0.01")
	// defaultCheckMinAmount is the minimum accepted quantity when the market publishes none.
	defaultCheckMinAmount = decimal.RequireFromString("0.0001")
)

const amountPrecision = 4

// Buyer places the single buy order of a run.
type Buyer struct {
	exchange domain.Exchange
	params   domain.SnipeParams
	metrics  *infra.Metrics
	logger   *slog.Logger
	newID    func() string
}

// NewBuyer creates a Buyer. metrics may be nil.
func NewBuyer(exchange domain.Exchange, params domain.SnipeParams, metrics *infra.Metrics) *Buyer {
	return &Buyer{
		exchange: exchange,
		params:   params,
		metrics:  metrics,
		logger:   slog.Default().With("module", "buyer"),
		newID:    newClientOrderID,
	}
}

// newClientOrderID returns an id accepted by OKX clOrdId (alphanumeric, up to 32 chars).
func newClientOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CalculateBuyAmount converts the quote budget into a base quantity at price.
// The result is floored at the market minimum (0.01 when unknown) and rounded to 4 places.
func (b *Buyer) CalculateBuyAmount(market *domain.Market, price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("calculate amount: non-positive price %s", price)
	}

	amount := b.params.QuoteAmount.Div(price)
	amount = decimal.Max(amount, market.MinAmountOr(defaultCalcMinAmount))
	return amount.Round(amountPrecision), nil
}

// CheckBalance reports whether the free quote balance covers the budget.
// A failed balance fetch counts as not enough.
func (b *Buyer) CheckBalance(ctx context.Context) bool {
	quote := domain.QuoteCurrency(b.params.Symbol)

	balances, err := b.exchange.FetchBalance(ctx)
	if err != nil {
		b.logger.Error("Failed to fetch balance", slog.Any("error", err))
		b.metrics.RecordError()
		return false
	}

	available := balances.Free(quote)
	b.logger.Info("Balance check",
		slog.String("currency", quote),
		slog.String("available", available.String()),
		slog.String("required", b.params.QuoteAmount.String()),
	)

	if !balances.Covers(quote, b.params.QuoteAmount) {
		b.logger.Warn("Insufficient balance",
			slog.String("currency", quote),
			slog.String("available", available.String()),
			slog.String("required", b.params.QuoteAmount.String()),
		)
		return false
	}
	return true
}

// PlaceOrder runs the balance check, sizes the order and submits it.
func (b *Buyer) PlaceOrder(ctx context.Context, market *domain.Market) (*domain.Order, error) {
	if !b.CheckBalance(ctx) {
		return nil, domain.ErrInsufficientBalance
	}

	var price decimal.Decimal
	if b.params.IsLimit() {
		price = b.params.LimitPrice
	} else {
		tk, err := b.exchange.FetchTicker(ctx, b.params.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
		}
		if !tk.IsValid() {
			return nil, fmt.Errorf("%w: empty ticker for %s", domain.ErrPriceUnavailable, b.params.Symbol)
		}
		price = tk.Last
	}

	amount, err := b.CalculateBuyAmount(market, price)
	if err != nil {
		return nil, err
	}

	minAmount := market.MinAmountOr(defaultCheckMinAmount)
	if amount.LessThan(minAmount) {
		b.logger.Error("Order amount below market minimum",
			slog.String("amount", amount.String()),
			slog.String("min_amount", minAmount.String()),
		)
		return nil, fmt.Errorf("%w: %s < %s", domain.ErrBelowMinAmount, amount, minAmount)
	}

	params := domain.DefaultBuyParams(b.newID())
	orderType := domain.OrderTypeMarket
	var order *domain.Order
	if b.params.IsLimit() {
		orderType = domain.OrderTypeLimit
		b.logger.Info("Placing limit buy order",
			slog.String("symbol", b.params.Symbol),
			slog.String("amount", amount.String()),
			slog.String("price", price.String()),
		)
		order, err = b.exchange.CreateLimitBuyOrder(ctx, b.params.Symbol, amount, price, params)
	} else {
		b.logger.Info("Placing market buy order",
			slog.String("symbol", b.params.Symbol),
			slog.String("amount", amount.String()),
			slog.String("cost", b.params.QuoteAmount.String()),
		)
		order, err = b.exchange.CreateMarketBuyOrder(ctx, b.params.Symbol, amount, b.params.QuoteAmount, params)
	}

	if err != nil {
		b.metrics.RecordOrder(orderType, false)
		b.logger.Error("Order placement failed",
			slog.Any("error", err),
			slog.Bool("retriable", domain.IsRetriable(err)),
		)
		return nil, fmt.Errorf("place order: %w", err)
	}

	b.metrics.RecordOrder(orderType, true)
	b.logger.Info("Order placed successfully")
	b.logger.Info("order details",
		slog.String("id", order.ID),
		slog.String("client_id", order.ClientOrderID),
		slog.String("symbol", order.Symbol),
		slog.String("type", order.Type),
		slog.String("amount", order.Amount.String()),
		slog.String("price", order.Price.String()),
		slog.String("cost", order.Cost.String()),
		slog.String("status", order.Status),
	)
	return order, nil
}
