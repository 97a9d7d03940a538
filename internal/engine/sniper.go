package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"snipe_go/internal/domain"
	"snipe_go/internal/execution"
	"snipe_go/internal/infra"
	"snipe_go/internal/strategy"

	"github.com/shopspring/decimal"
)

// defaultMinAmount is shown and enforced when the market publishes no minimum size.
var defaultMinAmount = decimal.RequireFromString("0.0001")

// MarketCatalog loads the tradable markets.
type MarketCatalog interface {
	Load(ctx context.Context) (map[string]*domain.Market, error)
}

// Sniper is the single sequential control loop: poll price, compare, buy once, exit.
type Sniper struct {
	params      domain.SnipeParams
	exchange    domain.Exchange
	catalog     MarketCatalog
	prices      domain.PriceSource
	metrics     *infra.Metrics
	environment string
	logger      *slog.Logger

	order *domain.Order
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSniper creates a new Sniper. metrics may be nil.
func NewSniper(params domain.SnipeParams, exchange domain.Exchange, catalog MarketCatalog, prices domain.PriceSource, metrics *infra.Metrics, environment string) *Sniper {
	return &Sniper{
		params:      params,
		exchange:    exchange,
		catalog:     catalog,
		prices:      prices,
		metrics:     metrics,
		environment: environment,
		logger:      slog.Default().With("module", "sniper"),
		sleep:       sleepContext,
	}
}

// Order returns the order placed by Run, nil until one succeeds.
func (s *Sniper) Order() *domain.Order {
	return s.order
}

// Run validates the setup and polls until an order is placed, a fatal error occurs
// or ctx is cancelled. Cancellation returns the context error.
func (s *Sniper) Run(ctx context.Context) error {
	s.logger.Info("Loading markets...")
	markets, err := s.catalog.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return s.interrupted(ctx)
		}
		s.logger.Error("Failed to load markets", slog.Any("error", err))
		return fmt.Errorf("load markets: %w", err)
	}
	s.logger.Info("Markets loaded", slog.Int("count", len(markets)))

	params := s.params
	params.Defaults()
	derived, err := params.Validate()
	if err != nil {
		s.logger.Error("Invalid parameters", slog.Any("error", err))
		return err
	}
	if derived {
		s.logger.Info("Max price not set, derived from limit price",
			slog.String("limit_price", params.LimitPrice.String()),
			slog.String("max_price", params.MaxPrice.String()),
		)
	}

	market, ok := markets[params.Symbol]
	if !ok {
		s.logger.Error("Trading pair not listed", slog.String("symbol", params.Symbol))
		return fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, params.Symbol)
	}

	minAmount := market.MinAmountOr(defaultMinAmount)
	if market.MinCost.IsPositive() && params.QuoteAmount.LessThan(market.MinCost) {
		s.logger.Error("Budget below market minimum cost",
			slog.String("quote_amount", params.QuoteAmount.String()),
			slog.String("min_cost", market.MinCost.String()),
		)
		return fmt.Errorf("%w: %s < %s", domain.ErrBelowMinCost, params.QuoteAmount, market.MinCost)
	}

	s.logBanner(params, market, minAmount)

	buyer := execution.NewBuyer(s.exchange, params, s.metrics)
	strat := strategy.NewCeilingStrategy(params.MaxPrice)

	retries := 0
	for {
		if ctx.Err() != nil {
			return s.interrupted(ctx)
		}

		done, err := s.poll(ctx, params, market, buyer, strat, &retries)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupted(ctx)
			}
			return err
		}
		if done {
			return nil
		}

		if err := s.sleep(ctx, params.PollInterval); err != nil {
			return s.interrupted(ctx)
		}
	}
}

// poll runs one iteration. It returns done once an order is placed and a non-nil error
// only when the run must stop. Panics are logged and the loop continues.
func (s *Sniper) poll(ctx context.Context, params domain.SnipeParams, market *domain.Market, buyer *execution.Buyer, strat strategy.Strategy, retries *int) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Unexpected error in run loop", slog.Any("panic", r))
			s.metrics.RecordError()
			done, err = false, nil
		}
	}()

	price, err := s.prices.LatestPrice(ctx, params.Symbol)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		*retries++
		s.metrics.RecordPoll(false)
		if *retries >= params.MaxRetries {
			s.logger.Error("Price fetch failed too many times, aborting",
				slog.Int("retries", *retries),
				slog.Any("error", err),
			)
			return false, fmt.Errorf("%w: %d consecutive failures: %v", domain.ErrPriceUnavailable, *retries, err)
		}
		s.logger.Warn(fmt.Sprintf("Price fetch failed (%d/%d)", *retries, params.MaxRetries),
			slog.Any("error", err),
			slog.Bool("retriable", domain.IsRetriable(err)),
		)
		return false, nil
	}

	s.metrics.RecordPoll(true)
	s.metrics.RecordPrice(params.Symbol, price)
	s.logger.Info("Current price",
		slog.String("symbol", params.Symbol),
		slog.String("price", price.String()),
		slog.String("max_price", params.MaxPrice.String()),
	)

	ticker := domain.Ticker{Symbol: params.Symbol, Last: price, Timestamp: time.Now()}
	if strat.Evaluate(ticker) == strategy.ActionBuy {
		s.logger.Info("Price condition met, placing order", slog.String("price", price.String()))
		order, err := buyer.PlaceOrder(ctx, market)
		if err == nil {
			s.order = order
			s.logger.Info("Purchase completed", slog.String("order_id", order.ID))
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.logger.Warn("Order not placed, continue monitoring",
			slog.Any("error", err),
			slog.Bool("retriable", domain.IsRetriable(err)),
		)
	} else {
		s.logger.Info("Price above ceiling, waiting",
			slog.String("price", price.String()),
			slog.String("max_price", params.MaxPrice.String()),
		)
	}

	*retries = 0
	return false, nil
}

func (s *Sniper) logBanner(params domain.SnipeParams, market *domain.Market, minAmount decimal.Decimal) {
	rule := strings.Repeat("-", 50)
	limitPrice := "N/A"
	if params.IsLimit() {
		limitPrice = params.LimitPrice.String()
	}
	minCost := "N/A"
	if market.MinCost.IsPositive() {
		minCost = market.MinCost.String()
	}

	s.logger.Info(rule)
	s.logger.Info("Snipe bot started",
		slog.String("symbol", params.Symbol),
		slog.String("environment", s.environment),
		slog.String("order_type", params.OrderType),
		slog.String("quote_amount", params.QuoteAmount.String()),
		slog.String("min_cost", minCost),
		slog.String("min_amount", minAmount.String()),
		slog.String("limit_price", limitPrice),
		slog.String("max_price", params.MaxPrice.String()),
	)
	s.logger.Info(rule)
}

func (s *Sniper) interrupted(ctx context.Context) error {
	s.logger.Info("Snipe bot interrupted")
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsInterrupted reports whether err came from cancellation rather than a failure.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
