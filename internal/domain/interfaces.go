package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketDataProvider exposes public market data
type MarketDataProvider interface {
	LoadMarkets(ctx context.Context) (map[string]*Market, error)
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
}

// AccountProvider exposes private account data
type AccountProvider interface {
	FetchBalance(ctx context.Context) (Balances, error)
}

// OrderPlacer submits buy orders. amount is the base quantity.
type OrderPlacer interface {
	CreateMarketBuyOrder(ctx context.Context, symbol string, amount decimal.Decimal, cost decimal.Decimal, params OrderParams) (*Order, error)
	CreateLimitBuyOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, params OrderParams) (*Order, error)
}

// Exchange is the full surface the bot needs from an exchange client.
type Exchange interface {
	MarketDataProvider
	AccountProvider
	OrderPlacer
}

// MarketPrimer lets a caller hand previously cached markets to an exchange client.
type MarketPrimer interface {
	PrimeMarkets(markets map[string]*Market)
}

// PriceSource yields the latest traded price for a symbol
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// MarketRepository persists market rules
type MarketRepository interface {
	UpsertMarkets(markets []*Market) error
	GetAllMarkets() ([]*Market, error)
}
