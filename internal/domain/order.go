package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents an order acknowledged by the exchange (or the paper executor).
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Side          string          // "BUY", "SELL"
	Type          string          // "LIMIT", "MARKET"
	Amount        decimal.Decimal // Base quantity
	Price         decimal.Decimal // Limit price, or reference price for market orders
	Cost          decimal.Decimal // Quote budget committed
	Status        string          // "NEW", "PARTIALLY_FILLED", "FILLED", "CANCELED"
	CreatedAt     time.Time
	Info          map[string]string // Raw exchange acknowledgement fields
}

// OrderParams carries exchange-specific submission options.
type OrderParams struct {
	TradeMode     string // "cash" for spot
	TargetCcy     string // "quote_ccy" or "base_ccy"; only meaningful for market orders
	ClientOrderID string
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeLimit  = "LIMIT"
	OrderTypeMarket = "MARKET"

	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCanceled        = "CANCELED"

	TradeModeCash  = "cash"
	TargetCcyQuote = "quote_ccy"
)

// DefaultBuyParams returns the spot cash parameters used for every buy.
func DefaultBuyParams(clientOrderID string) OrderParams {
	return OrderParams{
		TradeMode:     TradeModeCash,
		TargetCcy:     TargetCcyQuote,
		ClientOrderID: clientOrderID,
	}
}
