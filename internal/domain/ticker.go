package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a point-in-time quote for a single market
type Ticker struct {
	Symbol    string          `json:"symbol"` // Unified symbol (e.g., "ETH/USDT")
	Last      decimal.Decimal `json:"last"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Timestamp time.Time       `json:"timestamp"`
}

// IsValid reports whether the ticker carries a usable last price
func (t Ticker) IsValid() bool {
	return t.Last.IsPositive()
}

// Age returns how old the ticker is relative to now.
func (t Ticker) Age(now time.Time) time.Duration {
	if t.Timestamp.IsZero() {
		return 0
	}
	return now.Sub(t.Timestamp)
}
