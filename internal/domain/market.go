package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market holds the trading rules of a single spot instrument.
// It doubles as the gorm model for the local market cache.
type Market struct {
	Symbol    string          `gorm:"primaryKey" json:"symbol"` // Unified symbol (e.g., "ETH/USDT")
	InstID    string          `gorm:"index" json:"inst_id"`     // Exchange instrument id (e.g., "ETH-USDT")
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	MinAmount decimal.Decimal `gorm:"type:text" json:"min_amount"` // Minimum order size in base currency, zero if unknown
	MinCost   decimal.Decimal `gorm:"type:text" json:"min_cost"`   // Minimum order cost in quote currency, zero if unknown
	LotSize   decimal.Decimal `gorm:"type:text" json:"lot_size"`
	TickSize  decimal.Decimal `gorm:"type:text" json:"tick_size"`
	Active    bool            `gorm:"index" json:"active"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MinAmountOr returns the minimum order size, or def when the exchange did not publish one.
func (m *Market) MinAmountOr(def decimal.Decimal) decimal.Decimal {
	if m == nil || !m.MinAmount.IsPositive() {
		return def
	}
	return m.MinAmount
}
