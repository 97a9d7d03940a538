package strategy

import (
	"snipe_go/internal/domain"

	"github.com/shopspring/decimal"
)

// CeilingStrategy buys as soon as the last price is at or below MaxPrice.
type CeilingStrategy struct {
	MaxPrice decimal.Decimal
}

// NewCeilingStrategy creates a new instance.
func NewCeilingStrategy(maxPrice decimal.Decimal) *CeilingStrategy {
	return &CeilingStrategy{MaxPrice: maxPrice}
}

// Evaluate returns ActionBuy when 0 < last <= MaxPrice.
func (s *CeilingStrategy) Evaluate(ticker domain.Ticker) ActionType {
	if !ticker.IsValid() || !s.MaxPrice.IsPositive() {
		return ActionHold
	}
	if ticker.Last.LessThanOrEqual(s.MaxPrice) {
		return ActionBuy
	}
	return ActionHold
}
