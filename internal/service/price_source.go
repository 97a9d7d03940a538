package service

import (
	"context"
	"fmt"

	"snipe_go/internal/domain"

	"github.com/shopspring/decimal"
)

// RestPriceSource polls the ticker endpoint for every price request.
type RestPriceSource struct {
	exchange domain.MarketDataProvider
}

// NewRestPriceSource creates a PriceSource backed by FetchTicker.
func NewRestPriceSource(exchange domain.MarketDataProvider) *RestPriceSource {
	return &RestPriceSource{exchange: exchange}
}

// LatestPrice returns the last traded price for symbol.
func (p *RestPriceSource) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	tk, err := p.exchange.FetchTicker(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !tk.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %s ticker has no last price", domain.ErrPriceUnavailable, symbol)
	}
	return tk.Last, nil
}
