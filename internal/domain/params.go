package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// ModeMarket buys at market for the quote budget.
	ModeMarket = "market"
	// ModeLimit rests a buy at LimitPrice.
	ModeLimit = "limit"

	// DefaultPollInterval is the sleep between price polls.
	DefaultPollInterval = 1 * time.Second
	// DefaultMaxRetries is the number of consecutive price fetch failures that ends a run.
	DefaultMaxRetries = 3
)

// limitCeilingFactor derives a price ceiling from the limit price when none is given.
var limitCeilingFactor = decimal.RequireFromString("1.01")

// SnipeParams is the transient purchase configuration of a single run.
type SnipeParams struct {
	Symbol       string          // Unified symbol, e.g. "ETH/USDT"
	QuoteAmount  decimal.Decimal // Budget in quote currency
	OrderType    string          // "market" or "limit"
	LimitPrice   decimal.Decimal // Required for limit orders
	MaxPrice     decimal.Decimal // Price ceiling; buy only when price <= MaxPrice
	PollInterval time.Duration
	MaxRetries   int // Consecutive price fetch failures before giving up
}

// Defaults fills zero-valued loop settings.
func (p *SnipeParams) Defaults() {
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	p.OrderType = strings.ToLower(strings.TrimSpace(p.OrderType))
	if p.OrderType == "" {
		p.OrderType = ModeMarket
	}
}

// Validate checks the parameters and derives MaxPrice for limit orders when unset.
// It returns true when MaxPrice was derived.
func (p *SnipeParams) Validate() (derived bool, err error) {
	if p.Symbol == "" || !p.QuoteAmount.IsPositive() {
		return false, fmt.Errorf("%w: symbol and quote amount are required", ErrInvalidParams)
	}
	if _, _, err := ParseSymbol(p.Symbol); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	switch p.OrderType {
	case ModeMarket, ModeLimit:
	default:
		return false, fmt.Errorf("%w: unknown order type %q", ErrInvalidParams, p.OrderType)
	}

	if p.OrderType == ModeLimit && !p.LimitPrice.IsPositive() {
		return false, fmt.Errorf("%w: limit orders require a limit price", ErrInvalidParams)
	}

	if !p.MaxPrice.IsPositive() {
		if p.OrderType != ModeLimit {
			return false, fmt.Errorf("%w: market orders require a max price", ErrInvalidParams)
		}
		p.MaxPrice = p.LimitPrice.Mul(limitCeilingFactor)
		derived = true
	}

	return derived, nil
}

// IsLimit reports whether the run places a limit order.
func (p *SnipeParams) IsLimit() bool {
	return p.OrderType == ModeLimit
}
