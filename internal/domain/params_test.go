package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSnipeParams_Defaults(t *testing.T) {
	p := SnipeParams{OrderType: " LIMIT "}
	p.Defaults()

	if p.PollInterval != time.Second {
		t.Errorf("Expected 1s poll interval, got %s", p.PollInterval)
	}
	if p.MaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", p.MaxRetries)
	}
	if p.OrderType != ModeLimit {
		t.Errorf("Expected normalized order type 'limit', got %q", p.OrderType)
	}

	empty := SnipeParams{}
	empty.Defaults()
	if empty.OrderType != ModeMarket {
		t.Errorf("Expected market as default order type, got %q", empty.OrderType)
	}
}

func TestSnipeParams_Validate(t *testing.T) {
	d := decimal.RequireFromString

	t.Run("market with max price", func(t *testing.T) {
		p := SnipeParams{Symbol: "ETH/USDT", QuoteAmount: d("100"), OrderType: ModeMarket, MaxPrice: d("3000")}
		derived, err := p.Validate()
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if derived {
			t.Error("Max price should not be derived when set")
		}
	})

	t.Run("market without max price", func(t *testing.T) {
		p := SnipeParams{Symbol: "ETH/USDT", QuoteAmount: d("100"), OrderType: ModeMarket}
		if _, err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Expected ErrInvalidParams, got %v", err)
		}
	})

	t.Run("limit derives max price", func(t *testing.T) {
		p := SnipeParams{Symbol: "ETH/USDT", QuoteAmount: d("50"), OrderType: ModeLimit, LimitPrice: d("2100")}
		derived, err := p.Validate()
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if !derived {
			t.Error("Expected max price to be derived")
		}
		if !p.MaxPrice.Equal(d("2121")) {
			t.Errorf("Expected max price 2121, got %s", p.MaxPrice)
		}
	})

	t.Run("limit without limit price", func(t *testing.T) {
		p := SnipeParams{Symbol: "ETH/USDT", QuoteAmount: d("50"), OrderType: ModeLimit, MaxPrice: d("2200")}
		if _, err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Expected ErrInvalidParams, got %v", err)
		}
	})

	t.Run("missing symbol", func(t *testing.T) {
		p := SnipeParams{QuoteAmount: d("50"), OrderType: ModeMarket, MaxPrice: d("1")}
		if _, err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Expected ErrInvalidParams, got %v", err)
		}
	})

	t.Run("zero budget", func(t *testing.T) {
		p := SnipeParams{Symbol: "ETH/USDT", OrderType: ModeMarket, MaxPrice: d("1")}
		if _, err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Expected ErrInvalidParams, got %v", err)
		}
	})

	t.Run("malformed symbol", func(t *testing.T) {
		p := SnipeParams{Symbol: "ETHUSDT", QuoteAmount: d("50"), OrderType: ModeMarket, MaxPrice: d("1")}
		if _, err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Expected ErrInvalidParams, got %v", err)
		}
	})

	t.Run("unknown order type", func(t *testing.T) {
		p := SnipeParams{Symbol: "ETH/USDT", QuoteAmount: d("50"), OrderType: "stop", MaxPrice: d("1")}
		if _, err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Expected ErrInvalidParams, got %v", err)
		}
	})
}
