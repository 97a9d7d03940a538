package domain

import (
	"errors"
	"testing"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		name      string
		symbol    string
		wantBase  string
		wantQuote string
		wantErr   bool
	}{
		{"standard", "ETH/USDT", "ETH", "USDT", false},
		{"lowercase", "btc/usdc", "BTC", "USDC", false},
		{"dash form", "ETH-USDT", "", "", true},
		{"missing quote", "ETH/", "", "", true},
		{"empty", "", "", "", true},
		{"too many parts", "A/B/C", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, quote, err := ParseSymbol(tt.symbol)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSymbol) {
					t.Fatalf("ParseSymbol(%q) err = %v, want ErrInvalidSymbol", tt.symbol, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSymbol(%q) unexpected error: %v", tt.symbol, err)
			}
			if base != tt.wantBase || quote != tt.wantQuote {
				t.Errorf("ParseSymbol(%q) = %s,%s want %s,%s", tt.symbol, base, quote, tt.wantBase, tt.wantQuote)
			}
		})
	}
}

func TestQuoteCurrency(t *testing.T) {
	if got := QuoteCurrency("ETH/USDT"); got != "USDT" {
		t.Errorf("QuoteCurrency = %s, want USDT", got)
	}
	if got := QuoteCurrency("garbage"); got != "" {
		t.Errorf("QuoteCurrency(garbage) = %q, want empty", got)
	}
}
