package domain

import (
	"fmt"
	"strings"
)

// ParseSymbol splits a unified symbol such as "ETH/USDT" into base and quote.
func ParseSymbol(symbol string) (base, quote string, err error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q (expected BASE/QUOTE)", ErrInvalidSymbol, symbol)
	}
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), nil
}

// QuoteCurrency returns the quote leg of a unified symbol, or "" if malformed.
func QuoteCurrency(symbol string) string {
	_, quote, err := ParseSymbol(symbol)
	if err != nil {
		return ""
	}
	return quote
}
