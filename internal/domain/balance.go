package domain

import "github.com/shopspring/decimal"

// Balance represents the account balance of a single currency.
type Balance struct {
	Currency string          `json:"currency"`
	Free     decimal.Decimal `json:"free"`  // Available for new orders
	Used     decimal.Decimal `json:"used"`  // Locked in open orders
	Total    decimal.Decimal `json:"total"` // Free + Used
}

// Balances maps currency code -> balance
type Balances map[string]Balance

// Free returns the free amount of a currency, zero when the account holds none.
func (b Balances) Free(currency string) decimal.Decimal {
	bal, ok := b[currency]
	if !ok {
		return decimal.Zero
	}
	return bal.Free
}

// Covers reports whether the free balance of currency is at least amount.
func (b Balances) Covers(currency string, amount decimal.Decimal) bool {
	return b.Free(currency).GreaterThanOrEqual(amount)
}
