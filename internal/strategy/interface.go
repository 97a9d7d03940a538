package strategy

import (
	"snipe_go/internal/domain"
)

// ActionType defines the type of trading action
type ActionType int

const (
	ActionHold ActionType = iota
	ActionBuy
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	default:
		return "UNKNOWN"
	}
}

// Strategy decides, per price update, whether the bot should buy now.
// It is called synchronously by the Sniper loop.
type Strategy interface {
	Evaluate(ticker domain.Ticker) ActionType
}
