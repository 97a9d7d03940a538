package okx

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	pathInstruments = "/api/v5/public/instruments"
	pathTicker      = "/api/v5/market/ticker"
	pathBalance     = "/api/v5/account/balance"
	pathPlaceOrder  = "/api/v5/trade/order"

	codeOK = "0"

	pingInterval = 25 * time.Second
	readTimeout  = 35 * time.Second
	maxRetries   = 10
)

// apiResponse is the common V5 REST envelope
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type instrument struct {
	InstID   string `json:"instId"`
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	MinSz    string `json:"minSz"`
	LotSz    string `json:"lotSz"`
	TickSz   string `json:"tickSz"`
	State    string `json:"state"` // live, suspend, preopen
}

type tickerData struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	BidPx  string `json:"bidPx"`
	AskPx  string `json:"askPx"`
	Ts     string `json:"ts"` // ms
}

type balanceData struct {
	Details []balanceDetail `json:"details"`
}

type balanceDetail struct {
	Ccy       string `json:"ccy"`
	AvailBal  string `json:"availBal"`
	FrozenBal string `json:"frozenBal"`
	CashBal   string `json:"cashBal"`
}

type placeOrderRequest struct {
	InstID  string `json:"instId"`
	TdMode  string `json:"tdMode"`
	Side    string `json:"side"`    // buy, sell
	OrdType string `json:"ordType"` // market, limit
	Sz      string `json:"sz"`
	Px      string `json:"px,omitempty"`
	TgtCcy  string `json:"tgtCcy,omitempty"`
	ClOrdID string `json:"clOrdId,omitempty"`
}

type placeOrderResult struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// WebSocket messages
type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsRequest struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

type wsPush struct {
	Event string       `json:"event"` // subscribe, error; empty for data pushes
	Code  string       `json:"code"`
	Msg   string       `json:"msg"`
	Arg   wsArg        `json:"arg"`
	Data  []tickerData `json:"data"`
}

// =====================================================
// Helper functions
// =====================================================

// ToInstID converts "ETH/USDT" to "ETH-USDT"
func ToInstID(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", "-"))
}

// ToSymbol converts "ETH-USDT" to "ETH/USDT"
func ToSymbol(instID string) string {
	return strings.ReplaceAll(instID, "-", "/")
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
