package execution

import (
	"context"
	"errors"
	"testing"

	"snipe_go/internal/domain"

	"github.com/shopspring/decimal"
)

// fakeExchange records submitted orders and serves canned market data.
type fakeExchange struct {
	ticker     domain.Ticker
	tickerErr  error
	balances   domain.Balances
	balanceErr error
	orderErr   error

	marketCalls []marketCall
	limitCalls  []limitCall
}

type marketCall struct {
	symbol       string
	amount, cost decimal.Decimal
	params       domain.OrderParams
}

type limitCall struct {
	symbol        string
	amount, price decimal.Decimal
	params        domain.OrderParams
}

func (f *fakeExchange) LoadMarkets(ctx context.Context) (map[string]*domain.Market, error) {
	return nil, nil
}

func (f *fakeExchange) FetchTicker(ctx context.Context, symbol string) (domain.Ticker, error) {
	return f.ticker, f.tickerErr
}

func (f *fakeExchange) FetchBalance(ctx context.Context) (domain.Balances, error) {
	return f.balances, f.balanceErr
}

func (f *fakeExchange) CreateMarketBuyOrder(ctx context.Context, symbol string, amount, cost decimal.Decimal, params domain.OrderParams) (*domain.Order, error) {
	f.marketCalls = append(f.marketCalls, marketCall{symbol, amount, cost, params})
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &domain.Order{ID: "1", ClientOrderID: params.ClientOrderID, Symbol: symbol, Type: domain.OrderTypeMarket, Amount: amount, Cost: cost, Status: domain.OrderStatusNew}, nil
}

func (f *fakeExchange) CreateLimitBuyOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, params domain.OrderParams) (*domain.Order, error) {
	f.limitCalls = append(f.limitCalls, limitCall{symbol, amount, price, params})
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &domain.Order{ID: "2", ClientOrderID: params.ClientOrderID, Symbol: symbol, Type: domain.OrderTypeLimit, Amount: amount, Price: price, Status: domain.OrderStatusNew}, nil
}

func usdt(amount string) domain.Balances {
	d := decimal.RequireFromString(amount)
	return domain.Balances{"USDT": {Currency: "USDT", Free: d, Total: d}}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func marketParams() domain.SnipeParams {
	p := domain.SnipeParams{Symbol: "ETH/USDT", QuoteAmount: dec("100"), OrderType: domain.ModeMarket, MaxPrice: dec("2600")}
	p.Defaults()
	return p
}

func limitParams() domain.SnipeParams {
	p := domain.SnipeParams{Symbol: "ETH/USDT", QuoteAmount: dec("100"), OrderType: domain.ModeLimit, LimitPrice: dec("2100")}
	p.Defaults()
	return p
}

func newTestBuyer(ex *fakeExchange, params domain.SnipeParams) *Buyer {
	b := NewBuyer(ex, params, nil)
	b.newID = func() string { return "cid1" }
	return b
}

func TestBuyer_CalculateBuyAmount(t *testing.T) {
	ethMarket := &domain.Market{Symbol: "ETH/USDT", MinAmount: dec("0.001")}

	tests := []struct {
		name   string
		quote  string
		price  string
		market *domain.Market
		want   string
	}{
		{"BudgetOverPrice", "100", "2500", ethMarket, "0.04"},
		{"RoundedToFourPlaces", "100", "3", ethMarket, "33.3333"},
		{"FlooredAtMarketMin", "1", "2500", ethMarket, "0.001"},
		{"FlooredAtDefaultMin", "10", "2500", nil, "0.01"},
		{"DefaultMinWhenZero", "10", "2500", &domain.Market{Symbol: "ETH/USDT"}, "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := marketParams()
			p.QuoteAmount = dec(tt.quote)
			b := newTestBuyer(&fakeExchange{}, p)

			got, err := b.CalculateBuyAmount(tt.market, dec(tt.price))
			if err != nil {
				t.Fatalf("CalculateBuyAmount failed: %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBuyer_CalculateBuyAmount_InvalidPrice(t *testing.T) {
	b := newTestBuyer(&fakeExchange{}, marketParams())
	if _, err := b.CalculateBuyAmount(nil, decimal.Zero); err == nil {
		t.Error("Expected error for zero price")
	}
}

func TestBuyer_CheckBalance(t *testing.T) {
	tests := []struct {
		name string
		ex   *fakeExchange
		want bool
	}{
		{"Enough", &fakeExchange{balances: usdt("150")}, true},
		{"Exact", &fakeExchange{balances: usdt("100")}, true},
		{"NotEnough", &fakeExchange{balances: usdt("99.99")}, false},
		{"MissingCurrency", &fakeExchange{balances: domain.Balances{}}, false},
		{"FetchError", &fakeExchange{balanceErr: errors.New("boom")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuyer(tt.ex, marketParams())
			if got := b.CheckBalance(context.Background()); got != tt.want {
				t.Errorf("CheckBalance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuyer_PlaceOrder_Market(t *testing.T) {
	ex := &fakeExchange{
		balances: usdt("150"),
		ticker:   domain.Ticker{Symbol: "ETH/USDT", Last: dec("2500")},
	}
	b := newTestBuyer(ex, marketParams())

	order, err := b.PlaceOrder(context.Background(), &domain.Market{Symbol: "ETH/USDT", MinAmount: dec("0.001")})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if order.ID != "1" {
		t.Errorf("Unexpected order: %+v", order)
	}

	if len(ex.marketCalls) != 1 {
		t.Fatalf("Expected 1 market order, got %d", len(ex.marketCalls))
	}
	call := ex.marketCalls[0]
	if !call.amount.Equal(dec("0.04")) || !call.cost.Equal(dec("100")) {
		t.Errorf("Unexpected sizing: amount=%s cost=%s", call.amount, call.cost)
	}
	if call.params.TradeMode != domain.TradeModeCash || call.params.TargetCcy != domain.TargetCcyQuote || call.params.ClientOrderID != "cid1" {
		t.Errorf("Unexpected params: %+v", call.params)
	}
}

func TestBuyer_PlaceOrder_Limit(t *testing.T) {
	ex := &fakeExchange{balances: usdt("150")}
	b := newTestBuyer(ex, limitParams())

	if _, err := b.PlaceOrder(context.Background(), &domain.Market{Symbol: "ETH/USDT", MinAmount: dec("0.001")}); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	if len(ex.limitCalls) != 1 || len(ex.marketCalls) != 0 {
		t.Fatalf("Expected exactly 1 limit order, got limit=%d market=%d", len(ex.limitCalls), len(ex.marketCalls))
	}
	call := ex.limitCalls[0]
	// 100 / 2100 = 0.047619... -> 0.0476
	if !call.amount.Equal(dec("0.0476")) || !call.price.Equal(dec("2100")) {
		t.Errorf("Unexpected sizing: amount=%s price=%s", call.amount, call.price)
	}
}

func TestBuyer_PlaceOrder_Failures(t *testing.T) {
	eth := &domain.Market{Symbol: "ETH/USDT", MinAmount: dec("0.001")}

	t.Run("InsufficientBalance", func(t *testing.T) {
		ex := &fakeExchange{balances: usdt("50"), ticker: domain.Ticker{Last: dec("2500")}}
		_, err := newTestBuyer(ex, marketParams()).PlaceOrder(context.Background(), eth)
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Errorf("Expected ErrInsufficientBalance, got %v", err)
		}
		if len(ex.marketCalls) != 0 {
			t.Error("No order should be submitted")
		}
	})

	t.Run("PriceUnavailable", func(t *testing.T) {
		ex := &fakeExchange{balances: usdt("150"), tickerErr: errors.New("timeout")}
		_, err := newTestBuyer(ex, marketParams()).PlaceOrder(context.Background(), eth)
		if !errors.Is(err, domain.ErrPriceUnavailable) {
			t.Errorf("Expected ErrPriceUnavailable, got %v", err)
		}
	})

	t.Run("BelowMinAmount", func(t *testing.T) {
		// 0.01 / 1000 = 0.00001, rounds to 0 at 4 places
		p := marketParams()
		p.QuoteAmount = dec("0.01")
		ex := &fakeExchange{balances: usdt("150"), ticker: domain.Ticker{Last: dec("1000")}}
		_, err := newTestBuyer(ex, p).PlaceOrder(context.Background(), &domain.Market{Symbol: "ETH/USDT", MinAmount: dec("0.00001")})
		if !errors.Is(err, domain.ErrBelowMinAmount) {
			t.Errorf("Expected ErrBelowMinAmount, got %v", err)
		}
		if len(ex.marketCalls) != 0 {
			t.Error("No order should be submitted")
		}
	})

	t.Run("ExchangeRejects", func(t *testing.T) {
		rejection := &domain.ExchangeError{Op: "create_order", Code: "51008", Msg: "insufficient"}
		ex := &fakeExchange{balances: usdt("150"), ticker: domain.Ticker{Last: dec("2500")}, orderErr: rejection}
		_, err := newTestBuyer(ex, marketParams()).PlaceOrder(context.Background(), eth)
		var exErr *domain.ExchangeError
		if !errors.As(err, &exErr) || exErr.Code != "51008" {
			t.Errorf("Expected wrapped ExchangeError, got %v", err)
		}
	})
}

func TestNewClientOrderID(t *testing.T) {
	id := newClientOrderID()
	if len(id) != 32 {
		t.Errorf("Expected 32 chars, got %d (%s)", len(id), id)
	}
	if id == newClientOrderID() {
		t.Error("Client order ids should be unique")
	}
}
