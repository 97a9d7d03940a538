package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"snipe_go/internal/domain"
	"snipe_go/internal/infra"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Client is the OKX V5 REST API client (Boundary Layer)
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	limiter    *rate.Limiter
	sandbox    bool
	logger     *slog.Logger

	mu      sync.RWMutex
	markets map[string]*domain.Market // unified symbol -> market
}

// NewClient creates a new OKX API client.
func NewClient(cfg *infra.Config) (*Client, error) {
	transport := &http.Transport{
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}

	if cfg.API.OKX.Proxy != "" {
		proxyURL, err := url.Parse(cfg.API.OKX.Proxy)
		if err != nil {
			return nil, &domain.ConfigError{Field: "api.okx.proxy", Err: err}
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	perSec := cfg.API.OKX.RateLimitPerSec
	if perSec <= 0 {
		perSec = 10
	}

	return &Client{
		baseURL: cfg.API.OKX.RestURL,
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.API.OKX.TimeoutMS) * time.Millisecond,
			Transport: transport,
		},
		signer: NewSigner(
			cfg.API.OKX.AccessKey,
			cfg.API.OKX.SecretKey,
			cfg.API.OKX.Passphrase,
		),
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec/2+1),
		sandbox: cfg.IsSandbox(),
		logger:  slog.Default().With("module", "okx_client"),
		markets: make(map[string]*domain.Market),
	}, nil
}

// LoadMarkets fetches every SPOT instrument and caches it by unified symbol.
func (c *Client) LoadMarkets(ctx context.Context) (map[string]*domain.Market, error) {
	query := url.Values{"instType": {"SPOT"}}
	data, err := c.doRequest(ctx, "load_markets", http.MethodGet, pathInstruments, query, nil, false)
	if err != nil {
		return nil, err
	}

	var instruments []instrument
	if err := json.Unmarshal(data, &instruments); err != nil {
		return nil, fmt.Errorf("failed to parse instruments: %w", err)
	}

	now := time.Now()
	markets := make(map[string]*domain.Market, len(instruments))
	for _, inst := range instruments {
		symbol := inst.BaseCcy + "/" + inst.QuoteCcy
		markets[symbol] = &domain.Market{
			Symbol:    symbol,
			InstID:    inst.InstID,
			Base:      inst.BaseCcy,
			Quote:     inst.QuoteCcy,
			MinAmount: parseDecimal(inst.MinSz),
			LotSize:   parseDecimal(inst.LotSz),
			TickSize:  parseDecimal(inst.TickSz),
			Active:    inst.State == "live",
			UpdatedAt: now,
		}
	}

	c.PrimeMarkets(markets)
	c.logger.Info("Markets loaded", slog.Int("count", len(markets)))
	return markets, nil
}

// PrimeMarkets replaces the in-memory market table (e.g. from the local cache).
func (c *Client) PrimeMarkets(markets map[string]*domain.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markets = make(map[string]*domain.Market, len(markets))
	for k, v := range markets {
		c.markets[k] = v
	}
}

// Market returns the cached market for symbol.
func (c *Client) Market(symbol string) (*domain.Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markets[symbol]
	return m, ok
}

// HasCredentials reports whether signed endpoints can be called.
func (c *Client) HasCredentials() bool {
	return c.signer.HasCredentials()
}

func (c *Client) instID(symbol string) string {
	if m, ok := c.Market(symbol); ok && m.InstID != "" {
		return m.InstID
	}
	return ToInstID(symbol)
}

// FetchTicker returns the latest ticker for symbol.
func (c *Client) FetchTicker(ctx context.Context, symbol string) (domain.Ticker, error) {
	query := url.Values{"instId": {c.instID(symbol)}}
	data, err := c.doRequest(ctx, "fetch_ticker", http.MethodGet, pathTicker, query, nil, false)
	if err != nil {
		return domain.Ticker{}, err
	}

	var tickers []tickerData
	if err := json.Unmarshal(data, &tickers); err != nil {
		return domain.Ticker{}, fmt.Errorf("failed to parse ticker: %w", err)
	}
	if len(tickers) == 0 {
		return domain.Ticker{}, fmt.Errorf("fetch_ticker: %w: empty response for %s", domain.ErrSymbolNotFound, symbol)
	}

	tk := tickers[0]
	return domain.Ticker{
		Symbol:    symbol,
		Last:      parseDecimal(tk.Last),
		Bid:       parseDecimal(tk.BidPx),
		Ask:       parseDecimal(tk.AskPx),
		Timestamp: parseMillis(tk.Ts),
	}, nil
}

// FetchBalance returns the trading account balances keyed by currency.
func (c *Client) FetchBalance(ctx context.Context) (domain.Balances, error) {
	data, err := c.doRequest(ctx, "fetch_balance", http.MethodGet, pathBalance, nil, nil, true)
	if err != nil {
		return nil, err
	}

	var accounts []balanceData
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}

	balances := make(domain.Balances)
	for _, acc := range accounts {
		for _, d := range acc.Details {
			free := parseDecimal(d.AvailBal)
			used := parseDecimal(d.FrozenBal)
			total := parseDecimal(d.CashBal)
			if total.IsZero() {
				total = free.Add(used)
			}
			balances[d.Ccy] = domain.Balance{
				Currency: d.Ccy,
				Free:     free,
				Used:     used,
				Total:    total,
			}
		}
	}
	return balances, nil
}

// CreateMarketBuyOrder submits a market buy. With TargetCcy quote_ccy the size sent is the
// quote budget (cost); otherwise the base amount is sent.
func (c *Client) CreateMarketBuyOrder(ctx context.Context, symbol string, amount, cost decimal.Decimal, params domain.OrderParams) (*domain.Order, error) {
	size := amount
	if params.TargetCcy == domain.TargetCcyQuote {
		size = cost
	}

	req := placeOrderRequest{
		InstID:  c.instID(symbol),
		TdMode:  params.TradeMode,
		Side:    "buy",
		OrdType: "market",
		Sz:      size.String(),
		TgtCcy:  params.TargetCcy,
		ClOrdID: params.ClientOrderID,
	}

	order := &domain.Order{
		ClientOrderID: params.ClientOrderID,
		Symbol:        symbol,
		Side:          domain.SideBuy,
		Type:          domain.OrderTypeMarket,
		Amount:        amount,
		Cost:          cost,
	}
	return c.placeOrder(ctx, req, order)
}

// CreateLimitBuyOrder submits a limit buy of amount (base currency) at price.
func (c *Client) CreateLimitBuyOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, params domain.OrderParams) (*domain.Order, error) {
	// tgtCcy applies to market orders only
	req := placeOrderRequest{
		InstID:  c.instID(symbol),
		TdMode:  params.TradeMode,
		Side:    "buy",
		OrdType: "limit",
		Sz:      amount.String(),
		Px:      price.String(),
		ClOrdID: params.ClientOrderID,
	}

	order := &domain.Order{
		ClientOrderID: params.ClientOrderID,
		Symbol:        symbol,
		Side:          domain.SideBuy,
		Type:          domain.OrderTypeLimit,
		Amount:        amount,
		Price:         price,
		Cost:          amount.Mul(price),
	}
	return c.placeOrder(ctx, req, order)
}

func (c *Client) placeOrder(ctx context.Context, req placeOrderRequest, order *domain.Order) (*domain.Order, error) {
	data, err := c.doRequest(ctx, "create_order", http.MethodPost, pathPlaceOrder, nil, req, true)

	// A rejected order carries its reason in data[0].sCode even when the envelope fails
	var results []placeOrderResult
	if len(data) > 0 {
		if jerr := json.Unmarshal(data, &results); jerr != nil && err == nil {
			return nil, fmt.Errorf("failed to parse order response: %w", jerr)
		}
	}
	if len(results) > 0 && results[0].SCode != "" && results[0].SCode != codeOK {
		return nil, &domain.ExchangeError{Op: "create_order", Code: results[0].SCode, Msg: results[0].SMsg}
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("create_order: empty acknowledgement")
	}

	res := results[0]
	order.ID = res.OrdID
	if res.ClOrdID != "" {
		order.ClientOrderID = res.ClOrdID
	}
	order.Status = domain.OrderStatusNew
	order.CreatedAt = time.Now()
	order.Info = map[string]string{
		"ordId":   res.OrdID,
		"clOrdId": res.ClOrdID,
		"sCode":   res.SCode,
		"sMsg":    res.SMsg,
		"instId":  req.InstID,
		"sz":      req.Sz,
		"px":      req.Px,
	}

	c.logger.Info("Order Placed Successfully",
		slog.String("ordId", res.OrdID),
		slog.String("symbol", order.Symbol),
		slog.String("type", req.OrdType),
		slog.String("sz", req.Sz),
	)
	return order, nil
}

// doRequest handles rate limiting, auth headers, serialization and the response envelope.
// On a business error it returns the raw data alongside an *domain.ExchangeError.
func (c *Client) doRequest(ctx context.Context, op, method, path string, query url.Values, body interface{}, signed bool) (json.RawMessage, error) {
	if signed && !c.signer.HasCredentials() {
		return nil, &domain.ConfigError{Field: "api.okx", Err: errors.New("credentials required for " + op)}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBytes)
		bodyStr = string(jsonBytes)
	}

	requestPath := path
	if len(query) > 0 {
		requestPath = path + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	if c.sandbox {
		req.Header.Set("x-simulated-trading", "1")
	}
	if signed {
		for k, v := range c.signer.GenerateHeaders(method, requestPath, bodyStr) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, domain.NewNetworkError(op, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(bodyBytes)))
	}

	// Non-envelope bodies (gateway pages, 4xx HTML) will not improve on retry
	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, domain.NewFatalNetworkError(op, fmt.Errorf("unexpected response status=%d body=%s", resp.StatusCode, string(bodyBytes)))
	}

	if apiResp.Code != codeOK {
		return apiResp.Data, &domain.ExchangeError{Op: op, Code: apiResp.Code, Msg: apiResp.Msg}
	}

	return apiResp.Data, nil
}
