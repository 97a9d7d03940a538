package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"snipe_go/internal/domain"
	"snipe_go/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	defaultMaxTickerAge = 10 * time.Second
	// defaultWarmup bounds how long LatestPrice waits for the first push of a symbol.
	defaultWarmup = 15 * time.Second
)

// cachedTicker keeps the local receive time next to the pushed ticker.
// Staleness uses receivedAt so host clock skew does not matter.
type cachedTicker struct {
	ticker     domain.Ticker
	receivedAt time.Time
}

// TickerWorker streams the public "tickers" channel and keeps the last price per symbol.
// It implements domain.PriceSource.
type TickerWorker struct {
	url     string
	symbols map[string]string // unified -> instId (e.g., "ETH/USDT" -> "ETH-USDT")
	proxy   string
	maxAge  time.Duration
	warmup  time.Duration
	logger  *slog.Logger
	now     func() time.Time

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	stopPing  context.CancelFunc
	prices    map[string]cachedTicker
	ready     chan struct{} // closed on the first cached price
	readyOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewTickerWorker creates a worker for the given unified symbols.
func NewTickerWorker(wsURL string, symbols []string, proxyURL string) *TickerWorker {
	m := make(map[string]string, len(symbols))
	for _, s := range symbols {
		m[s] = ToInstID(s)
	}
	return &TickerWorker{
		url:     wsURL,
		symbols: m,
		proxy:   proxyURL,
		maxAge:  defaultMaxTickerAge,
		warmup:  defaultWarmup,
		logger:  slog.Default().With("module", "okx_ws"),
		now:     time.Now,
		prices:  make(map[string]cachedTicker),
		ready:   make(chan struct{}),
	}
}

// Connect starts the WebSocket connection with automatic reconnection
func (w *TickerWorker) Connect(ctx context.Context) error {
	if w.proxy != "" {
		if _, err := url.Parse(w.proxy); err != nil {
			return &domain.ConfigError{Field: "api.okx.proxy", Err: err}
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.connectionLoop(ctx)

	return nil
}

func (w *TickerWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("OKX ticker panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("OKX ticker connection loop stopped")
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			w.logger.Warn("OKX ticker connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0
		w.readLoop(ctx)
	}
}

func (w *TickerWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if w.proxy != "" {
		proxyURL, err := url.Parse(w.proxy)
		if err != nil {
			return err
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	header := make(http.Header)
	header.Add("User-Agent", infra.DefaultUserAgent)

	conn, _, err := dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	pingCtx, stopPing := context.WithCancel(ctx)

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.stopPing = stopPing
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	go w.pingLoop(pingCtx)

	w.logger.Info("OKX ticker WebSocket connected", slog.Int("symbols", len(w.symbols)))
	return nil
}

func (w *TickerWorker) subscribe() error {
	args := make([]wsArg, 0, len(w.symbols))
	for _, instID := range w.symbols {
		args = append(args, wsArg{Channel: "tickers", InstID: instID})
	}

	msgBytes, err := json.Marshal(wsRequest{Op: "subscribe", Args: args})
	if err != nil {
		return err
	}

	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

func (w *TickerWorker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

// pingLoop keeps the session alive; OKX drops connections idle for 30s.
func (w *TickerWorker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("OKX ticker pingLoop panic recovered", slog.Any("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.threadSafeWrite(websocket.TextMessage, []byte("ping")); err != nil {
				w.logger.Warn("OKX ticker ping failed", slog.Any("error", err))
			}
		}
	}
}

func (w *TickerWorker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Warn("OKX ticker read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		if string(message) == "pong" {
			continue
		}

		w.handleMessage(message)
	}
}

func (w *TickerWorker) handleMessage(message []byte) {
	var push wsPush
	if err := json.Unmarshal(message, &push); err != nil {
		return
	}

	switch push.Event {
	case "error":
		w.logger.Warn("OKX ticker subscription error",
			slog.String("code", push.Code),
			slog.String("msg", push.Msg),
		)
		return
	case "subscribe":
		w.logger.Debug("OKX ticker subscribed", slog.String("instId", push.Arg.InstID))
		return
	}

	if push.Arg.Channel != "tickers" || len(push.Data) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	received := w.now()
	for _, data := range push.Data {
		symbol := w.findUnifiedSymbol(data.InstID)
		if symbol == "" {
			continue
		}

		// Exchange ts is informational only
		ts := parseMillis(data.Ts)
		if ts.IsZero() {
			ts = received
		}

		w.prices[symbol] = cachedTicker{
			ticker: domain.Ticker{
				Symbol:    symbol,
				Last:      parseDecimal(data.Last),
				Bid:       parseDecimal(data.BidPx),
				Ask:       parseDecimal(data.AskPx),
				Timestamp: ts,
			},
			receivedAt: received,
		}
		w.readyOnce.Do(func() { close(w.ready) })
	}
}

func (w *TickerWorker) findUnifiedSymbol(instID string) string {
	for symbol, id := range w.symbols {
		if id == instID {
			return symbol
		}
	}
	return ""
}

func (w *TickerWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopPing != nil {
		w.stopPing()
		w.stopPing = nil
	}
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect closes the connection
func (w *TickerWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	w.logger.Info("OKX ticker WebSocket disconnected")
}

// IsConnected returns connection status
func (w *TickerWorker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Latest returns the cached ticker for symbol.
func (w *TickerWorker) Latest(symbol string) (domain.Ticker, bool) {
	c, ok := w.cached(symbol)
	return c.ticker, ok
}

func (w *TickerWorker) cached(symbol string) (cachedTicker, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.prices[symbol]
	return c, ok
}

// waitFirstPush blocks until the stream has delivered any price, warmup elapses or ctx ends.
func (w *TickerWorker) waitFirstPush(ctx context.Context) error {
	timer := time.NewTimer(w.warmup)
	defer timer.Stop()
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LatestPrice returns the last streamed price. Before the first push it waits up to the
// warmup period; afterwards it returns ErrPriceUnavailable when the price is missing or
// older than maxAge by local receive time.
func (w *TickerWorker) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	c, ok := w.cached(symbol)
	if !ok {
		if err := w.waitFirstPush(ctx); err != nil {
			return decimal.Zero, err
		}
		c, ok = w.cached(symbol)
	}
	if !ok || !c.ticker.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: no streamed price for %s", domain.ErrPriceUnavailable, symbol)
	}
	if age := w.now().Sub(c.receivedAt); age > w.maxAge {
		return decimal.Zero, fmt.Errorf("%w: %s price is stale (%s)", domain.ErrPriceUnavailable, symbol, age.Round(time.Millisecond))
	}
	return c.ticker.Last, nil
}
