package infra

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics collects bot counters on a private prometheus registry.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	pricePolls  *prometheus.CounterVec // result: ok, error
	orders      *prometheus.CounterVec // type, result
	lastPrice   *prometheus.GaugeVec   // symbol
	errorsTotal prometheus.Counter
}

// NewMetrics creates and registers the bot metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pricePolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "snipe_price_polls_total", Help: "Price polls by result"},
			[]string{"result"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "snipe_orders_total", Help: "Buy orders submitted by type and result"},
			[]string{"type", "result"},
		),
		lastPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "snipe_last_price", Help: "Last observed price"},
			[]string{"symbol"},
		),
		errorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "snipe_errors_total", Help: "Errors observed by the run loop"},
		),
	}
	m.registry.MustRegister(m.pricePolls, m.orders, m.lastPrice, m.errorsTotal)
	return m
}

// Registry exposes the underlying registry (for tests and custom handlers).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordPoll records the outcome of a price poll.
func (m *Metrics) RecordPoll(ok bool) {
	if m == nil {
		return
	}
	m.pricePolls.WithLabelValues(result(ok)).Inc()
}

// RecordPrice stores the last observed price for symbol.
func (m *Metrics) RecordPrice(symbol string, price decimal.Decimal) {
	if m == nil {
		return
	}
	m.lastPrice.WithLabelValues(symbol).Set(price.InexactFloat64())
}

// RecordOrder records a buy order submission.
func (m *Metrics) RecordOrder(orderType string, ok bool) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(orderType, result(ok)).Inc()
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// Serve exposes /metrics on addr in the background.
func (m *Metrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", slog.Any("error", err))
		}
	}()
	return srv
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
