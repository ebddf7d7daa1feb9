// Package metrics exposes Prometheus instrumentation for the trading loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"TradeSentinel/internal/model"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	CyclesTotal  prometheus.Counter
	FetchErrors  prometheus.Counter
	SignalsTotal *prometheus.CounterVec // labels: signal
	TradesTotal  *prometheus.CounterVec // labels: side

	Balance    prometheus.Gauge
	TotalValue prometheus.Gauge
	LastPrice  prometheus.Gauge
	LastRSI    prometheus.Gauge
}

// NewMetrics registers and returns all bot metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesentinel_cycles_total",
			Help: "Total scheduled market-check cycles",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesentinel_fetch_errors_total",
			Help: "Market data fetch failures",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesentinel_signals_total",
			Help: "Signals produced by the strategy (by signal)",
		}, []string{"signal"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesentinel_trades_total",
			Help: "Trades executed (by side)",
		}, []string{"side"}),
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesentinel_balance_try",
			Help: "Current cash balance in TRY",
		}),
		TotalValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesentinel_total_value_try",
			Help: "Account value including open positions in TRY",
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesentinel_last_price",
			Help: "Last observed close price",
		}),
		LastRSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesentinel_last_rsi",
			Help: "Last computed RSI value",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.FetchErrors,
		m.SignalsTotal,
		m.TradesTotal,
		m.Balance,
		m.TotalValue,
		m.LastPrice,
		m.LastRSI,
	)
	return m
}

// ObserveSignal records one strategy decision.
func (m *Metrics) ObserveSignal(signal model.Signal) {
	m.SignalsTotal.WithLabelValues(string(signal)).Inc()
}

// ObserveTrade records one executed trade.
func (m *Metrics) ObserveTrade(trade *model.Trade) {
	m.TradesTotal.WithLabelValues(string(trade.Type)).Inc()
}
