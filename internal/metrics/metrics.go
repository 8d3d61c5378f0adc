// Package metrics exports the engine's operational counters and gauges
// over Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_ticks_total", Help: "Market snapshots processed by outcome"},
		[]string{"market", "outcome"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_signals_total", Help: "Actionable strategy signals"},
		[]string{"market", "action"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_orders_total", Help: "Orders submitted"},
		[]string{"market", "side"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_fills_total", Help: "Fills applied to the ledger"},
		[]string{"market", "side"},
	)
	DroppedFillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_dropped_fills_total", Help: "Fills lost to queue overflow (fatal)"},
		[]string{"market"},
	)
	SequenceGapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_sequence_gaps_total", Help: "Sequence gaps detected in the feed"},
		[]string{"market"},
	)
	GappedMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_gapped_messages_total", Help: "Messages known missing across all gaps"},
		[]string{"market"},
	)
	ConversionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_conversion_errors_total", Help: "Feed messages dropped for unrepresentable values"},
		[]string{"market"},
	)
	PositionQuantity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "position_quantity", Help: "Signed position quantity"},
		[]string{"market"},
	)
	RealizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "position_realized_pnl", Help: "Cumulative realized PnL"},
		[]string{"market"},
	)
	DailyPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "position_daily_pnl", Help: "PnL since daily rollover"},
		[]string{"market"},
	)
	FillQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "executor_fill_queue_depth", Help: "Pending fills awaiting the engine"},
		[]string{"market"},
	)
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "breaker_state", Help: "Market breaker state (0 normal, 1 halted)"},
		[]string{"market"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal, SignalsTotal, OrdersTotal, FillsTotal, DroppedFillsTotal,
		SequenceGapsTotal, GappedMessagesTotal, ConversionErrorsTotal,
		PositionQuantity, RealizedPnL, DailyPnL, FillQueueDepth, BreakerState,
	)
}

// Serve exposes /metrics on addr in a background goroutine and returns
// the server so callers can shut it down.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
