// Package metrics exposes the splice engine's counters over an
// optional Prometheus-compatible HTTP endpoint (--metrics-addr). This
// is ambient observability layered on top of the engine, not a wire
// protocol the splice itself speaks — spec's Non-goals exclude
// FIXish resend, persistence beyond the CSV, TLS, and multi-client
// fan-out, none of which bear on exposing process counters.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every counter/gauge the pipeline updates.
type Registry struct {
	reg *prometheus.Registry

	SessionsAccepted prometheus.Counter
	SessionsActive   prometheus.Gauge
	SessionsRejected prometheus.Counter

	FramesRelayed    prometheus.Counter
	OrdersTranslated prometheus.Counter
	OrdersDropped    prometheus.Counter

	RingPushFailures  prometheus.Counter
	LogRingDropped    prometheus.Counter
	LogRecordsWritten prometheus.Counter
}

// New constructs a fresh, unregistered-with-global-state registry —
// each call owns its own prometheus.Registry so tests never collide on
// the default global registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		SessionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_sessions_accepted_total",
			Help: "Total client connections accepted by the acceptor.",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fixrelay_sessions_active",
			Help: "Sessions currently in the Active state.",
		}),
		SessionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_sessions_rejected_total",
			Help: "Sessions that failed the downstream handshake.",
		}),
		FramesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_frames_relayed_total",
			Help: "Frames forwarded downstream on the raw relay profile.",
		}),
		OrdersTranslated: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_orders_translated_total",
			Help: "NewOrderSingle messages translated into BINish orders.",
		}),
		OrdersDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_orders_dropped_total",
			Help: "FIXish messages dropped: non-NewOrderSingle or malformed.",
		}),
		RingPushFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_ring_push_failures_total",
			Help: "RX pushes that found the frame ring full.",
		}),
		LogRingDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_log_ring_dropped_total",
			Help: "Latency records dropped because the log ring was full.",
		}),
		LogRecordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixrelay_log_records_written_total",
			Help: "Latency records flushed to the CSV file.",
		}),
	}
}

// Serve runs the /metrics HTTP endpoint until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		return err
	}
}
