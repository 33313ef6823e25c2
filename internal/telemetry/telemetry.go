// Package telemetry is the engine's Prometheus surface: counters for
// reducer dispatch outcomes and a /metrics HTTP endpoint, registered
// the same way the pack's promauto.NewCounter/NewGaugeVec package-level
// vars register metrics against a registry, generalized here into one
// constructible *Metrics instead of package globals so each Engine can
// own its own registry in tests.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the engine updates during
// dispatch.
type Metrics struct {
	reg *prometheus.Registry

	Dispatched *prometheus.CounterVec
	Outcomes   *prometheus.CounterVec
	QueueDepth prometheus.Gauge
}

// New registers a fresh set of metrics against a private registry
// (not prometheus.DefaultRegisterer), so multiple Engines in the same
// test binary never collide on metric names.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Dispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyager",
			Name:      "messages_dispatched_total",
			Help:      "Messages handed to the reducer, labeled by message kind.",
		}, []string{"kind"}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyager",
			Name:      "dispatch_outcomes_total",
			Help:      "Reducer dispatch outcomes, labeled by result (success, recoverable, retry, fatal).",
		}, []string{"result"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "voyager",
			Name:      "queue_depth",
			Help:      "Messages pending in the queue after the last poll.",
		}),
	}
}

// Serve exposes /metrics on addr until ctx is canceled, then drains
// in-flight scrapes before returning.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("telemetry: shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("telemetry: serve: %w", err)
		}
		return nil
	}
}
