// Package metrics exposes the search's live progress as Prometheus
// gauges and counters, served over HTTP alongside the controller.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

// Recorder wraps the counters and gauges the controller updates as it
// runs.
type Recorder struct {
	BestCost      prometheus.Gauge
	ArchiveSize   prometheus.Gauge
	RoundsTotal   *prometheus.CounterVec
	Checkpoints   prometheus.Counter
	RoundDuration prometheus.Histogram
}

// NewRecorder builds a Recorder and registers its metrics against a
// fresh registry.
func NewRecorder() (*Recorder, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		BestCost: factory.NewGauge(prometheus.GaugeOpts{
			Name: "familysched_best_cost",
			Help: "Lowest total cost observed across the archive so far.",
		}),
		ArchiveSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "familysched_archive_size",
			Help: "Number of solutions currently held in the archive.",
		}),
		RoundsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familysched_rounds_total",
			Help: "Number of ILS rounds completed, labeled by worker.",
		}, []string{"worker"}),
		Checkpoints: factory.NewCounter(prometheus.CounterOpts{
			Name: "familysched_checkpoints_total",
			Help: "Number of new-global-best checkpoints written to disk.",
		}),
		RoundDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "familysched_round_duration_seconds",
			Help:    "Wall-clock duration of a single worker's optimize/insert round.",
			Buckets: prometheus.DefBuckets,
		}),
	}, reg
}

// Serve starts an HTTP server exposing /metrics on addr and blocks
// until ctx is cancelled, then shuts the server down gracefully.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		klog.InfoS("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
