// Package metrics holds the Prometheus collectors shared by the backend
// client, the scan workflow and the dashboard poller. All methods are safe to
// call on a nil *Metrics, which records nothing.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcomes.
const (
	ScanGranted   = "granted"
	ScanDenied    = "denied"
	ScanDuplicate = "already_entered"
	ScanNotFound  = "not_found"
	ScanMalformed = "malformed"
	ScanError     = "error"
)

// Poll results.
const (
	PollOK      = "ok"
	PollError   = "error"
	PollSkipped = "skipped"
	PollStale   = "stale"
)

// Metrics bundles the collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	backendRequests *prometheus.HistogramVec
	scans           *prometheus.CounterVec
	entries         prometheus.Counter
	polls           *prometheus.CounterVec
	publishes       prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		backendRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatepass",
			Name:      "backend_request_duration_seconds",
			Help:      "Duration of backend HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatepass",
			Name:      "scans_total",
			Help:      "Resolved QR scans by outcome.",
		}, []string{"outcome"}),
		entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatepass",
			Name:      "entries_recorded_total",
			Help:      "Entry-recording calls issued by this station.",
		}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatepass",
			Name:      "dashboard_polls_total",
			Help:      "Dashboard poll ticks by result.",
		}, []string{"result"}),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatepass",
			Name:      "dashboard_publishes_total",
			Help:      "Dashboard snapshots published after a change.",
		}),
	}
	reg.MustRegister(
		m.backendRequests, m.scans, m.entries, m.polls, m.publishes,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveRequest records one backend call. status is 0 for transport failures.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveScan counts a scan outcome.
func (m *Metrics) ObserveScan(outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
}

// EntryRecorded counts an issued entry-recording call.
func (m *Metrics) EntryRecorded() {
	if m == nil {
		return
	}
	m.entries.Inc()
}

// ObservePoll counts a dashboard poll tick.
func (m *Metrics) ObservePoll(result string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
}

// Published counts a dashboard publication.
func (m *Metrics) Published() {
	if m == nil {
		return
	}
	m.publishes.Inc()
}

// Handler returns the /metrics HTTP handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
