package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raphcvrt/Anti-Virus/internal/client"
)

const namespace = "avdash"

// Recorder exposes dashboard activity as prometheus metrics.
// A nil *Recorder records nothing.
type Recorder struct {
	registry       *prometheus.Registry
	refreshes      *prometheus.CounterVec
	actions        *prometheus.CounterVec
	uploadInFlight prometheus.Gauge
	lastRefresh    *prometheus.GaugeVec
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Backend refreshes by collection and outcome.",
		}, []string{"collection", "outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "User actions by name and outcome.",
		}, []string{"action", "outcome"}),
		uploadInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upload_in_flight",
			Help:      "1 while an upload is running.",
		}),
		lastRefresh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful refresh per collection.",
		}, []string{"collection"}),
	}

	r.registry.MustRegister(
		r.refreshes,
		r.actions,
		r.uploadInFlight,
		r.lastRefresh,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Outcome labels an error by failure kind
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := client.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "error"
}

// ObserveRefresh counts one refresh of collection
func (r *Recorder) ObserveRefresh(collection string, err error) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(collection, Outcome(err)).Inc()
	if err == nil {
		r.lastRefresh.WithLabelValues(collection).Set(float64(time.Now().Unix()))
	}
}

// ObserveAction counts one user action
func (r *Recorder) ObserveAction(action string, err error) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action, Outcome(err)).Inc()
}

// SetUploadInFlight flips the upload gauge
func (r *Recorder) SetUploadInFlight(inFlight bool) {
	if r == nil {
		return
	}
	if inFlight {
		r.uploadInFlight.Set(1)
		return
	}
	r.uploadInFlight.Set(0)
}

// Handler serves the registry in the prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
