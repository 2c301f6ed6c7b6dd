// Package metrics exposes Prometheus metrics for batch runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"semclass/internal/domain"
)

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the metric namespace (default "semclass").
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithRuntimeCollectors registers the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(r *Recorder) {
		r.runtime = true
	}
}

// Recorder owns a private registry and the metrics registered on it.
type Recorder struct {
	namespace string
	runtime   bool
	registry  *prometheus.Registry

	items         *prometheus.CounterVec
	itemDuration  prometheus.Histogram
	topicsPerItem prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "semclass",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.runtime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(r.registry)

	r.items = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "batch",
		Name:      "items_total",
		Help:      "Items classified, by outcome status",
	}, []string{"status"})

	r.itemDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "batch",
		Name:      "item_duration_seconds",
		Help:      "Time spent fetching and ranking one item",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	r.topicsPerItem = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "batch",
		Name:      "topics_per_item",
		Help:      "Number of ranked topics per successful item",
		Buckets:   prometheus.LinearBuckets(0, 2, 11),
	})

	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	r.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// pre-create both series so dashboards see zeros
	r.items.WithLabelValues(statusSucceeded)
	r.items.WithLabelValues(statusFailed)

	return r
}

// ObserveItem records one finished batch item.
func (r *Recorder) ObserveItem(outcome domain.ItemOutcome, elapsed time.Duration) {
	r.itemDuration.Observe(elapsed.Seconds())
	if outcome.Failed() {
		r.items.WithLabelValues(statusFailed).Inc()
		return
	}
	r.items.WithLabelValues(statusSucceeded).Inc()
	r.topicsPerItem.Observe(float64(len(outcome.Topics)))
}

// ObserveHTTP records one served HTTP request.
func (r *Recorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path in the text exposition format,
// for node_exporter's textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
