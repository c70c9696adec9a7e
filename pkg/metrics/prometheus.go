package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "macropull"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	attempts     *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	availability *prometheus.GaugeVec
	latency      *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	gatherer prometheus.Gatherer
}

// Option configures a Recorder.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	runtime    bool
}

// WithRegistry registers collectors on reg and serves them from it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// WithRuntimeCollectors adds Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) { o.runtime = true }
}

// New creates a new Prometheus metrics recorder. Without options the
// default registry is used.
func New(opts ...Option) *Recorder {
	o := &options{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(o)
	}

	r := &Recorder{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Adapter invocations by series, adapter and outcome",
			},
			[]string{"series", "adapter", "outcome"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		availability: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "series_available",
				Help:      "1 when the last run resolved the series, 0 otherwise",
			},
			[]string{"series"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"route", "method", "class"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "in_flight_requests",
				Help:      "Current number of in-flight HTTP requests",
			},
		),
		gatherer: o.gatherer,
	}

	o.registerer.MustRegister(
		r.attempts, r.errorsTotal, r.availability, r.latency,
		r.httpRequests, r.httpDuration, r.httpInFlight,
	)
	if o.runtime {
		o.registerer.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// RecordAttempt counts one adapter invocation.
func (r *Recorder) RecordAttempt(series, adapter, outcome string) {
	r.attempts.WithLabelValues(series, adapter, outcome).Inc()
}

// RecordAvailability sets the series availability gauge.
func (r *Recorder) RecordAvailability(series string, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	r.availability.WithLabelValues(series).Set(v)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// HTTPStarted marks a request in flight and returns the completion hook.
func (r *Recorder) HTTPStarted() func(route, method string, status int, seconds float64) {
	r.httpInFlight.Inc()
	return func(route, method string, status int, seconds float64) {
		r.httpInFlight.Dec()
		r.httpRequests.WithLabelValues(route, method, statusText(status)).Inc()
		r.httpDuration.WithLabelValues(route, method, statusClass(status)).Observe(seconds)
	}
}

// Handler serves the recorder's registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
