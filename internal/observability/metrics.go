package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Export fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "bad_status"
	OutcomeTransport = "transport_error"
	OutcomeRead      = "read_error"
	OutcomeTooLarge  = "too_large"
	OutcomeRequest   = "bad_request"
	OutcomeCacheHit  = "cache_hit"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectpage_requests_total",
			Help: "Total page requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "projectpage_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "projectpage_in_flight",
		Help: "In-flight HTTP requests",
	})
	ExportFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectpage_export_fetch_total",
			Help: "Project title fetches by outcome",
		}, []string{"outcome"},
	)
	ExportLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "projectpage_export_fetch_duration_seconds",
		Help:    "Upstream project title fetch latency seconds",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight, ExportFetches, ExportLatency)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
