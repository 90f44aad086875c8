package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics for the dev backend, labelled by canonical route so group and
// action identifiers never blow up the label space.
var (
	registerOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "modpanel",
		Name:      "http_in_flight_requests",
		Help:      "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modpanel",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modpanel",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "modpanel",
			Name:      "build_info",
			Help:      "Dev backend build information.",
		},
		[]string{"version", "commit"},
	)
)

// Init registers the metrics in the default registry and pins build_info to
// the running version. Safe to call more than once.
func Init(version, commit string) {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, buildInfo)
	})
	buildInfo.WithLabelValues(version, commit).Set(1)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }

// Instrument measures RPS, latency and in-flight requests for the wrapped handler.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := CanonicalRoute(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, route, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalRoute maps a request path to its route pattern: numeric group and
// member identifiers and action status ids collapse to ":id".
func CanonicalRoute(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if seg == "" {
			continue
		}
		if isDigits(seg) || (i > 0 && segs[i-1] == "status") {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// statusWriter records the response code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
