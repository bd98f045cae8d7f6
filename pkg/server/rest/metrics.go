package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lintang-b-s/pairhmm/pkg/engine/dp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics. http metrics plus per-run dp metrics, Metrics is the dp.RunObserver of the service.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dpRuns        *prometheus.CounterVec
	dpDuration    *prometheus.HistogramVec
	dpCells       *prometheus.CounterVec
	emissionCache *prometheus.CounterVec
	viterbiCache  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pairhmm_http_requests_total",
			Help: "Number of http requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pairhmm_http_request_duration_seconds",
			Help:    "Duration of http requests by route.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"route"}),
		dpRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pairhmm_dp_runs_total",
			Help: "Number of dp runs by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),
		dpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pairhmm_dp_run_duration_seconds",
			Help:    "Duration of dp runs by algorithm, model lock included.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"algorithm"}),
		dpCells: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pairhmm_dp_cells_total",
			Help: "Number of lattice cells computed by algorithm.",
		}, []string{"algorithm"}),
		emissionCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pairhmm_dp_emission_cache_total",
			Help: "Emission cache lookups by result.",
		}, []string{"result"}),
		viterbiCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pairhmm_viterbi_cache_total",
			Help: "Viterbi result cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRun(stats dp.RunStats) {
	algo := stats.Algorithm.String()
	outcome := "ok"
	if stats.Failed {
		outcome = "failed"
	}
	m.dpRuns.WithLabelValues(algo, outcome).Inc()
	m.dpDuration.WithLabelValues(algo).Observe(stats.Duration.Seconds())
	m.dpCells.WithLabelValues(algo).Add(float64(stats.Cells))
	m.emissionCache.WithLabelValues("hit").Add(float64(stats.EmissionHits))
	m.emissionCache.WithLabelValues("miss").Add(float64(stats.EmissionMisses))
}

func (m *Metrics) observeViterbiCache(cached bool) {
	if cached {
		m.viterbiCache.WithLabelValues("hit").Inc()
		return
	}
	m.viterbiCache.WithLabelValues("miss").Inc()
}

// PromeHttpMiddleware. count and time every request by its chi route pattern.
func PromeHttpMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
