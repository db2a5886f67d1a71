package router

import (
	"net/http"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/handler"
	"github.com/evyataryagoni/boundary-checker/internal/limiter"
	"github.com/evyataryagoni/boundary-checker/internal/logger"
	"github.com/evyataryagoni/boundary-checker/internal/metrics"
	custommiddleware "github.com/evyataryagoni/boundary-checker/internal/middleware"
	v1 "github.com/evyataryagoni/boundary-checker/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps bundles everything the router wires together
type Deps struct {
	Check       *handler.CheckHandler
	Health      *handler.HealthHandler
	Limiter     limiter.Limiter
	LimitWindow time.Duration
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer // nil uses the default registry
	Logger      *logger.Logger
}

// SetupRouter creates and configures the Chi router with all middleware and routes
//
// Rate limiting applies to /v1 only: health probes and scrapes never spend
// a client's lookup budget.
func SetupRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	// Order matters! RequestID first, then logging, then recovery and metrics
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.MetricsMiddleware(d.Metrics))

	// Mount v1 API routes under /v1 prefix
	r.Group(func(api chi.Router) {
		api.Use(custommiddleware.RateLimitMiddleware(d.Limiter, d.Metrics, d.LimitWindow))
		api.Mount("/v1", v1.SetupRoutes(d.Check))
	})

	// Root-level routes (not versioned)
	r.Get("/health", d.Health.Health)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not found"}`))
	})

	return r
}
