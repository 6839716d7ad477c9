package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusnet/campus-api/api/controllers"
	"github.com/campusnet/campus-api/api/middleware"
	"github.com/campusnet/campus-api/api/responses"
	"github.com/campusnet/campus-api/pkg/config"
	"github.com/campusnet/campus-api/pkg/logger"
	"github.com/campusnet/campus-api/pkg/metrics"
)

// Store is the Redis surface the router needs: readiness pings and
// throttling counters. *redis.Client satisfies it.
type Store interface {
	Ping(context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router wires into handlers. Redis and Gatherer
// are optional: without Redis throttling is off and readiness skips it,
// without a Gatherer /metrics is not mounted.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    Store
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	rs := responses.New(responses.Options{
		Logger:  logg,
		Version: cfg.App.APIVersion,
		Metrics: d.Metrics,
	})

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg, d.Metrics),
		middleware.Recoverer(rs),
		middleware.CORS(cfg.CORS),
	)
	r.NotFound(rs.NotFound())
	r.MethodNotAllowed(rs.MethodNotAllowed())

	readyDeps := map[string]controllers.Pinger{}
	if d.Redis != nil {
		readyDeps["redis"] = d.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", rs.Handle(controllers.HealthLive()))
		r.Get("/ready", rs.Handle(controllers.HealthReady(logg, readyDeps)))
	})

	if d.Gatherer != nil {
		r.With(middleware.RequireToken(cfg.Ops.MetricsToken, rs)).
			Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	defaultPolicy := middleware.NewThrottlePolicy("public", cfg.Throttle.DefaultWindow, cfg.Throttle.DefaultIPLimit)
	validatePolicy := middleware.NewThrottlePolicy("validate", cfg.Throttle.AuthWindow, cfg.Throttle.AuthIPLimit).
		WithBodyKey("email", cfg.Throttle.AuthKeyLimit)

	r.Route("/api/public", func(r chi.Router) {
		r.Use(throttle(defaultPolicy, d.Redis, rs, logg))
		r.Get("/ping", rs.Handle(controllers.PublicPing()))
		r.With(throttle(validatePolicy, d.Redis, rs, logg)).
			Post("/validate", rs.Handle(controllers.PublicValidate(rs)))
	})

	return r
}

// throttle is a no-op when no Redis client is configured.
func throttle(policy middleware.ThrottlePolicy, store Store, rs *responses.Responder, logg *logger.Logger) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Throttle(policy, store, rs, logg)
}
