package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmartinez-dev/expensio-backend/api/controllers"
	"github.com/nmartinez-dev/expensio-backend/api/middleware"
	"github.com/nmartinez-dev/expensio-backend/internal/transactions"
	"github.com/nmartinez-dev/expensio-backend/internal/users"
	"github.com/nmartinez-dev/expensio-backend/pkg/config"
	"github.com/nmartinez-dev/expensio-backend/pkg/db"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
	"github.com/nmartinez-dev/expensio-backend/pkg/metrics"
	"github.com/nmartinez-dev/expensio-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface. redisClient may be nil: the rate
// limiter is only mounted in production when a counter store exists, and
// readiness skips stores that are not configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	dbPinger db.Pinger,
	redisClient *redis.Client,
	txnService transactions.Service,
	usersService users.Service,
	ratesProvider controllers.RatesProvider,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	// The throttle only guards production traffic: dev loops against a local
	// API must never trip it, and without a store there is nothing to count.
	if cfg.App.IsProd() && redisClient != nil {
		r.Use(middleware.RateLimit(middleware.NewRateLimitPolicy(cfg.RateLimit), redisClient, logg))
	}

	var cache db.Pinger
	if redisClient != nil {
		cache = redisClient
	}

	r.Get("/", controllers.Root())
	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.Health(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, cache))
	})
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	requireRequester := middleware.RequireRequester(cfg.App.IsProd(), logg)

	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", controllers.TransactionsCreate(txnService, logg))
		r.With(requireRequester).Get("/me", controllers.TransactionsListMe(txnService, logg))
		r.With(requireRequester).Post("/me", controllers.TransactionsCreateMe(txnService, logg))
		r.With(requireRequester).Get("/summary/me", controllers.TransactionsSummaryMe(txnService, logg))
		r.Get("/summary/{userID}", controllers.TransactionsSummary(txnService, logg))
		if !cfg.App.IsProd() {
			r.Get("/__debug/users", controllers.TransactionsDebugUsers(txnService, logg))
		}
		r.Get("/{userID}", controllers.TransactionsList(txnService, logg))
		r.Delete("/{id}", controllers.TransactionsDelete(txnService, logg))
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/{userID}", controllers.UsersUpsert(usersService, logg))
		r.Post("/{userID}/avatar", controllers.UsersAvatar(usersService, logg))
	})

	r.Route("/rates", func(r chi.Router) {
		r.Get("/latest", controllers.RatesLatest(ratesProvider, logg))
		r.Get("/latest/{base}", controllers.RatesLatest(ratesProvider, logg))
	})

	return r
}
