package controllers

import (
	"net/http"

	"github.com/nmartinez-dev/expensio-backend/api/responses"
	"github.com/nmartinez-dev/expensio-backend/pkg/config"
	"github.com/nmartinez-dev/expensio-backend/pkg/db"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

// Health is the liveness probe.
func Health(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Expensio-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady pings the backing stores. Redis is optional: a nil pinger means
// the deployment runs without it and readiness ignores it.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, cache db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Expensio-Env", cfg.App.Env)

		if database == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "database not configured"))
			return
		}
		if err := database.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable").
					WithDetails(map[string]string{"dependency": "postgres"}))
			return
		}

		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable").
						WithDetails(map[string]string{"dependency": "redis"}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// Root greets probes and the curious.
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Welcome to the Transactions API!"))
	}
}
