package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmartinez-dev/expensio-backend/api/responses"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
	"github.com/nmartinez-dev/expensio-backend/pkg/rates"
)

// RatesProvider is the slice of pkg/rates the handler needs.
type RatesProvider interface {
	GetLatest(ctx context.Context, base string) (*rates.Result, error)
}

// RatesLatest proxies the exchange-rate provider chain. The base currency is
// an optional path segment defaulting to USD; the provider API key never
// reaches the client.
func RatesLatest(provider RatesProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := chi.URLParam(r, "base")
		if base == "" {
			base = rates.DefaultBase
		}

		result, err := provider.GetLatest(r.Context(), base)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
