package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS reflects the request origin so Expo web / dev clients on arbitrary
// ports can call the API with credentials, and allows the identity headers
// the requester resolver reads. Preflight OPTIONS requests are answered by
// the cors handler itself.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return true
		},
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id", "X-Dev-User-Id", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
