package middleware

import (
	"net/http"
	"strings"

	"github.com/nmartinez-dev/expensio-backend/api/responses"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

// Header names the resolver accepts. The dev headers carry a raw user id for
// local testing; in production a trusted gateway injects the bearer token.
const (
	HeaderUserID    = "X-User-Id"
	HeaderDevUserID = "X-Dev-User-Id"
)

// RequesterID derives the caller's user id from the request. Precedence:
// the dev-id headers first, then a raw Bearer token (the token itself is the
// id — this resolver reads identities, it never authenticates them).
func RequesterID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.Header.Get(HeaderDevUserID)); id != "" {
		return id
	}

	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		if token := strings.TrimSpace(auth[7:]); token != "" {
			return token
		}
	}

	return ""
}

// HasIdentitySignal reports whether the request carries any of the headers
// the resolver reads, including an Authorization header of any shape.
func HasIdentitySignal(r *http.Request) bool {
	return r.Header.Get("Authorization") != "" ||
		r.Header.Get(HeaderUserID) != "" ||
		r.Header.Get(HeaderDevUserID) != ""
}

// RequireRequester resolves the caller identity for /me routes and seeds the
// context with it. Unresolved identity fails closed in production (401, no
// data leakage) and fails loudly in development (400 naming the headers).
func RequireRequester(isProd bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := RequesterID(r)
			if userID == "" {
				if isProd {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
					return
				}
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation,
						"Missing requester user id (x-user-id or Authorization header)"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
