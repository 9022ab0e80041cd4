package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmartinez-dev/expensio-backend/api/responses"
	"github.com/nmartinez-dev/expensio-backend/api/validators"
	"github.com/nmartinez-dev/expensio-backend/internal/users"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

// upsertUserRequest carries the profile metadata the mobile client sends.
// Field names follow the client's camelCase payload.
type upsertUserRequest struct {
	Name     *string `json:"name"`
	ImageURI *string `json:"imageUri"`
	Contact  *string `json:"contact"`
	Address  *string `json:"address"`
}

type avatarRequest struct {
	ImageURL string `json:"imageUrl"`
}

// UsersUpsert saves (or fully replaces) the profile row for a user id.
func UsersUpsert(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.UpsertInput{
			UserID:   chi.URLParam(r, "userID"),
			Name:     req.Name,
			ImageURI: req.ImageURI,
			Contact:  req.Contact,
			Address:  req.Address,
		}
		if err := svc.Upsert(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}

// UsersAvatar stores a new avatar URL and pushes it to the identity provider.
func UsersAvatar(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req avatarRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetAvatar(r.Context(), chi.URLParam(r, "userID"), req.ImageURL); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}
