package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"github.com/gitgist/gitgist/pkg/keys"
)

// renderError maps service errors onto HTTP statuses. Store failures are
// logged but surfaced as a generic message.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, keys.ErrValidation):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"error": err.Error()})
	case errors.Is(err, keys.ErrUnauthorized):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, render.M{"error": "Unauthorized"})
	case errors.Is(err, keys.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, render.M{"error": "Key not found"})
	case errors.Is(err, keys.ErrRateLimited):
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, render.M{"error": "Usage limit exceeded"})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, render.M{"error": "Service unavailable"})
	}
}
