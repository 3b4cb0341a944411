package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/gitgist/gitgist/pkg/auth"
	"github.com/gitgist/gitgist/pkg/keys"
)

func (a *GitGistAPI) CreateKey(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"error": "Invalid request body"})
		return
	}

	key, err := a.keys.Create(r.Context(), owner, req.Name, req.Description)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, key)
}

func (a *GitGistAPI) ListKeys(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	rc, err := a.keys.List(r.Context(), owner)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, rc)
}

func (a *GitGistAPI) UpdateKey(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var patch keys.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"error": "Invalid request body"})
		return
	}

	key, err := a.keys.Update(r.Context(), owner, id, patch)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, key)
}

func (a *GitGistAPI) SetKeyLimit(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req struct {
		UsageLimit *int64 `json:"usage_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"error": "Invalid request body"})
		return
	}

	key, err := a.keys.SetLimit(r.Context(), owner, id, req.UsageLimit)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, key)
}

func (a *GitGistAPI) DeleteKey(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := a.keys.Delete(r.Context(), owner, id); err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, render.M{"success": true})
}

// VerifyKey checks a literal key value and meters one use. A session is
// optional here: when present, the key must also belong to the caller.
func (a *GitGistAPI) VerifyKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"valid": false, "message": "Missing key"})
		return
	}

	owner, _ := a.resolveOwner(r)
	if err := a.keys.Verify(r.Context(), req.Key, owner); err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, render.M{"valid": true})
}
