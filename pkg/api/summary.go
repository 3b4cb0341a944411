package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/gitgist/gitgist/pkg/summarize"
)

// Summarize fetches a repository README and returns a structured summary.
// Callers authenticate with a literal API key in the Api-Key header, which
// meters one use; the X-Demo header skips both verification and metering
// for the marketing-page demo widget.
func (a *GitGistAPI) Summarize(w http.ResponseWriter, r *http.Request) {
	rid := ulid.Make().String()

	var req struct {
		GitHubURL string `json:"github_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GitHubURL == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"error": "Missing repository URL"})
		return
	}

	isDemo := r.Header.Get("X-Demo") == "true"
	if !isDemo {
		if err := a.keys.Verify(r.Context(), r.Header.Get("Api-Key"), ""); err != nil {
			renderError(w, r, err)
			return
		}
	}

	log.Info().Str("rid", rid).Str("github_url", req.GitHubURL).Bool("demo", isDemo).Msg("Summarizing repository")

	summary, err := a.summarizer.SummarizeRepo(r.Context(), req.GitHubURL)
	if errors.Is(err, summarize.ErrInvalidRepoURL) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"error": "Invalid GitHub repository URL"})
		return
	}
	if errors.Is(err, summarize.ErrReadmeNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, render.M{"error": "README not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("rid", rid).Msg("Summarize failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, render.M{"error": "Unable to summarize repository"})
		return
	}

	render.JSON(w, r, summary)
}
