package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/view"
	"github.com/gitgist/gitgist/pkg/view/static"
)

func CreateMux(c config.GitGistConfig, apiFunctions *GitGistAPI) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMiddleware)
	r.Get("/healthcheck", apiFunctions.Healthcheck)

	api := chi.NewRouter()
	api.Get("/auth/session", apiFunctions.SessionInfo)
	api.Post("/keys/verify", apiFunctions.VerifyKey)
	api.Post("/summarize", apiFunctions.Summarize)

	api.Group(func(g chi.Router) {
		g.Use(apiFunctions.SessionMiddleware)
		g.Post("/keys", apiFunctions.CreateKey)
		g.Get("/keys", apiFunctions.ListKeys)
		g.Patch("/keys/{id}", apiFunctions.UpdateKey)
		g.Delete("/keys/{id}", apiFunctions.DeleteKey)
		g.Post("/keys/{id}/limit", apiFunctions.SetKeyLimit)
	})

	r.Mount("/api", api)

	router := chi.NewRouter()
	router.Use(middleware.Logger)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTION"},
		AllowedHeaders:   []string{"User-Agent", "Content-Type", "Accept", "Accept-Encoding", "Accept-Language", "Cache-Control", "Connection", "DNT", "Host", "Origin", "Pragma", "Referer"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Get("/login", apiFunctions.Login)
	router.Get("/logout", apiFunctions.Logout)
	router.Get("/oauth/google/callback", apiFunctions.OAuthCallback)

	if c.Dashboard.Enabled {
		d, err := view.New(c.Dashboard, apiFunctions.keys, apiFunctions.RequireSession)
		if err != nil {
			panic(err)
		}

		fileServer := http.FileServer(http.FS(static.Static))
		router.Handle("/static/*", http.StripPrefix("/static", fileServer))

		router.Mount("/", d)
	}

	r.Mount("/", router)
	return r
}
