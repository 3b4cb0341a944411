package view

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/keys"
	"github.com/gitgist/gitgist/pkg/view/session"
)

// New builds the browser-facing mux: the marketing pages on the public
// layout and the dashboard behind the session gate.
func New(
	c config.Dashboard,
	keySvc *keys.Service,
	authGate func(h http.Handler) http.Handler,
) (*chi.Mux, error) {
	csrfMiddleware := csrf.Protect([]byte(c.CSRFSecret))
	sessionStore := sessions.NewCookieStore([]byte(c.CSRFSecret))

	sessionService := session.NewSession(sessionStore)
	view, err := NewView(sessionService, c.LiveReload)
	if err != nil {
		return nil, err
	}

	controller := NewController(sessionService, keySvc, view)

	r := chi.NewRouter()
	r.Get("/", controller.GetLanding)
	r.Get("/playground", controller.GetPlayground)
	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard/", http.StatusMovedPermanently)
	})
	r.Mount("/dashboard", controller.DashboardRoutes(authGate, csrfMiddleware))
	return r, nil
}
