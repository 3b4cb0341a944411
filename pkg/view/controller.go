package view

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gitgist/gitgist/pkg/auth"
	"github.com/gitgist/gitgist/pkg/keys"
	"github.com/gitgist/gitgist/pkg/view/session"
)

type Controller struct {
	session *session.Service
	keys    *keys.Service
	view    *View
}

type Middleware func(http.Handler) http.Handler

func NewController(
	sessions *session.Service,
	keySvc *keys.Service,
	v *View,
) *Controller {
	return &Controller{
		session: sessions,
		keys:    keySvc,
		view:    v,
	}
}

// MaskKey keeps the prefix and tail of a key visible so the owner can tell
// keys apart without the full secret on screen.
func MaskKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:7] + "..." + key[len(key)-4:]
}

type DashboardPage struct {
	Keys []keys.Key
}

func (s *Controller) DashboardRoutes(middleware ...Middleware) chi.Router {
	r := chi.NewRouter()
	for _, m := range middleware {
		r.Use(m)
	}
	r.Get("/", s.GetDashboard)
	r.Post("/keys/create", s.CreateKey)
	r.Post("/keys/update", s.RenameKey)
	r.Post("/keys/delete", s.DeleteKey)
	r.Post("/keys/limit", s.SetKeyLimit)
	return r
}

func (s *Controller) GetLanding(w http.ResponseWriter, r *http.Request) {
	s.view.RenderExternal(w, r, http.StatusOK, "pages/index", nil)
}

func (s *Controller) GetPlayground(w http.ResponseWriter, r *http.Request) {
	s.view.RenderExternal(w, r, http.StatusOK, "pages/playground", nil)
}

func (s *Controller) GetDashboard(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	res, err := s.keys.List(r.Context(), owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.view.Render(w, r, http.StatusOK, "pages/dashboard", DashboardPage{Keys: res})
}

func (s *Controller) CreateKey(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := r.Form.Get("name")
	var description *string
	if d := strings.TrimSpace(r.Form.Get("description")); d != "" {
		description = &d
	}

	key, err := s.keys.Create(r.Context(), owner, name, description)
	if err != nil {
		if errors.Is(err, keys.ErrValidation) {
			s.session.NewFlash(w, r, session.Flash{
				Type:  session.FlashTypeError,
				Title: "Name cannot be empty",
			})
			http.Redirect(w, r, "/dashboard/", http.StatusFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.session.NewFlash(w, r, session.Flash{
		Type:    session.FlashTypeSuccess,
		Title:   "Key created",
		Message: key.Key,
	})
	http.Redirect(w, r, "/dashboard/", http.StatusFound)
}

func (s *Controller) RenameKey(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	name := r.Form.Get("name")
	if id == "" {
		http.Error(w, "Key ID required", http.StatusBadRequest)
		return
	}

	_, err = s.keys.Update(r.Context(), owner, id, keys.Patch{Name: &name})
	if err != nil {
		switch {
		case errors.Is(err, keys.ErrValidation):
			s.session.NewFlash(w, r, session.Flash{
				Type:  session.FlashTypeError,
				Title: "Name cannot be empty",
			})
		case errors.Is(err, keys.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	http.Redirect(w, r, "/dashboard/", http.StatusFound)
}

func (s *Controller) DeleteKey(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	if id == "" {
		http.Error(w, "Key ID required", http.StatusBadRequest)
		return
	}

	if err := s.keys.Delete(r.Context(), owner, id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard/", http.StatusFound)
}

func (s *Controller) SetKeyLimit(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	if id == "" {
		http.Error(w, "Key ID required", http.StatusBadRequest)
		return
	}

	var limit *int64
	if raw := strings.TrimSpace(r.Form.Get("usage_limit")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Limit must be a number", http.StatusBadRequest)
			return
		}
		limit = &parsed
	}

	_, err = s.keys.SetLimit(r.Context(), owner, id, limit)
	if err != nil {
		switch {
		case errors.Is(err, keys.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, keys.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	http.Redirect(w, r, "/dashboard/", http.StatusFound)
}
