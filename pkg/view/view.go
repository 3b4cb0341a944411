package view

import (
	"encoding/json"
	"html/template"
	"net/http"
	"path"

	"github.com/foolin/goview"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gitgist/gitgist/pkg/auth"
	"github.com/gitgist/gitgist/pkg/view/session"
	"github.com/gitgist/gitgist/pkg/view/templates"
)

type LayoutData struct {
	CSRFToken template.HTML
	Email     string
	Flashes   []any
	Data      any
}

type View struct {
	auth     *goview.ViewEngine
	external *goview.ViewEngine
	sessions *session.Service
}

func NewView(sessions *session.Service, liveReload bool) (*View, error) {
	authEngine, err := newConfig("layout/auth")
	if err != nil {
		return nil, err
	}

	external, err := newConfig("layout/external")
	if err != nil {
		return nil, err
	}
	if !liveReload {
		authEngine.SetFileHandler(embeddedFH)
		external.SetFileHandler(embeddedFH)
	}
	return &View{
		auth:     authEngine,
		external: external,
		sessions: sessions,
	}, nil
}

// RenderExternal renders a page on the public layout. No identity is
// attached even when the visitor has a session.
func (s *View) RenderExternal(w http.ResponseWriter, r *http.Request, statusCode int, name string, data any) {
	flashes, err := s.sessions.GetFlashes(w, r)
	if err != nil {
		log.Err(err).Msg("failed to clear flashes")
	}

	m := LayoutData{
		CSRFToken: csrf.TemplateField(r),
		Flashes:   flashes,
		Data:      data,
	}

	if err := s.external.Render(w, statusCode, name, m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Render renders a page on the signed-in layout, with the visitor's email
// in the header when the session cookie resolves.
func (s *View) Render(w http.ResponseWriter, r *http.Request, statusCode int, name string, data any) {
	flashes, err := s.sessions.GetFlashes(w, r)
	if err != nil {
		log.Err(err).Msg("failed to clear flashes")
	}

	m := LayoutData{
		CSRFToken: csrf.TemplateField(r),
		Flashes:   flashes,
		Data:      data,
	}

	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if profile, ok := auth.ResolveProfile(cookie.Value); ok {
			m.Email = profile.Email
		}
	}

	if err := s.auth.Render(w, statusCode, name, m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func embeddedFH(config goview.Config, tmpl string) (string, error) {
	bytes, err := templates.Templates.ReadFile(tmpl + config.Extension)
	return string(bytes), err
}

func newConfig(layout string) (*goview.ViewEngine, error) {
	files, err := templates.Templates.ReadDir("partials")
	if err != nil {
		return nil, err
	}

	var partials []string
	for _, f := range files {
		ext := path.Ext(f.Name())
		fn := f.Name()[:len(f.Name())-len(ext)]
		partials = append(partials, path.Join("partials", fn))
	}

	return goview.New(goview.Config{
		Root:         "pkg/view/templates",
		Extension:    ".html",
		Master:       layout,
		Partials:     partials,
		DisableCache: true,
		Funcs: map[string]any{
			"prettyPrint": func(data any) string {
				bytes, err := json.MarshalIndent(data, "", "    ")
				if err != nil {
					return err.Error()
				}
				return string(bytes)
			},
			"title": func(a string) string {
				return cases.Title(language.AmericanEnglish).String(a)
			},
			"maskKey": MaskKey,
		},
	}), nil
}
