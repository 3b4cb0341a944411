package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/gitgist/gitgist/pkg/auth"
)

// SessionMiddleware resolves the owner identity from the session cookie and
// rejects requests without one. No detail about why resolution failed is
// leaked to the caller.
func (a *GitGistAPI) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := a.resolveOwner(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, render.M{"error": "Unauthorized"})
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), ownerID)))
	})
}

// RequireSession is the browser-facing gate. Unlike SessionMiddleware it
// redirects to the login flow instead of returning a JSON error.
func (a *GitGistAPI) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := a.resolveOwner(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), ownerID)))
	})
}

// resolveOwner is the non-rejecting variant, for endpoints where a session
// narrows scope but is not required.
func (a *GitGistAPI) resolveOwner(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		return "", false
	}
	return auth.ResolveOwner(cookie.Value)
}
