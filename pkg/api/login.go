package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gitgist/gitgist/pkg/auth"
)

const stateCookie = "oauth_state"

func (a *GitGistAPI) oauthConfig() *oauth2.Config {
	redirectURL := a.config.Dashboard.GoogleRedirectURL
	if redirectURL == "" {
		redirectURL = a.config.API.ExternalURL + "/oauth/google/callback"
	}
	return &oauth2.Config{
		ClientID:     a.config.Dashboard.GoogleClientID,
		ClientSecret: a.config.Dashboard.GoogleClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}
}

func (a *GitGistAPI) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := a.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (a *GitGistAPI) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	stored, err := r.Cookie(stateCookie)
	if code == "" || state == "" || err != nil || stored.Value != state {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, render.M{"error": "Invalid OAuth state"})
		return
	}

	token, err := a.oauthConfig().Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("Unable to exchange OAuth code")
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, render.M{"error": "Unable to exchange code"})
		return
	}

	idToken, _ := token.Extra("id_token").(string)
	expiresIn := int64(time.Until(token.Expiry).Seconds())
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	session := auth.Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
		IDToken:      idToken,
	}
	encoded, err := auth.EncodeSession(session)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, render.M{"error": "Unable to create session"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(expiresIn),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (a *GitGistAPI) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   auth.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SessionInfo reports whether the caller has a usable session, plus the
// display claims for the dashboard header.
func (a *GitGistAPI) SessionInfo(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		render.JSON(w, r, render.M{"authenticated": false})
		return
	}

	profile, ok := auth.ResolveProfile(cookie.Value)
	if !ok {
		render.JSON(w, r, render.M{"authenticated": false})
		return
	}
	render.JSON(w, r, render.M{
		"authenticated": true,
		"email":         profile.Email,
		"name":          profile.Name,
		"picture":       profile.Picture,
	})
}
