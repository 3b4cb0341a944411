package auth

import (
	"encoding/base64"
	"encoding/json"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// SessionCookie carries the serialized Session written by the login
// callback.
const SessionCookie = "gitgist_session"

// Session mirrors the token response stored in the session cookie.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	IDToken      string `json:"id_token"`
}

// Profile is the subset of identity-token claims the dashboard shows.
type Profile struct {
	Subject string `json:"-"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// EncodeSession serializes a session for storage in a cookie. The JSON is
// base64url wrapped so the value contains no characters a cookie cannot
// carry.
func EncodeSession(s Session) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// ParseSession decodes a raw cookie value. Malformed input is reported as
// "no session", never as an error.
func ParseSession(raw string) (Session, bool) {
	if raw == "" {
		return Session{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, false
	}
	if s.IDToken == "" {
		return Session{}, false
	}
	return s, true
}

// ResolveOwner extracts the stable subject identifier from a raw session
// cookie value. The identity token's payload is decoded without verifying
// its signature: the cookie is only ever written by our own login callback.
func ResolveOwner(raw string) (string, bool) {
	s, ok := ParseSession(raw)
	if !ok {
		return "", false
	}

	tok, err := jwt.ParseString(s.IDToken, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return "", false
	}
	sub := tok.Subject()
	if sub == "" {
		return "", false
	}
	return sub, true
}

// ResolveProfile decodes the display claims alongside the subject. Used by
// the session endpoint and the dashboard header.
func ResolveProfile(raw string) (Profile, bool) {
	s, ok := ParseSession(raw)
	if !ok {
		return Profile{}, false
	}

	tok, err := jwt.ParseString(s.IDToken, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return Profile{}, false
	}
	if tok.Subject() == "" {
		return Profile{}, false
	}

	p := Profile{Subject: tok.Subject()}
	if v, ok := tok.Get("email"); ok {
		p.Email, _ = v.(string)
	}
	if v, ok := tok.Get("name"); ok {
		p.Name, _ = v.(string)
	}
	if v, ok := tok.Get("picture"); ok {
		p.Picture, _ = v.(string)
	}
	return p, true
}
