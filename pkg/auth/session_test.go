package auth_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgist/gitgist/pkg/auth"
)

func makeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	parts := []string{
		base64.RawURLEncoding.EncodeToString(header),
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString([]byte("not-a-real-signature")),
	}
	return strings.Join(parts, ".")
}

func makeCookie(t *testing.T, s auth.Session) string {
	t.Helper()

	encoded, err := auth.EncodeSession(s)
	require.NoError(t, err)
	return encoded
}

func TestParseSession(t *testing.T) {
	t.Run("empty value", func(t *testing.T) {
		_, ok := auth.ParseSession("")
		assert.False(t, ok)
	})

	t.Run("not base64", func(t *testing.T) {
		_, ok := auth.ParseSession("{not base64!}")
		assert.False(t, ok)
	})

	t.Run("not json", func(t *testing.T) {
		raw := base64.RawURLEncoding.EncodeToString([]byte("hello"))
		_, ok := auth.ParseSession(raw)
		assert.False(t, ok)
	})

	t.Run("missing id token", func(t *testing.T) {
		raw := makeCookie(t, auth.Session{AccessToken: "abc"})
		_, ok := auth.ParseSession(raw)
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		s := auth.Session{
			AccessToken: "abc",
			ExpiresIn:   3600,
			IDToken:     "xyz",
		}
		raw := makeCookie(t, s)
		parsed, ok := auth.ParseSession(raw)
		require.True(t, ok)
		assert.Equal(t, s, parsed)
	})
}

func TestResolveOwner(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		token := makeIDToken(t, map[string]any{"sub": "google-user-1"})
		raw := makeCookie(t, auth.Session{IDToken: token})

		owner, ok := auth.ResolveOwner(raw)
		require.True(t, ok)
		assert.Equal(t, "google-user-1", owner)
	})

	t.Run("garbage id token", func(t *testing.T) {
		raw := makeCookie(t, auth.Session{IDToken: "only.two"})
		_, ok := auth.ResolveOwner(raw)
		assert.False(t, ok)
	})

	t.Run("missing sub claim", func(t *testing.T) {
		token := makeIDToken(t, map[string]any{"email": "a@b.com"})
		raw := makeCookie(t, auth.Session{IDToken: token})

		_, ok := auth.ResolveOwner(raw)
		assert.False(t, ok)
	})

	t.Run("malformed cookie", func(t *testing.T) {
		_, ok := auth.ResolveOwner("nope")
		assert.False(t, ok)
	})
}

func TestResolveProfile(t *testing.T) {
	t.Run("full claims", func(t *testing.T) {
		token := makeIDToken(t, map[string]any{
			"sub":     "google-user-2",
			"email":   "user@example.com",
			"name":    "Test User",
			"picture": "https://example.com/avatar.png",
		})
		raw := makeCookie(t, auth.Session{IDToken: token})

		profile, ok := auth.ResolveProfile(raw)
		require.True(t, ok)
		assert.Equal(t, "google-user-2", profile.Subject)
		assert.Equal(t, "user@example.com", profile.Email)
		assert.Equal(t, "Test User", profile.Name)
		assert.Equal(t, "https://example.com/avatar.png", profile.Picture)
	})

	t.Run("subject only", func(t *testing.T) {
		token := makeIDToken(t, map[string]any{"sub": "google-user-3"})
		raw := makeCookie(t, auth.Session{IDToken: token})

		profile, ok := auth.ResolveProfile(raw)
		require.True(t, ok)
		assert.Equal(t, "google-user-3", profile.Subject)
		assert.Empty(t, profile.Email)
	})
}
