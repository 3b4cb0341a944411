package api_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/gitgist/gitgist/pkg/api"
	"github.com/gitgist/gitgist/pkg/auth"
	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/keys"
	"github.com/gitgist/gitgist/pkg/storage"
	"github.com/gitgist/gitgist/pkg/summarize"
)

func sessionFor(t *testing.T, subject string) *http.Cookie {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]string{"sub": subject})
	require.NoError(t, err)

	token := strings.Join([]string{
		base64.RawURLEncoding.EncodeToString(header),
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString([]byte("sig")),
	}, ".")

	encoded, err := auth.EncodeSession(auth.Session{AccessToken: "at", IDToken: token})
	require.NoError(t, err)

	return &http.Cookie{Name: auth.SessionCookie, Value: encoded}
}

func newTestMux(t *testing.T, c config.GitGistConfig) *chi.Mux {
	t.Helper()

	c.Database = config.Database{
		Type: "sqlite",
		Settings: map[string]any{
			"dsn": filepath.Join(t.TempDir(), "gitgist.db"),
		},
	}

	storageServices, err := storage.New(c)
	require.NoError(t, err)

	keyService := keys.NewService(storageServices.Database)
	summarizer := summarize.NewService(
		summarize.NewGitHubClient(c.GitHub),
		summarize.NewOpenAIClient(c.Summarizer),
	)

	apiFunctions := api.NewGitGistAPI(c, storageServices, keyService, summarizer)
	return api.CreateMux(c, apiFunctions)
}

func doJSON(t *testing.T, mux *chi.Mux, method, path string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestKeyEndpointsRequireSession(t *testing.T) {
	mux := newTestMux(t, config.GitGistConfig{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/keys"},
		{http.MethodGet, "/api/keys"},
		{http.MethodPatch, "/api/keys/some-id"},
		{http.MethodDelete, "/api/keys/some-id"},
		{http.MethodPost, "/api/keys/some-id/limit"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := doJSON(t, mux, tc.method, tc.path, `{}`, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestKeyLifecycle(t *testing.T) {
	mux := newTestMux(t, config.GitGistConfig{})
	cookie := sessionFor(t, "google-user-1")

	rec := doJSON(t, mux, http.MethodPost, "/api/keys", `{"name": "ci key", "description": "pipeline"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := rec.Body.String()
	keyID := gjson.Get(body, "id").String()
	keyValue := gjson.Get(body, "key").String()
	require.NotEmpty(t, keyID)
	assert.True(t, strings.HasPrefix(keyValue, "gg-"))
	assert.Equal(t, "ci key", gjson.Get(body, "name").String())
	assert.Equal(t, "pipeline", gjson.Get(body, "description").String())
	assert.Equal(t, int64(0), gjson.Get(body, "usage_count").Int())
	assert.True(t, gjson.Get(body, "usage_limit").Type == gjson.Null)

	t.Run("list returns the key", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodGet, "/api/keys", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodGet, "/api/keys", "", sessionFor(t, "google-user-2"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("rename", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPatch, "/api/keys/"+keyID, `{"name": "renamed"}`, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "renamed", gjson.Get(rec.Body.String(), "name").String())
	})

	t.Run("empty patch is a bad request", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPatch, "/api/keys/"+keyID, `{}`, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cross-owner update is not found", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPatch, "/api/keys/"+keyID, `{"name": "stolen"}`, sessionFor(t, "google-user-2"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete succeeds and repeats", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodDelete, "/api/keys/"+keyID, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gjson.Get(rec.Body.String(), "success").Bool())

		rec = doJSON(t, mux, http.MethodDelete, "/api/keys/"+keyID, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gjson.Get(rec.Body.String(), "success").Bool())
	})
}

func TestVerifyKey(t *testing.T) {
	mux := newTestMux(t, config.GitGistConfig{})
	cookie := sessionFor(t, "google-user-1")

	rec := doJSON(t, mux, http.MethodPost, "/api/keys", `{"name": "verify me"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	keyID := gjson.Get(rec.Body.String(), "id").String()
	keyValue := gjson.Get(rec.Body.String(), "key").String()

	t.Run("valid key without session", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/keys/verify", fmt.Sprintf(`{"key": %q}`, keyValue), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gjson.Get(rec.Body.String(), "valid").Bool())
	})

	t.Run("unknown key", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/keys/verify", `{"key": "gg-unknown"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("someone else's session", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/keys/verify", fmt.Sprintf(`{"key": %q}`, keyValue), sessionFor(t, "google-user-2"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("limit produces 429", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/keys/"+keyID+"/limit", `{"usage_limit": 2}`, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		// One use was already metered above.
		rec = doJSON(t, mux, http.MethodPost, "/api/keys/verify", fmt.Sprintf(`{"key": %q}`, keyValue), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, mux, http.MethodPost, "/api/keys/verify", fmt.Sprintf(`{"key": %q}`, keyValue), nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestSummarizeEndpoint(t *testing.T) {
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := base64.StdEncoding.EncodeToString([]byte("# README"))
		fmt.Fprintf(w, `{"encoding": "base64", "content": %q}`, content)
	}))
	defer github.Close()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"summary": "A readme.", "facts": ["a", "b", "c"]}`}},
			},
		})
		w.Write(resp)
	}))
	defer model.Close()

	mux := newTestMux(t, config.GitGistConfig{
		GitHub:     config.GitHub{BaseURL: github.URL},
		Summarizer: config.Summarizer{APIKey: "sk-test", Model: "gpt-3.5-turbo", BaseURL: model.URL},
	})

	t.Run("missing key is rejected", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/summarize", `{"github_url": "https://github.com/golang/go"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("demo mode skips verification", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(`{"github_url": "https://github.com/golang/go"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Demo", "true")

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "A readme.", gjson.Get(rec.Body.String(), "summary").String())
	})

	t.Run("metered key", func(t *testing.T) {
		cookie := sessionFor(t, "google-user-1")
		rec := doJSON(t, mux, http.MethodPost, "/api/keys", `{"name": "summarizer"}`, cookie)
		require.Equal(t, http.StatusCreated, rec.Code)
		keyValue := gjson.Get(rec.Body.String(), "key").String()

		req := httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(`{"github_url": "https://github.com/golang/go"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Api-Key", keyValue)

		res := httptest.NewRecorder()
		mux.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code)

		rec = doJSON(t, mux, http.MethodGet, "/api/keys", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "0.usage_count").Int())
	})

	t.Run("invalid repository url", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(`{"github_url": "https://example.com/x/y"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Demo", "true")

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
