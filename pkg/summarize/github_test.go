package summarize_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/summarize"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		owner string
		repo  string
		ok    bool
	}{
		{"plain", "https://github.com/golang/go", "golang", "go", true},
		{"trailing slash", "https://github.com/golang/go/", "golang", "go", true},
		{"dot git suffix", "https://github.com/golang/go.git", "golang", "go", true},
		{"dots and dashes", "https://github.com/some-org/my.repo-name", "some-org", "my.repo-name", true},
		{"surrounding whitespace", "  https://github.com/golang/go  ", "golang", "go", true},
		{"http scheme", "http://github.com/golang/go", "", "", false},
		{"not github", "https://gitlab.com/golang/go", "", "", false},
		{"missing repo", "https://github.com/golang", "", "", false},
		{"extra path", "https://github.com/golang/go/tree/master", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, ok := summarize.ParseRepoURL(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		})
	}
}

func readmeBody(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	return fmt.Sprintf(`{"encoding": "base64", "content": "%s\n"}`, encoded)
}

func TestFetchReadme(t *testing.T) {
	ctx := context.Background()

	t.Run("found on main", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/golang/go/readme", r.URL.Path)
			assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
			assert.Equal(t, "main", r.URL.Query().Get("ref"))
			fmt.Fprint(w, readmeBody("# The Go Programming Language"))
		}))
		defer server.Close()

		client := summarize.NewGitHubClient(config.GitHub{BaseURL: server.URL})
		readme, err := client.FetchReadme(ctx, "golang", "go")
		require.NoError(t, err)
		assert.Equal(t, "# The Go Programming Language", readme)
	})

	t.Run("falls back to master", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("ref") == "main" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, readmeBody("legacy readme"))
		}))
		defer server.Close()

		client := summarize.NewGitHubClient(config.GitHub{BaseURL: server.URL})
		readme, err := client.FetchReadme(ctx, "old", "project")
		require.NoError(t, err)
		assert.Equal(t, "legacy readme", readme)
	})

	t.Run("missing on both branches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := summarize.NewGitHubClient(config.GitHub{BaseURL: server.URL})
		_, err := client.FetchReadme(ctx, "ghost", "repo")
		assert.ErrorIs(t, err, summarize.ErrReadmeNotFound)
	})

	t.Run("token is forwarded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
			fmt.Fprint(w, readmeBody("ok"))
		}))
		defer server.Close()

		client := summarize.NewGitHubClient(config.GitHub{Token: "gh-token", BaseURL: server.URL})
		_, err := client.FetchReadme(ctx, "golang", "go")
		require.NoError(t, err)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := summarize.NewGitHubClient(config.GitHub{BaseURL: server.URL})
		_, err := client.FetchReadme(ctx, "golang", "go")
		require.Error(t, err)
		assert.NotErrorIs(t, err, summarize.ErrReadmeNotFound)
	})

	t.Run("unexpected encoding rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"encoding": "utf-8", "content": "plain"}`)
		}))
		defer server.Close()

		client := summarize.NewGitHubClient(config.GitHub{BaseURL: server.URL})
		_, err := client.FetchReadme(ctx, "golang", "go")
		assert.Error(t, err)
	})
}
