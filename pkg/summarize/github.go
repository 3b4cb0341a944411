package summarize

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gitgist/gitgist/pkg/config"
)

// ErrReadmeNotFound is returned when no README could be resolved on any of
// the default branches.
var ErrReadmeNotFound = errors.New("readme not found")

var repoPattern = regexp.MustCompile(`^https://github\.com/([\w.-]+)/([\w.-]+?)(?:\.git)?/?$`)

// ParseRepoURL extracts owner and repository name from a github.com URL.
func ParseRepoURL(raw string) (owner, repo string, ok bool) {
	m := repoPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

type GitHubClient struct {
	token   string
	baseURL string

	httpClient *http.Client
}

func NewGitHubClient(conf config.GitHub) *GitHubClient {
	baseURL := conf.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubClient{
		token:   conf.Token,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type readmePayload struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// FetchReadme tries the repository's README on the main branch, then
// master. A missing README is ErrReadmeNotFound; transport failures
// surface as-is.
func (c *GitHubClient) FetchReadme(ctx context.Context, owner, repo string) (string, error) {
	for _, branch := range []string{"main", "master"} {
		readme, err := c.fetchBranchReadme(ctx, owner, repo, branch)
		if errors.Is(err, ErrReadmeNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		return readme, nil
	}

	log.Debug().Str("owner", owner).Str("repo", repo).Msg("README not found on any branch")
	return "", ErrReadmeNotFound
}

func (c *GitHubClient) fetchBranchReadme(ctx context.Context, owner, repo, branch string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/readme?ref=%s", c.baseURL, owner, repo, branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrReadmeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github returned status %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	var payload readmePayload
	if err := json.Unmarshal(respBytes, &payload); err != nil {
		return "", err
	}
	if payload.Encoding != "base64" || payload.Content == "" {
		return "", fmt.Errorf("unexpected readme payload encoding: %q", payload.Encoding)
	}

	// GitHub wraps the base64 body in newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("error decoding readme content: %w", err)
	}
	return string(decoded), nil
}
