package summarize

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrInvalidRepoURL is returned when the input is not a github.com
// repository URL.
var ErrInvalidRepoURL = errors.New("invalid github repository url")

type Service struct {
	github *GitHubClient
	model  *OpenAIClient
}

func NewService(github *GitHubClient, model *OpenAIClient) *Service {
	return &Service{github: github, model: model}
}

// SummarizeRepo fetches a repository README and produces a structured
// summary of it. There are no retries: a failed upstream call surfaces
// immediately.
func (s *Service) SummarizeRepo(ctx context.Context, githubURL string) (Summary, error) {
	owner, repo, ok := ParseRepoURL(githubURL)
	if !ok {
		return Summary{}, ErrInvalidRepoURL
	}

	readme, err := s.github.FetchReadme(ctx, owner, repo)
	if err != nil {
		return Summary{}, err
	}
	log.Debug().Str("owner", owner).Str("repo", repo).Int("readme_bytes", len(readme)).Msg("Fetched README")

	summary, err := s.model.Summarize(ctx, readme)
	if err != nil {
		return Summary{}, fmt.Errorf("unable to summarize %s/%s: %w", owner, repo, err)
	}
	return summary, nil
}
