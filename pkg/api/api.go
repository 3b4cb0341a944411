package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/keys"
	"github.com/gitgist/gitgist/pkg/storage"
	"github.com/gitgist/gitgist/pkg/summarize"
)

type GitGistAPI struct {
	config          config.GitGistConfig
	storageServices *storage.Services
	keys            *keys.Service
	summarizer      *summarize.Service
}

func NewGitGistAPI(
	c config.GitGistConfig,
	storageServices *storage.Services,
	keyService *keys.Service,
	summarizer *summarize.Service,
) *GitGistAPI {
	return &GitGistAPI{
		config:          c,
		storageServices: storageServices,
		keys:            keyService,
		summarizer:      summarizer,
	}
}

func RunAPI(ctx context.Context, c config.API, mux *chi.Mux) {
	log.Debug().Int("port", c.Port).Msg("Starting API")

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Port),
		Handler: mux,
	}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("Error serving API")
			serverStopCtx()
		}
	}()

	go func() {
		<-ctx.Done()

		log.Debug().Msg("Stopping API")

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Error().Err(err).Msg("Error shutting down API")
		}

		cancel()
		serverStopCtx()
	}()

	<-serverCtx.Done()
	log.Debug().Msg("API server stopped")
}
