package gitgist

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gitgist/gitgist/pkg/api"
	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/keys"
	"github.com/gitgist/gitgist/pkg/storage"
	"github.com/gitgist/gitgist/pkg/summarize"
)

func setupLogs(logConfig config.Logging) {
	// Equivalent of Lshortfile
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		file = short
		return file + ":" + strconv.Itoa(line)
	}

	// Set log level
	logLevel := zerolog.TraceLevel
	switch logConfig.Level {
	case "panic":
		logLevel = zerolog.PanicLevel
	case "fatal":
		logLevel = zerolog.FatalLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "trace":
		logLevel = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Set log output format
	if logConfig.JSONFormat {
		log.Logger = log.With().Caller().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Caller().Logger()
	}
}

func runPrometheus(ctx context.Context, c config.Prometheus) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	log.Debug().Int("port", c.Port).Msg("Starting Prometheus endpoint")
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Error serving Prometheus endpoint")
	}
}

func Run(c config.GitGistConfig, storageServices *storage.Services) {
	setupLogs(c.Logging)

	log.Debug().Msg("Starting GitGist")

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	keyService := keys.NewService(storageServices.Database)

	github := summarize.NewGitHubClient(c.GitHub)
	model := summarize.NewOpenAIClient(c.Summarizer)
	summarizer := summarize.NewService(github, model)

	apiFunctions := api.NewGitGistAPI(c, storageServices, keyService, summarizer)

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.CreateMux(c, apiFunctions)
		api.RunAPI(ctx, c.API, mux)
	}()

	if c.Prometheus.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runPrometheus(ctx, c.Prometheus)
		}()
	}

	// Set up channel to listen for SIGINT (Ctrl+C) and SIGTERM (kill command)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, os.Interrupt)

	go func() {
		sig := <-sigs
		log.Debug().Str("signal", sig.String()).Msg("Received signal, stopping")
		cancel()
	}()

	wg.Wait()
	log.Debug().Msg("Done")
}
