package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/gitgist/gitgist/cmd/gitgist"
	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/storage"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("Usage: gitgist <config.yaml>")
	}

	conf, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load config file")
	}

	storageServices, err := storage.New(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to set up storage")
	}

	gitgist.Run(conf, storageServices)
}
