package util

import (
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
)

// ConfigToStruct populates a settings struct from the free-form
// `settings` map of a config section.
func ConfigToStruct[T any](rawConfig map[string]any) *T {
	settings := new(T)
	if err := mapstructure.Decode(rawConfig, settings); err != nil {
		log.Error().Err(err).Msg("Unable to decode settings")
	}
	return settings
}
