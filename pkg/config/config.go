package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type Logging struct {
	JSONFormat bool   `yaml:"json_format"`
	Level      string `yaml:"level"`
}

type API struct {
	Port                int    `yaml:"port" env:"GITGIST_API_PORT" env-default:"8080"`
	ExternalURL         string `yaml:"external_url" env:"GITGIST_EXTERNAL_URL" env-default:"http://localhost:8080"`
	HealthCheckFailFile string `yaml:"healthcheck_fail_file"`
}

type Prometheus struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type Database struct {
	Type     string         `yaml:"type" env:"GITGIST_DATABASE_TYPE" env-default:"sqlite"`
	Settings map[string]any `yaml:"settings"`
}

type Dashboard struct {
	Enabled            bool   `yaml:"enabled"`
	LiveReload         bool   `yaml:"live_reload"`
	CSRFSecret         string `yaml:"csrf_secret" env:"GITGIST_CSRF_SECRET"`
	GoogleRedirectURL  string `yaml:"google_redirect_url" env:"GITGIST_GOOGLE_REDIRECT_URL"`
	GoogleClientID     string `yaml:"google_client_id" env:"GITGIST_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" env:"GITGIST_GOOGLE_CLIENT_SECRET"`
}

type GitHub struct {
	Token   string `yaml:"token" env:"GITGIST_GITHUB_TOKEN"`
	BaseURL string `yaml:"base_url"`
}

type Summarizer struct {
	APIKey    string `yaml:"api_key" env:"GITGIST_OPENAI_API_KEY"`
	Model     string `yaml:"model" env-default:"gpt-3.5-turbo"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens" env-default:"700"`
}

type GitGistConfig struct {
	Logging    Logging    `yaml:"logging"`
	API        API        `yaml:"api"`
	Prometheus Prometheus `yaml:"prometheus"`
	Database   Database   `yaml:"database"`
	Dashboard  Dashboard  `yaml:"dashboard"`
	GitHub     GitHub     `yaml:"github"`
	Summarizer Summarizer `yaml:"summarizer"`
}

func Load(filePath string) (GitGistConfig, error) {
	var conf GitGistConfig
	err := cleanenv.ReadConfig(filePath, &conf)
	return conf, err
}
