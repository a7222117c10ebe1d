// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all process configuration.
type Config struct {
	Server    ServerConfig
	Update    UpdateConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the shell-facing HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"BASTION_PORT" default:"9610"`
	Host string `envconfig:"BASTION_HOST" default:"127.0.0.1"`
}

// UpdateConfig holds the update-pipeline endpoints. The release-index
// URL, release-page URL, and expected asset name are overridable for
// the archive backend; FeedURL is the generic fallback feed.
type UpdateConfig struct {
	FeedURL     string `envconfig:"BASTION_UPDATE_FEED_URL"`
	ReleasesURL string `envconfig:"BASTION_GH_RELEASES_URL" default:"https://api.github.com/repos/Zombiegoblin4/Bastion-Browser/releases"`
	ReleasePage string `envconfig:"BASTION_GH_RELEASE_PAGE" default:"https://github.com/Zombiegoblin4/Bastion-Browser/releases/latest"`
	AssetName   string `envconfig:"BASTION_GH_ASSET_NAME" default:"Bastion-Browser-win64.zip"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"BASTION_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"BASTION_LOG_DEV" default:"false"`
}

// RateLimitConfig holds shell-API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"BASTION_RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"BASTION_RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"BASTION_RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "9610",
			Host: "127.0.0.1",
		},
		Update: UpdateConfig{
			ReleasesURL: "https://api.github.com/repos/Zombiegoblin4/Bastion-Browser/releases",
			ReleasePage: "https://github.com/Zombiegoblin4/Bastion-Browser/releases/latest",
			AssetName:   "Bastion-Browser-win64.zip",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}

// GithubToken returns the optional bearer token for the release index.
// Two variables are honored; the Bastion-specific one wins.
func GithubToken() string {
	if tok := os.Getenv("BASTION_GH_TOKEN"); tok != "" {
		return tok
	}
	return os.Getenv("GITHUB_TOKEN")
}
