package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application settings sourced from environment variables.
type Config struct {
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
	ListenAddr    string `envconfig:"LISTEN_ADDR" default:":8000"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`

	// Channels the user must belong to before any gated feature works.
	RequiredChannels []string `envconfig:"REQUIRED_CHANNELS"`
	AdminID          int64    `envconfig:"ADMIN_ID"`

	CooldownSeconds  int    `envconfig:"COOLDOWN_SECONDS" default:"10"`
	MaxSearchResults int    `envconfig:"MAX_SEARCH_RESULTS" default:"10"`
	CooldownFile     string `envconfig:"COOLDOWN_FILE" default:"cooldowns.json"`
	ErrorLogFile     string `envconfig:"ERROR_LOG_FILE" default:"error_log.txt"`

	ResolverBaseURL string `envconfig:"RESOLVER_BASE_URL" default:"https://yt.zaw-myo.workers.dev"`
	SearchBaseURL   string `envconfig:"SEARCH_BASE_URL" default:"https://zawmyo123.serv00.net/api"`

	YtDlpPath           string `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	YtDlpTimeoutSeconds int    `envconfig:"YTDLP_TIMEOUT_SECONDS" default:"15"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if cfg.CooldownSeconds <= 0 {
		return cfg, fmt.Errorf("COOLDOWN_SECONDS must be positive")
	}
	if cfg.MaxSearchResults <= 0 {
		return cfg, fmt.Errorf("MAX_SEARCH_RESULTS must be positive")
	}

	return cfg, nil
}

// CooldownWindow returns the cooldown interval as a duration.
func (c Config) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// YtDlpTimeout returns the metadata tool deadline as a duration.
func (c Config) YtDlpTimeout() time.Duration {
	return time.Duration(c.YtDlpTimeoutSeconds) * time.Second
}
