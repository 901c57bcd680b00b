// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	DeveloperID  string `env:"DEVELOPER_ID"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`

	ResolveTimeout       time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"60s"`
	SearchTimeout        time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`
	ReresolveTimeout     time.Duration `env:"RERESOLVE_TIMEOUT" envDefault:"30s"`
	PlaylistEntryTimeout time.Duration `env:"PLAYLIST_ENTRY_TIMEOUT" envDefault:"30s"`
	PlaylistLimit        int           `env:"PLAYLIST_LIMIT" envDefault:"100"`
	PlaylistWorkers      int           `env:"PLAYLIST_WORKERS" envDefault:"4"`
	SearchResults        int           `env:"SEARCH_RESULTS" envDefault:"10"`

	IdleSweepInterval time.Duration `env:"IDLE_SWEEP_INTERVAL" envDefault:"5m"`
	PresenceInterval  time.Duration `env:"PRESENCE_INTERVAL" envDefault:"2m"`
	RejoinDelay       time.Duration `env:"REJOIN_DELAY" envDefault:"2s"`

	ResolverRPS    int `env:"RESOLVER_RPS" envDefault:"5"`
	ResolverMinRPS int `env:"RESOLVER_MIN_RPS" envDefault:"1"`
	ResolverMaxRPS int `env:"RESOLVER_MAX_RPS" envDefault:"20"`

	YTDLPPath     string `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	FFmpegPath    string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	YouTubeProxy  string `env:"YOUTUBE_PROXY"`
	DefaultVolume int    `env:"DEFAULT_VOLUME" envDefault:"50"`
}

// Load reads .env (when present) and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Str("component", "config").Msg("no .env file found, falling back to system environment variables")
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DiscordToken == "" {
		return nil, ErrMissingToken
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DefaultVolume < 0 || c.DefaultVolume > 200:
		return fmt.Errorf("DEFAULT_VOLUME must be within 0..200, got %d", c.DefaultVolume)
	case c.ResolverMinRPS < 1 || c.ResolverMinRPS > c.ResolverMaxRPS:
		return fmt.Errorf("RESOLVER_MIN_RPS must be within 1..RESOLVER_MAX_RPS")
	case c.ResolverRPS < c.ResolverMinRPS || c.ResolverRPS > c.ResolverMaxRPS:
		return fmt.Errorf("RESOLVER_RPS must be within RESOLVER_MIN_RPS..RESOLVER_MAX_RPS")
	case c.PlaylistWorkers < 1:
		return fmt.Errorf("PLAYLIST_WORKERS must be positive")
	}
	return nil
}
