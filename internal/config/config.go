package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults.
const (
	DefaultBaseURL        = "https://dab.yeet.su/api"
	DefaultSearchTimeout  = 30 * time.Second
	DefaultStreamTimeout  = 15 * time.Second
	DefaultTickInterval   = 250 * time.Millisecond
	DefaultSeekDebounce   = 300 * time.Millisecond
	DefaultSuccessBanner  = 2500 * time.Millisecond
	DefaultThumbnailWidth = 300
	DefaultLogLevel       = "info"
)

type Config struct {
	Icons     string          `koanf:"icons"` // "nerd", "unicode" or "none"
	Catalog   CatalogConfig   `koanf:"catalog"`
	Playback  PlaybackConfig  `koanf:"playback"`
	Downloads DownloadsConfig `koanf:"downloads"`
	Log       LogConfig       `koanf:"log"`
}

// CatalogConfig holds the streaming catalog API settings.
type CatalogConfig struct {
	BaseURL       string        `koanf:"base_url"`
	SearchTimeout time.Duration `koanf:"search_timeout"`
	StreamTimeout time.Duration `koanf:"stream_timeout"`
	RateLimit     float64       `koanf:"rate_limit"` // requests per second, 0 = unlimited
}

// PlaybackConfig holds transport settings.
type PlaybackConfig struct {
	TickInterval time.Duration `koanf:"tick_interval"` // backend position report interval
	SeekDebounce time.Duration `koanf:"seek_debounce"` // stale-tick guard after a seek
	Volume       *float64      `koanf:"volume"`        // initial volume when nothing was saved
}

// DownloadsConfig holds offline download settings.
type DownloadsConfig struct {
	Dir            string        `koanf:"dir"`
	SuccessBanner  time.Duration `koanf:"success_banner"`
	ThumbnailWidth int           `koanf:"thumbnail_width"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
	File  string `koanf:"file"`  // empty logs to stderr
}

// Load reads ~/.config/openspot/config.toml then ./config.toml (last wins).
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given config files in order; missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize base URL (remove trailing slash)
	cfg.Catalog.BaseURL = strings.TrimSuffix(cfg.Catalog.BaseURL, "/")

	cfg.Downloads.Dir = expandPath(cfg.Downloads.Dir)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/openspot/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "openspot", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetCatalogConfig returns the catalog configuration with defaults applied.
func (c *Config) GetCatalogConfig() CatalogConfig {
	cfg := c.Catalog
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = DefaultStreamTimeout
	}
	if cfg.RateLimit < 0 {
		cfg.RateLimit = 0
	}
	return cfg
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
// The seek debounce is never shorter than one tick interval.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SeekDebounce <= 0 {
		cfg.SeekDebounce = DefaultSeekDebounce
	}
	cfg.SeekDebounce = max(cfg.SeekDebounce, cfg.TickInterval)
	if cfg.Volume != nil {
		v := min(max(*cfg.Volume, 0), 1)
		cfg.Volume = &v
	}
	return cfg
}

// GetDownloadsConfig returns the downloads configuration with defaults
// applied. The default directory is $XDG_DATA_HOME/openspot/offline.
func (c *Config) GetDownloadsConfig() DownloadsConfig {
	cfg := c.Downloads
	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(xdg.DataHome, "openspot", "offline")
	}
	if cfg.SuccessBanner <= 0 {
		cfg.SuccessBanner = DefaultSuccessBanner
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = DefaultThumbnailWidth
	}
	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
		cfg.Level = strings.ToLower(cfg.Level)
	default:
		cfg.Level = DefaultLogLevel
	}
	return cfg
}
