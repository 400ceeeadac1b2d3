// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (e.g., Twitch chat), use ValidateChatReady.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultCacheCapacity bounds the ignored and caught message caches.
const DefaultCacheCapacity = 250

type Config struct {
	// Twitch
	TwitchChannel     string
	TwitchBotUsername string
	TwitchOAuthToken  string

	// Persistence
	ConfigPath    string
	HighlightPath string

	// Caches
	IgnoredCapacity int
	CaughtCapacity  int

	// Redirect surface
	RedirectSurface string
	SurfaceTimeout  time.Duration
	SurfaceFocus    bool

	// Database (optional archive)
	DBDsn string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail
// if Twitch creds are missing; use ValidateChatReady() when you require a
// live chat connection. An empty DB_DSN disables the caught-message
// archive.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")
	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	cfg.ConfigPath = os.Getenv("CONFIG_PATH")
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = filepath.Join(dataDir, "chatfilter.conf")
	}
	cfg.HighlightPath = os.Getenv("HIGHLIGHT_PATH")
	if cfg.HighlightPath == "" {
		cfg.HighlightPath = filepath.Join(dataDir, "highlights.bin")
	}

	var err error
	cfg.IgnoredCapacity, err = capacityEnv("IGNORED_CACHE_CAPACITY")
	if err != nil {
		return nil, err
	}
	cfg.CaughtCapacity, err = capacityEnv("CAUGHT_CACHE_CAPACITY")
	if err != nil {
		return nil, err
	}

	cfg.RedirectSurface = os.Getenv("REDIRECT_SURFACE")
	if cfg.RedirectSurface == "" {
		cfg.RedirectSurface = "[caught-msgs]"
	}
	cfg.SurfaceTimeout = 5 * time.Second
	if v := os.Getenv("SURFACE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SURFACE_TIMEOUT (duration): %q", v)
		}
		cfg.SurfaceTimeout = d
	}
	cfg.SurfaceFocus = os.Getenv("SURFACE_FOCUS") == "true"

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

func capacityEnv(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return DefaultCacheCapacity, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s (positive integer): %q", key, v)
	}
	return n, nil
}

// ValidateChatReady checks required fields for a live chat connection.
func (c *Config) ValidateChatReady() error {
	if c.TwitchChannel == "" || c.TwitchBotUsername == "" || c.TwitchOAuthToken == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN")
	}
	return nil
}
