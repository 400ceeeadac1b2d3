package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("IGNORED_CACHE_CAPACITY", "")
	t.Setenv("SURFACE_TIMEOUT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.IgnoredCapacity != DefaultCacheCapacity || cfg.CaughtCapacity != DefaultCacheCapacity {
		t.Errorf("capacities = %d/%d, want %d", cfg.IgnoredCapacity, cfg.CaughtCapacity, DefaultCacheCapacity)
	}
	if cfg.RedirectSurface != "[caught-msgs]" {
		t.Errorf("redirect surface = %q", cfg.RedirectSurface)
	}
	if cfg.SurfaceTimeout != 5*time.Second {
		t.Errorf("surface timeout = %v", cfg.SurfaceTimeout)
	}
	if cfg.ConfigPath == "" || cfg.HighlightPath == "" {
		t.Error("expected default store paths")
	}
}

func TestLoadInvalidCapacity(t *testing.T) {
	t.Setenv("CAUGHT_CACHE_CAPACITY", "zero")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric capacity")
	}
	t.Setenv("CAUGHT_CACHE_CAPACITY", "-5")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative capacity")
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	t.Setenv("SURFACE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable SURFACE_TIMEOUT")
	}
}

func TestValidateChatReady(t *testing.T) {
	t.Setenv("TWITCH_CHANNEL", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:token")
	cfg, _ := Load()
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("expected valid chat config, got %v", err)
	}
	if err := os.Unsetenv("TWITCH_CHANNEL"); err != nil {
		t.Fatalf("failed to unset TWITCH_CHANNEL: %v", err)
	}
	cfg, _ = Load()
	if err := cfg.ValidateChatReady(); err == nil {
		t.Errorf("expected error when missing twitch envs")
	}
}
