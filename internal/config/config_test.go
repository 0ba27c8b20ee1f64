package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheType != "bbolt" {
		t.Fatalf("expected bbolt cache by default, got %q", cfg.CacheType)
	}
	if cfg.CacheTTL != 30*24*time.Hour {
		t.Fatalf("expected 30 day ttl, got %v", cfg.CacheTTL)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Fatalf("unexpected provider timeout %v", cfg.ProviderTimeout)
	}
	if cfg.RefreshEnabled() {
		t.Fatalf("refresher should be disabled without a schedule")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CACHE_TYPE", "SQLite")
	t.Setenv("CACHE_TTL_DAYS", "7")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "3")
	t.Setenv("REFRESH_SCHEDULE", "@every 1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheType != "sqlite" {
		t.Fatalf("expected sqlite cache, got %q", cfg.CacheType)
	}
	if cfg.CacheTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttl %v", cfg.CacheTTL)
	}
	if cfg.ProviderTimeout != 3*time.Second {
		t.Fatalf("unexpected provider timeout %v", cfg.ProviderTimeout)
	}
	if !cfg.RefreshEnabled() || cfg.RefreshWindow != 3*24*time.Hour {
		t.Fatalf("expected refresher enabled with default window, got %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CACHE_TYPE":               "redis",
		"CACHE_TTL_DAYS":           "0",
		"PROVIDER_TIMEOUT_SECONDS": "-1",
		"GIN_MODE":                 "verbose",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestLoadRejectsRefreshWindowNotShorterThanTTL(t *testing.T) {
	t.Setenv("REFRESH_SCHEDULE", "@every 1h")
	t.Setenv("CACHE_TTL_DAYS", "7")
	t.Setenv("REFRESH_WINDOW_DAYS", "7")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when refreshed entries stay inside the refresh window")
	}

	t.Setenv("REFRESH_WINDOW_DAYS", "6")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
