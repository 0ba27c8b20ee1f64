package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	HTTPAddr       string `mapstructure:"http_addr"`
	GinMode        string `mapstructure:"gin_mode"`
	ProvidersFile  string `mapstructure:"providers_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	CacheType              string        `mapstructure:"cache_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	SQLitePath             string        `mapstructure:"sqlite_path"`
	CacheTTLDays           int           `mapstructure:"cache_ttl_days"`
	CacheTTL               time.Duration `mapstructure:"-"`
	ProviderTimeoutSeconds int64         `mapstructure:"provider_timeout_seconds"`
	ProviderTimeout        time.Duration `mapstructure:"-"`
	ShutdownTimeoutSeconds int64         `mapstructure:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `mapstructure:"-"`

	RefreshSchedule   string        `mapstructure:"refresh_schedule"`
	RefreshWindowDays int           `mapstructure:"refresh_window_days"`
	RefreshWindow     time.Duration `mapstructure:"-"`
	RefreshBatchSize  int           `mapstructure:"refresh_batch_size"`
}

var cacheTypes = map[string]bool{
	"bbolt":    true,
	"sqlite":   true,
	"memory":   true,
	"none":     true,
	"disabled": true,
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "pure-publications")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("providers_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("cache_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/publications.db")
	v.SetDefault("sqlite_path", "./data/publications.sqlite")
	v.SetDefault("cache_ttl_days", 30)
	v.SetDefault("provider_timeout_seconds", 10)
	v.SetDefault("shutdown_timeout_seconds", 15)
	v.SetDefault("refresh_schedule", "")
	v.SetDefault("refresh_window_days", 3)
	v.SetDefault("refresh_batch_size", 50)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	c.CacheType = strings.ToLower(strings.TrimSpace(c.CacheType))
	if !cacheTypes[c.CacheType] {
		return fmt.Errorf("invalid cache_type %q (expected bbolt, sqlite, memory or none)", c.CacheType)
	}
	c.GinMode = strings.ToLower(strings.TrimSpace(c.GinMode))
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin_mode %q (expected debug, release or test)", c.GinMode)
	}
	if c.CacheTTLDays <= 0 {
		return fmt.Errorf("invalid cache_ttl_days (must be positive days)")
	}
	c.CacheTTL = time.Duration(c.CacheTTLDays) * 24 * time.Hour

	if c.ProviderTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid provider_timeout_seconds (must be positive seconds)")
	}
	c.ProviderTimeout = time.Duration(c.ProviderTimeoutSeconds) * time.Second

	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid shutdown_timeout_seconds (must be positive seconds)")
	}
	c.ShutdownTimeout = time.Duration(c.ShutdownTimeoutSeconds) * time.Second

	c.RefreshSchedule = strings.TrimSpace(c.RefreshSchedule)
	if c.RefreshSchedule != "" {
		if c.RefreshWindowDays <= 0 {
			return fmt.Errorf("invalid refresh_window_days (must be positive days)")
		}
		if c.RefreshBatchSize <= 0 {
			return fmt.Errorf("invalid refresh_batch_size (must be positive)")
		}
		if c.RefreshWindowDays >= c.CacheTTLDays {
			return fmt.Errorf("refresh_window_days (%d) must be shorter than cache_ttl_days (%d)", c.RefreshWindowDays, c.CacheTTLDays)
		}
	}
	c.RefreshWindow = time.Duration(c.RefreshWindowDays) * 24 * time.Hour

	return nil
}

// RefreshEnabled reports whether the scheduled refresher should run.
func (c *Config) RefreshEnabled() bool {
	return c != nil && c.RefreshSchedule != ""
}
