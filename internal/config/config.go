// Copyright Marco Kaiser, 2025. All rights reserved.

// Package config loads fetcher configuration from file, environment, and
// defaults via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// Load reads configuration into a types.Config. Precedence, highest
// first: environment variables (prefix PASA_FETCHER), the config file,
// built-in defaults. A missing config file is not an error.
func Load(v *viper.Viper) (types.Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("PASA_FETCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := types.Default()

	v.SetDefault("http.timeout_ms", def.HTTP.TimeoutMS)
	v.SetDefault("http.max_retries", def.HTTP.MaxRetries)
	v.SetDefault("http.user_agent", def.HTTP.UserAgent)

	v.SetDefault("cache.enabled", def.Cache.Enabled)
	v.SetDefault("cache.ttl_seconds", def.Cache.TTLSeconds)
	v.SetDefault("cache.backend", string(def.Cache.Backend))
	v.SetDefault("cache.path", def.Cache.Path)

	v.SetDefault("download.max_concurrent", def.Download.MaxConcurrent)
	v.SetDefault("download.pdfs", def.Download.PDFs)
	v.SetDefault("download.tex", def.Download.Tex)
	v.SetDefault("download.dir", def.Download.Dir)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
}

func validate(cfg types.Config) error {
	if cfg.HTTP.TimeoutMS <= 0 {
		return fmt.Errorf("http.timeout_ms must be positive, got %d", cfg.HTTP.TimeoutMS)
	}
	if cfg.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must not be negative, got %d", cfg.Cache.TTLSeconds)
	}
	switch cfg.Cache.Backend {
	case types.CacheMemory, types.CacheSQLite:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q",
			types.CacheMemory, types.CacheSQLite, cfg.Cache.Backend)
	}
	if cfg.Download.MaxConcurrent <= 0 {
		return fmt.Errorf("download.max_concurrent must be positive, got %d", cfg.Download.MaxConcurrent)
	}
	return nil
}
