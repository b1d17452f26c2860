// Copyright Marco Kaiser, 2025. All rights reserved.

package types

import "time"

// CacheBackend selects the result-cache storage backend.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheSQLite CacheBackend = "sqlite"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout in milliseconds.
	TimeoutMS int `json:"timeout_ms" yaml:"timeout_ms" mapstructure:"timeout_ms"`

	// MaxRetries is the number of retry attempts for transient transport
	// failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the request timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// CacheConfig holds settings for the result cache.
type CacheConfig struct {
	// Enabled controls whether fetched results are cached at all. When
	// false, lookups always miss and stores are no-ops.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// TTLSeconds is how long a cached result set stays valid (default 3600).
	TTLSeconds int `json:"ttl_seconds" yaml:"ttl_seconds" mapstructure:"ttl_seconds"`

	// Backend selects the storage backend: "memory" or "sqlite".
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the SQLite database file, used when Backend is "sqlite".
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// TTL returns the entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// DownloadConfig holds settings for the paper file downloader.
type DownloadConfig struct {
	// MaxConcurrent bounds the number of in-flight downloads (default 5).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// PDFs controls whether PDF files are downloaded.
	PDFs bool `json:"pdfs" yaml:"pdfs" mapstructure:"pdfs"`

	// Tex controls whether TeX source tarballs are downloaded.
	Tex bool `json:"tex" yaml:"tex" mapstructure:"tex"`

	// Dir is the output directory for downloaded files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// LoggingConfig holds structured-logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is the output format: "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for the fetcher. The zero value is not
// usable; construct with Default and override fields as needed.
type Config struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Cache    CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Download DownloadConfig `json:"download" yaml:"download" mapstructure:"download"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			TimeoutMS:  60000,
			MaxRetries: 3,
			UserAgent:  "pasa-research-fetcher/1.0",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
			Backend:    CacheMemory,
			Path:       "cache/results.db",
		},
		Download: DownloadConfig{
			MaxConcurrent: 5,
			PDFs:          true,
			Tex:           false,
			Dir:           "./downloads",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
