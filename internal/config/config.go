// Package config loads configuration for the atelier client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Errors returned by the config package.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the root configuration for the atelier client.
type Config struct {
	Target TargetConfig
	Auth   AuthConfig
	Log    LogConfig
}

// TargetConfig holds settings for the atelier REST API.
type TargetConfig struct {
	// BaseURL is the base URL of the API (e.g., "http://127.0.0.1:8000").
	BaseURL string

	// APIVersion is the API version prefix. Default: "api/v1".
	APIVersion string

	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration

	// TLSSkipVerify skips TLS certificate verification (for testing only).
	TLSSkipVerify bool

	// Headers are additional headers to include in all requests.
	Headers map[string]string

	// RateLimit is the maximum request rate in requests per second.
	// Zero disables client-side rate limiting.
	RateLimit float64

	// RateBurst is the rate limiter burst size. Default: 1 when RateLimit is set.
	RateBurst int
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// TokenFile is the path where the session token is persisted.
	// Default: ~/.atelier/token.
	TokenFile string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load reads configuration from (highest to lowest priority):
// 1. Environment variables with ATELIER_ prefix (e.g., ATELIER_TARGET_BASE_URL)
// 2. The config file at path (YAML), or ~/.atelier/config.yaml when path is empty
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".atelier"))
		}
		// A missing default config file is fine; defaults and env vars apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("ATELIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Target: TargetConfig{
			BaseURL:       v.GetString("target.base_url"),
			APIVersion:    v.GetString("target.api_version"),
			Timeout:       v.GetDuration("target.timeout"),
			TLSSkipVerify: v.GetBool("target.tls_skip_verify"),
			Headers:       v.GetStringMapString("target.headers"),
			RateLimit:     v.GetFloat64("target.rate_limit"),
			RateBurst:     v.GetInt("target.rate_burst"),
		},
		Auth: AuthConfig{
			TokenFile: v.GetString("auth.token_file"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if cfg.Auth.TokenFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Auth.TokenFile = filepath.Join(home, ".atelier", "token")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers built-in defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("target.base_url", "http://127.0.0.1:8000")
	v.SetDefault("target.api_version", "api/v1")
	v.SetDefault("target.timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Target.BaseURL == "" {
		return fmt.Errorf("%w: target base URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid target base URL %q", ErrInvalidConfig, c.Target.BaseURL)
	}
	if c.Target.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	if c.Target.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit cannot be negative", ErrInvalidConfig)
	}
	return nil
}
