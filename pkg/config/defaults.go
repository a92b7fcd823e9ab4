// Package config defines runtime configuration and user preferences.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Keys recognized in ~/.netmapper.yaml and as NETMAPPER_* environment variables.
const (
	KeyBaseURL      = "base_url"
	KeyTheme        = "theme"
	KeyOutput       = "output"
	KeyOtelEndpoint = "otel_endpoint"
	KeyMetricsAddr  = "metrics_addr"
	KeyRateLimit    = "rate_limit"
	KeyS3Endpoint   = "s3_endpoint"
	KeyRegion       = "region"
	KeyLogFile      = "log_file"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:5000"
	EnvPrefix      = "NETMAPPER"
	FileName       = ".netmapper.yaml"
)

// Config holds the settings the CLI reads at startup.
type Config struct {
	// BaseURL is the discovery service origin. It is the only setting the
	// orchestration core itself consumes.
	BaseURL string `mapstructure:"base_url"`
	// Theme is the persisted display preference.
	Theme string `mapstructure:"theme"`
	// Output is where downloaded maps go: a directory or s3://bucket/prefix.
	Output string `mapstructure:"output"`

	OtelEndpoint string  `mapstructure:"otel_endpoint"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	RateLimit    float64 `mapstructure:"rate_limit"`
	S3Endpoint   string  `mapstructure:"s3_endpoint"`
	Region       string  `mapstructure:"region"`
	LogFile      string  `mapstructure:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Theme:   string(Light),
		Output:  ".",
	}
}

// SetDefaults registers the defaults on v and binds the environment.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeyTheme, d.Theme)
	v.SetDefault(KeyOutput, d.Output)
	v.SetDefault(KeyRateLimit, 0.0)
	// Unmarshal only sees keys viper already knows, so every key needs a
	// default for its NETMAPPER_* variable to apply.
	for _, key := range []string{KeyOtelEndpoint, KeyMetricsAddr, KeyS3Endpoint, KeyRegion, KeyLogFile} {
		v.SetDefault(key, "")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the core depends on.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", KeyBaseURL, c.BaseURL)
	}
	if _, err := ParseTheme(c.Theme); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%s must not be negative", KeyRateLimit)
	}
	return nil
}
