// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Admin    AdminConfig    `yaml:"admin"`
	Hooks    HooksConfig    `yaml:"hooks"`
	Themes   ThemesConfig   `yaml:"themes"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite"
	DSN    string `yaml:"dsn"`
	// Seed installs the system hooks, core modules and default theme on
	// first start.
	Seed bool `yaml:"seed"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // "none", "stdout", "otlp"
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// AdminConfig configures the admin API.
type AdminConfig struct {
	// Token is a bcrypt hash or a plaintext token hashed at startup.
	// An empty token disables the mutating admin endpoints.
	Token string `yaml:"token"`
	// BcryptCost is used when Token is plaintext.
	BcryptCost int `yaml:"bcrypt_cost"`
}

// HooksConfig configures hook dispatch.
type HooksConfig struct {
	// ListenerTimeout bounds each listener's context. Zero means no bound.
	ListenerTimeout time.Duration `yaml:"listener_timeout"`
}

// ThemesConfig configures the theme manager.
type ThemesConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /swagger endpoints
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CMSCORE_SERVER_HOST            - Server host (default: 0.0.0.0)
//	CMSCORE_SERVER_PORT            - Server port (default: 8080)
//	CMSCORE_DATABASE_DSN           - Database path (default: cmscore.db)
//	CMSCORE_DATABASE_SEED          - Seed defaults on first start (default: false)
//	CMSCORE_LOG_LEVEL              - Log level: debug, info, warn, error (default: info)
//	CMSCORE_LOG_FORMAT             - Log format: json or console (default: json)
//	CMSCORE_METRICS_ENABLED        - Enable /metrics endpoint
//	CMSCORE_TRACING_ENABLED        - Enable OpenTelemetry tracing
//	CMSCORE_TRACING_EXPORTER       - stdout, otlp or none
//	CMSCORE_TRACING_OTLP_ENDPOINT  - OTLP collector address
//	CMSCORE_ADMIN_TOKEN            - Admin token (bcrypt hash or plaintext)
//	CMSCORE_HOOKS_LISTENER_TIMEOUT - Per-listener timeout, e.g. 2s
//	CMSCORE_THEMES_CACHE_TTL       - Active theme cache TTL (default: 30s)
//	CMSCORE_OPENAPI_ENABLED        - Enable Swagger UI
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CMSCORE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("CMSCORE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CMSCORE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CMSCORE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("CMSCORE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Database configuration
	if v := os.Getenv("CMSCORE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("CMSCORE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CMSCORE_DATABASE_SEED"); v != "" {
		cfg.Database.Seed = parseBool(v)
	}

	// Logging configuration
	if v := os.Getenv("CMSCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CMSCORE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CMSCORE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CMSCORE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// Tracing configuration
	if v := os.Getenv("CMSCORE_TRACING_ENABLED"); v != "" {
		cfg.Tracing.Enabled = parseBool(v)
	}
	if v := os.Getenv("CMSCORE_TRACING_EXPORTER"); v != "" {
		cfg.Tracing.Exporter = v
	}
	if v := os.Getenv("CMSCORE_TRACING_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.OTLPEndpoint = v
	}

	// Admin configuration
	if v := os.Getenv("CMSCORE_ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}

	// Extensibility configuration
	if v := os.Getenv("CMSCORE_HOOKS_LISTENER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Hooks.ListenerTimeout = d
		}
	}
	if v := os.Getenv("CMSCORE_THEMES_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Themes.CacheTTL = d
		}
	}

	// OpenAPI configuration
	if v := os.Getenv("CMSCORE_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "cmscore.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "stdout"
	}
	if cfg.Tracing.OTLPEndpoint == "" {
		cfg.Tracing.OTLPEndpoint = "localhost:4317"
	}
	if cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = 1.0
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "cmscore"
	}

	if cfg.Admin.BcryptCost == 0 {
		cfg.Admin.BcryptCost = 10
	}

	if cfg.Themes.CacheTTL == 0 {
		cfg.Themes.CacheTTL = 30 * time.Second
	}
}

func validate(cfg *Config) error {
	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'sqlite', got %q", cfg.Database.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	validExporters := map[string]bool{"none": true, "stdout": true, "otlp": true}
	if !validExporters[cfg.Tracing.Exporter] {
		return fmt.Errorf("tracing.exporter must be one of: none, stdout, otlp")
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
	}

	if cfg.Hooks.ListenerTimeout < 0 {
		return fmt.Errorf("hooks.listener_timeout must not be negative")
	}
	if cfg.Themes.CacheTTL < 0 {
		return fmt.Errorf("themes.cache_ttl must not be negative")
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	return nil
}
