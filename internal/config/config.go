// Package config loads and validates the Team D backend configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the TEAMD_ prefix (e.g., TEAMD_DATABASE_HOST
// overrides database.host in the YAML). This layering allows the same binary to
// run with a config.yaml in local development and with pure environment variables
// in containerized deployments — no recompilation or different binaries needed.
//
// The signing secret (TEAMD_JWT_SECRET) deliberately lives outside this structure;
// it is validated by the auth package at startup so that token code has no
// dependency on config loading order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	Environment  string        `mapstructure:"environment"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// IsProduction reports whether the server runs with production hardening
// (Secure cookies, parent-domain cookie scope, mandatory signing secret).
func (s *ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// GetAddress returns the listen address in host:port form.
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// AuthConfig holds session token and cookie configuration
type AuthConfig struct {
	// TokenTTL is the session token lifetime. Production deployments use the
	// 24h default; a shorter value (e.g. 8h) suits local-dev variants.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// CookieName is the session cookie name shared across portals.
	CookieName string `mapstructure:"cookie_name"`
	// CookieDomain scopes the cookie to a parent domain in production so the
	// main portal and team dashboards share the session (e.g. ".large-event.com").
	// Empty means host-only, which is correct for local development.
	CookieDomain string `mapstructure:"cookie_domain"`
}

// SecurityConfig holds CORS, rate limiting, and TLS configuration
type SecurityConfig struct {
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	TLS          TLSConfig          `mapstructure:"tls"`
}

// CORSConfig holds the allowed origin list for browser portals
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitingConfig holds token-bucket rate limiter settings
type RateLimitingConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// TLSConfig holds TLS listener configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// LoggingConfig holds structured logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds metrics and profiling configuration
type TelemetryConfig struct {
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

// MetricsConfig holds the Prometheus side-channel port settings
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// ProfilingConfig holds the pprof side-channel port settings
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// bindEnvVars explicitly binds environment variables to config keys.
// This is necessary because AutomaticEnv() doesn't work well with nested structs
// during Unmarshal. viper.BindEnv only errors when called with zero keys; since
// every key here is a non-empty hardcoded string, any error indicates a
// programming bug and is surfaced to the caller.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.base_url",
		"server.environment",
		"server.read_timeout",
		"server.write_timeout",

		// Database
		"database.host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		// Auth
		"auth.token_ttl",
		"auth.cookie_name",
		"auth.cookie_domain",

		// Security
		"security.cors.allowed_origins",
		"security.rate_limiting.enabled",
		"security.rate_limiting.requests_per_minute",
		"security.rate_limiting.burst",
		"security.tls.enabled",
		"security.tls.cert_file",
		"security.tls.key_file",

		// Logging
		"logging.level",
		"logging.format",

		// Telemetry
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",
		"telemetry.profiling.enabled",
		"telemetry.profiling.port",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/teamd-backend")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	v.SetEnvPrefix("TEAMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Database.Password = expandEnv(cfg.Database.Password)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3004)
	v.SetDefault("server.base_url", "http://localhost:3004")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "large_event_db")
	v.SetDefault("database.user", "teamd")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	// Auth defaults
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.cookie_name", "auth-token")
	v.SetDefault("auth.cookie_domain", "")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:3001",
	})
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.requests_per_minute", 200)
	v.SetDefault("security.rate_limiting.burst", 50)
	v.SetDefault("security.tls.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
	v.SetDefault("telemetry.profiling.enabled", false)
	v.SetDefault("telemetry.profiling.port", 6060)
}

// expandEnv expands ${VAR} references so secrets can be injected indirectly
// (e.g. database.password: ${DB_PASSWORD} in a checked-in config file).
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}

	switch c.Database.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("database.ssl_mode %q is not a valid libpq sslmode", c.Database.SSLMode)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not valid (debug, info, warn, error)", c.Logging.Level)
	}

	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" || c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.cert_file and security.tls.key_file are required when TLS is enabled")
		}
	}

	if c.Server.IsProduction() {
		for _, origin := range c.Security.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("security.cors.allowed_origins must not contain '*' in production")
			}
		}
	}

	return nil
}
