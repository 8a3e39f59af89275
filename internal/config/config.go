package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Accepted APP_ENV values. Only development serves the API documentation routes.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config holds the environment driven configuration for the server.
type Config struct {
	Environment        string        `env:"APP_ENV"              envDefault:"production"`
	Port               int           `env:"PORT"                 envDefault:"8080"`
	LogLevel           string        `env:"LOG_LEVEL"            envDefault:"info"`
	ProjectID          string        `env:"GOOGLE_CLOUD_PROJECT"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"     envSeparator:","`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES"       envDefault:"1048576"`
	MetricsEnabled     bool          `env:"METRICS_ENABLED"      envDefault:"true"`
	ReadTimeout        time.Duration `env:"READ_TIMEOUT"         envDefault:"5s"`
	ReadHeaderTimeout  time.Duration `env:"READ_HEADER_TIMEOUT"  envDefault:"2s"`
	WriteTimeout       time.Duration `env:"WRITE_TIMEOUT"        envDefault:"10s"`
	IdleTimeout        time.Duration `env:"IDLE_TIMEOUT"         envDefault:"60s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT"     envDefault:"10s"`
}

// Load parses environment variables into Config.
//
// Precedence, highest first: process environment, .env file in the working
// directory (optional), struct tag defaults.
func Load() (*Config, error) {
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be one of %s, %s, %s; got %q", EnvDevelopment, EnvStaging, EnvProduction, c.Environment)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if len(c.CORSAllowedOrigins) == 0 || strings.TrimSpace(strings.Join(c.CORSAllowedOrigins, "")) == "" {
		return errors.New("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"READ_TIMEOUT", c.ReadTimeout},
		{"READ_HEADER_TIMEOUT", c.ReadHeaderTimeout},
		{"WRITE_TIMEOUT", c.WriteTimeout},
		{"IDLE_TIMEOUT", c.IdleTimeout},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsDevelopment reports whether developer tooling such as API docs should be served.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}
