package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port               int      `yaml:"port"`
	GinMode            string   `yaml:"gin_mode"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // sqlite file, or ":memory:"
}

type AuthConfig struct {
	AccessTokenSecret  string        `yaml:"access_token_secret"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret"`
	AccessTokenExpiry  time.Duration `yaml:"access_token_expiry"`
	RefreshTokenExpiry time.Duration `yaml:"refresh_token_expiry"`
	CookieSecure       bool          `yaml:"cookie_secure"`

	// RestrictRegistrationRole makes self-registration MEMBER-only.
	RestrictRegistrationRole bool `yaml:"restrict_registration_role"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Default returns the development configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			GinMode:            "debug",
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{Path: "food_ordering.db"},
		Auth: AuthConfig{
			AccessTokenSecret:  "food_ordering_access_secret_2024",
			RefreshTokenSecret: "food_ordering_refresh_secret_2024",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load starts from Default, applies the YAML file named by CONFIG_FILE (if
// any) and then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() error {
	var err error
	if v := os.Getenv("PORT"); v != "" {
		if c.Server.Port, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
	}
	c.Server.GinMode = getEnv("GIN_MODE", c.Server.GinMode)
	c.Server.CORSAllowedOrigins = parseCSVEnv("CORS_ALLOWED_ORIGINS", c.Server.CORSAllowedOrigins)
	c.Database.Path = getEnv("DATABASE_PATH", c.Database.Path)

	c.Auth.AccessTokenSecret = getEnv("ACCESS_TOKEN_SECRET", c.Auth.AccessTokenSecret)
	c.Auth.RefreshTokenSecret = getEnv("REFRESH_TOKEN_SECRET", c.Auth.RefreshTokenSecret)
	if v := os.Getenv("ACCESS_TOKEN_EXPIRY"); v != "" {
		if c.Auth.AccessTokenExpiry, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid ACCESS_TOKEN_EXPIRY: %w", err)
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_EXPIRY"); v != "" {
		if c.Auth.RefreshTokenExpiry, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid REFRESH_TOKEN_EXPIRY: %w", err)
		}
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		if c.Auth.CookieSecure, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
	}
	if v := os.Getenv("RESTRICT_REGISTRATION_ROLE"); v != "" {
		if c.Auth.RestrictRegistrationRole, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid RESTRICT_REGISTRATION_ROLE: %w", err)
		}
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Auth.AccessTokenSecret == "" || c.Auth.RefreshTokenSecret == "" {
		return errors.New("access and refresh token secrets are required")
	}
	if c.Auth.AccessTokenExpiry <= 0 || c.Auth.RefreshTokenExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseCSVEnv(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
