// Package config reads the site settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects the store. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file or DSN
	Debug    bool
}

// AuthConfig holds the token and session secrets.
type AuthConfig struct {
	TokenSecret   string
	TokenTTL      time.Duration
	SessionSecret string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env           string
	Migrations    bool
	Seed          bool
	LogLevel      string
	LogFormat     string // "text" or "json"
	StatsSchedule string
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format, as golang-migrate expects.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Dev reports whether the deployment mode is development.
func (a AppConfig) Dev() bool { return a.Env == "development" }

// Development secrets. They are only applied when the environment is
// development and Validate rejects them anywhere else.
const (
	DevTokenSecret   = "devaccesstokensecret"
	DevSessionSecret = "devsessionsecret"
)

var ErrInsecureSecret = errors.New("config: secret unset or left at its development value")

// Load reads configuration from the process environment.
func Load() *Config { return LoadFrom(os.Getenv) }

// LoadFrom builds a Config from lookup. Unset or malformed values take the
// local development default.
func LoadFrom(lookup func(string) string) *Config {
	e := env(lookup)
	appEnv := e.str("NODE_ENV", e.str("APP_ENV", "development"))
	tokenSecret, sessionSecret := "", ""
	if appEnv == "development" {
		tokenSecret, sessionSecret = DevTokenSecret, DevSessionSecret
	}
	return &Config{
		Server: ServerConfig{
			Port:         e.str("PORT", "5500"),
			ReadTimeout:  e.num("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: e.num("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  e.num("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(e.str("DB_DRIVER", "postgres")),
			Host:     e.str("DB_HOST", "localhost"),
			Port:     e.num("DB_PORT", 5432),
			User:     e.str("DB_USER", "cse"),
			Password: e.str("DB_PASSWORD", "cse"),
			DBName:   e.str("DB_NAME", "cse_motors"),
			SSLMode:  e.str("DB_SSLMODE", "disable"),
			Path:     e.str("DB_PATH", "cse_motors.db"),
			Debug:    e.flag("DB_DEBUG"),
		},
		Auth: AuthConfig{
			TokenSecret:   e.str("ACCESS_TOKEN_SECRET", tokenSecret),
			TokenTTL:      e.duration("JWT_TTL", time.Hour),
			SessionSecret: e.str("SESSION_SECRET", sessionSecret),
		},
		App: AppConfig{
			Env:           appEnv,
			Migrations:    e.flag("MIGRATIONS"),
			Seed:          e.flag("DB_SEED"),
			LogLevel:      e.str("LOG_LEVEL", "info"),
			LogFormat:     e.str("LOG_FORMAT", "text"),
			StatsSchedule: e.str("STATS_SCHEDULE", "@every 5m"),
		},
	}
}

// Validate rejects missing or development secrets outside development.
func (c *Config) Validate() error {
	if c.App.Dev() {
		return nil
	}
	var bad []string
	if c.Auth.TokenSecret == "" || c.Auth.TokenSecret == DevTokenSecret {
		bad = append(bad, "ACCESS_TOKEN_SECRET")
	}
	if c.Auth.SessionSecret == "" || c.Auth.SessionSecret == DevSessionSecret {
		bad = append(bad, "SESSION_SECRET")
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInsecureSecret, strings.Join(bad, ", "))
	}
	return nil
}

type env func(string) string

func (e env) str(key, def string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return def
}

func (e env) num(key string, def int) int {
	if n, err := strconv.Atoi(e.str(key, "")); err == nil {
		return n
	}
	return def
}

// flag is true for "1", "true" or "yes" in any case.
func (e env) flag(key string) bool {
	switch strings.ToLower(e.str(key, "")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// duration accepts "90m" style durations or a positive number of seconds.
func (e env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
