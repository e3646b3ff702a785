// internal/config/config.go
//
// Server configuration.
// Responsibilities:
//   - Defaults for every key.
//   - Optional YAML file named by CONFIG_FILE.
//   - Environment overrides (a .env file is loaded by main before Load).
//   - Validation of the combined result.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the resolved server configuration.
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string // "json" or "console"
	ClientOrigin   string
	StoreBackend   string
	RedisURL       string
	GameTTL        time.Duration
	ArchiveDSN     string // empty disables the archive
	AdminSecret    string // empty leaves admin routes open
	RequestTimeout time.Duration
	AppVersion     string
}

// fileConfig mirrors Config in the YAML file. Durations are strings ("24h").
type fileConfig struct {
	Port           string `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	ClientOrigin   string `yaml:"client_origin"`
	StoreBackend   string `yaml:"store_backend"`
	RedisURL       string `yaml:"redis_url"`
	GameTTL        string `yaml:"game_ttl"`
	ArchiveDSN     string `yaml:"archive_dsn"`
	AdminSecret    string `yaml:"admin_secret"`
	RequestTimeout string `yaml:"request_timeout"`
	AppVersion     string `yaml:"app_version"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:           "5175",
		LogLevel:       "info",
		LogFormat:      "json",
		ClientOrigin:   "http://localhost:5173",
		StoreBackend:   BackendMemory,
		GameTTL:        24 * time.Hour,
		RequestTimeout: 10 * time.Second,
		AppVersion:     "dev",
	}
}

// Load resolves defaults, then CONFIG_FILE, then environment variables, and
// validates the result.
func Load() (Config, error) {
	cfg := Defaults()

	if path := env("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.Port, f.Port)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogFormat, f.LogFormat)
	setString(&c.ClientOrigin, f.ClientOrigin)
	setString(&c.StoreBackend, f.StoreBackend)
	setString(&c.RedisURL, f.RedisURL)
	setString(&c.ArchiveDSN, f.ArchiveDSN)
	setString(&c.AdminSecret, f.AdminSecret)
	setString(&c.AppVersion, f.AppVersion)
	if err := setDuration(&c.GameTTL, "game_ttl", f.GameTTL); err != nil {
		return err
	}
	return setDuration(&c.RequestTimeout, "request_timeout", f.RequestTimeout)
}

func (c *Config) applyEnv() error {
	setString(&c.Port, env("PORT"))
	setString(&c.LogLevel, env("LOG_LEVEL"))
	setString(&c.LogFormat, env("LOG_FORMAT"))
	setString(&c.ClientOrigin, env("CLIENT_ORIGIN"))
	setString(&c.StoreBackend, env("STORE_BACKEND"))
	setString(&c.RedisURL, env("REDIS_URL"))
	setString(&c.ArchiveDSN, env("ARCHIVE_DSN"))
	setString(&c.AdminSecret, env("ADMIN_SECRET"))
	setString(&c.AppVersion, env("APP_VERSION"))
	if err := setDuration(&c.GameTTL, "GAME_TTL", env("GAME_TTL")); err != nil {
		return err
	}
	return setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT", env("REQUEST_TIMEOUT"))
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.GameTTL <= 0 {
		errs = append(errs, errors.New("GAME_TTL must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
