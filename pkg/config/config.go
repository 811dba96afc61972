// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devExportsSecret = "dev_exports_secret"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Analytics AnalyticsConfig
	Planner   PlannerConfig
	Exports   ExportsConfig
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig addresses the analytics cache. URL, when set, wins over the
// discrete fields.
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type AnalyticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// PlannerConfig anchors the planner's day grid.
type PlannerConfig struct {
	Timezone string
}

// Location resolves Timezone, falling back to UTC.
func (p PlannerConfig) Location() *time.Location {
	if loc, err := p.location(); err == nil {
		return loc
	}
	return time.UTC
}

func (p PlannerConfig) location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(p.Timezone)
}

type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// Load reads .env (if any) and the process environment, in that order of
// precedence reversed: real environment variables override the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("API_PREFIX %q must start with /", c.APIPrefix))
	}
	if _, err := c.Planner.location(); err != nil {
		errs = append(errs, fmt.Errorf("PLANNER_TIMEZONE: %w", err))
	}
	if c.Exports.Enabled {
		if c.Exports.StorageDir == "" {
			errs = append(errs, errors.New("EXPORTS_STORAGE_DIR is required when exports are enabled"))
		}
		if c.Env == EnvProduction && (c.Exports.SignedURLSecret == "" || c.Exports.SignedURLSecret == devExportsSecret) {
			errs = append(errs, errors.New("EXPORTS_SIGNED_URL_SECRET must be set in production"))
		}
	}
	return errors.Join(errs...)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: strings.TrimRight(v.GetString("API_PREFIX"), "/"),
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSL_MODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		CORS: CORSConfig{AllowedOrigins: csv(v.GetString("ALLOWED_ORIGINS"))},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Analytics: AnalyticsConfig{
			CacheEnabled: v.GetBool("ENABLE_ANALYTICS_CACHE"),
			CacheTTL:     duration(v, "ANALYTICS_CACHE_TTL", 10*time.Minute),
		},
		Planner: PlannerConfig{Timezone: v.GetString("PLANNER_TIMEZONE")},
		Exports: ExportsConfig{
			Enabled:           v.GetBool("ENABLE_EXPORTS"),
			StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
			SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
			SignedURLTTL:      duration(v, "EXPORTS_SIGNED_URL_TTL", 24*time.Hour),
			WorkerConcurrency: atLeast(v.GetInt("EXPORTS_WORKER_CONCURRENCY"), 1),
			WorkerRetries:     atLeast(v.GetInt("EXPORTS_WORKER_RETRIES"), 0),
		},
	}
}

var defaults = map[string]any{
	"ENV":        EnvDevelopment,
	"PORT":       8080,
	"API_PREFIX": "/api/v1",

	"DB_HOST":           "localhost",
	"DB_PORT":           5432,
	"DB_USER":           "postgres",
	"DB_PASSWORD":       "postgres",
	"DB_NAME":           "study_planner",
	"DB_SSL_MODE":       "disable",
	"DB_MAX_OPEN_CONNS": 10,
	"DB_MAX_IDLE_CONNS": 5,

	"REDIS_URL":      "",
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"ALLOWED_ORIGINS": "",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",

	"ENABLE_ANALYTICS_CACHE": true,
	"ANALYTICS_CACHE_TTL":    "10m",

	"PLANNER_TIMEZONE": "UTC",

	"ENABLE_EXPORTS":             true,
	"EXPORTS_STORAGE_DIR":        "./exports",
	"EXPORTS_SIGNED_URL_SECRET":  devExportsSecret,
	"EXPORTS_SIGNED_URL_TTL":     "24h",
	"EXPORTS_WORKER_CONCURRENCY": 1,
	"EXPORTS_WORKER_RETRIES":     3,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// duration parses key as a Go duration, using fallback for empty or
// malformed values.
func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func atLeast(n, floor int) int {
	if n < floor {
		return floor
	}
	return n
}

func csv(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
