package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	CSRF       CSRFConfig
	Redis      RedisConfig
	Geocoder   GeocoderConfig
	Dispatcher DispatcherConfig
	Presence   PresenceConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string
	Version        string
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
	MigrateOnStart bool
}

type DatabaseConfig struct {
	// URL takes precedence over the individual fields when set.
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

type CSRFConfig struct {
	Secret string
}

// RedisConfig is optional; an empty Addr disables the geocode cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GeocoderConfig is optional; an empty URL disables address enrichment.
type GeocoderConfig struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

type PresenceConfig struct {
	IdleAfter     time.Duration
	CheckInterval time.Duration
}

// Load reads the environment, after applying a .env file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	var p parser
	config := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "hris-attendance"),
			Version:        getEnv("APP_VERSION", "v1.0.0"),
			Port:           p.int("APP_PORT", 8080),
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			Timezone:       getEnv("APP_TIMEZONE", "Asia/Jakarta"),
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MigrateOnStart: p.bool("MIGRATE_ON_START", true),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            p.int("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "hris_attendance"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        int32(p.int("DB_MAX_CONNS", 25)),
			MinConns:        int32(p.int("DB_MIN_CONNS", 5)),
			MaxConnLifetime: p.duration("DB_MAX_CONN_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET_KEY", ""),
			AccessExpiration: p.duration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
		},
		CSRF: CSRFConfig{
			Secret: getEnv("CSRF_SECRET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
		},
		Geocoder: GeocoderConfig{
			URL:       getEnv("GEOCODER_URL", ""),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "hris-attendance/1.0"),
			Timeout:   p.duration("GEOCODER_TIMEOUT", 3*time.Second),
			CacheTTL:  p.duration("GEOCODER_CACHE_TTL", 24*time.Hour),
		},
		Dispatcher: DispatcherConfig{
			Workers:     p.int("DISPATCHER_WORKERS", 2),
			QueueSize:   p.int("DISPATCHER_QUEUE_SIZE", 1000),
			TaskTimeout: p.duration("DISPATCHER_TASK_TIMEOUT", 10*time.Second),
		},
		Presence: PresenceConfig{
			IdleAfter:     p.duration("PRESENCE_IDLE_AFTER", 12*time.Hour),
			CheckInterval: p.duration("PRESENCE_CHECK_INTERVAL", 15*time.Minute),
		},
	}
	if p.err != nil {
		return nil, p.err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" && c.Database.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD or DATABASE_URL is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if len(c.CSRF.Secret) < 32 {
		errs = append(errs, errors.New("CSRF_SECRET must be at least 32 characters"))
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err))
	}
	if c.Dispatcher.Workers < 1 {
		errs = append(errs, errors.New("DISPATCHER_WORKERS must be at least 1"))
	}
	if c.Presence.IdleAfter <= 0 || c.Presence.CheckInterval <= 0 {
		errs = append(errs, errors.New("PRESENCE_IDLE_AFTER and PRESENCE_CHECK_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location is the time zone attendance dates and windows are evaluated in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
