package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Session   SessionConfig
	Draft     DraftConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds database configuration for the booking ledger.
// An empty Host disables the ledger.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SchedulerConfig describes the external scheduling service.
type SchedulerConfig struct {
	BaseURL             string
	APIKey              string
	Timeout             time.Duration
	RetryAttempts       int
	SlotDurationMinutes int
	WindowDays          int
	CutoffHour          int
	TimeZone            string
}

// SessionConfig controls search session lifetime and loader batching.
type SessionConfig struct {
	TTL             time.Duration
	LoaderBatchWait time.Duration
}

// DraftConfig controls booking draft persistence.
type DraftConfig struct {
	TTL time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables, reading a .env file first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded configuration from .env")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clinic_availability"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Scheduler: SchedulerConfig{
			BaseURL:             getEnv("SCHEDULER_BASE_URL", ""),
			APIKey:              getEnv("SCHEDULER_API_KEY", ""),
			Timeout:             getEnvAsDuration("SCHEDULER_TIMEOUT", 10*time.Second),
			RetryAttempts:       getEnvAsInt("SCHEDULER_RETRY_ATTEMPTS", 1),
			SlotDurationMinutes: getEnvAsInt("SCHEDULER_SLOT_MINUTES", 60),
			WindowDays:          getEnvAsInt("SCHEDULER_WINDOW_DAYS", 7),
			CutoffHour:          getEnvAsInt("SCHEDULER_CUTOFF_HOUR", 17),
			TimeZone:            getEnv("SCHEDULER_TIMEZONE", "America/Sao_Paulo"),
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			LoaderBatchWait: getEnvAsDuration("SESSION_LOADER_BATCH_WAIT", 2*time.Millisecond),
		},
		Draft: DraftConfig{
			TTL: getEnvAsDuration("DRAFT_TTL", 72*time.Hour),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "clinic-availability"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Scheduler.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SchedulerConfig) validate() error {
	if c.WindowDays < 1 {
		return fmt.Errorf("SCHEDULER_WINDOW_DAYS must be positive, got %d", c.WindowDays)
	}
	if c.SlotDurationMinutes < 1 {
		return fmt.Errorf("SCHEDULER_SLOT_MINUTES must be positive, got %d", c.SlotDurationMinutes)
	}
	if c.CutoffHour < 0 || c.CutoffHour > 24 {
		return fmt.Errorf("SCHEDULER_CUTOFF_HOUR must be within 0..24, got %d", c.CutoffHour)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location returns the scheduler's time zone. Load has already validated it.
func (c *SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Enabled reports whether a Postgres ledger is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
