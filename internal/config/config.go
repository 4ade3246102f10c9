// Package config loads service settings from defaults, an optional file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config contains server configuration parameters.
type Config struct {
	Port     string
	Env      string
	LogLevel string
	Database Database
	Auth     Auth
	RabbitMQ RabbitMQ
	Storage  Storage
}

// Database contains database connection parameters.
type Database struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// Auth contains session token parameters.
type Auth struct {
	Secret   string
	TokenTTL time.Duration
	// LoginAttempts per client IP and minute.
	LoginAttempts int
}

// RabbitMQ contains the broker URL. Empty disables guitar events.
type RabbitMQ struct {
	URL string
}

// Storage contains object storage parameters. An empty Endpoint disables
// image uploads.
type Storage struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	MaxImageBytes int64
}

const devSecret = "stringtracker-dev-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "stringtracker")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "stringtracker.db")

	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("LOGIN_ATTEMPTS", 10)

	v.SetDefault("RABBITMQ_URL", "")

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "guitar-images")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MAX_IMAGE_BYTES", 5<<20)
}

// Load reads the configuration. configFile may be empty; when set, its keys
// are overridden by environment variables of the same name.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("APP_PORT"),
		Env:      strings.ToLower(v.GetString("APP_ENV")),
		LogLevel: v.GetString("LOG_LEVEL"),
		Database: Database{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("POSTGRES_HOST"),
			Port:       v.GetInt("POSTGRES_PORT"),
			User:       v.GetString("POSTGRES_USER"),
			Password:   v.GetString("POSTGRES_PASSWORD"),
			Name:       v.GetString("POSTGRES_DB"),
			SSLMode:    v.GetString("POSTGRES_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Auth: Auth{
			Secret:        v.GetString("AUTH_SECRET"),
			TokenTTL:      v.GetDuration("TOKEN_TTL"),
			LoginAttempts: v.GetInt("LOGIN_ATTEMPTS"),
		},
		RabbitMQ: RabbitMQ{URL: v.GetString("RABBITMQ_URL")},
		Storage: Storage{
			Endpoint:      v.GetString("MINIO_ENDPOINT"),
			AccessKey:     v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:     v.GetString("MINIO_SECRET_KEY"),
			Bucket:        v.GetString("MINIO_BUCKET"),
			UseSSL:        v.GetBool("MINIO_USE_SSL"),
			MaxImageBytes: v.GetInt64("MAX_IMAGE_BYTES"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = devSecret
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV %q: must be %s or %s", c.Env, EnvDevelopment, EnvProduction)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: must be one of postgres, sqlite, memory", c.Database.Driver)
	}
	if c.Env == EnvProduction && c.Auth.Secret == "" {
		return errors.New("AUTH_SECRET is required in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL %s: must be positive", c.Auth.TokenTTL)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode, where
// the schema is synchronized on startup.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// DSN builds the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// StorageEnabled reports whether image uploads are configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

// EventsEnabled reports whether guitar events are published.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQ.URL != ""
}
