package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// Supported database drivers
const (
	DriverPostgres = store.DriverPostgres
	DriverSQLite   = store.DriverSQLite
	DriverMemory   = store.DriverMemory
)

// Config holds all application configuration
type Config struct {
	DatabaseDriver string `mapstructure:"database_driver"`
	DatabaseURL    string `mapstructure:"database_url"`
	RedisURL       string `mapstructure:"redis_url"`
	Port           string `mapstructure:"port"`

	// Auth
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	IdentityCacheTTL  time.Duration `mapstructure:"identity_cache_ttl"`
	IdentityCacheSize int           `mapstructure:"identity_cache_size"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	GinMode   string `mapstructure:"gin_mode"`
}

// App holds the global config instance
var App Config

// LoadConfig loads configuration into App from an optional file and the environment
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	App = *cfg
	return nil
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded .env file")
	}

	v := viper.New()

	v.SetDefault("database_driver", DriverPostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("port", "5000")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "720h")
	v.SetDefault("identity_cache_ttl", "5m")
	v.SetDefault("identity_cache_size", 1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("gin_mode", "release")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("teamtask")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("teamtask")

	// Standard names first, prefixed names as a fallback
	_ = v.BindEnv("database_url", "DATABASE_URL", "TEAMTASK_DATABASE_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL", "TEAMTASK_REDIS_URL")
	_ = v.BindEnv("port", "PORT", "TEAMTASK_PORT")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET", "TEAMTASK_JWT_SECRET")
	_ = v.BindEnv("gin_mode", "GIN_MODE", "TEAMTASK_GIN_MODE")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logrus.Debug("No config file found, using defaults and environment variables")
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Debug("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for driver %q", c.DatabaseDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database_driver %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	return nil
}
