// Package config assembles runtime settings from defaults, an optional
// YAML file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dharmasatrya/flightwatch/internal/aggregator"
	"github.com/dharmasatrya/flightwatch/internal/monitor"
	"github.com/dharmasatrya/flightwatch/internal/providers"
	"github.com/dharmasatrya/flightwatch/internal/ratelimit"
	"github.com/dharmasatrya/flightwatch/internal/store"
)

type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Log        LogConfig         `yaml:"log"`
	Providers  ProvidersConfig   `yaml:"providers"`
	Cache      CacheConfig       `yaml:"cache"`
	RateLimit  ratelimit.Config  `yaml:"rate_limit"`
	Aggregator aggregator.Config `yaml:"aggregator"`
	Monitor    monitor.Config    `yaml:"monitor"`
	Store      StoreConfig       `yaml:"store"`
	Alerts     AlertsConfig      `yaml:"alerts"`
}

type ServerConfig struct {
	Port            string                  `yaml:"port"`
	ReadTimeout     time.Duration           `yaml:"read_timeout"`
	WriteTimeout    time.Duration           `yaml:"write_timeout"`
	ShutdownTimeout time.Duration           `yaml:"shutdown_timeout"`
	Ingress         ratelimit.IngressConfig `yaml:"ingress"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ProvidersConfig struct {
	Amadeus    providers.AmadeusConfig    `yaml:"amadeus"`
	Skyscanner providers.SkyscannerConfig `yaml:"skyscanner"`
	Timeout    time.Duration              `yaml:"timeout"`
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int           `yaml:"max_size"`
}

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type StoreConfig struct {
	Backend string            `yaml:"backend"`
	TTL     time.Duration     `yaml:"ttl"`
	Redis   store.RedisConfig `yaml:"redis"`
	Mongo   store.MongoConfig `yaml:"mongo"`
}

type AlertsConfig struct {
	SQLitePath      string        `yaml:"sqlite_path"`
	PostgresDSN     string        `yaml:"postgres_dsn"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
	Stream          bool          `yaml:"stream"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Ingress:         ratelimit.DefaultIngressConfig(),
		},
		Log: LogConfig{Level: "info"},
		Providers: ProvidersConfig{
			Amadeus:    providers.AmadeusConfig{BaseURL: providers.DefaultAmadeusBaseURL},
			Skyscanner: providers.SkyscannerConfig{BaseURL: providers.DefaultSkyscannerBaseURL, Market: "US", Locale: "en-US"},
			Timeout:    providers.DefaultTimeout,
		},
		Cache: CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 1000,
		},
		RateLimit:  ratelimit.DefaultConfig(),
		Aggregator: aggregator.DefaultConfig(),
		Monitor:    monitor.DefaultConfig(),
		Store: StoreConfig{
			Backend: BackendMemory,
			TTL:     time.Hour,
			Redis:   store.DefaultRedisConfig(),
			Mongo: store.MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "flightwatch",
				TTL:      time.Hour,
			},
		},
		Alerts: AlertsConfig{
			SQLitePath:      "flightwatch.db",
			DeliveryTimeout: 5 * time.Second,
			Stream:          true,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply. A missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	cfg.Providers.Amadeus.ClientID = getEnv("AMADEUS_CLIENT_ID", cfg.Providers.Amadeus.ClientID)
	cfg.Providers.Amadeus.ClientSecret = getEnv("AMADEUS_CLIENT_SECRET", cfg.Providers.Amadeus.ClientSecret)
	cfg.Providers.Amadeus.BaseURL = getEnv("AMADEUS_BASE_URL", cfg.Providers.Amadeus.BaseURL)
	cfg.Providers.Skyscanner.APIKey = getEnv("SKYSCANNER_API_KEY", cfg.Providers.Skyscanner.APIKey)
	cfg.Providers.Skyscanner.BaseURL = getEnv("SKYSCANNER_BASE_URL", cfg.Providers.Skyscanner.BaseURL)
	cfg.Providers.Timeout = getEnvDuration("PROVIDER_TIMEOUT", cfg.Providers.Timeout)

	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.MaxSize = getEnvAsInt("CACHE_MAX_SIZE", cfg.Cache.MaxSize)

	cfg.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.RequestsPerHour = getEnvAsInt("RATE_LIMIT_PER_HOUR", cfg.RateLimit.RequestsPerHour)

	cfg.Monitor.Interval = getEnvDuration("MONITOR_INTERVAL", cfg.Monitor.Interval)

	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Redis.Host = getEnv("REDIS_HOST", cfg.Store.Redis.Host)
	cfg.Store.Redis.Port = getEnv("REDIS_PORT", cfg.Store.Redis.Port)
	cfg.Store.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Store.Redis.Password)
	cfg.Store.Redis.TTL = getEnvDuration("REDIS_TTL", cfg.Store.Redis.TTL)
	cfg.Store.Mongo.URI = getEnv("MONGO_URI", cfg.Store.Mongo.URI)
	cfg.Store.Mongo.Username = getEnv("MONGO_USERNAME", cfg.Store.Mongo.Username)
	cfg.Store.Mongo.Password = getEnv("MONGO_PASSWORD", cfg.Store.Mongo.Password)
	cfg.Store.Mongo.Database = getEnv("MONGO_DATABASE", cfg.Store.Mongo.Database)

	cfg.Alerts.SQLitePath = getEnv("ALERTS_SQLITE_PATH", cfg.Alerts.SQLitePath)
	cfg.Alerts.PostgresDSN = getEnv("ALERTS_POSTGRES_DSN", cfg.Alerts.PostgresDSN)
	cfg.Alerts.Stream = getEnvBool("ALERTS_STREAM", cfg.Alerts.Stream)
}

func (c Config) Validate() error {
	switch {
	case c.Server.Port == "":
		return errors.New("server port is required")
	case c.Providers.Timeout <= 0:
		return errors.New("provider timeout must be positive")
	case c.Cache.TTL <= 0 || c.Cache.MaxSize <= 0:
		return errors.New("cache ttl and max size must be positive")
	case c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.RequestsPerHour <= 0:
		return errors.New("rate limits must be positive")
	case c.Monitor.Interval <= 0:
		return errors.New("monitor interval must be positive")
	case c.Monitor.HistorySize < 2:
		return errors.New("monitor history size must be at least 2")
	}

	switch c.Store.Backend {
	case BackendNone, BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
