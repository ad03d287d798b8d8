package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Parcel store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Default hub coordinate: the Nagpur transit hub used by the demo dataset.
const (
	defaultHubLat = 21.1458
	defaultHubLon = 79.0882
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Tracking session.
	SearchLatency   time.Duration
	DefaultLanguage string

	// Parcel store.
	ParcelStore     string
	DatabaseURL     string
	ParcelCacheSize int

	// OpenWeather configuration.
	OpenWeatherAPIKey     string
	OpenWeatherEnabled    bool
	OpenWeatherTimeout    time.Duration
	OpenWeatherMaxRetries int

	// Demo hub override.
	HubOverrideEnabled bool
	HubLat             float64
	HubLon             float64

	// Delay alert feed.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAlertTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	searchLatency, err := time.ParseDuration(sharedcfg.EnvOrDefault("SEARCH_LATENCY", "600ms"))
	if err != nil || searchLatency < 0 {
		return nil, errors.New("invalid SEARCH_LATENCY")
	}

	owTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("OPENWEATHER_TIMEOUT", "5s"))
	if err != nil || owTimeout <= 0 {
		return nil, errors.New("invalid OPENWEATHER_TIMEOUT")
	}

	owRetries, err := strconv.Atoi(sharedcfg.EnvOrDefault("OPENWEATHER_MAX_RETRIES", "2"))
	if err != nil || owRetries < 0 {
		return nil, errors.New("invalid OPENWEATHER_MAX_RETRIES")
	}

	hubLat, err := parseCoordinate("HUB_LAT", defaultHubLat, 90)
	if err != nil {
		return nil, err
	}
	hubLon, err := parseCoordinate("HUB_LON", defaultHubLon, 180)
	if err != nil {
		return nil, err
	}

	owKey := os.Getenv("OPENWEATHER_API_KEY")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SearchLatency:   searchLatency,
		DefaultLanguage: strings.ToUpper(sharedcfg.EnvOrDefault("DEFAULT_LANGUAGE", "EN")),

		ParcelStore:     strings.ToLower(sharedcfg.EnvOrDefault("PARCEL_STORE", StoreMemory)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ParcelCacheSize: parsePositiveInt("PARCEL_CACHE_SIZE", 256),

		OpenWeatherAPIKey:     owKey,
		OpenWeatherEnabled:    envBool("OPENWEATHER_ENABLED", owKey != ""),
		OpenWeatherTimeout:    owTimeout,
		OpenWeatherMaxRetries: owRetries,

		HubOverrideEnabled: envBool("HUB_OVERRIDE_ENABLED", true),
		HubLat:             hubLat,
		HubLon:             hubLon,

		KafkaEnabled:    envBool("KAFKA_ENABLED", false),
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "parcel-delay-alerts"),
	}

	switch cfg.ParcelStore {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("PARCEL_STORE is postgres but DATABASE_URL is not set")
		}
	default:
		return nil, errors.New("invalid PARCEL_STORE: must be memory or postgres")
	}
	switch cfg.DefaultLanguage {
	case "EN", "HI", "TE":
	default:
		return nil, errors.New("invalid DEFAULT_LANGUAGE: must be EN, HI or TE")
	}
	if cfg.OpenWeatherEnabled && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseCoordinate(key string, def, limit float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < -limit || v > limit {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}
