package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Store     StoreConfig
	Places    PlacesConfig
	Directory DirectoryConfig
	Logging   LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// StoreConfig describes the backend store table database.
type StoreConfig struct {
	// Path of the SQLite database file. Empty selects the in-memory
	// repository, which does not survive restarts.
	Path string
}

// PlacesConfig configures the external place-search client.
type PlacesConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	CacheTTL  time.Duration
	RateLimit float64
	RateBurst int
}

// DirectoryConfig tunes merge/refresh behaviour of the directory service.
type DirectoryConfig struct {
	RefreshInterval time.Duration
	DefaultLat      float64
	DefaultLng      float64
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	Colored       bool
	IncludeCaller bool
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultPlacesTimeout   = 5 * time.Second
	defaultPlacesCacheTTL  = 10 * time.Minute
	defaultPlacesRate      = 5.0
	defaultPlacesBurst     = 5
	defaultRefreshInterval = 30 * time.Second
	// Paris, used when the geolocation provider fails or is absent.
	defaultLatitude  = 48.8566
	defaultLongitude = 2.3522
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			Colored:       parseBoolWithDefault("LOG_COLOR", false),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Store: StoreConfig{
			Path: os.Getenv("STORE_DB_PATH"),
		},
		Places: PlacesConfig{
			BaseURL:   os.Getenv("PLACES_BASE_URL"),
			APIKey:    os.Getenv("PLACES_API_KEY"),
			Timeout:   defaultPlacesTimeout,
			CacheTTL:  defaultPlacesCacheTTL,
			RateLimit: parseFloatWithDefault("PLACES_RATE_LIMIT", defaultPlacesRate),
			RateBurst: parseIntWithDefault("PLACES_RATE_BURST", defaultPlacesBurst),
		},
		Directory: DirectoryConfig{
			RefreshInterval: defaultRefreshInterval,
			DefaultLat:      parseFloatWithDefault("DEFAULT_LAT", defaultLatitude),
			DefaultLng:      parseFloatWithDefault("DEFAULT_LNG", defaultLongitude),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"PLACES_TIMEOUT", &cfg.Places.Timeout},
		{"PLACES_CACHE_TTL", &cfg.Places.CacheTTL},
		{"DIRECTORY_REFRESH_INTERVAL", &cfg.Directory.RefreshInterval},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.target = parsed
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
