package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Provider ProviderConfig
	Match    MatchConfig
	Database DatabaseConfig
	Catalog  CatalogConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// ProviderConfig configures the event provider client.
type ProviderConfig struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxRetries int
}

// MatchConfig holds engine defaults applied when a request leaves them unset.
type MatchConfig struct {
	DefaultMaxDays          int
	DefaultRadiusMiles      float64
	MinRunSize              int
	MaxTripDays             int
	Membership              string
	SlotInsensitiveIdentity bool
}

// DatabaseConfig configures the optional Postgres store. An empty URL disables it.
type DatabaseConfig struct {
	URL string
}

// CatalogConfig points at the options catalog file.
type CatalogConfig struct {
	Path            string
	RefreshInterval time.Duration
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultProviderBaseURL    = "https://app.ticketmaster.com/discovery/v2"
	defaultProviderPageSize   = 200
	defaultProviderTimeout    = 10 * time.Second
	defaultCacheTTL           = 5 * time.Minute
	defaultProviderMaxRetries = 3

	defaultMaxDays     = 3
	defaultRadiusMiles = 100.0
	defaultMinRunSize  = 1
	defaultMaxTripDays = 14
	defaultMembership  = "anchor"

	defaultCatalogPath    = "catalog.yaml"
	defaultCatalogRefresh = 15 * time.Minute

	maxProviderPageSize = 200
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// PORT is set by the hosting platform; SERVER_PORT is for local dev.
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Provider: ProviderConfig{
			BaseURL:    strings.TrimRight(getEnv("PROVIDER_BASE_URL", defaultProviderBaseURL), "/"),
			APIKey:     os.Getenv("PROVIDER_API_KEY"),
			PageSize:   defaultProviderPageSize,
			Timeout:    defaultProviderTimeout,
			CacheTTL:   defaultCacheTTL,
			MaxRetries: defaultProviderMaxRetries,
		},
		Match: MatchConfig{
			DefaultMaxDays:     defaultMaxDays,
			DefaultRadiusMiles: defaultRadiusMiles,
			MinRunSize:         defaultMinRunSize,
			MaxTripDays:        defaultMaxTripDays,
			Membership:         defaultMembership,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Catalog: CatalogConfig{
			Path:            getEnv("CATALOG_PATH", defaultCatalogPath),
			RefreshInterval: defaultCatalogRefresh,
		},
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeout},
		{"PROVIDER_TIMEOUT_SECONDS", &cfg.Provider.Timeout},
		{"CACHE_TTL_SECONDS", &cfg.Provider.CacheTTL},
		{"CATALOG_REFRESH_SECONDS", &cfg.Catalog.RefreshInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	counts := []struct {
		key    string
		target *int
	}{
		{"PROVIDER_MAX_RETRIES", &cfg.Provider.MaxRetries},
		{"MATCH_MIN_RUN_SIZE", &cfg.Match.MinRunSize},
	}
	for _, c := range counts {
		v := os.Getenv(c.key)
		if v == "" {
			continue
		}
		n, err := parseNonNegative(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", c.key, err)
		}
		*c.target = n
	}

	positives := []struct {
		key    string
		target *int
	}{
		{"PROVIDER_PAGE_SIZE", &cfg.Provider.PageSize},
		{"MATCH_DEFAULT_MAX_DAYS", &cfg.Match.DefaultMaxDays},
		{"MATCH_MAX_TRIP_DAYS", &cfg.Match.MaxTripDays},
	}
	for _, p := range positives {
		v := os.Getenv(p.key)
		if v == "" {
			continue
		}
		n, err := parsePositive(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", p.key, err)
		}
		*p.target = n
	}
	if cfg.Provider.PageSize > maxProviderPageSize {
		return Config{}, fmt.Errorf("invalid PROVIDER_PAGE_SIZE: must be at most %d", maxProviderPageSize)
	}

	if v := os.Getenv("MATCH_DEFAULT_RADIUS_MILES"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius <= 0 {
			return Config{}, fmt.Errorf("invalid MATCH_DEFAULT_RADIUS_MILES: must be a positive number")
		}
		cfg.Match.DefaultRadiusMiles = radius
	}

	if v := os.Getenv("MATCH_MEMBERSHIP"); v != "" {
		switch strings.ToLower(v) {
		case "anchor", "pairwise":
			cfg.Match.Membership = strings.ToLower(v)
		default:
			return Config{}, fmt.Errorf("invalid MATCH_MEMBERSHIP: must be 'anchor' or 'pairwise'")
		}
	}

	if v := os.Getenv("MATCH_SLOT_INSENSITIVE_IDENTITY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MATCH_SLOT_INSENSITIVE_IDENTITY: must be a boolean")
		}
		cfg.Match.SlotInsensitiveIdentity = b
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := parseNonNegative(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseNonNegative(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return n, nil
}

func parsePositive(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
