package config

import (
	"os"
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", defaultWriteTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Provider.BaseURL != defaultProviderBaseURL {
		t.Errorf("expected default provider url %q, got %q", defaultProviderBaseURL, cfg.Provider.BaseURL)
	}
	if cfg.Provider.PageSize != defaultProviderPageSize {
		t.Errorf("expected default page size %d, got %d", defaultProviderPageSize, cfg.Provider.PageSize)
	}
	if cfg.Provider.CacheTTL != defaultCacheTTL {
		t.Errorf("expected default cache ttl %v, got %v", defaultCacheTTL, cfg.Provider.CacheTTL)
	}
	if cfg.Match.DefaultMaxDays != 3 || cfg.Match.DefaultRadiusMiles != 100 {
		t.Errorf("unexpected match defaults %+v", cfg.Match)
	}
	if cfg.Match.MinRunSize != 1 || cfg.Match.MaxTripDays != 14 || cfg.Match.Membership != "anchor" {
		t.Errorf("unexpected engine defaults %+v", cfg.Match)
	}
	if cfg.Match.SlotInsensitiveIdentity {
		t.Error("expected slot-sensitive identity by default")
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected no database by default, got %q", cfg.Database.URL)
	}
	if cfg.Catalog.Path != defaultCatalogPath {
		t.Errorf("expected default catalog path %q, got %q", defaultCatalogPath, cfg.Catalog.Path)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                     "9090",
		"SERVER_READ_TIMEOUT_SECONDS":     "30",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "45",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "15",
		"LOG_LEVEL":                       "debug",
		"LOG_FORMAT":                      "text",
		"PROVIDER_BASE_URL":               "http://localhost:9999/discovery/v2/",
		"PROVIDER_API_KEY":                "secret",
		"PROVIDER_PAGE_SIZE":              "50",
		"PROVIDER_TIMEOUT_SECONDS":        "2",
		"PROVIDER_MAX_RETRIES":            "0",
		"CACHE_TTL_SECONDS":               "60",
		"MATCH_DEFAULT_MAX_DAYS":          "5",
		"MATCH_DEFAULT_RADIUS_MILES":      "42.5",
		"MATCH_MIN_RUN_SIZE":              "2",
		"MATCH_MAX_TRIP_DAYS":             "7",
		"MATCH_MEMBERSHIP":                "Pairwise",
		"MATCH_SLOT_INSENSITIVE_IDENTITY": "true",
		"DATABASE_URL":                    "postgres://localhost/tripsync?sslmode=disable",
		"CATALOG_PATH":                    "/etc/tripsync/catalog.yaml",
		"CATALOG_REFRESH_SECONDS":         "120",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port, got %q", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected shutdown timeout %v, got %v", 15*time.Second, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}

	wantProvider := ProviderConfig{
		BaseURL:    "http://localhost:9999/discovery/v2",
		APIKey:     "secret",
		PageSize:   50,
		Timeout:    2 * time.Second,
		CacheTTL:   time.Minute,
		MaxRetries: 0,
	}
	if cfg.Provider != wantProvider {
		t.Errorf("provider config = %+v, want %+v", cfg.Provider, wantProvider)
	}

	wantMatch := MatchConfig{
		DefaultMaxDays:          5,
		DefaultRadiusMiles:      42.5,
		MinRunSize:              2,
		MaxTripDays:             7,
		Membership:              "pairwise",
		SlotInsensitiveIdentity: true,
	}
	if cfg.Match != wantMatch {
		t.Errorf("match config = %+v, want %+v", cfg.Match, wantMatch)
	}

	if cfg.Database.URL != overrides["DATABASE_URL"] {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
	if cfg.Catalog.Path != overrides["CATALOG_PATH"] || cfg.Catalog.RefreshInterval != 2*time.Minute {
		t.Errorf("unexpected catalog config %+v", cfg.Catalog)
	}
}

func TestLoadPrefersPlatformPort(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Errorf("expected PORT to win, got %q", cfg.Server.Port)
	}
}

func TestLoadPartialOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected overridden read timeout %v, got %v", 5*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", defaultWriteTimeout, cfg.Server.WriteTimeout)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":     "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "abc",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "3.5",
		"LOG_LEVEL":                       "verbose",
		"LOG_FORMAT":                      "xml",
		"PROVIDER_PAGE_SIZE":              "500",
		"PROVIDER_TIMEOUT_SECONDS":        "soon",
		"PROVIDER_MAX_RETRIES":            "-2",
		"CACHE_TTL_SECONDS":               "1h",
		"MATCH_DEFAULT_MAX_DAYS":          "0",
		"MATCH_DEFAULT_RADIUS_MILES":      "-10",
		"MATCH_MIN_RUN_SIZE":              "many",
		"MATCH_MAX_TRIP_DAYS":             "0",
		"MATCH_MEMBERSHIP":                "strict",
		"MATCH_SLOT_INSENSITIVE_IDENTITY": "maybe",
		"CATALOG_REFRESH_SECONDS":         "-5",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}

		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func TestParseSecondsRejectsInvalidInput(t *testing.T) {
	cases := []string{"-1", "abc"}

	for _, input := range cases {
		if _, err := parseSeconds(input); err == nil {
			t.Fatalf("expected error for input %q", input)
		}
	}
}

func TestLoadDoesNotPersistEnvBetweenRuns(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.Unsetenv("SERVER_READ_TIMEOUT_SECONDS"); err != nil {
		t.Fatalf("failed to unset env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout after reset, got %v", cfg.Server.ReadTimeout)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"PROVIDER_BASE_URL",
		"PROVIDER_API_KEY",
		"PROVIDER_PAGE_SIZE",
		"PROVIDER_TIMEOUT_SECONDS",
		"PROVIDER_MAX_RETRIES",
		"CACHE_TTL_SECONDS",
		"MATCH_DEFAULT_MAX_DAYS",
		"MATCH_DEFAULT_RADIUS_MILES",
		"MATCH_MIN_RUN_SIZE",
		"MATCH_MAX_TRIP_DAYS",
		"MATCH_MEMBERSHIP",
		"MATCH_SLOT_INSENSITIVE_IDENTITY",
		"DATABASE_URL",
		"CATALOG_PATH",
		"CATALOG_REFRESH_SECONDS",
	}

	for _, key := range keys {
		t.Setenv(key, "")
	}
}
