package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port     string
	GinMode  string
	Timezone string
	SeedDemo bool
	// RinkConfigPath points at the optional YAML file with templates, feeds and teams.
	RinkConfigPath string

	Store   StoreConfig
	Log     LogConfig
	Metrics MetricsConfig
	Sync    SyncConfig
	Export  ExportConfig
	Email   EmailConfig
	Auth    AuthConfig
	Google  GoogleConfig
}

type StoreConfig struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig controls telemetry export settings.
type MetricsConfig struct {
	Enabled      bool
	OtlpEndpoint string
	ServiceName  string
	OtlpInsecure bool
}

type SyncConfig struct {
	Enabled    bool
	Cron       string
	WeeksAhead int
}

type ExportConfig struct {
	ExportDelay time.Duration
	EmailDelay  time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

// AuthConfig enables bearer auth on /api. Both empty leaves the API open.
type AuthConfig struct {
	StaticTokens []string
	JWTSecret    string
}

func (a AuthConfig) Enabled() bool {
	return len(a.StaticTokens) > 0 || a.JWTSecret != ""
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides the Calendar API base URL.
	Endpoint string
}

func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

// Load reads configuration from environment variables with defaults.
// SEED_DEMO defaults to on only for the memory store.
func Load() Config {
	driver := envOrDefault(envStore, defaultStore)
	return Config{
		Port:           envOrDefault(envPort, defaultPort),
		GinMode:        envOrDefault(envGinMode, ""),
		Timezone:       envOrDefault(envTimezone, defaultTimezone),
		SeedDemo:       boolEnvOrDefault(envSeedDemo, driver == StoreMemory),
		RinkConfigPath: envOrDefault(envRinkConfig, ""),
		Store: StoreConfig{
			Driver:      driver,
			DatabaseURL: envOrDefault(envDatabaseURL, ""),
			SQLitePath:  envOrDefault(envSQLitePath, defaultSQLitePath),
		},
		Log: LogConfig{
			Level:  envOrDefault(envLogLevel, "info"),
			Format: envOrDefault(envLogFormat, "text"),
		},
		Metrics: MetricsConfig{
			Enabled:      boolEnvOrDefault(envMetricsOn, true),
			OtlpEndpoint: envOrDefault(envOtelEndpoint, ""),
			ServiceName:  envOrDefault(envOtelService, defaultServiceName),
			OtlpInsecure: boolEnvOrDefault(envOtelInsecure, true),
		},
		Sync: SyncConfig{
			Enabled:    boolEnvOrDefault(envSyncEnabled, true),
			Cron:       envOrDefault(envSyncCron, defaultSyncCron),
			WeeksAhead: intEnvOrDefault(envSyncAhead, defaultWeeksAhead, 0),
		},
		Export: ExportConfig{
			ExportDelay: durationEnvOrDefault(envExportDelay, defaultExportDelay),
			EmailDelay:  durationEnvOrDefault(envEmailDelay, defaultEmailDelay),
		},
		Email: EmailConfig{
			ResendAPIKey: envOrDefault(envResendKey, ""),
			From:         envOrDefault(envEmailFrom, defaultEmailFrom),
		},
		Auth: AuthConfig{
			StaticTokens: listEnv(envStaticTokens),
			JWTSecret:    envOrDefault(envJWTSecret, ""),
		},
		Google: GoogleConfig{
			ClientID:     envOrDefault(envGoogleID, ""),
			ClientSecret: envOrDefault(envGoogleSecret, ""),
			RedirectURL:  envOrDefault(envGoogleRedirect, ""),
			Endpoint:     envOrDefault(envGoogleAPI, ""),
		},
	}
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%s is required when %s=%s", envDatabaseURL, envStore, StorePostgres)
		}
	default:
		return fmt.Errorf("unknown %s %q (want memory, postgres or sqlite)", envStore, c.Store.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", envTimezone, c.Timezone, err)
	}
	return loc, nil
}
