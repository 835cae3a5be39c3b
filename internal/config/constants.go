package config

import "time"

const (
	envPort           = "PORT"
	envGinMode        = "GIN_MODE"
	envStore          = "STORE"
	envDatabaseURL    = "DATABASE_URL"
	envSQLitePath     = "SQLITE_PATH"
	envTimezone       = "TIMEZONE"
	envLogLevel       = "LOG_LEVEL"
	envLogFormat      = "LOG_FORMAT"
	envMetricsOn      = "METRICS_ENABLED"
	envOtelEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService    = "OTEL_SERVICE_NAME"
	envOtelInsecure   = "OTEL_EXPORTER_OTLP_INSECURE"
	envSyncEnabled    = "SYNC_ENABLED"
	envSyncCron       = "SYNC_CRON"
	envSyncAhead      = "SYNC_WEEKS_AHEAD"
	envExportDelay    = "EXPORT_DELAY"
	envEmailDelay     = "EMAIL_DELAY"
	envResendKey      = "RESEND_API_KEY"
	envEmailFrom      = "EMAIL_FROM"
	envSeedDemo       = "SEED_DEMO"
	envRinkConfig     = "RINK_CONFIG"
	envStaticTokens   = "STATIC_TOKENS"
	envJWTSecret      = "JWT_HMAC_SECRET"
	envGoogleID       = "GOOGLE_CLIENT_ID"
	envGoogleSecret   = "GOOGLE_CLIENT_SECRET"
	envGoogleRedirect = "GOOGLE_REDIRECT_URL"
	envGoogleAPI      = "GOOGLE_CALENDAR_ENDPOINT"

	defaultPort        = "8080"
	defaultStore       = StoreMemory
	defaultSQLitePath  = "icetime.db"
	defaultTimezone    = "UTC"
	defaultSyncCron    = "*/30 * * * *"
	defaultWeeksAhead  = 2
	defaultExportDelay = 2 * time.Second
	defaultEmailDelay  = 1500 * time.Millisecond
	defaultEmailFrom   = "Ice Time <schedule@icetime.local>"
	defaultServiceName = "icetime-service"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)
