package config

const (
	EnvPrefix = "LABLEDGER"

	EnvAppEnv    = "LABLEDGER_APP_ENV"
	EnvPort      = "LABLEDGER_APP_PORT"
	EnvLogLevel  = "LABLEDGER_LOG_LEVEL"
	EnvLogFormat = "LABLEDGER_LOG_FORMAT"

	EnvDBDSN    = "LABLEDGER_DB_DSN"
	EnvDBDriver = "LABLEDGER_DB_DRIVER"
	EnvDBHost   = "LABLEDGER_DB_HOST"
	EnvDBPort   = "LABLEDGER_DB_PORT"
	EnvDBUser   = "LABLEDGER_DB_USER"
	EnvDBName   = "LABLEDGER_DB_NAME"

	EnvRedisURL = "LABLEDGER_REDIS_URL"

	EnvJWTSecret  = "LABLEDGER_JWT_SECRET"
	EnvJWTIssuer  = "LABLEDGER_JWT_ISSUER"
	EnvJWTExpMins = "LABLEDGER_JWT_EXPIRATION_MINUTES"

	EnvDetectorURL       = "LABLEDGER_DETECTOR_URL"
	EnvReconcileInterval = "LABLEDGER_RECONCILE_INTERVAL"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultSQLiteDSN opens a WAL file database whose transactions take the
	// write lock at BEGIN, so borrow/return checks and updates never interleave.
	DefaultSQLiteDSN = "file:labledger.db?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
)

var postgresPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
