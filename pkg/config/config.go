package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
	Detector     DetectorConfig
	Reconcile    ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LABLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"LABLEDGER_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"LABLEDGER_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LABLEDGER_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LABLEDGER_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"LABLEDGER_CORS_ORIGINS" default:"http://localhost:3000"`

	// Per-IP budget for the detection endpoint, enforced only when Redis is configured.
	DetectRateLimit  int           `envconfig:"LABLEDGER_DETECT_RATE_LIMIT" default:"30"`
	DetectRateWindow time.Duration `envconfig:"LABLEDGER_DETECT_RATE_WINDOW" default:"1m"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LABLEDGER_DB_DSN"`
	Driver string `envconfig:"LABLEDGER_DB_DRIVER" default:"sqlite"`

	// Postgres connection parts, used only when no DSN is supplied.
	Host     string `envconfig:"LABLEDGER_DB_HOST"`
	Port     int    `envconfig:"LABLEDGER_DB_PORT" default:"5432"`
	User     string `envconfig:"LABLEDGER_DB_USER"`
	Password string `envconfig:"LABLEDGER_DB_PASSWORD"`
	Name     string `envconfig:"LABLEDGER_DB_NAME"`
	SSLMode  string `envconfig:"LABLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LABLEDGER_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"LABLEDGER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"LABLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LABLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"LABLEDGER_REDIS_URL"`
	Address      string        `envconfig:"LABLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"LABLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"LABLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LABLEDGER_REDIS_POOL_SIZE" default:"5"`
	MinIdleConns int           `envconfig:"LABLEDGER_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"LABLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LABLEDGER_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"LABLEDGER_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"LABLEDGER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LABLEDGER_JWT_ISSUER" default:"labledger"`
	ExpirationMinutes int    `envconfig:"LABLEDGER_JWT_EXPIRATION_MINUTES" default:"720"`
}

// AdminConfig holds the single lab-office login. PasswordHash is an argon2id
// string produced by `admin-token -hash-password`; login is off while it is blank.
type AdminConfig struct {
	Username       string        `envconfig:"LABLEDGER_ADMIN_USERNAME" default:"admin"`
	PasswordHash   string        `envconfig:"LABLEDGER_ADMIN_PASSWORD_HASH"`
	LoginRateLimit int           `envconfig:"LABLEDGER_ADMIN_LOGIN_RATE_LIMIT" default:"5"`
	LoginWindow    time.Duration `envconfig:"LABLEDGER_ADMIN_LOGIN_WINDOW" default:"1m"`
	Password       PasswordConfig
}

// LoginEnabled reports whether password login can be attempted.
func (a AdminConfig) LoginEnabled() bool {
	return strings.TrimSpace(a.Username) != "" && strings.TrimSpace(a.PasswordHash) != ""
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LABLEDGER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LABLEDGER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LABLEDGER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LABLEDGER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LABLEDGER_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LABLEDGER_AUTO_MIGRATE" default:"true"`
}

type DetectorConfig struct {
	URL           string        `envconfig:"LABLEDGER_DETECTOR_URL"`
	Timeout       time.Duration `envconfig:"LABLEDGER_DETECTOR_TIMEOUT" default:"10s"`
	MinConfidence float64       `envconfig:"LABLEDGER_DETECTOR_MIN_CONFIDENCE" default:"0.25"`
}

// Enabled reports whether a remote classifier endpoint is configured.
func (d DetectorConfig) Enabled() bool {
	return strings.TrimSpace(d.URL) != ""
}

type ReconcileConfig struct {
	Interval time.Duration `envconfig:"LABLEDGER_RECONCILE_INTERVAL" default:"1h"`
	Repair   bool          `envconfig:"LABLEDGER_RECONCILE_REPAIR" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.Driver == "" {
		db.Driver = DriverSQLite
	}
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	switch driver {
	case DriverSQLite:
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		db.Driver = driver
		return nil
	case DriverPostgres:
		db.Driver = driver
	default:
		return fmt.Errorf("unsupported %s %q (expected %s or %s)", EnvDBDriver, db.Driver, DriverSQLite, DriverPostgres)
	}

	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range postgresPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
