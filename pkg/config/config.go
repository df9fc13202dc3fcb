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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Reporting    ReportingConfig
	Tax          TaxConfig
	Reconcile    ReconcileConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TIXLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"TIXLEDGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TIXLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIXLEDGER_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"TIXLEDGER_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TIXLEDGER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TIXLEDGER_DB_DSN"`
	Driver string `envconfig:"TIXLEDGER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIXLEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"TIXLEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIXLEDGER_DB_USER"`
	LegacyPassword string `envconfig:"TIXLEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIXLEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIXLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIXLEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIXLEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIXLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIXLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIXLEDGER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TIXLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"TIXLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIXLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIXLEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIXLEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIXLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIXLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIXLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TIXLEDGER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TIXLEDGER_AUTO_MIGRATE" default:"false"`
}

type ReportingConfig struct {
	TopOrganizersLimit int `envconfig:"TIXLEDGER_REPORT_TOP_ORGANIZERS" default:"10"`
	DefaultRangeDays   int `envconfig:"TIXLEDGER_REPORT_DEFAULT_RANGE_DAYS" default:"30"`
	MaxRangeDays       int `envconfig:"TIXLEDGER_REPORT_MAX_RANGE_DAYS" default:"366"`
}

type TaxConfig struct {
	DeadlineWindowDays int `envconfig:"TIXLEDGER_TAX_DEADLINE_WINDOW_DAYS" default:"30"`
}

type ReconcileConfig struct {
	Interval time.Duration `envconfig:"TIXLEDGER_RECONCILE_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"TIXLEDGER_RECONCILE_LOCK_TTL" default:"10m"`
}

type RateLimitConfig struct {
	PayoutWindow           time.Duration `envconfig:"TIXLEDGER_RATE_LIMIT_PAYOUT_WINDOW" default:"1m"`
	PayoutIPLimit          int           `envconfig:"TIXLEDGER_RATE_LIMIT_PAYOUT_IP" default:"60"`
	PayoutMarketplaceLimit int           `envconfig:"TIXLEDGER_RATE_LIMIT_PAYOUT_MARKETPLACE" default:"120"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"TIXLEDGER_IDEMPOTENCY_TTL" default:"24h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = "sqlite"
		if db.DSN == "" {
			db.DSN = "file:tixledger.db?cache=shared"
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
