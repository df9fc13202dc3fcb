package config

// EnvPrefix is handed to envconfig; every field carries an explicit key.
const EnvPrefix = "TIXLEDGER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "TIXLEDGER_APP_ENV"
	EnvPort      = "TIXLEDGER_APP_PORT"
	EnvDBDSN     = "TIXLEDGER_DB_DSN"
	EnvDBHost    = "TIXLEDGER_DB_HOST"
	EnvDBUser    = "TIXLEDGER_DB_USER"
	EnvDBName    = "TIXLEDGER_DB_NAME"
	EnvRedisURL  = "TIXLEDGER_REDIS_URL"
	EnvUseSQLite = "TIXLEDGER_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
