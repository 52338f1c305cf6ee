package config

// EnvPrefix is passed to envconfig; individual fields carry full names.
const EnvPrefix = "DELIFAST"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "DELIFAST_APP_ENV"
	EnvPort   = "DELIFAST_APP_PORT"

	EnvDBDSN  = "DELIFAST_DB_DSN"
	EnvDBHost = "DELIFAST_DB_HOST"
	EnvDBUser = "DELIFAST_DB_USER"
	EnvDBName = "DELIFAST_DB_NAME"

	EnvRedisURL = "DELIFAST_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
