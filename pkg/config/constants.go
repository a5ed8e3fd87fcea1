package config

const EnvPrefix = "FLEETMAINT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FLEETMAINT_APP_ENV"
	EnvPort     = "FLEETMAINT_APP_PORT"
	EnvLogLevel = "FLEETMAINT_LOG_LEVEL"

	EnvDBDSN  = "FLEETMAINT_DB_DSN"
	EnvDBHost = "FLEETMAINT_DB_HOST"
	EnvDBUser = "FLEETMAINT_DB_USER"
	EnvDBName = "FLEETMAINT_DB_NAME"

	EnvRedisURL = "FLEETMAINT_REDIS_URL"

	EnvJWTSecret  = "FLEETMAINT_JWT_SECRET"
	EnvJWTIssuer  = "FLEETMAINT_JWT_ISSUER"
	EnvJWTExpMins = "FLEETMAINT_JWT_EXPIRATION_MINUTES"

	EnvStockMaxRetries   = "FLEETMAINT_STOCK_MAX_RETRIES"
	EnvStockRetryBackoff = "FLEETMAINT_STOCK_RETRY_BACKOFF"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
