package config

const EnvPrefix = "ESTATEERP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "ESTATEERP_APP_ENV"
	EnvPort     = "ESTATEERP_APP_PORT"
	EnvLogLevel = "ESTATEERP_LOG_LEVEL"

	EnvDBDSN    = "ESTATEERP_DB_DSN"
	EnvDBDriver = "ESTATEERP_DB_DRIVER"
	EnvDBHost   = "ESTATEERP_DB_HOST"
	EnvDBUser   = "ESTATEERP_DB_USER"
	EnvDBName   = "ESTATEERP_DB_NAME"

	EnvRedisURL = "ESTATEERP_REDIS_URL"

	EnvJWTSecret = "ESTATEERP_JWT_SECRET"
	EnvJWTIssuer = "ESTATEERP_JWT_ISSUER"

	EnvInventoryLockTTL  = "ESTATEERP_INVENTORY_LOCK_TTL"
	EnvLowStockThreshold = "ESTATEERP_INVENTORY_LOW_STOCK_THRESHOLD"

	EnvPubSubDomainTopic = "ESTATEERP_PUBSUB_DOMAIN_TOPIC"
	EnvCronInterval      = "ESTATEERP_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
