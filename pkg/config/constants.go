package config

const (
	EnvPrefix = "APOIADEV"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "APOIADEV_APP_ENV"
	EnvPort     = "APOIADEV_APP_PORT"
	EnvDBDSN    = "APOIADEV_DB_DSN"
	EnvDBHost   = "APOIADEV_DB_HOST"
	EnvDBUser   = "APOIADEV_DB_USER"
	EnvDBName   = "APOIADEV_DB_NAME"
	EnvRedisURL = "APOIADEV_REDIS_URL"

	EnvCheckoutSuccessURL = "APOIADEV_CHECKOUT_SUCCESS_URL"
	EnvCheckoutCancelURL  = "APOIADEV_CHECKOUT_CANCEL_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
