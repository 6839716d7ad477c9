package config

const (
	EnvPrefix = "CAMPUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultAPIVersion = "1.0"
)

const (
	EnvAppEnv          = "CAMPUS_APP_ENV"
	EnvPort            = "CAMPUS_APP_PORT"
	EnvLogLevel        = "CAMPUS_LOG_LEVEL"
	EnvAPIVersion      = "API_VERSION"
	EnvRedisURL        = "CAMPUS_REDIS_URL"
	EnvRedisAddr       = "CAMPUS_REDIS_ADDR"
	EnvThrottleWindow  = "CAMPUS_THROTTLE_WINDOW"
	EnvThrottleIPLimit = "CAMPUS_THROTTLE_IP_LIMIT"
	EnvMetricsToken    = "CAMPUS_METRICS_TOKEN"
)
