package config

const EnvPrefix = "BASKETWISE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	SavingsPolicyAverageDeviation = "average_deviation"
	SavingsPolicySaleDiscount     = "sale_discount"
)

const (
	EnvAppEnv               = "BASKETWISE_APP_ENV"
	EnvPort                 = "BASKETWISE_APP_PORT"
	EnvLogLevel             = "BASKETWISE_LOG_LEVEL"
	EnvLogFormat            = "BASKETWISE_LOG_FORMAT"
	EnvDemoUserID           = "BASKETWISE_DEMO_USER_ID"
	EnvDBDSN                = "BASKETWISE_DB_DSN"
	EnvDBDriver             = "BASKETWISE_DB_DRIVER"
	EnvDBHost               = "BASKETWISE_DB_HOST"
	EnvDBUser               = "BASKETWISE_DB_USER"
	EnvDBName               = "BASKETWISE_DB_NAME"
	EnvRedisURL             = "BASKETWISE_REDIS_URL"
	EnvCompareStoreTimeout  = "BASKETWISE_COMPARE_STORE_TIMEOUT"
	EnvCompareConcurrency   = "BASKETWISE_COMPARE_CONCURRENCY"
	EnvCompareSavingsPolicy = "BASKETWISE_COMPARE_SAVINGS_POLICY"
	EnvRefreshFeedURL       = "BASKETWISE_REFRESH_FEED_URL"
	EnvRefreshInterval      = "BASKETWISE_REFRESH_INTERVAL"
	EnvPubSubAlertsTopic    = "BASKETWISE_PUBSUB_ALERTS_TOPIC"
	EnvGCPProjectID         = "BASKETWISE_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
