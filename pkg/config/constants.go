package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "GIFTBLOOM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "GIFTBLOOM_APP_ENV"
	EnvPort     = "GIFTBLOOM_APP_PORT"
	EnvDBDSN    = "GIFTBLOOM_DB_DSN"
	EnvDBHost   = "GIFTBLOOM_DB_HOST"
	EnvDBUser   = "GIFTBLOOM_DB_USER"
	EnvDBName   = "GIFTBLOOM_DB_NAME"
	EnvRedisURL = "GIFTBLOOM_REDIS_URL"

	EnvJWTSecret  = "GIFTBLOOM_JWT_SECRET"
	EnvJWTIssuer  = "GIFTBLOOM_JWT_ISSUER"
	EnvJWTExpMins = "GIFTBLOOM_JWT_EXPIRATION_MINUTES"

	EnvStripeAPIKey = "GIFTBLOOM_STRIPE_API_KEY"
	EnvGCSBucket    = "GIFTBLOOM_GCS_BUCKET_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
