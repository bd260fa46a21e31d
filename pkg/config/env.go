package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBusinessTimeZone  = "BUSINESS_TIME_ZONE"
	EnvBookingHoldWindow = "BOOKING_HOLD_WINDOW"
	EnvSlotLockTTL       = "SLOT_LOCK_TTL"
	EnvSweepSchedule     = "SWEEP_SCHEDULE"

	EnvClientURL = "CLIENT_URL"
	EnvServerURL = "SERVER_URL"

	EnvSSLStoreID       = "SSL_STORE_ID"
	EnvSSLStorePassword = "SSL_STORE_PASSWORD"
	EnvSSLIsLive        = "SSL_IS_LIVE"
	EnvSSLTimeout       = "SSL_TIMEOUT"

	EnvEmailHost     = "EMAIL_HOST"
	EnvEmailPort     = "EMAIL_PORT"
	EnvEmailUser     = "EMAIL_USER"
	EnvEmailPassword = "EMAIL_PASSWORD"
	EnvEmailFrom     = "EMAIL_FROM"
	EnvEmailFromName = "EMAIL_FROM_NAME"
)
