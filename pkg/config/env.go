package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRedisAddr            = "REDIS_ADDR"
	EnvRedisPassword        = "REDIS_PASSWORD"
	EnvAvailabilityCacheTTL = "AVAILABILITY_CACHE_TTL"

	EnvPaymentBaseURL        = "PAYMENT_GATEWAY_BASE_URL"
	EnvPaymentKeyID          = "PAYMENT_GATEWAY_KEY_ID"
	EnvPaymentKeySecret      = "PAYMENT_GATEWAY_KEY_SECRET"
	EnvPaymentWebhookSecret  = "PAYMENT_WEBHOOK_SECRET"
	EnvPaymentRequestTimeout = "PAYMENT_REQUEST_TIMEOUT"
	EnvPaymentMaxRetries     = "PAYMENT_MAX_RETRIES"

	EnvBookingTokenKey     = "BOOKING_TOKEN_KEY"
	EnvCancellationGrace   = "CANCELLATION_GRACE_PERIOD"
	EnvNoShowSweepInterval = "NO_SHOW_SWEEP_INTERVAL"
	EnvMaxBookingDays      = "MAX_BOOKING_WINDOW_DAYS"
	EnvDefaultCurrency     = "DEFAULT_CURRENCY"

	EnvFacilitiesBaseURL = "FACILITIES_BASE_URL"
	EnvBookingsBaseURL   = "BOOKINGS_BASE_URL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
