package config

import (
	"fmt"
	"os"
	"parkly/pkg/client"
	"parkly/pkg/logger"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RedisAddr            string
	RedisPassword        string
	AvailabilityCacheTTL time.Duration

	PaymentBaseURL        string
	PaymentKeyID          string
	PaymentKeySecret      string
	PaymentWebhookSecret  string
	PaymentRequestTimeout time.Duration
	PaymentMaxRetries     int

	BookingTokenKey     string
	CancellationGrace   time.Duration
	NoShowSweepInterval time.Duration
	MaxBookingDays      int
	DefaultCurrency     string

	FacilitiesBaseURL string
	BookingsBaseURL   string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RedisAddr:            getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:        getEnvStr(EnvRedisPassword, ""),
		AvailabilityCacheTTL: getEnvDuration(EnvAvailabilityCacheTTL, DefaultAvailabilityCacheTTL),

		PaymentBaseURL:        getEnvStr(EnvPaymentBaseURL, DefaultPaymentBaseURL),
		PaymentKeyID:          getEnvStr(EnvPaymentKeyID, ""),
		PaymentKeySecret:      getEnvStr(EnvPaymentKeySecret, ""),
		PaymentWebhookSecret:  getEnvStr(EnvPaymentWebhookSecret, ""),
		PaymentRequestTimeout: getEnvDuration(EnvPaymentRequestTimeout, DefaultPaymentRequestTimeout),
		PaymentMaxRetries:     getEnvNum(EnvPaymentMaxRetries, DefaultPaymentMaxRetries),

		BookingTokenKey:     getEnvStr(EnvBookingTokenKey, ""),
		CancellationGrace:   getEnvDuration(EnvCancellationGrace, DefaultCancellationGrace),
		NoShowSweepInterval: getEnvDuration(EnvNoShowSweepInterval, DefaultNoShowSweepInterval),
		MaxBookingDays:      getEnvNum(EnvMaxBookingDays, DefaultMaxBookingDays),
		DefaultCurrency:     getEnvStr(EnvDefaultCurrency, DefaultCurrency),

		FacilitiesBaseURL: getEnvStr(EnvFacilitiesBaseURL, DefaultFacilitiesBaseURL),
		BookingsBaseURL:   getEnvStr(EnvBookingsBaseURL, DefaultBookingsBaseURL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.AvailabilityCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("AvailabilityCacheTTL must be positive, got: %s", cfg.AvailabilityCacheTTL))
	}
	if cfg.PaymentRequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("PaymentRequestTimeout must be positive, got: %s", cfg.PaymentRequestTimeout))
	}
	if cfg.PaymentMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("PaymentMaxRetries cannot be negative, got: %d", cfg.PaymentMaxRetries))
	}
	if cfg.CancellationGrace < 0 {
		errors = append(errors, fmt.Sprintf("CancellationGrace cannot be negative, got: %s", cfg.CancellationGrace))
	}
	if cfg.NoShowSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("NoShowSweepInterval must be positive, got: %s", cfg.NoShowSweepInterval))
	}
	if cfg.MaxBookingDays <= 0 {
		errors = append(errors, fmt.Sprintf("MaxBookingDays must be positive, got: %d", cfg.MaxBookingDays))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"redis_addr", cfg.RedisAddr,
		"availability_cache_ttl", cfg.AvailabilityCacheTTL,
		"payment_base_url", cfg.PaymentBaseURL,
		"payment_key_set", cfg.PaymentKeySecret != "",
		"payment_webhook_secret_set", cfg.PaymentWebhookSecret != "",
		"payment_request_timeout", cfg.PaymentRequestTimeout,
		"payment_max_retries", cfg.PaymentMaxRetries,
		"booking_token_key_set", cfg.BookingTokenKey != "",
		"cancellation_grace", cfg.CancellationGrace,
		"no_show_sweep_interval", cfg.NoShowSweepInterval,
		"max_booking_days", cfg.MaxBookingDays,
		"default_currency", cfg.DefaultCurrency,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
