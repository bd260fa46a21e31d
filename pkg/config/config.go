package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"turfbook/pkg/client"
	"turfbook/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	JWTSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BusinessTimeZone  string
	BusinessLocation  *time.Location
	BookingHoldWindow time.Duration
	SlotLockTTL       time.Duration
	SweepSchedule     string

	ClientURL string
	ServerURL string

	SSLStoreID       string
	SSLStorePassword string
	SSLIsLive        bool
	SSLTimeout       time.Duration

	EmailHost     string
	EmailPort     string
	EmailUser     string
	EmailPassword string
	EmailFrom     string
	EmailFromName string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := fromEnv(serviceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.BusinessLocation, _ = time.LoadLocation(cfg.BusinessTimeZone)
	cfg.LogConfiguration()
	return cfg
}

func fromEnv(serviceName string) *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BusinessTimeZone:  getEnvStr(EnvBusinessTimeZone, DefaultBusinessTimeZone),
		BookingHoldWindow: getEnvDuration(EnvBookingHoldWindow, DefaultBookingHoldWindow),
		SlotLockTTL:       getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),
		SweepSchedule:     getEnvStr(EnvSweepSchedule, DefaultSweepSchedule),

		ClientURL: getEnvStr(EnvClientURL, DefaultClientURL),
		ServerURL: getEnvStr(EnvServerURL, DefaultServerURL),

		SSLStoreID:       getEnvStr(EnvSSLStoreID, ""),
		SSLStorePassword: getEnvStr(EnvSSLStorePassword, ""),
		SSLIsLive:        getEnvBool(EnvSSLIsLive, false),
		SSLTimeout:       getEnvDuration(EnvSSLTimeout, DefaultSSLTimeout),

		EmailHost:     getEnvStr(EnvEmailHost, ""),
		EmailPort:     getEnvStr(EnvEmailPort, DefaultEmailPort),
		EmailUser:     getEnvStr(EnvEmailUser, ""),
		EmailPassword: getEnvStr(EnvEmailPassword, ""),
		EmailFrom:     getEnvStr(EnvEmailFrom, ""),
		EmailFromName: getEnvStr(EnvEmailFromName, DefaultEmailFromName),

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
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// Database returns the application database on the connected Mongo client.
func (cfg *Config) Database() *mongo.Database {
	return cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
}

// Location returns the business time zone, falling back to UTC when the
// configuration was built by hand.
func (cfg *Config) Location() *time.Location {
	if cfg.BusinessLocation == nil {
		return time.UTC
	}
	return cfg.BusinessLocation
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"BookingHoldWindow", cfg.BookingHoldWindow},
		{"SlotLockTTL", cfg.SlotLockTTL},
		{"SSLTimeout", cfg.SSLTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if _, err := time.LoadLocation(cfg.BusinessTimeZone); err != nil || cfg.BusinessTimeZone == "" {
		errors = append(errors, fmt.Sprintf("BusinessTimeZone must be a valid IANA zone, got: %q", cfg.BusinessTimeZone))
	}
	if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("SweepSchedule must be a valid cron expression, got: %q", cfg.SweepSchedule))
	}

	for name, raw := range map[string]string{"ClientURL": cfg.ClientURL, "ServerURL": cfg.ServerURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s must be an absolute URL, got: %q", name, raw))
		}
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
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"business_time_zone", cfg.BusinessTimeZone,
		"booking_hold_window", cfg.BookingHoldWindow,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"sweep_schedule", cfg.SweepSchedule,
		"client_url", cfg.ClientURL,
		"server_url", cfg.ServerURL,
		"ssl_store_id_set", cfg.SSLStoreID != "",
		"ssl_store_password_set", cfg.SSLStorePassword != "",
		"ssl_is_live", cfg.SSLIsLive,
		"email_host", cfg.EmailHost,
		"email_password_set", cfg.EmailPassword != "",
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

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
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
