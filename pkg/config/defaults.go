package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "turfbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort     = "9000"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultBusinessTimeZone  = "Asia/Dhaka"
	DefaultBookingHoldWindow = 15 * time.Minute
	DefaultSlotLockTTL       = 10 * time.Second
	DefaultSweepSchedule     = "@hourly"

	DefaultClientURL = "http://localhost:5173"
	DefaultServerURL = "http://localhost:9000"

	DefaultSSLTimeout = 10 * time.Second

	DefaultEmailPort     = "587"
	DefaultEmailFromName = "Turf Booking"

	// SuperRole may manage every turf and hard-delete bookings.
	SuperRole = "manager"
	AdminRole = "admin"
	UserRole  = "user"
)
