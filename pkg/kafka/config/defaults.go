package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerAcks         = AcksAll
	DefaultProducerCompression  = "snappy"

	DefaultConsumerStartOffset       = StartOffsetOldest
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1 * 1024 * 1024 // 1MB, events are small JSON documents
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 0 // synchronous commits
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 30 * time.Second
	DefaultConsumerMaxRetries        = 3
	DefaultConsumerRetryBackoff      = 500 * time.Millisecond

	DefaultBookingEventsTopic    = "booking-events"
	DefaultBookingEventsDLQTopic = "booking-events-dlq"
	DefaultNotifierGroupID       = "booking-notifier"
)

const (
	AcksAll    = "all"
	AcksLeader = "leader"
	AcksNone   = "none"

	StartOffsetNewest = "newest"
	StartOffsetOldest = "oldest"
)
