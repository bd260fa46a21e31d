package kafka_config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"turfbook/pkg/logger"

	"github.com/segmentio/kafka-go"
)

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	Acks         string // all, leader or none
	Compression  string
}

type ConsumerConfig struct {
	StartOffset       string // oldest or newest, for groups without a committed offset
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Config is shared by the bookings API (producer) and the notifier (consumer).
type Config struct {
	Brokers  []string
	Producer ProducerConfig
	Consumer ConsumerConfig

	BookingEventsTopic    string
	BookingEventsDLQTopic string
	NotifierGroupID       string
}

func Load() (*Config, error) {
	cfg := &Config{
		Brokers: splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		Producer: ProducerConfig{
			MaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
			Acks:         strings.ToLower(getEnvStr(EnvKafkaProducerAcks, DefaultProducerAcks)),
			Compression:  strings.ToLower(getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression)),
		},
		Consumer: ConsumerConfig{
			StartOffset:       strings.ToLower(getEnvStr(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset)),
			MinBytes:          getEnvInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          getEnvInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           getEnvDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
			CommitInterval:    getEnvDuration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
			HeartbeatInterval: getEnvDuration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    getEnvDuration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  getEnvDuration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        getEnvInt(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
			RetryBackoff:      getEnvDuration(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff),
		},
		BookingEventsTopic:    getEnvStr(EnvKafkaBookingEventsTopic, DefaultBookingEventsTopic),
		BookingEventsDLQTopic: getEnvStr(EnvKafkaBookingEventsDLQTopic, DefaultBookingEventsDLQTopic),
		NotifierGroupID:       getEnvStr(EnvKafkaNotifierGroupID, DefaultNotifierGroupID),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka configuration: %w", err)
	}
	return cfg, nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (cfg *Config) Validate() error {
	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}

	if cfg.Producer.MaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("Producer.MaxAttempts must be positive, got: %d", cfg.Producer.MaxAttempts))
	}
	if !slices.Contains(compressions, cfg.Producer.Compression) {
		errors = append(errors, fmt.Sprintf("Producer.Compression must be one of %v, got: %q", compressions, cfg.Producer.Compression))
	}
	if !slices.Contains([]string{AcksAll, AcksLeader, AcksNone}, cfg.Producer.Acks) {
		errors = append(errors, fmt.Sprintf("Producer.Acks must be all, leader or none, got: %q", cfg.Producer.Acks))
	}
	if cfg.Consumer.StartOffset != StartOffsetOldest && cfg.Consumer.StartOffset != StartOffsetNewest {
		errors = append(errors, fmt.Sprintf("Consumer.StartOffset must be oldest or newest, got: %q", cfg.Consumer.StartOffset))
	}
	if cfg.Consumer.MinBytes <= 0 || cfg.Consumer.MaxBytes < cfg.Consumer.MinBytes {
		errors = append(errors, fmt.Sprintf("Consumer byte limits must satisfy 0 < MinBytes <= MaxBytes, got: %d/%d", cfg.Consumer.MinBytes, cfg.Consumer.MaxBytes))
	}
	if cfg.Consumer.MaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.MaxRetries cannot be negative, got: %d", cfg.Consumer.MaxRetries))
	}
	if cfg.Consumer.CommitInterval < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.CommitInterval cannot be negative, got: %s", cfg.Consumer.CommitInterval))
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"Producer.BatchTimeout", cfg.Producer.BatchTimeout},
		{"Consumer.MaxWait", cfg.Consumer.MaxWait},
		{"Consumer.HeartbeatInterval", cfg.Consumer.HeartbeatInterval},
		{"Consumer.SessionTimeout", cfg.Consumer.SessionTimeout},
		{"Consumer.RebalanceTimeout", cfg.Consumer.RebalanceTimeout},
		{"Consumer.RetryBackoff", cfg.Consumer.RetryBackoff},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}
	if cfg.Consumer.HeartbeatInterval >= cfg.Consumer.SessionTimeout {
		errors = append(errors, "Consumer.HeartbeatInterval must be shorter than Consumer.SessionTimeout")
	}

	if cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty")
	} else if cfg.BookingEventsTopic == cfg.BookingEventsDLQTopic {
		errors = append(errors, "BookingEventsDLQTopic must differ from BookingEventsTopic")
	}
	if cfg.NotifierGroupID == "" {
		errors = append(errors, "NotifierGroupID cannot be empty")
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

func (p ProducerConfig) RequiredAcks() kafka.RequiredAcks {
	switch p.Acks {
	case AcksNone:
		return kafka.RequireNone
	case AcksLeader:
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

func (c ConsumerConfig) FirstOffset() int64 {
	if c.StartOffset == StartOffsetNewest {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer_acks", cfg.Producer.Acks,
		"producer_compression", cfg.Producer.Compression,
		"producer_max_attempts", cfg.Producer.MaxAttempts,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"consumer_retry_backoff", cfg.Consumer.RetryBackoff,
		"booking_events_topic", cfg.BookingEventsTopic,
		"booking_events_dlq_topic", cfg.BookingEventsDLQTopic,
		"notifier_group_id", cfg.NotifierGroupID,
	)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if intValue, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return intValue
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if duration, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return duration
	}
	return fallback
}
