package kafka_middleware

import (
	"context"
	"time"

	"turfbook/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

var (
	MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_kafka_messages_published_total",
			Help: "Kafka messages published",
		},
		[]string{"topic", "status"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turfbook_kafka_publish_duration_seconds",
			Help:    "Kafka publish latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	MessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_kafka_messages_consumed_total",
			Help: "Kafka messages handled by consumers",
		},
		[]string{"topic", "status"},
	)

	ConsumeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turfbook_kafka_consume_duration_seconds",
			Help:    "Kafka handler latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		PublishDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		MessagesPublished.WithLabelValues(msg.Topic, status(err)).Inc()
		return err
	}
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		ConsumeDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		MessagesConsumed.WithLabelValues(msg.Topic, status(err)).Inc()
		return err
	}
}
