package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"turfbook/pkg/kafka"
	"turfbook/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Config{Level: "debug", Format: logger.JSON, Output: buf})
}

func testMessage(topic string) kafka.Message {
	return kafka.Message{
		Key:     "booking-1",
		Topic:   topic,
		Headers: map[string]string{kafka.HeaderEventID: "evt-1", kafka.HeaderEventType: "booking.confirmed"},
	}
}

func TestLoggingProducerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	mw := LoggingProducerMiddleware(testLogger(&buf))

	err := mw(context.Background(), testMessage("booking-events"), func(context.Context, kafka.Message) error { return nil })
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Published message")
	assert.Contains(t, buf.String(), "evt-1")

	buf.Reset()
	boom := errors.New("broker down")
	err = mw(context.Background(), testMessage("booking-events"), func(context.Context, kafka.Message) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "Failed to publish message")
	assert.Contains(t, buf.String(), "broker down")
}

func TestLoggingConsumerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	mw := LoggingConsumerMiddleware(testLogger(&buf))

	err := mw(context.Background(), testMessage("booking-events"), func(context.Context, kafka.Message) error {
		return errors.New("smtp 451")
	})
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "Failed to process message")
}

func TestMetricsProducerMiddleware(t *testing.T) {
	const topic = "metrics-producer-test"
	mw := MetricsProducerMiddleware()

	_ = mw(context.Background(), testMessage(topic), func(context.Context, kafka.Message) error { return nil })
	_ = mw(context.Background(), testMessage(topic), func(context.Context, kafka.Message) error { return errors.New("x") })

	assert.Equal(t, 1.0, testutil.ToFloat64(MessagesPublished.WithLabelValues(topic, statusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(MessagesPublished.WithLabelValues(topic, statusError)))
}

func TestMetricsConsumerMiddleware(t *testing.T) {
	const topic = "metrics-consumer-test"
	mw := MetricsConsumerMiddleware()

	_ = mw(context.Background(), testMessage(topic), func(context.Context, kafka.Message) error { return nil })

	assert.Equal(t, 1.0, testutil.ToFloat64(MessagesConsumed.WithLabelValues(topic, statusOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(MessagesConsumed.WithLabelValues(topic, statusError)))
}
