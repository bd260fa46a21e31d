package notifications

import (
	"context"
	"fmt"
	"time"

	"turfbook/pkg/kafka"
	"turfbook/pkg/model"
)

type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Notifier publishes booking confirmations for the notifier service.
type Notifier struct {
	producer MessagePublisher
	source   string
	now      func() time.Time
}

func NewNotifier(producer MessagePublisher, source string) *Notifier {
	return &Notifier{producer: producer, source: source, now: time.Now}
}

func (n *Notifier) BookingConfirmed(ctx context.Context, b *model.Booking) error {
	msg, err := kafka.NewMessage().
		WithKey(b.ID).
		WithValue(NewBookingConfirmedEvent(b, n.now())).
		WithEventType(EventBookingConfirmed).
		WithSchemaVersion(SchemaVersion).
		WithSource(n.source).
		Build()
	if err != nil {
		return fmt.Errorf("build confirmation message: %w", err)
	}

	if err := n.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}
	return nil
}
