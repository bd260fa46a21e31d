package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "availability:"

// AvailabilityChanged announces that slot state for a turf and date moved.
type AvailabilityChanged struct {
	TurfID    string    `json:"turf_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time,omitempty"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func Channel(turfID, date string) string {
	return channelPrefix + turfID + ":" + date
}

type Publisher interface {
	PublishAvailability(ctx context.Context, evt AvailabilityChanged) error
}

type Subscriber interface {
	SubscribeAvailability(ctx context.Context, turfID, date string) (<-chan AvailabilityChanged, func(), error)
}

type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) PublishAvailability(ctx context.Context, evt AvailabilityChanged) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode availability event: %w", err)
	}
	if err := b.client.Publish(ctx, Channel(evt.TurfID, evt.Date), string(payload)).Err(); err != nil {
		return fmt.Errorf("publish availability event: %w", err)
	}
	return nil
}

// SubscribeAvailability returns a channel of decoded events and a close
// function. The channel is closed once ctx is done or close is called.
func (b *RedisBus) SubscribeAvailability(ctx context.Context, turfID, date string) (<-chan AvailabilityChanged, func(), error) {
	sub := b.client.Subscribe(ctx, Channel(turfID, date))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe availability: %w", err)
	}

	out := make(chan AvailabilityChanged, 8)
	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt AvailabilityChanged
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					continue
				}
				select {
				case out <- evt:
				default:
					// A snapshot is already pending for a slow reader.
				}
			}
		}
	}()

	return out, func() { _ = sub.Close() }, nil
}

// Nop drops every event. Used by one-shot jobs and tests.
type Nop struct{}

func (Nop) PublishAvailability(context.Context, AvailabilityChanged) error { return nil }
