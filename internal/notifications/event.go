package notifications

import (
	"time"

	"turfbook/pkg/model"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	SchemaVersion         = "1"
)

// BookingConfirmedEvent is the payload of a booking.confirmed message.
type BookingConfirmedEvent struct {
	BookingID        string    `json:"booking_id"`
	TurfID           string    `json:"turf_id"`
	UserID           string    `json:"user_id"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	TotalPrice       float64   `json:"total_price"`
	SettlementMethod string    `json:"settlement_method"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

func NewBookingConfirmedEvent(b *model.Booking, at time.Time) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:        b.ID,
		TurfID:           b.TurfID,
		UserID:           b.UserID,
		Date:             b.Date,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		TotalPrice:       b.TotalPrice,
		SettlementMethod: b.SettlementMethod,
		ConfirmedAt:      at.UTC(),
	}
}
