package model

import (
	"time"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingExpired   = "expired"

	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"

	SettlementGateway = "gateway"
	SettlementManual  = "manual"
)

type Booking struct {
	ID                  string     `json:"id,omitempty" bson:"_id,omitempty"`
	TurfID              string     `json:"turf" bson:"turf_id"`
	UserID              string     `json:"user" bson:"user_id"`
	Date                string     `json:"date" bson:"date"`
	StartTime           string     `json:"start_time" bson:"start_time"`
	EndTime             string     `json:"end_time" bson:"end_time"`
	AppliedPricePerSlot float64    `json:"applied_price_per_slot" bson:"applied_price_per_slot"`
	TotalPrice          float64    `json:"total_price" bson:"total_price"`
	PricingRule         string     `json:"pricing_rule" bson:"pricing_rule"`
	DayType             string     `json:"day_type" bson:"day_type"`
	Status              string     `json:"status" bson:"status"`
	PaymentStatus       string     `json:"payment_status" bson:"payment_status"`
	SettlementMethod    string     `json:"settlement_method,omitempty" bson:"settlement_method,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" bson:"updated_at"`
}

// CreateBookingRequest is the body of POST /api/v1/bookings.
type CreateBookingRequest struct {
	TurfID    string `json:"turf" validate:"required,mongodb"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

type BookingStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled expired"`
}

// PricingBreakdown is returned alongside a freshly created booking.
type PricingBreakdown struct {
	PricePerSlot float64 `json:"price_per_slot"`
	Duration     float64 `json:"duration"`
	TotalPrice   float64 `json:"total_price"`
	AppliedRule  string  `json:"applied_rule"`
	DayType      string  `json:"day_type"`
}

type BookingCreated struct {
	Booking *Booking         `json:"booking"`
	Pricing PricingBreakdown `json:"pricing"`
}

// IsTerminal reports whether the booking can no longer become pending or confirmed.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingExpired
}

// OccupiesSlot reports whether the booking blocks its slot at instant now.
// Confirmed bookings always block; pending ones until they are older than holdWindow.
func (b *Booking) OccupiesSlot(now time.Time, holdWindow time.Duration) bool {
	switch b.Status {
	case BookingConfirmed:
		return true
	case BookingPending:
		return !b.CreatedAt.Before(now.Add(-holdWindow))
	default:
		return false
	}
}

// HoldLapsed reports whether a pending booking is past its payment window.
func (b *Booking) HoldLapsed(now time.Time, holdWindow time.Duration) bool {
	if b.Status != BookingPending {
		return false
	}
	if b.ExpiresAt != nil && !now.Before(*b.ExpiresAt) {
		return true
	}
	return !b.CreatedAt.After(now.Add(-holdWindow))
}
