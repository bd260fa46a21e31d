package model

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
	// Captured by the gateway for a booking another payment already settled.
	PaymentStatusRefundRequired = "refund_required"

	PaymentMethodGateway = "gateway"
	PaymentMethodManual  = "manual"

	CurrencyBDT = "BDT"
)

type Payment struct {
	ID            string         `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID     string         `json:"booking" bson:"booking_id"`
	TransactionID string         `json:"transaction_id" bson:"transaction_id"`
	Amount        float64        `json:"amount" bson:"amount"`
	Currency      string         `json:"currency" bson:"currency"`
	Status        string         `json:"status" bson:"status"`
	Method        string         `json:"method" bson:"method"`
	ValidationID  string         `json:"validation_id,omitempty" bson:"validation_id,omitempty"`
	RecordedBy    string         `json:"recorded_by,omitempty" bson:"recorded_by,omitempty"`
	GatewayData   map[string]any `json:"gateway_data,omitempty" bson:"gateway_data,omitempty"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

type PaymentInitResponse struct {
	RedirectURL   string `json:"redirect_url"`
	TransactionID string `json:"transaction_id"`
}

type ManualSettlement struct {
	Booking *Booking `json:"booking"`
	Payment *Payment `json:"payment"`
}
