package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turfbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_bookings_created_total",
			Help: "Total number of booking holds created",
		},
		[]string{"day_type"},
	)

	BookingConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_booking_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		},
		[]string{"reason"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_booking_transitions_total",
			Help: "Booking status transitions",
		},
		[]string{"from", "to"},
	)

	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_payment_reconciliations_total",
			Help: "Gateway notifications processed, by outcome",
		},
		[]string{"outcome"},
	)

	PaymentSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_payment_sessions_total",
			Help: "Gateway payment sessions initiated",
		},
		[]string{"status"},
	)

	BookingsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "turfbook_bookings_expired_total",
			Help: "Pending bookings expired by the sweeper",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turfbook_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	AvailabilitySubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "turfbook_availability_stream_subscribers",
			Help: "Open availability websocket streams",
		},
	)
)

const (
	OutcomeConfirmed    = "confirmed"
	OutcomePaidUnplaced = "paid_unplaced"
	OutcomeDoublePaid   = "double_paid"
	OutcomeDuplicate    = "duplicate"
	OutcomeIgnored      = "ignored"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"

	ConflictLocked      = "locked"
	ConflictConfirmed   = "confirmed"
	ConflictPendingHold = "pending_hold"
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingCreated(dayType string) {
	BookingsCreatedTotal.WithLabelValues(dayType).Inc()
}

func RecordBookingConflict(reason string) {
	BookingConflictsTotal.WithLabelValues(reason).Inc()
}

func RecordTransition(from, to string) {
	BookingTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordReconciliation(outcome string) {
	ReconciliationsTotal.WithLabelValues(outcome).Inc()
}

func RecordPaymentSession(status string) {
	PaymentSessionsTotal.WithLabelValues(status).Inc()
}

func RecordExpired(n int64) {
	if n > 0 {
		BookingsExpiredTotal.Add(float64(n))
	}
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
