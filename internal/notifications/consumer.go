package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	turfrepo "turfbook/internal/turfs/repository"
	userrepo "turfbook/internal/users/repository"
	"turfbook/pkg/kafka"
	"turfbook/pkg/logger"
	"turfbook/pkg/metrics"
	"turfbook/pkg/sanitizer"
)

const emailTypeConfirmation = "booking_confirmation"

// ConfirmationHandler turns booking.confirmed messages into customer emails.
type ConfirmationHandler struct {
	users  userrepo.UserRepository
	turfs  turfrepo.TurfRepository
	mailer Mailer
	log    *logger.Logger
}

func NewConfirmationHandler(users userrepo.UserRepository, turfs turfrepo.TurfRepository, mailer Mailer, log *logger.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		users:  users,
		turfs:  turfs,
		mailer: mailer,
		log:    log.Component("confirmation-handler"),
	}
}

// Handle is a kafka.MessageHandler. Other event types are skipped.
func (h *ConfirmationHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if msg.GetEventType() != EventBookingConfirmed {
		h.log.Debug("Skipping event", "event_type", msg.GetEventType(), "event_id", msg.GetEventID())
		return nil
	}

	var evt BookingConfirmedEvent
	if err := msg.DecodeValue(&evt); err != nil {
		return kafka.NewPermanentError("deserialization failed", err)
	}

	user, err := h.users.FindByID(ctx, evt.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) || errors.Is(err, userrepo.ErrInvalidID) {
			return kafka.NewPermanentError("booking user not found", err).WithDetail("user_id", evt.UserID)
		}
		return kafka.NewTransientError("load booking user", err)
	}
	if user.Email == "" {
		h.log.Warn("Booking user has no email address", "booking_id", evt.BookingID, "user_id", evt.UserID)
		metrics.RecordEmail(emailTypeConfirmation, "skipped")
		return nil
	}

	turfName := "your turf"
	turf, err := h.turfs.FindByID(ctx, evt.TurfID)
	switch {
	case err == nil:
		turfName = turf.Name
	case errors.Is(err, turfrepo.ErrNotFound), errors.Is(err, turfrepo.ErrInvalidID):
		h.log.Warn("Turf for confirmed booking not found", "booking_id", evt.BookingID, "turf_id", evt.TurfID)
	default:
		return kafka.NewTransientError("load booking turf", err)
	}

	email := Email{
		To:      sanitizer.NormalizeEmail(user.Email),
		Name:    sanitizer.NormalizeName(user.Name),
		Subject: "Booking confirmed: " + turfName + " on " + evt.Date,
		Body:    ConfirmationBody(sanitizer.NormalizeName(user.Name), turfName, evt),
	}
	if err := h.mailer.Send(ctx, email); err != nil {
		metrics.RecordEmail(emailTypeConfirmation, "failed")
		return err
	}

	metrics.RecordEmail(emailTypeConfirmation, "success")
	h.log.Info("Confirmation email sent", "booking_id", evt.BookingID, "to", user.Email)
	return nil
}

func ConfirmationBody(name, turfName string, evt BookingConfirmedEvent) string {
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your booking at %s is confirmed.\n\n", turfName)
	fmt.Fprintf(&b, "Date: %s\n", evt.Date)
	fmt.Fprintf(&b, "Time: %s - %s\n", evt.StartTime, evt.EndTime)
	fmt.Fprintf(&b, "Total paid: %.2f BDT\n", evt.TotalPrice)
	fmt.Fprintf(&b, "Booking reference: %s\n\n", evt.BookingID)
	b.WriteString("See you on the pitch!\n")
	return b.String()
}
