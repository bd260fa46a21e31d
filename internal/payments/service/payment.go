package service

import (
	"context"
	"errors"
	"math"
	"net/url"
	"time"

	bookingserrors "turfbook/internal/bookings/errors"
	bookingrepo "turfbook/internal/bookings/repository"
	paymentserrors "turfbook/internal/payments/errors"
	"turfbook/internal/payments/repository"
	turfrepo "turfbook/internal/turfs/repository"
	userrepo "turfbook/internal/users/repository"
	"turfbook/pkg/auth"
	"turfbook/pkg/config"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/events"
	"turfbook/pkg/metrics"
	"turfbook/pkg/model"
	"turfbook/pkg/sanitizer"
	"turfbook/pkg/sslcommerz"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	OutcomeSuccess = "success"
	OutcomeFail    = "fail"
	OutcomeCancel  = "cancel"

	ReasonPaymentConfirmed = "payment_confirmed"

	gatewayTransactionPrefix = "turf-booking-"
	manualTransactionPrefix  = "manual-"

	amountTolerance = 0.01

	// The gateway rejects sessions without a customer phone.
	fallbackPhone = "+8801700000000"
)

// ConfirmationNotifier announces bookings that became confirmed.
type ConfirmationNotifier interface {
	BookingConfirmed(ctx context.Context, booking *model.Booking) error
}

type nopNotifier struct{}

func (nopNotifier) BookingConfirmed(context.Context, *model.Booking) error { return nil }

type PaymentService interface {
	Init(ctx context.Context, principal *auth.Principal, bookingID string) (*model.PaymentInitResponse, error)
	Reconcile(ctx context.Context, values url.Values) error
	Redirect(ctx context.Context, outcome, transactionID string, values url.Values) string
	Settle(ctx context.Context, principal *auth.Principal, bookingID string) (*model.ManualSettlement, error)
}

type paymentService struct {
	repo        repository.PaymentRepository
	bookingRepo bookingrepo.BookingRepository
	turfRepo    turfrepo.TurfRepository
	userRepo    userrepo.UserRepository
	gateway     sslcommerz.Gateway
	notifier    ConfirmationNotifier
	publisher   events.Publisher
	cfg         *config.Config
	now         func() time.Time
}

func NewPaymentService(
	repo repository.PaymentRepository,
	bookingRepo bookingrepo.BookingRepository,
	turfRepo turfrepo.TurfRepository,
	userRepo userrepo.UserRepository,
	gateway sslcommerz.Gateway,
	notifier ConfirmationNotifier,
	publisher events.Publisher,
	cfg *config.Config,
) PaymentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &paymentService{
		repo:        repo,
		bookingRepo: bookingRepo,
		turfRepo:    turfRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		notifier:    notifier,
		publisher:   publisher,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Init opens a gateway session for the principal's pending booking.
func (s *paymentService) Init(ctx context.Context, principal *auth.Principal, bookingID string) (*model.PaymentInitResponse, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != principal.ID {
		return nil, apperrors.Forbidden("You can only pay for your own bookings")
	}
	if booking.PaymentStatus == model.PaymentPaid {
		return nil, apperrors.InvalidInput("Booking is already paid")
	}
	if booking.Status != model.BookingPending {
		return nil, apperrors.InvalidInput("Only pending bookings can be paid")
	}
	if booking.HoldLapsed(s.now(), s.cfg.BookingHoldWindow) {
		return nil, apperrors.InvalidInput("Booking hold has expired. Please book the slot again.")
	}

	user, err := s.userRepo.FindByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) || errors.Is(err, userrepo.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("User", principal.ID)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	productName := "Turf booking"
	if turf, err := s.turfRepo.FindByID(ctx, booking.TurfID); err == nil && turf.Name != "" {
		productName = turf.Name
	}

	transactionID := gatewayTransactionPrefix + uuid.NewString()
	payment := &model.Payment{
		BookingID:     booking.ID,
		TransactionID: transactionID,
		Amount:        booking.TotalPrice,
		Currency:      model.CurrencyBDT,
		Status:        model.PaymentStatusPending,
		Method:        model.PaymentMethodGateway,
	}
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		superseded, err := s.repo.SupersedePending(sessCtx, booking.ID)
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.cfg.Log.Info("Superseded open payment attempts", "booking_id", booking.ID, "count", superseded)
		}
		return s.repo.Create(sessCtx, payment)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to record pending payment", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to prepare payment", err)
	}

	callback := s.cfg.ServerURL + "/api/v1/payments/"
	session, err := s.gateway.InitSession(ctx, &sslcommerz.SessionRequest{
		TotalAmount:     payment.Amount,
		Currency:        payment.Currency,
		TransactionID:   transactionID,
		SuccessURL:      callback + OutcomeSuccess + "/" + transactionID,
		FailURL:         callback + OutcomeFail + "/" + transactionID,
		CancelURL:       callback + OutcomeCancel + "/" + transactionID,
		IPNURL:          callback + "webhook",
		ProductName:     productName,
		ProductCategory: "Sports",
		ProductProfile:  "general",
		CustomerName:    orDefault(sanitizer.NormalizeName(user.Name), "Customer"),
		CustomerEmail:   sanitizer.NormalizeEmail(user.Email),
		CustomerAddress: "Dhaka",
		CustomerCity:    "Dhaka",
		CustomerCountry: "Bangladesh",
		CustomerPhone:   orDefault(sanitizer.NormalizePhone(user.Phone, sanitizer.DefaultRegion), fallbackPhone),
	})
	if err != nil {
		metrics.RecordPaymentSession("failed")
		s.cfg.Log.Error("Payment gateway init failed", "booking_id", booking.ID, "transaction_id", transactionID, "error", err)
		return nil, apperrors.Unavailable("Payment gateway", err)
	}

	metrics.RecordPaymentSession("success")
	s.cfg.Log.Info("Payment session created", "booking_id", booking.ID, "transaction_id", transactionID, "amount", payment.Amount)
	return &model.PaymentInitResponse{RedirectURL: session.GatewayPageURL, TransactionID: transactionID}, nil
}

type settlement int

const (
	settledNone settlement = iota
	settledConfirmed
	settledUnplaced
	settledDuplicate
	settledDoublePaid
)

// Reconcile applies a gateway notification. Repeated deliveries of the same
// notification confirm the booking once.
func (s *paymentService) Reconcile(ctx context.Context, values url.Values) error {
	if err := s.gateway.VerifySignature(values); err != nil {
		metrics.RecordReconciliation(metrics.OutcomeRejected)
		s.cfg.Log.Error("Gateway notification signature rejected", "transaction_id", values.Get("tran_id"), "error", err)
		return apperrors.GatewayValidation("Payment notification signature is invalid", err)
	}

	n := sslcommerz.NotificationFromValues(values)
	if !n.IsValid() {
		metrics.RecordReconciliation(metrics.OutcomeIgnored)
		s.cfg.Log.Info("Ignoring non-valid payment notification", "transaction_id", n.TransactionID, "status", n.Status)
		return nil
	}
	if n.TransactionID == "" || n.ValidationID == "" {
		metrics.RecordReconciliation(metrics.OutcomeRejected)
		s.cfg.Log.Error("Payment notification is missing identifiers", "transaction_id", n.TransactionID)
		return apperrors.GatewayValidation("Payment notification is missing tran_id or val_id", nil)
	}

	validation, err := s.gateway.ValidateTransaction(ctx, n.ValidationID)
	if err != nil {
		metrics.RecordReconciliation(metrics.OutcomeFailed)
		s.cfg.Log.Error("Gateway validation request failed", "transaction_id", n.TransactionID, "error", err)
		return apperrors.Unavailable("Payment gateway", err)
	}
	if !validation.IsValid() || validation.TransactionID != n.TransactionID {
		metrics.RecordReconciliation(metrics.OutcomeRejected)
		s.cfg.Log.Error("Gateway validation failed",
			"transaction_id", n.TransactionID,
			"validated_transaction_id", validation.TransactionID,
			"status", validation.Status,
		)
		return apperrors.GatewayValidation("Payment could not be validated with the gateway", sslcommerz.ErrValidationFailed)
	}

	payment, err := s.repo.FindByTransactionID(ctx, n.TransactionID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			metrics.RecordReconciliation(metrics.OutcomeRejected)
			s.cfg.Log.Error("Payment notification for unknown transaction", "transaction_id", n.TransactionID)
			return apperrors.NotFoundWithID("Payment", n.TransactionID)
		}
		return apperrors.Internal("Failed to retrieve payment", err)
	}
	if payment.Status == model.PaymentStatusSuccess || payment.Status == model.PaymentStatusRefundRequired {
		metrics.RecordReconciliation(metrics.OutcomeDuplicate)
		s.cfg.Log.Info("Payment already settled", "transaction_id", n.TransactionID)
		return nil
	}

	amount, err := validation.AmountValue()
	if err != nil || math.Abs(amount-payment.Amount) > amountTolerance {
		metrics.RecordReconciliation(metrics.OutcomeRejected)
		s.cfg.Log.Error("Payment amount mismatch",
			"transaction_id", n.TransactionID,
			"expected", payment.Amount,
			"validated", validation.Amount,
		)
		return apperrors.GatewayValidation("Payment amount does not match", err)
	}

	gatewayData := sslcommerz.GatewayData(values)
	var result settlement
	var booking *model.Booking

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, booking = settledNone, nil

		current, err := s.bookingRepo.FindByID(sessCtx, payment.BookingID)
		if err != nil {
			return apperrors.Internal("Failed to retrieve booking", err)
		}

		// Another payment settled the booking first. Keep its settlement and
		// flag this capture for refund.
		if current.PaymentStatus == model.PaymentPaid {
			if err := s.repo.MarkOutcome(sessCtx, n.TransactionID, model.PaymentStatusRefundRequired, gatewayData); err != nil {
				if errors.Is(err, paymentserrors.ErrAlreadySettled) {
					result = settledDuplicate
					return nil
				}
				return apperrors.Internal("Failed to flag payment for refund", err)
			}
			result, booking = settledDoublePaid, current
			return nil
		}

		if _, err := s.repo.MarkSuccess(sessCtx, n.TransactionID, n.ValidationID, gatewayData); err != nil {
			if errors.Is(err, paymentserrors.ErrAlreadySettled) {
				result = settledDuplicate
				return nil
			}
			return apperrors.Internal("Failed to settle payment", err)
		}

		result, booking, err = s.placeBooking(sessCtx, current, model.SettlementGateway)
		return err
	})
	if err != nil {
		metrics.RecordReconciliation(metrics.OutcomeFailed)
		s.cfg.Log.Error("Payment reconciliation failed", "transaction_id", n.TransactionID, "booking_id", payment.BookingID, "error", err)
		return apperrors.Internal("Failed to reconcile payment", err)
	}

	switch result {
	case settledDuplicate:
		metrics.RecordReconciliation(metrics.OutcomeDuplicate)
		s.cfg.Log.Info("Payment settled by a concurrent notification", "transaction_id", n.TransactionID)
	case settledDoublePaid:
		metrics.RecordReconciliation(metrics.OutcomeDoublePaid)
		s.cfg.Log.Error("Payment received for a booking that is already paid, refund required",
			"transaction_id", n.TransactionID,
			"booking_id", booking.ID,
			"settlement_method", booking.SettlementMethod,
			"amount", payment.Amount,
		)
	case settledUnplaced:
		metrics.RecordReconciliation(metrics.OutcomePaidUnplaced)
		s.cfg.Log.Error("Payment received for a booking that cannot be confirmed, refund required",
			"transaction_id", n.TransactionID,
			"booking_id", booking.ID,
			"status", booking.Status,
			"amount", payment.Amount,
		)
	case settledConfirmed:
		metrics.RecordReconciliation(metrics.OutcomeConfirmed)
		s.afterConfirm(ctx, booking)
		s.cfg.Log.Info("Payment successful, booking confirmed", "transaction_id", n.TransactionID, "booking_id", booking.ID)
	}
	return nil
}

// placeBooking confirms a booking that has just been paid for. When the slot
// went to someone else, or the booking was cancelled or expired, it is only
// marked paid.
func (s *paymentService) placeBooking(ctx context.Context, b *model.Booking, method string) (settlement, *model.Booking, error) {
	placeable := b.Status == model.BookingPending
	if placeable {
		existing, err := s.bookingRepo.FindActiveBySlot(ctx, b.TurfID, b.Date, b.StartTime)
		if err != nil {
			return settledNone, nil, apperrors.Internal("Failed to check existing bookings", err)
		}
		for _, other := range existing {
			if other.ID != b.ID && other.Status == model.BookingConfirmed {
				placeable = false
				break
			}
		}
	}

	change := bookingrepo.StatusChange{
		PaymentStatus:    model.PaymentPaid,
		SettlementMethod: method,
	}
	outcome := settledUnplaced
	if placeable {
		change.Status = model.BookingConfirmed
		change.ClearExpiry = true
		outcome = settledConfirmed
	}

	updated, err := s.bookingRepo.ApplyStatus(ctx, b.ID, b.Status, change)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return settledNone, nil, apperrors.Conflict("Booking was modified by another request. Please retry.")
		}
		return settledNone, nil, apperrors.Internal("Failed to update booking", err)
	}
	return outcome, updated, nil
}

// Redirect records what the gateway reported for the browser flow and returns
// the client page to send the customer to.
func (s *paymentService) Redirect(ctx context.Context, outcome, transactionID string, values url.Values) string {
	page := "/booking-failed"

	switch outcome {
	case OutcomeSuccess:
		page = "/booking-success"
		if values.Get("val_id") != "" {
			if values.Get("tran_id") == "" {
				values.Set("tran_id", transactionID)
			}
			if err := s.Reconcile(ctx, values); err != nil && apperrors.HasCode(err, apperrors.CodeGatewayValidation) {
				page = "/booking-failed"
			}
		}
	case OutcomeFail, OutcomeCancel:
		status := model.PaymentStatusFailed
		if outcome == OutcomeCancel {
			page = "/booking-cancelled"
			status = model.PaymentStatusCancelled
		}
		if err := s.repo.MarkOutcome(ctx, transactionID, status, sslcommerz.GatewayData(values)); err != nil && !errors.Is(err, paymentserrors.ErrAlreadySettled) {
			s.cfg.Log.Error("Failed to record payment outcome", "transaction_id", transactionID, "status", status, "error", err)
		}
		s.cfg.Log.Info("Payment not completed", "transaction_id", transactionID, "status", status)
	}

	return s.cfg.ClientURL + page + "?transactionId=" + url.QueryEscape(transactionID)
}

// Settle records an off-gateway payment and confirms the booking. Turf admins
// and the super role only.
func (s *paymentService) Settle(ctx context.Context, principal *auth.Principal, bookingID string) (*model.ManualSettlement, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !principal.IsSuper() && !s.administers(ctx, principal, booking.TurfID) {
		return nil, apperrors.Forbidden("Only turf admins can record manual payments")
	}
	if booking.PaymentStatus == model.PaymentPaid {
		return nil, apperrors.InvalidInput("Booking is already paid")
	}
	if booking.Status != model.BookingPending {
		return nil, apperrors.IllegalTransition(booking.Status, model.BookingConfirmed)
	}

	var payment *model.Payment
	var confirmed *model.Booking

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.bookingRepo.FindActiveBySlot(sessCtx, booking.TurfID, booking.Date, booking.StartTime)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		for _, other := range existing {
			if other.ID != booking.ID && other.Status == model.BookingConfirmed {
				metrics.RecordBookingConflict(metrics.ConflictConfirmed)
				return apperrors.Conflict("This time slot is already booked")
			}
		}

		if _, err := s.repo.SupersedePending(sessCtx, booking.ID); err != nil {
			return apperrors.Internal("Failed to close open payment attempts", err)
		}

		payment = &model.Payment{
			BookingID:     booking.ID,
			TransactionID: manualTransactionPrefix + uuid.NewString(),
			Amount:        booking.TotalPrice,
			Currency:      model.CurrencyBDT,
			Status:        model.PaymentStatusSuccess,
			Method:        model.PaymentMethodManual,
			RecordedBy:    principal.ID,
		}
		if err := s.repo.Create(sessCtx, payment); err != nil {
			return apperrors.Internal("Failed to record payment", err)
		}

		confirmed, err = s.bookingRepo.ApplyStatus(sessCtx, booking.ID, booking.Status, bookingrepo.StatusChange{
			Status:           model.BookingConfirmed,
			PaymentStatus:    model.PaymentPaid,
			SettlementMethod: model.SettlementManual,
			ClearExpiry:      true,
		})
		if err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return apperrors.Conflict("Booking was modified by another request. Please retry.")
			}
			return apperrors.Internal("Failed to confirm booking", err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Error("Manual settlement failed", "booking_id", booking.ID, "error", err)
		}
		return nil, apperrors.AsAppError(err)
	}

	s.afterConfirm(ctx, confirmed)
	s.cfg.Log.Info("Manual payment recorded", "booking_id", booking.ID, "transaction_id", payment.TransactionID, "by", principal.ID)
	return &model.ManualSettlement{Booking: confirmed, Payment: payment}, nil
}

// afterConfirm runs once the confirming transaction committed. Failures here
// are logged and never undo the confirmation.
func (s *paymentService) afterConfirm(ctx context.Context, b *model.Booking) {
	ctx = context.WithoutCancel(ctx)
	metrics.RecordTransition(model.BookingPending, model.BookingConfirmed)

	if err := s.notifier.BookingConfirmed(ctx, b); err != nil {
		s.cfg.Log.Warn("Failed to publish booking confirmation", "booking_id", b.ID, "error", err)
	}
	if err := s.publisher.PublishAvailability(ctx, events.AvailabilityChanged{
		TurfID:    b.TurfID,
		Date:      b.Date,
		StartTime: b.StartTime,
		Reason:    ReasonPaymentConfirmed,
	}); err != nil {
		s.cfg.Log.Warn("Failed to publish availability change", "booking_id", b.ID, "error", err)
	}
}

func (s *paymentService) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *paymentService) administers(ctx context.Context, principal *auth.Principal, turfID string) bool {
	turf, err := s.turfRepo.FindByID(ctx, turfID)
	if err != nil {
		if !errors.Is(err, turfrepo.ErrNotFound) {
			s.cfg.Log.Warn("Failed to load turf for permission check", "turf_id", turfID, "error", err)
		}
		return false
	}
	return turf.IsAdmin(principal.ID)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
