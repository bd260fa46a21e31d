package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "turfbook/internal/bookings/errors"
	"turfbook/internal/bookings/repository"
	"turfbook/internal/bookings/validator"
	"turfbook/internal/pricing"
	turfrepo "turfbook/internal/turfs/repository"
	"turfbook/pkg/auth"
	"turfbook/pkg/config"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/events"
	"turfbook/pkg/metrics"
	"turfbook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ReasonBookingCreated = "booking_created"
	ReasonStatusChanged  = "status_changed"
	ReasonBookingDeleted = "booking_deleted"
)

type BookingService interface {
	Create(ctx context.Context, principal *auth.Principal, req *model.CreateBookingRequest) (*model.BookingCreated, error)
	GetByID(ctx context.Context, principal *auth.Principal, id string) (*model.Booking, error)
	ListMine(ctx context.Context, principal *auth.Principal, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id, status string, principal *auth.Principal) (*model.Booking, error)
	Cancel(ctx context.Context, principal *auth.Principal, id string) (*model.Booking, error)
	Delete(ctx context.Context, principal *auth.Principal, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	turfRepo  turfrepo.TurfRepository
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	turfRepo turfrepo.TurfRepository,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		turfRepo:  turfRepo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, principal *auth.Principal, req *model.CreateBookingRequest) (*model.BookingCreated, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if err := s.validate(s.validator.ValidateCreate(req)); err != nil {
		return nil, err
	}

	turf, err := s.loadTurf(ctx, req.TurfID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.cfg.Location())
	if err := s.validate(s.validator.ValidateSchedule(req, turf, now)); err != nil {
		return nil, err
	}

	date, err := pricing.ParseDate(req.Date, s.cfg.Location())
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid booking date")
	}
	quote, err := pricing.Calculate(turf, date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	lockID, owner, err := s.acquireSlotLock(ctx, req, now)
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLock(ctx, lockID, owner)

	expiresAt := now.Add(s.cfg.BookingHoldWindow).UTC()
	booking := &model.Booking{
		TurfID:              req.TurfID,
		UserID:              principal.ID,
		Date:                req.Date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		AppliedPricePerSlot: quote.PricePerSlot,
		TotalPrice:          quote.TotalPrice,
		PricingRule:         quote.AppliedRule,
		DayType:             quote.DayType,
		Status:              model.BookingPending,
		PaymentStatus:       model.PaymentUnpaid,
		ExpiresAt:           &expiresAt,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// The driver may re-run this function on transient errors.
		booking.ID = ""
		booking.CreatedAt = now.UTC().Truncate(time.Millisecond)

		existing, err := s.repo.FindActiveBySlot(sessCtx, req.TurfID, req.Date, req.StartTime)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if err := s.checkSlotFree(sessCtx, existing, "", now); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Error("Failed to create booking", "turf_id", req.TurfID, "date", req.Date, "start_time", req.StartTime, "error", err)
		}
		return nil, apperrors.AsAppError(err)
	}

	metrics.RecordBookingCreated(quote.DayType)
	s.publish(ctx, booking, ReasonBookingCreated)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"turf_id", booking.TurfID,
		"user_id", booking.UserID,
		"date", booking.Date,
		"start_time", booking.StartTime,
		"total_price", booking.TotalPrice,
	)
	return &model.BookingCreated{Booking: booking, Pricing: quote.Breakdown()}, nil
}

func (s *bookingService) GetByID(ctx context.Context, principal *auth.Principal, id string) (*model.Booking, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.UserID == principal.ID || principal.IsSuper() {
		return booking, nil
	}
	if s.administers(ctx, principal, booking.TurfID) {
		return booking, nil
	}
	return nil, apperrors.Forbidden("You are not allowed to view this booking")
}

func (s *bookingService) ListMine(ctx context.Context, principal *auth.Principal, limit int, offset int64) ([]*model.Booking, int64, error) {
	if principal == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByUser(ctx, principal.ID)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "user_id", principal.ID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByUser(ctx, principal.ID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", "user_id", principal.ID, "error", err)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// UpdateStatus moves a booking through its lifecycle. Turf admins and the
// super role may set any status the lifecycle allows; owners may only cancel.
func (s *bookingService) UpdateStatus(ctx context.Context, id, status string, principal *auth.Principal) (*model.Booking, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if err := s.validator.ValidateStatus(&model.BookingStatusUpdate{Status: status}); err != nil {
		return nil, apperrors.InvalidInput("Unknown booking status: " + status)
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	canManage := principal.IsSuper() || s.administers(ctx, principal, booking.TurfID)
	isOwner := booking.UserID == principal.ID
	if !canManage && !(isOwner && status == model.BookingCancelled) {
		return nil, apperrors.Forbidden("You are not allowed to change this booking")
	}

	if booking.Status == status {
		return booking, nil
	}
	if err := checkTransition(booking, status); err != nil {
		s.cfg.Log.Warn("Rejected booking transition", "id", id, "from", booking.Status, "to", status, "payment_status", booking.PaymentStatus)
		return nil, err
	}

	change := repository.StatusChange{
		Status:      status,
		ClearExpiry: booking.Status == model.BookingPending,
	}

	var updated *model.Booking
	apply := func(ctx context.Context) error {
		var err error
		updated, err = s.repo.ApplyStatus(ctx, id, booking.Status, change)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return apperrors.Conflict("Booking was modified by another request. Please retry.")
			}
			return apperrors.Internal("Failed to update booking status", err)
		}
		return nil
	}

	if status == model.BookingConfirmed {
		// Confirming must not place a second booking on a taken slot.
		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			existing, err := s.repo.FindActiveBySlot(sessCtx, booking.TurfID, booking.Date, booking.StartTime)
			if err != nil {
				return apperrors.Internal("Failed to check existing bookings", err)
			}
			for _, b := range existing {
				if b.ID != booking.ID && b.Status == model.BookingConfirmed {
					metrics.RecordBookingConflict(metrics.ConflictConfirmed)
					return apperrors.Conflict("This time slot is already booked")
				}
			}
			return apply(sessCtx)
		})
	} else {
		err = apply(ctx)
	}
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Error("Failed to update booking status", "id", id, "to", status, "error", err)
		}
		return nil, apperrors.AsAppError(err)
	}

	metrics.RecordTransition(booking.Status, status)
	s.publish(ctx, updated, ReasonStatusChanged)
	s.cfg.Log.Info("Booking status updated", "id", id, "from", booking.Status, "to", status, "by", principal.ID)
	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, principal *auth.Principal, id string) (*model.Booking, error) {
	return s.UpdateStatus(ctx, id, model.BookingCancelled, principal)
}

// Delete removes the record outright. Restricted to the super role.
func (s *bookingService) Delete(ctx context.Context, principal *auth.Principal, id string) error {
	if principal == nil {
		return apperrors.Unauthorized("Authentication required")
	}
	if !principal.IsSuper() {
		return apperrors.Forbidden("Only managers can delete bookings")
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return apperrors.Internal("Failed to delete booking", err)
	}

	s.publish(ctx, booking, ReasonBookingDeleted)
	s.cfg.Log.Info("Booking deleted successfully", "id", id, "by", principal.ID)
	return nil
}

// --- Helpers ---

// checkTransition enforces the lifecycle rules that do not depend on who asks.
func checkTransition(b *model.Booking, to string) error {
	switch {
	case b.IsTerminal() && (to == model.BookingPending || to == model.BookingConfirmed):
		return apperrors.IllegalTransition(b.Status, to)
	case to == model.BookingConfirmed && b.PaymentStatus != model.PaymentPaid:
		return apperrors.IllegalTransition(b.Status, to).WithDetails(map[string]any{
			"from":   b.Status,
			"to":     to,
			"reason": "booking is not paid",
		})
	case b.Status == model.BookingConfirmed && to == model.BookingPending:
		return apperrors.IllegalTransition(b.Status, to)
	}
	return nil
}

// checkSlotFree fails with Conflict when a confirmed booking or a live hold
// occupies the slot. Lapsed holds found on the way are marked expired.
func (s *bookingService) checkSlotFree(ctx context.Context, existing []*model.Booking, selfID string, now time.Time) error {
	for _, b := range existing {
		if b.ID == selfID {
			continue
		}
		switch {
		case b.Status == model.BookingConfirmed:
			metrics.RecordBookingConflict(metrics.ConflictConfirmed)
			return apperrors.Conflict("This time slot is already booked for the selected date")
		case b.OccupiesSlot(now, s.cfg.BookingHoldWindow):
			metrics.RecordBookingConflict(metrics.ConflictPendingHold)
			return apperrors.Conflict("This time slot is temporarily held by another user. Please retry later.").
				WithDetails(map[string]any{"retry_after_seconds": int(b.CreatedAt.Add(s.cfg.BookingHoldWindow).Sub(now).Seconds())})
		case b.Status == model.BookingPending:
			if _, err := s.repo.ApplyStatus(ctx, b.ID, model.BookingPending, repository.StatusChange{
				Status:      model.BookingExpired,
				ClearExpiry: true,
			}); err != nil && !errors.Is(err, bookingserrors.ErrStatusChanged) {
				return apperrors.Internal("Failed to expire stale booking", err)
			}
			metrics.RecordTransition(model.BookingPending, model.BookingExpired)
		}
	}
	return nil
}

// acquireSlotLock inserts the advisory lock for the slot. A lock left behind
// past its expiry is taken over once.
func (s *bookingService) acquireSlotLock(ctx context.Context, req *model.CreateBookingRequest, now time.Time) (string, string, error) {
	lockID := model.SlotLockID(req.TurfID, req.Date, req.StartTime)
	owner := uuid.NewString()

	for attempt := 0; attempt < 2; attempt++ {
		err := s.lockRepo.Acquire(ctx, &model.BookingLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: now.Add(s.cfg.SlotLockTTL).UTC(),
		})
		if err == nil {
			return lockID, owner, nil
		}
		if !errors.Is(err, bookingserrors.ErrSlotLocked) {
			return "", "", apperrors.Internal("Failed to acquire booking lock", err)
		}
		if attempt > 0 {
			break
		}

		tookOver, err := s.lockRepo.TakeOverExpired(ctx, lockID, now)
		if err != nil {
			return "", "", apperrors.Internal("Failed to acquire booking lock", err)
		}
		if !tookOver {
			break
		}
		s.cfg.Log.Warn("Took over expired slot lock", "lock_id", lockID)
	}

	metrics.RecordBookingConflict(metrics.ConflictLocked)
	return "", "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.lockRepo.Release(ctx, lockID, owner); err != nil && !errors.Is(err, bookingserrors.ErrLockNotFound) {
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
	}
}

func (s *bookingService) validate(err error) error {
	if err == nil {
		return nil
	}
	s.cfg.Log.Warn("Booking validation failed", "error", err)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Booking validation failed", verrs.Details())
	}
	return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
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

func (s *bookingService) loadTurf(ctx context.Context, id string) (*model.Turf, error) {
	turf, err := s.turfRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, turfrepo.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Turf", id)
		}
		if errors.Is(err, turfrepo.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid turf ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve turf", err)
	}
	return turf, nil
}

// administers reports whether principal is an admin of the turf. Lookup
// failures are treated as "no".
func (s *bookingService) administers(ctx context.Context, principal *auth.Principal, turfID string) bool {
	turf, err := s.turfRepo.FindByID(ctx, turfID)
	if err != nil {
		if !errors.Is(err, turfrepo.ErrNotFound) {
			s.cfg.Log.Warn("Failed to load turf for permission check", "turf_id", turfID, "error", err)
		}
		return false
	}
	return turf.IsAdmin(principal.ID)
}

func (s *bookingService) publish(ctx context.Context, b *model.Booking, reason string) {
	err := s.publisher.PublishAvailability(context.WithoutCancel(ctx), events.AvailabilityChanged{
		TurfID:    b.TurfID,
		Date:      b.Date,
		StartTime: b.StartTime,
		Reason:    reason,
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to publish availability change", "booking_id", b.ID, "error", err)
	}
}
