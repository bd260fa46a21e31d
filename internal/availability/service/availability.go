package service

import (
	"context"
	"errors"
	"time"

	"turfbook/internal/pricing"
	turfrepo "turfbook/internal/turfs/repository"
	"turfbook/pkg/config"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/model"
)

const slotMinutes = 60

// BookingReader is the part of the booking store availability needs.
type BookingReader interface {
	FindActiveByTurfAndDate(ctx context.Context, turfID, date string) ([]*model.Booking, error)
}

type AvailabilityService interface {
	GetAvailability(ctx context.Context, turfID, date string) (*model.Availability, error)
}

type availabilityService struct {
	bookings BookingReader
	turfs    turfrepo.TurfRepository
	cfg      *config.Config
	now      func() time.Time
}

func NewAvailabilityService(bookings BookingReader, turfs turfrepo.TurfRepository, cfg *config.Config) AvailabilityService {
	return &availabilityService{
		bookings: bookings,
		turfs:    turfs,
		cfg:      cfg,
		now:      time.Now,
	}
}

// GetAvailability lists the one-hour slots of the turf's operating day. A slot
// is taken by a confirmed booking or by a pending hold still inside its window.
func (s *availabilityService) GetAvailability(ctx context.Context, turfID, date string) (*model.Availability, error) {
	if date == "" {
		return nil, apperrors.InvalidInput("Date query parameter is required")
	}
	day, err := pricing.ParseDate(date, s.cfg.Location())
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	turf, err := s.turfs.FindByID(ctx, turfID)
	if err != nil {
		switch {
		case errors.Is(err, turfrepo.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Turf", turfID)
		case errors.Is(err, turfrepo.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid turf ID format")
		default:
			s.cfg.Log.Error("Failed to load turf", "turf_id", turfID, "error", err)
			return nil, apperrors.Internal("Failed to retrieve turf", err)
		}
	}

	open, errOpen := pricing.ParseClock(turf.OperatingHours.Start)
	closing, errClose := pricing.ParseClock(turf.OperatingHours.End)
	if errOpen != nil || errClose != nil {
		s.cfg.Log.Error("Turf has malformed operating hours", "turf_id", turfID, "start", turf.OperatingHours.Start, "end", turf.OperatingHours.End)
		return nil, apperrors.Internal("Turf operating hours are misconfigured", nil)
	}

	bookings, err := s.bookings.FindActiveByTurfAndDate(ctx, turfID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for availability", "turf_id", turfID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	now := s.now()
	occupied := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.OccupiesSlot(now, s.cfg.BookingHoldWindow) {
			occupied[b.StartTime] = true
		}
	}

	dayType := pricing.DayTypeOf(day)
	availability := &model.Availability{
		TurfID:  turfID,
		Date:    date,
		DayType: dayType,
		Slots:   []model.Slot{},
	}
	for start := open; start+slotMinutes <= closing; start += slotMinutes {
		startTime := pricing.FormatClock(start)
		price, label, err := pricing.RateFor(turf, dayType, startTime)
		if err != nil {
			return nil, apperrors.Internal("Failed to price slot", err)
		}
		availability.Slots = append(availability.Slots, model.Slot{
			StartTime:    startTime,
			EndTime:      pricing.FormatClock(start + slotMinutes),
			IsAvailable:  !occupied[startTime],
			PricePerSlot: price,
			DayTypeLabel: label,
		})
	}

	return availability, nil
}
