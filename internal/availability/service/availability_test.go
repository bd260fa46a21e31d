package service

import (
	"context"
	"errors"
	"testing"
	"time"

	turfrepo "turfbook/internal/turfs/repository"
	"turfbook/pkg/config"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turfID = "65f1a2b3c4d5e6f708091a2b"

type mockBookingReader struct {
	bookings []*model.Booking
	err      error
}

func (m *mockBookingReader) FindActiveByTurfAndDate(ctx context.Context, turfID, date string) ([]*model.Booking, error) {
	return m.bookings, m.err
}

type mockTurfRepository struct {
	turf *model.Turf
	err  error
}

func (m *mockTurfRepository) FindByID(ctx context.Context, id string) (*model.Turf, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.turf, nil
}

var now = time.Date(2030, 3, 4, 12, 0, 0, 0, time.UTC)

func newService(reader *mockBookingReader, turfs *mockTurfRepository) *availabilityService {
	cfg := &config.Config{Log: logger.Discard(), BookingHoldWindow: 15 * time.Minute, BusinessLocation: time.UTC}
	svc := NewAvailabilityService(reader, turfs, cfg).(*availabilityService)
	svc.now = func() time.Time { return now }
	return svc
}

func turf() *model.Turf {
	return &model.Turf{
		ID:                  turfID,
		OperatingHours:      model.OperatingHours{Start: "06:00", End: "23:00"},
		DefaultPricePerSlot: 1500,
		PricingRules: []model.PricingRule{{
			DayType: model.DayTypeAllDays,
			TimeSlots: []model.TimeSlotRate{
				{StartTime: "06:00", EndTime: "17:00", PricePerSlot: 2000},
				{StartTime: "17:00", EndTime: "23:00", PricePerSlot: 3500},
			},
		}},
	}
}

func TestGetAvailability_SeventeenSlots(t *testing.T) {
	svc := newService(&mockBookingReader{}, &mockTurfRepository{turf: turf()})

	a, err := svc.GetAvailability(context.Background(), turfID, "2030-03-04")
	require.NoError(t, err)

	require.Len(t, a.Slots, 17)
	assert.Equal(t, "06:00", a.Slots[0].StartTime)
	assert.Equal(t, "23:00", a.Slots[16].EndTime)
	for i := 1; i < len(a.Slots); i++ {
		assert.Equal(t, a.Slots[i-1].EndTime, a.Slots[i].StartTime)
	}
	assert.Equal(t, model.DayTypeSunThu, a.DayType)
	assert.Equal(t, 2000.0, a.Slots[0].PricePerSlot)
	assert.Equal(t, 3500.0, a.Slots[12].PricePerSlot)
	assert.Equal(t, "all_days-17:00-23:00", a.Slots[12].DayTypeLabel)
}

func TestGetAvailability_TrailingPartialHourDropped(t *testing.T) {
	tf := turf()
	tf.OperatingHours = model.OperatingHours{Start: "06:30", End: "09:00"}
	svc := newService(&mockBookingReader{}, &mockTurfRepository{turf: tf})

	a, err := svc.GetAvailability(context.Background(), turfID, "2030-03-04")
	require.NoError(t, err)
	require.Len(t, a.Slots, 2)
	assert.Equal(t, "07:30", a.Slots[1].StartTime)
	assert.Equal(t, "08:30", a.Slots[1].EndTime)
}

func TestGetAvailability_Occupancy(t *testing.T) {
	reader := &mockBookingReader{bookings: []*model.Booking{
		{StartTime: "18:00", Status: model.BookingConfirmed, CreatedAt: now.Add(-72 * time.Hour)},
		{StartTime: "19:00", Status: model.BookingPending, CreatedAt: now.Add(-5 * time.Minute)},
		{StartTime: "20:00", Status: model.BookingPending, CreatedAt: now.Add(-20 * time.Minute)},
	}}
	svc := newService(reader, &mockTurfRepository{turf: turf()})

	a, err := svc.GetAvailability(context.Background(), turfID, "2030-03-04")
	require.NoError(t, err)

	byStart := map[string]bool{}
	for _, s := range a.Slots {
		byStart[s.StartTime] = s.IsAvailable
	}
	assert.False(t, byStart["18:00"])
	assert.False(t, byStart["19:00"])
	assert.True(t, byStart["20:00"])
	assert.True(t, byStart["06:00"])
}

func TestGetAvailability_Errors(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		turfs  *mockTurfRepository
		reader *mockBookingReader
		code   string
	}{
		{"missing date", "", &mockTurfRepository{turf: turf()}, &mockBookingReader{}, apperrors.CodeInvalidInput},
		{"malformed date", "04-03-2030", &mockTurfRepository{turf: turf()}, &mockBookingReader{}, apperrors.CodeInvalidInput},
		{"unknown turf", "2030-03-04", &mockTurfRepository{err: turfrepo.ErrNotFound}, &mockBookingReader{}, apperrors.CodeNotFound},
		{"bad turf id", "2030-03-04", &mockTurfRepository{err: turfrepo.ErrInvalidID}, &mockBookingReader{}, apperrors.CodeInvalidInput},
		{"store failure", "2030-03-04", &mockTurfRepository{turf: turf()}, &mockBookingReader{err: errors.New("down")}, apperrors.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(tt.reader, tt.turfs).GetAvailability(context.Background(), turfID, tt.date)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}
