package validator

import (
	"testing"
	"time"

	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		TurfID:    "65f1a2b3c4d5e6f708091a2b",
		Date:      "2030-03-04",
		StartTime: "18:00",
		EndTime:   "19:00",
	}
}

func TestValidateCreate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(r *model.CreateBookingRequest)
		wantField string
	}{
		{"valid", func(r *model.CreateBookingRequest) {}, ""},
		{"missing turf", func(r *model.CreateBookingRequest) { r.TurfID = "" }, "TurfID"},
		{"bad turf id", func(r *model.CreateBookingRequest) { r.TurfID = "turf-1" }, "TurfID"},
		{"bad date", func(r *model.CreateBookingRequest) { r.Date = "04/03/2030" }, "Date"},
		{"bad clock", func(r *model.CreateBookingRequest) { r.StartTime = "6pm" }, "StartTime"},
		{"single digit hour", func(r *model.CreateBookingRequest) { r.EndTime = "9:00" }, "EndTime"},
		{"end before start", func(r *model.CreateBookingRequest) { r.EndTime = "17:00" }, "EndTime"},
		{"zero length", func(r *model.CreateBookingRequest) { r.EndTime = "18:00" }, "EndTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateCreate(req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.wantField, verrs[0].Field)
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	v := NewBookingValidator(logger.Discard())
	turf := &model.Turf{OperatingHours: model.OperatingHours{Start: "06:00", End: "23:00"}}
	now := time.Date(2030, 3, 4, 17, 30, 0, 0, time.UTC)

	assert.NoError(t, v.ValidateSchedule(validRequest(), turf, now))

	past := validRequest()
	past.Date = "2030-03-03"
	assert.ErrorContains(t, v.ValidateSchedule(past, turf, now), "past")

	started := validRequest()
	started.StartTime = "17:00"
	started.EndTime = "18:00"
	assert.ErrorContains(t, v.ValidateSchedule(started, turf, now), "already passed")

	early := validRequest()
	early.Date = "2030-03-05"
	early.StartTime = "05:00"
	early.EndTime = "06:00"
	assert.ErrorContains(t, v.ValidateSchedule(early, turf, now), "operating hours")

	late := validRequest()
	late.StartTime = "22:00"
	late.EndTime = "23:30"
	assert.ErrorContains(t, v.ValidateSchedule(late, turf, now), "operating hours")
}

func TestValidateStatus(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	assert.NoError(t, v.ValidateStatus(&model.BookingStatusUpdate{Status: model.BookingCancelled}))

	var verrs ValidationErrors
	require.ErrorAs(t, v.ValidateStatus(&model.BookingStatusUpdate{Status: "refunded"}), &verrs)
	assert.Equal(t, "Status", verrs[0].Field)
	assert.Contains(t, verrs.Details()["fields"], "Status")
}
