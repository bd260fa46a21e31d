// Package pricing prices turf slots from a turf's day-type rules.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"turfbook/pkg/model"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	DefaultRule = "default"
)

var (
	ErrInvalidClock    = errors.New("time must be in HH:mm format")
	ErrInvalidDuration = errors.New("end time must be after start time")
)

// Quote is the price of one booking.
type Quote struct {
	PricePerSlot  float64
	TotalPrice    float64
	AppliedRule   string
	DayType       string
	DurationHours float64
}

func (q Quote) Breakdown() model.PricingBreakdown {
	return model.PricingBreakdown{
		PricePerSlot: q.PricePerSlot,
		Duration:     q.DurationHours,
		TotalPrice:   q.TotalPrice,
		AppliedRule:  q.AppliedRule,
		DayType:      q.DayType,
	}
}

// DayTypeOf buckets a civil date. Friday and Saturday are the weekend.
func DayTypeOf(date time.Time) string {
	switch date.Weekday() {
	case time.Friday, time.Saturday:
		return model.DayTypeFriSat
	default:
		return model.DayTypeSunThu
	}
}

// ParseClock returns minutes since midnight for an "HH:mm" string.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil || len(s) != len(ClockLayout) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DurationHours is end minus start in hours, rounded to two decimals.
func DurationHours(startTime, endTime string) (float64, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return 0, err
	}
	if end <= start {
		return 0, ErrInvalidDuration
	}
	return round2(float64(end-start) / 60), nil
}

// Calculate prices the booking [startTime, endTime) on date. A day-type rule
// wins over an all_days rule; the first time slot containing startTime sets the
// price, otherwise the turf default applies.
func Calculate(turf *model.Turf, date time.Time, startTime, endTime string) (Quote, error) {
	duration, err := DurationHours(startTime, endTime)
	if err != nil {
		return Quote{}, err
	}
	dayType := DayTypeOf(date)

	price, label, err := RateFor(turf, dayType, startTime)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		PricePerSlot:  price,
		TotalPrice:    round2(price * duration),
		AppliedRule:   label,
		DayType:       dayType,
		DurationHours: duration,
	}, nil
}

// RateFor returns the per-slot price and rule label for a slot starting at startTime.
func RateFor(turf *model.Turf, dayType, startTime string) (float64, string, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, "", err
	}

	rule, ok := turf.RuleFor(dayType)
	if !ok {
		rule, ok = turf.RuleFor(model.DayTypeAllDays)
	}
	if !ok {
		return turf.DefaultPricePerSlot, DefaultRule, nil
	}

	for _, slot := range rule.TimeSlots {
		from, err := ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		to, err := ParseClock(slot.EndTime)
		if err != nil {
			continue
		}
		if start >= from && start < to {
			return slot.PricePerSlot, fmt.Sprintf("%s-%s-%s", rule.DayType, slot.StartTime, slot.EndTime), nil
		}
	}
	return turf.DefaultPricePerSlot, DefaultRule, nil
}

// ParseDate parses a civil "YYYY-MM-DD" date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
