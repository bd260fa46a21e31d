package pricing

import (
	"testing"
	"time"

	"turfbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func allDaysTurf() *model.Turf {
	return &model.Turf{
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

func TestDayTypeOf(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2030-03-01", model.DayTypeFriSat}, // Friday
		{"2030-03-02", model.DayTypeFriSat}, // Saturday
		{"2030-03-03", model.DayTypeSunThu},
		{"2030-03-07", model.DayTypeSunThu},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, DayTypeOf(date(t, tt.date)))
		})
	}
}

func TestCalculate_AllDaysRule(t *testing.T) {
	q, err := Calculate(allDaysTurf(), date(t, "2030-03-04"), "18:00", "19:00")
	require.NoError(t, err)

	assert.Equal(t, 3500.0, q.PricePerSlot)
	assert.Equal(t, 3500.0, q.TotalPrice)
	assert.Equal(t, "all_days-17:00-23:00", q.AppliedRule)
	assert.Equal(t, 1.0, q.DurationHours)
}

func TestCalculate_DayTypeRuleWins(t *testing.T) {
	turf := allDaysTurf()
	turf.PricingRules = append(turf.PricingRules, model.PricingRule{
		DayType:   model.DayTypeFriSat,
		TimeSlots: []model.TimeSlotRate{{StartTime: "06:00", EndTime: "23:00", PricePerSlot: 4000}},
	})

	q, err := Calculate(turf, date(t, "2030-03-01"), "18:00", "20:00")
	require.NoError(t, err)
	assert.Equal(t, 4000.0, q.PricePerSlot)
	assert.Equal(t, 8000.0, q.TotalPrice)
	assert.Equal(t, "fri_sat-06:00-23:00", q.AppliedRule)
	assert.Equal(t, model.DayTypeFriSat, q.DayType)

	q, err = Calculate(turf, date(t, "2030-03-03"), "18:00", "19:00")
	require.NoError(t, err)
	assert.Equal(t, "all_days-17:00-23:00", q.AppliedRule)
}

func TestCalculate_DefaultFallback(t *testing.T) {
	t.Run("no rules", func(t *testing.T) {
		q, err := Calculate(&model.Turf{DefaultPricePerSlot: 1200}, date(t, "2030-03-04"), "10:00", "11:30")
		require.NoError(t, err)
		assert.Equal(t, 1200.0, q.PricePerSlot)
		assert.Equal(t, 1800.0, q.TotalPrice)
		assert.Equal(t, DefaultRule, q.AppliedRule)
		assert.Equal(t, 1.5, q.DurationHours)
	})

	t.Run("no matching slot", func(t *testing.T) {
		q, err := Calculate(allDaysTurf(), date(t, "2030-03-04"), "23:00", "23:30")
		require.NoError(t, err)
		assert.Equal(t, 1500.0, q.PricePerSlot)
		assert.Equal(t, DefaultRule, q.AppliedRule)
	})

	t.Run("slot end is exclusive", func(t *testing.T) {
		q, err := Calculate(allDaysTurf(), date(t, "2030-03-04"), "17:00", "18:00")
		require.NoError(t, err)
		assert.Equal(t, 3500.0, q.PricePerSlot)
	})
}

func TestCalculate_Deterministic(t *testing.T) {
	turf := allDaysTurf()
	d := date(t, "2030-03-05")
	first, err := Calculate(turf, d, "07:00", "08:00")
	require.NoError(t, err)
	for range 5 {
		again, err := Calculate(turf, d, "07:00", "08:00")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculate_InvalidInput(t *testing.T) {
	_, err := Calculate(allDaysTurf(), date(t, "2030-03-04"), "19:00", "18:00")
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Calculate(allDaysTurf(), date(t, "2030-03-04"), "18:00", "18:00")
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Calculate(allDaysTurf(), date(t, "2030-03-04"), "6pm", "19:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestClockHelpers(t *testing.T) {
	m, err := ParseClock("06:30")
	require.NoError(t, err)
	assert.Equal(t, 390, m)
	assert.Equal(t, "06:30", FormatClock(m))

	for _, bad := range []string{"6:30", "24:00", "12:60", "", "12:00:00"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}

	d, err := DurationHours("10:00", "10:20")
	require.NoError(t, err)
	assert.Equal(t, 0.33, d)
}
