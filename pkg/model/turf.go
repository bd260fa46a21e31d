package model

import "slices"

const (
	DayTypeSunThu  = "sun_thu"
	DayTypeFriSat  = "fri_sat"
	DayTypeAllDays = "all_days"
)

// Turf is owned by the turf catalogue; bookings only read it.
type Turf struct {
	ID                  string         `json:"id,omitempty" bson:"_id,omitempty"`
	Name                string         `json:"name" bson:"name"`
	Location            Location       `json:"location" bson:"location"`
	OperatingHours      OperatingHours `json:"operating_hours" bson:"operating_hours"`
	DefaultPricePerSlot float64        `json:"default_price_per_slot" bson:"default_price_per_slot"`
	PricingRules        []PricingRule  `json:"pricing_rules,omitempty" bson:"pricing_rules,omitempty"`
	Admins              []string       `json:"admins,omitempty" bson:"admins,omitempty"`
	IsActive            bool           `json:"is_active" bson:"is_active"`
}

type Location struct {
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
}

type OperatingHours struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

type PricingRule struct {
	DayType   string         `json:"day_type" bson:"day_type"`
	TimeSlots []TimeSlotRate `json:"time_slots" bson:"time_slots"`
}

type TimeSlotRate struct {
	StartTime    string  `json:"start_time" bson:"start_time"`
	EndTime      string  `json:"end_time" bson:"end_time"`
	PricePerSlot float64 `json:"price_per_slot" bson:"price_per_slot"`
}

// IsAdmin reports whether userID administers this turf.
func (t *Turf) IsAdmin(userID string) bool {
	return userID != "" && slices.Contains(t.Admins, userID)
}

// RuleFor returns the first pricing rule for the given day type.
func (t *Turf) RuleFor(dayType string) (*PricingRule, bool) {
	for i := range t.PricingRules {
		if t.PricingRules[i].DayType == dayType {
			return &t.PricingRules[i], true
		}
	}
	return nil, false
}
