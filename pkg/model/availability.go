package model

type Availability struct {
	TurfID  string `json:"turf_id"`
	Date    string `json:"date"`
	DayType string `json:"day_type"`
	Slots   []Slot `json:"slots"`
}

// Slot is one bookable hour. DayTypeLabel names the pricing rule that set the price.
type Slot struct {
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	IsAvailable  bool    `json:"is_available"`
	PricePerSlot float64 `json:"price_per_slot"`
	DayTypeLabel string  `json:"day_type_label"`
}
