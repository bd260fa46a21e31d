package model

import (
	"fmt"
	"time"
)

// BookingLock represents an advisory lock for preventing concurrent booking creation
// on the same (turf, date, start time) slot.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func SlotLockID(turfID, date, startTime string) string {
	return fmt.Sprintf("slot_lock_%s_%s_%s", turfID, date, startTime)
}

func (l *BookingLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
