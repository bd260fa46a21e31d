package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a conditional update lost to a concurrent writer.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrSlotLocked = errors.New("slot lock is held")

	ErrLockNotFound = errors.New("slot lock not found")
)
