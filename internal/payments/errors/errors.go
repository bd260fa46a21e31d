package errors

import "errors"

var (
	ErrNotFound = errors.New("payment not found")

	ErrDuplicateTransaction = errors.New("transaction id already recorded")

	// ErrAlreadySettled means the payment was already marked successful, or
	// no unsettled payment carries the transaction id.
	ErrAlreadySettled = errors.New("payment already settled")
)
