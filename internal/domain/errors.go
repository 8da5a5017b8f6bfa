package domain

import "errors"

var (
	// Payment errors
	ErrMissingAccountID   = errors.New("account id is required")
	ErrSameAccount        = errors.New("cannot transfer to same account")
	ErrInvalidAmount      = errors.New("amount must be non-negative")
	ErrInvalidPaymentType = errors.New("unknown payment type")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentFinalized   = errors.New("payment already reached a terminal state")

	// Settlement errors. These surface before the PENDING row is written,
	// so the caller can tell "never attempted" from "attempted and failed".
	ErrAccountUnavailable = errors.New("account service unavailable")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrInsufficientFunds  = errors.New("insufficient funds")

	// Projection errors
	ErrDuplicateEvent = errors.New("event already applied")
	ErrUnknownStatus  = errors.New("unrecognised payment status")

	// Read-side errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidDateRange     = errors.New("'from' date must be before or equal to 'to' date")
)
