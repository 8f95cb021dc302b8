package apperrors

import "errors"

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrNotFound                = errors.New("not found")
	ErrUnknownMedication       = errors.New("unknown medication")
	ErrInvalidSlot             = errors.New("slot is not in the medication schedule")
	ErrNotConditional          = errors.New("medication is not conditional")
	ErrPersistence             = errors.New("persistence failure")
	ErrNotificationUnavailable = errors.New("notifications unavailable")
	ErrNotImplemented          = errors.New("not implemented")
)
