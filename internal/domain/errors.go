package domain

import "errors"

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvoiceClosed        = errors.New("invoice closed")
	ErrConflict             = errors.New("conflict")
	ErrWorkNotCompleted     = errors.New("work not completed")
	ErrAlreadyReleased      = errors.New("hold already released")
	ErrIllegalTransition    = errors.New("illegal payment transition")
	ErrBadSignature         = errors.New("webhook signature verification failed")
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
	ErrIdempotencyConflict  = errors.New("idempotency conflict")
	ErrUnsupportedEventType = errors.New("unsupported event type")
)
