package common

import (
	"errors"
	"fmt"
)

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Channel errors
	ErrChannelNotFound   = errors.New("channel not found")
	ErrSelfDirectMessage = errors.New("direct message requires two distinct users")

	// Message errors
	ErrMessageNotFound = errors.New("message not found")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Realtime errors
	ErrRealtimeUnavailable = errors.New("realtime subscriptions are not configured")
)

// PersistenceError reports that the store rejected a read or write of a primary operation
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps a store error with the failing operation name
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is (or wraps) a PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
