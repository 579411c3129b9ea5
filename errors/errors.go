package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrEmptyWords   = fmt.Errorf("no words have been found")
	ErrRelayStopped = fmt.Errorf("relay stopped")

	// Relay
	ErrDuplicateConnection = fmt.Errorf("connection already registered")
	ErrUnknownConnection   = fmt.Errorf("unknown connection")
	ErrNotInRoom           = fmt.Errorf("connection has not joined a room")
	ErrDeliveryFailure     = fmt.Errorf("delivery failure")
	ErrSinkClosed          = fmt.Errorf("sink closed")
	ErrInvalidEnvelope     = fmt.Errorf("invalid envelope")

	// Queries and storage
	ErrInvalidQuery     = fmt.Errorf("invalid query")
	ErrStoreUnavailable = fmt.Errorf("store unavailable")
	ErrItemNotFound     = fmt.Errorf("item not found")
	ErrInvalidItem      = fmt.Errorf("invalid item")
	ErrInvalidLocation  = fmt.Errorf("invalid location format")

	// Accounts
	ErrUserAlreadyExists   = fmt.Errorf("email or username already exists")
	ErrUserNotFound        = fmt.Errorf("user not found")
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials")
	ErrInvalidHash         = fmt.Errorf("invalid password hash")
	ErrInvalidRegistration = fmt.Errorf("invalid registration")
	ErrTokenGeneration     = fmt.Errorf("token generation failed")
	ErrInvalidToken        = fmt.Errorf("invalid token")

	// Uploads
	ErrUnsupportedMedia = fmt.Errorf("unsupported media type")
	ErrFileTooLarge     = fmt.Errorf("file too large")
	ErrTooManyFiles     = fmt.Errorf("too many files")
	ErrNoFile           = fmt.Errorf("no file uploaded")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
