package service

import (
	"errors"

	"club-room-booking/internal/schedule"
)

var (
	// ErrInvalidWindow is returned (wrapped) when a date or slot window fails validation
	ErrInvalidWindow = schedule.ErrInvalidWindow
	// ErrSlotConflict is returned when another active request holds part of the window
	ErrSlotConflict = errors.New("slot conflict")
	// ErrNotFound is returned when the booking request does not exist
	ErrNotFound = errors.New("request not found")
	// ErrRoomNotFound is returned when the room is unknown or inactive
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidTransition is returned when the request's status does not allow the action
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailDomain        = errors.New("email domain not allowed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRefresh     = errors.New("invalid or revoked refresh token")
	ErrRefreshExpired     = errors.New("refresh token expired")
)

// Error is a business-rule failure carrying a message for the caller. It
// matches its Kind with errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}
