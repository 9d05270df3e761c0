package models

import "errors"

// Error constants for registration operations
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventFull            = errors.New("event is at capacity")
	ErrInvalidEventID       = errors.New("invalid event ID")
	ErrDuplicateGuest       = errors.New("guest already registered for this event")
	ErrInvalidGuestName     = errors.New("invalid guest name")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
