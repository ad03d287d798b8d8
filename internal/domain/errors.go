package domain

import "errors"

var (
	// ErrNotFound is returned when a tracking ID matches no known parcel.
	ErrNotFound = errors.New("parcel not found")

	// ErrInvalidTrackingID is returned when a tracking ID is not uppercase
	// alphanumeric.
	ErrInvalidTrackingID = errors.New("invalid tracking id")
)
