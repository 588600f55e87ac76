package gerr

import "errors"

var (
	// ErrMissingTable is returned when a source does not provide one of the five raw tables.
	ErrMissingTable = errors.New("missing source table")
	ErrNoSnapshot   = errors.New("no snapshot loaded")

	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidDelta  = errors.New("invalid driver delta")
	ErrUnknownZone   = errors.New("unknown delivery zone")
)
