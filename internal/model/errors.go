package model

import "errors"

var (
	// ErrNotFound is returned when the target record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidIdentifier is returned when a filename or token fails
	// safety validation.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrValidation covers malformed operation parameters.
	ErrValidation = errors.New("validation error")
	// ErrMalformedMetadata never crosses the service boundary; a malformed
	// block is treated as absent and the record is migrated.
	ErrMalformedMetadata = errors.New("malformed metadata")
	// ErrStorageUnavailable is returned when a user directory cannot be
	// read at all. Read paths degrade to empty results at the boundary.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
