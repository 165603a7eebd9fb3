package models

import "errors"

// Sentinel errors for model construction and validation. Wrapped errors
// carry the specifics; match with errors.Is.
var (
	// ErrInvalidIdentifier indicates an id or name that does not match
	// its required pattern. Identifiers are never coerced into shape.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrValidationFailed indicates one or more model invariants were
	// violated. The message lists every violation, not just the first.
	ErrValidationFailed = errors.New("validation failed")
)
