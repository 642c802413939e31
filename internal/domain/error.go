package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrBackendCall      = errors.New("backend call failed")
	ErrStoreCorrupt     = errors.New("session store corrupt")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
