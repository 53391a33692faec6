package model

import "errors"

var (
	// ErrInvalidInput marks input malformed beyond what sentinel features
	// can absorb (practically: an empty request).
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable means the classifier artifact failed to load at
	// startup. Fatal for the process; every evaluation reports it without
	// retrying the load.
	ErrModelUnavailable = errors.New("classifier model unavailable")

	// ErrNoSignalAvailable means both the classifier baseline and the
	// reasoning backend failed for one request. Fatal for that request only.
	ErrNoSignalAvailable = errors.New("no signal available")
)
