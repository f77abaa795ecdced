package envcheck

import "errors"

var (
	// ErrConfiguration is returned when required keys are missing or malformed.
	ErrConfiguration = errors.New("invalid configuration")
)
