package creds

import "errors"

var (
	// ErrSourceUnreadable is returned when the sync source is missing, unparsable or empty.
	ErrSourceUnreadable = errors.New("could not read credential source")
)
