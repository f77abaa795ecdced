package token

import "errors"

var (
	// ErrMissingCredentials is returned when the API key or secret is empty.
	ErrMissingCredentials = errors.New("LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")
)
