package creds

import (
	"github.com/eugenenazirov/voicectl/internal/envcheck"
	"github.com/eugenenazirov/voicectl/internal/envfile"
)

// PrefixLength is how many characters of a mismatched value are shown.
const PrefixLength = 5

// Outcome classifies one compared key.
type Outcome int

const (
	OutcomeMatch Outcome = iota
	OutcomeMismatch
	OutcomeBackendMissing
	OutcomeFrontendMissing
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "MATCH"
	case OutcomeMismatch:
		return "MISMATCH"
	case OutcomeBackendMissing:
		return "BACKEND_MISSING"
	case OutcomeFrontendMissing:
		return "FRONTEND_MISSING"
	default:
		return "UNKNOWN"
	}
}

// Comparison holds the result for one key. Only truncated prefixes of the
// values are retained, and only on mismatch.
type Comparison struct {
	Key             string
	Outcome         Outcome
	BackendPresent  bool
	FrontendPresent bool
	BackendPrefix   string
	FrontendPrefix  string
}

// DefaultCompareKeys are the credentials both sides must share.
func DefaultCompareKeys() []string {
	return []string{
		envcheck.KeyLiveKitURL,
		envcheck.KeyLiveKitAPIKey,
		envcheck.KeyLiveKitAPISecret,
		envcheck.KeyOpenRouterAPIKey,
	}
}

// Compare reports per-key agreement between backend and frontend. A missing
// side always wins over match/mismatch; backend-missing is reported first
// when both are absent.
func Compare(backend, frontend *envfile.Source, keys []string) []Comparison {
	out := make([]Comparison, 0, len(keys))

	for _, key := range keys {
		b := backend.Get(key)
		f := frontend.Get(key)

		c := Comparison{
			Key:             key,
			BackendPresent:  b != "",
			FrontendPresent: f != "",
		}

		switch {
		case !c.BackendPresent:
			c.Outcome = OutcomeBackendMissing
		case !c.FrontendPresent:
			c.Outcome = OutcomeFrontendMissing
		case b == f:
			c.Outcome = OutcomeMatch
		default:
			c.Outcome = OutcomeMismatch
			c.BackendPrefix = Truncate(b, PrefixLength)
			c.FrontendPrefix = Truncate(f, PrefixLength)
		}

		out = append(out, c)
	}

	return out
}

// Truncate returns at most n runes of value.
func Truncate(value string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[:n])
}
