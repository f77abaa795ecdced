package envcheck

import (
	"fmt"
	"strings"

	"github.com/eugenenazirov/voicectl/internal/envfile"
)

const (
	placeholderPrefix = "your_"
	secureScheme      = "wss://"
	insecureScheme    = "ws://"
)

// Malformed pairs a rule with the offending value.
type Malformed struct {
	Rule  Rule
	Value string
}

// Report aggregates every problem found in one validation run.
type Report struct {
	Role         Role
	Missing      []Rule
	Placeholders []Rule
	Malformed    []Malformed
}

// Failed reports whether the run found missing or malformed keys.
// Placeholders alone never fail a run.
func (r Report) Failed() bool {
	return len(r.Missing) > 0 || len(r.Malformed) > 0
}

// Err wraps ErrConfiguration with the failing key names, or returns nil.
func (r Report) Err() error {
	if !r.Failed() {
		return nil
	}

	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing "+joinKeys(r.Missing))
	}
	if len(r.Malformed) > 0 {
		keys := make([]Rule, 0, len(r.Malformed))
		for _, m := range r.Malformed {
			keys = append(keys, m.Rule)
		}
		parts = append(parts, "malformed "+joinKeys(keys))
	}
	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(parts, "; "))
}

// Guidance returns KEY=example lines for every failing key.
func (r Report) Guidance() []string {
	var lines []string
	for _, rule := range r.Missing {
		lines = append(lines, fmt.Sprintf("%s=%s", rule.Key, rule.Example))
	}
	for _, m := range r.Malformed {
		lines = append(lines, fmt.Sprintf("%s=%s", m.Rule.Key, m.Rule.Example))
	}
	return lines
}

// Validate checks src against every rule in set without stopping at the first
// problem.
func Validate(src *envfile.Source, set KeySet) Report {
	report := Report{Role: set.Role()}

	for _, rule := range set.Rules() {
		value, ok := src.Lookup(rule.Key)
		if !ok || value == "" {
			if rule.Required {
				report.Missing = append(report.Missing, rule)
			}
			continue
		}

		if IsPlaceholder(value) {
			report.Placeholders = append(report.Placeholders, rule)
		}

		if rule.URL {
			if _, valid := CheckURLScheme(value); !valid {
				report.Malformed = append(report.Malformed, Malformed{Rule: rule, Value: value})
			}
		}
	}

	return report
}

// IsPlaceholder reports whether value still holds template text.
func IsPlaceholder(value string) bool {
	return strings.HasPrefix(value, placeholderPrefix) || strings.TrimSpace(value) == ""
}

// CheckURLScheme accepts wss:// and ws:// URLs; secure is false for ws://.
func CheckURLScheme(value string) (secure, valid bool) {
	switch {
	case strings.HasPrefix(value, secureScheme):
		return true, true
	case strings.HasPrefix(value, insecureScheme):
		return false, true
	default:
		return false, false
	}
}

func joinKeys(rules []Rule) string {
	keys := make([]string, len(rules))
	for i, r := range rules {
		keys[i] = r.Key
	}
	return strings.Join(keys, ", ")
}
