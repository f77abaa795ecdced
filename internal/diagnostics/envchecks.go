package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/eugenenazirov/voicectl/internal/envcheck"
	"github.com/eugenenazirov/voicectl/internal/envfile"
)

// EnvFileCheck verifies that the dotenv file at path exists and holds every
// required key of set. Placeholder values produce a warning only.
func EnvFileCheck(label, path string, set envcheck.KeySet, createHint string) Check {
	return Check{
		Name: label + " has all required keys",
		Run: func(context.Context) Result {
			src, err := envfile.Load(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return Fail(label+" exists", createHint, fmt.Errorf("%w: %w", envcheck.ErrConfiguration, err))
				}
				return Fail(label+" readable", err.Error(), fmt.Errorf("%w: %w", envcheck.ErrConfiguration, err))
			}

			report := envcheck.Validate(src, set)
			name := label + " has all required keys"
			if len(report.Missing) > 0 {
				return Fail(name, "Missing: "+ruleKeys(report.Missing), report.Err())
			}

			res := Pass(name)
			if len(report.Placeholders) > 0 {
				res.Warnings = append(res.Warnings, "Keys with placeholder values: "+ruleKeys(report.Placeholders))
			}
			return res
		},
	}
}

// LiveKitURLCheck validates the scheme of LIVEKIT_URL in the dotenv file at
// path. ws:// passes with a warning.
func LiveKitURLCheck(path string) Check {
	const name = "LiveKit URL format"
	return Check{
		Name: name,
		Run: func(context.Context) Result {
			src, err := envfile.LoadOptional(path)
			if err != nil {
				return Fail(name, err.Error(), fmt.Errorf("%w: %w", envcheck.ErrConfiguration, err))
			}

			value := strings.TrimSpace(src.Get(envcheck.KeyLiveKitURL))
			if value == "" {
				return Fail(name, envcheck.KeyLiveKitURL+" is not set", fmt.Errorf("%w: missing %s", envcheck.ErrConfiguration, envcheck.KeyLiveKitURL))
			}

			secure, valid := envcheck.CheckURLScheme(value)
			switch {
			case !valid:
				return Fail(name, "Must start with wss:// or ws://", fmt.Errorf("%w: malformed %s", envcheck.ErrConfiguration, envcheck.KeyLiveKitURL))
			case secure:
				return Pass(name + " (wss://)")
			default:
				res := Pass(name)
				res.Warnings = []string{"Using ws:// (insecure). Use wss:// for production."}
				return res
			}
		},
	}
}

func ruleKeys(rules []envcheck.Rule) string {
	keys := make([]string, len(rules))
	for i, r := range rules {
		keys[i] = r.Key
	}
	return strings.Join(keys, ", ")
}
