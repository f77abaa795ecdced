package envcheck

import (
	"errors"
	"strings"
	"testing"

	"github.com/eugenenazirov/voicectl/internal/envfile"
)

func completeBackend() map[string]string {
	return map[string]string{
		KeyLiveKitURL:       "wss://demo.livekit.cloud",
		KeyLiveKitAPIKey:    "APIabc",
		KeyLiveKitAPISecret: "secret",
		KeyOpenRouterAPIKey: "sk-or-v1-abc",
		KeyDeepgramAPIKey:   "dg",
		KeyCartesiaAPIKey:   "car",
	}
}

func TestValidateCompleteConfiguration(t *testing.T) {
	report := Validate(envfile.FromMap(completeBackend()), BackendKeys())

	if report.Failed() {
		t.Fatalf("expected pass, got %+v", report)
	}
	if err := report.Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(report.Placeholders) != 0 {
		t.Fatalf("expected no placeholders, got %v", report.Placeholders)
	}
}

func TestValidateReportsEveryMissingKey(t *testing.T) {
	values := completeBackend()
	delete(values, KeyDeepgramAPIKey)
	values[KeyCartesiaAPIKey] = ""
	delete(values, KeyLiveKitAPISecret)

	report := Validate(envfile.FromMap(values), BackendKeys())

	if !report.Failed() {
		t.Fatalf("expected failure")
	}
	got := keysOf(report.Missing)
	want := []string{KeyLiveKitAPISecret, KeyDeepgramAPIKey, KeyCartesiaAPIKey}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected missing %v, got %v", want, got)
	}
	if !errors.Is(report.Err(), ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", report.Err())
	}
	if len(report.Guidance()) != 3 {
		t.Fatalf("expected one guidance line per missing key, got %v", report.Guidance())
	}
}

func TestValidateOptionalKeyMayBeAbsent(t *testing.T) {
	report := Validate(envfile.FromMap(completeBackend()), BackendKeys())
	for _, r := range report.Missing {
		if r.Key == KeyCartesiaVoiceID {
			t.Fatalf("optional key reported as missing")
		}
	}
}

func TestPlaceholderIsWarningOnly(t *testing.T) {
	values := completeBackend()
	values[KeyOpenRouterAPIKey] = "your_openrouter_key"
	values[KeyDeepgramAPIKey] = "   "

	report := Validate(envfile.FromMap(values), BackendKeys())

	if report.Failed() {
		t.Fatalf("placeholders must not fail the run: %+v", report)
	}
	got := keysOf(report.Placeholders)
	if strings.Join(got, ",") != KeyOpenRouterAPIKey+","+KeyDeepgramAPIKey {
		t.Fatalf("unexpected placeholders %v", got)
	}
}

func TestURLScheme(t *testing.T) {
	tests := []struct {
		value  string
		valid  bool
		secure bool
	}{
		{"wss://demo.livekit.cloud", true, true},
		{"ws://localhost:7880", true, false},
		{"http://x", false, false},
		{"https://demo.livekit.cloud", false, false},
		{"demo.livekit.cloud", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			secure, valid := CheckURLScheme(tt.value)
			if valid != tt.valid || secure != tt.secure {
				t.Fatalf("CheckURLScheme(%q) = (%v, %v), want (%v, %v)", tt.value, secure, valid, tt.secure, tt.valid)
			}
		})
	}
}

func TestWrongSchemeAndMissingKeyYieldTwoFailures(t *testing.T) {
	values := completeBackend()
	values[KeyLiveKitURL] = "http://x"
	delete(values, KeyCartesiaAPIKey)

	report := Validate(envfile.FromMap(values), BackendKeys())

	if len(report.Missing) != 1 || report.Missing[0].Key != KeyCartesiaAPIKey {
		t.Fatalf("expected only CARTESIA_API_KEY missing, got %v", keysOf(report.Missing))
	}
	if len(report.Malformed) != 1 || report.Malformed[0].Rule.Key != KeyLiveKitURL {
		t.Fatalf("expected LIVEKIT_URL malformed, got %+v", report.Malformed)
	}
	if report.Malformed[0].Value != "http://x" {
		t.Fatalf("expected offending value to be kept, got %q", report.Malformed[0].Value)
	}
	if len(report.Placeholders) != 0 {
		t.Fatalf("expected no other findings, got %v", report.Placeholders)
	}
}

func TestMissingURLIsNotAlsoMalformed(t *testing.T) {
	values := completeBackend()
	delete(values, KeyLiveKitURL)

	report := Validate(envfile.FromMap(values), BackendKeys())
	if len(report.Malformed) != 0 {
		t.Fatalf("missing URL reported as malformed")
	}
}

func TestKeysForRole(t *testing.T) {
	set, err := KeysForRole(RoleFrontend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := set.RequiredKeys(); len(got) != 3 {
		t.Fatalf("expected 3 required frontend keys, got %v", got)
	}
	if _, err := KeysForRole("mobile"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestKeySetIsImmutable(t *testing.T) {
	set := BackendKeys()
	rules := set.Rules()
	rules[0].Key = "CHANGED"
	if set.Rules()[0].Key != KeyLiveKitURL {
		t.Fatalf("KeySet was mutated through Rules()")
	}
}

func keysOf(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Key
	}
	return out
}
