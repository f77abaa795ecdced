package envcheck

import "fmt"

// Configuration keys consumed by the voice agent and its frontend.
const (
	KeyLiveKitURL           = "LIVEKIT_URL"
	KeyLiveKitAPIKey        = "LIVEKIT_API_KEY"
	KeyLiveKitAPISecret     = "LIVEKIT_API_SECRET"
	KeyOpenRouterAPIKey     = "OPENROUTER_API_KEY"
	KeyDeepgramAPIKey       = "DEEPGRAM_API_KEY"
	KeyCartesiaAPIKey       = "CARTESIA_API_KEY"
	KeyCartesiaVoiceID      = "CARTESIA_VOICE_ID"
	KeyNextPublicLiveKitURL = "NEXT_PUBLIC_LIVEKIT_URL"
)

// Role selects which key set applies.
type Role string

const (
	RoleBackend  Role = "backend"
	RoleFrontend Role = "frontend"
)

// Rule describes one configuration key.
type Rule struct {
	Key         string
	Required    bool
	Description string
	Example     string
	// URL marks the key whose value must use a ws:// or wss:// scheme.
	URL bool
}

// KeySet is an ordered, immutable list of rules for a role.
type KeySet struct {
	role  Role
	rules []Rule
}

// NewKeySet copies rules into a KeySet.
func NewKeySet(role Role, rules ...Rule) KeySet {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return KeySet{role: role, rules: cp}
}

// Role returns the role the set was built for.
func (k KeySet) Role() Role { return k.role }

// Rules returns a copy of the rules in order.
func (k KeySet) Rules() []Rule {
	cp := make([]Rule, len(k.rules))
	copy(cp, k.rules)
	return cp
}

// RequiredKeys lists the names of the required rules in order.
func (k KeySet) RequiredKeys() []string {
	keys := make([]string, 0, len(k.rules))
	for _, r := range k.rules {
		if r.Required {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

var (
	liveKitURLRule = Rule{
		Key:         KeyLiveKitURL,
		Required:    true,
		Description: "LiveKit server URL",
		Example:     "wss://your-project.livekit.cloud",
		URL:         true,
	}
	liveKitAPIKeyRule = Rule{
		Key:         KeyLiveKitAPIKey,
		Required:    true,
		Description: "LiveKit API key",
		Example:     "APIxxxxxxxxxxxx",
	}
	liveKitAPISecretRule = Rule{
		Key:         KeyLiveKitAPISecret,
		Required:    true,
		Description: "LiveKit API secret",
		Example:     "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
	}
)

// BackendKeys is the key set the voice agent process needs.
func BackendKeys() KeySet {
	return NewKeySet(RoleBackend,
		liveKitURLRule,
		liveKitAPIKeyRule,
		liveKitAPISecretRule,
		Rule{
			Key:         KeyOpenRouterAPIKey,
			Required:    true,
			Description: "OpenRouter API key for the LLM gateway",
			Example:     "sk-or-v1-xxxxxxxxxxxxxxxx",
		},
		Rule{
			Key:         KeyDeepgramAPIKey,
			Required:    true,
			Description: "Deepgram API key for speech-to-text",
			Example:     "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		},
		Rule{
			Key:         KeyCartesiaAPIKey,
			Required:    true,
			Description: "Cartesia API key for text-to-speech",
			Example:     "sk_car_xxxxxxxxxxxxxxxx",
		},
		Rule{
			Key:         KeyCartesiaVoiceID,
			Description: "Cartesia voice identifier",
			Example:     "bf0a246a-8642-498a-9950-80c35e9276b5",
		},
	)
}

// FrontendKeys is the key set the web frontend's token endpoint needs.
func FrontendKeys() KeySet {
	return NewKeySet(RoleFrontend,
		liveKitURLRule,
		liveKitAPIKeyRule,
		liveKitAPISecretRule,
		Rule{
			Key:         KeyNextPublicLiveKitURL,
			Description: "LiveKit URL exposed to the browser",
			Example:     "wss://your-project.livekit.cloud",
		},
	)
}

// KeysForRole returns the key set for role.
func KeysForRole(role Role) (KeySet, error) {
	switch role {
	case RoleBackend:
		return BackendKeys(), nil
	case RoleFrontend:
		return FrontendKeys(), nil
	default:
		return KeySet{}, fmt.Errorf("unknown role %q", role)
	}
}
