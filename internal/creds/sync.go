package creds

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/eugenenazirov/voicectl/internal/envcheck"
	"github.com/eugenenazirov/voicectl/internal/envfile"
)

// DefaultTargetKeys is the order keys are written to the backend file.
func DefaultTargetKeys() []string {
	return []string{
		envcheck.KeyLiveKitURL,
		envcheck.KeyLiveKitAPIKey,
		envcheck.KeyLiveKitAPISecret,
		envcheck.KeyOpenRouterAPIKey,
		envcheck.KeyCartesiaVoiceID,
		envcheck.KeyDeepgramAPIKey,
	}
}

// DefaultAliases maps a target key to the single fallback key tried when the
// target is absent from the source.
func DefaultAliases() map[string]string {
	return map[string]string{
		envcheck.KeyLiveKitURL: envcheck.KeyNextPublicLiveKitURL,
	}
}

// SyncOptions controls which keys are copied.
type SyncOptions struct {
	TargetKeys []string
	Aliases    map[string]string
}

// KeyStatus is the outcome for one target key.
type KeyStatus struct {
	Key   string
	Value string
	Found bool
	// Via names the alias the value came from, empty for a direct hit.
	Via string
}

// SyncResult lists every target key once, in target order.
type SyncResult struct {
	Source      string
	Destination string
	Keys        []KeyStatus
}

// Entries returns the KEY=VALUE pairs that get written.
func (r SyncResult) Entries() []envfile.Entry {
	entries := make([]envfile.Entry, 0, len(r.Keys))
	for _, k := range r.Keys {
		if k.Found {
			entries = append(entries, envfile.Entry{Key: k.Key, Value: k.Value})
		}
	}
	return entries
}

// MissingKeys lists target keys found neither directly nor via alias.
func (r SyncResult) MissingKeys() []string {
	var missing []string
	for _, k := range r.Keys {
		if !k.Found {
			missing = append(missing, k.Key)
		}
	}
	return missing
}

// Plan resolves every target key against src. Empty values count as absent.
func Plan(src *envfile.Source, opts SyncOptions) SyncResult {
	result := SyncResult{Source: src.Path()}
	seen := make(map[string]struct{}, len(opts.TargetKeys))

	for _, key := range opts.TargetKeys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		status := KeyStatus{Key: key}
		if v := src.Get(key); v != "" {
			status.Value, status.Found = v, true
		} else if alias, ok := opts.Aliases[key]; ok {
			if v := src.Get(alias); v != "" {
				status.Value, status.Found, status.Via = v, true, alias
			}
		}
		result.Keys = append(result.Keys, status)
	}

	return result
}

// Syncer copies credentials from the frontend file into the backend file.
type Syncer struct {
	opts   SyncOptions
	logger *zap.Logger
}

// NewSyncer constructs a Syncer. A nil logger disables logging.
func NewSyncer(opts SyncOptions, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{opts: opts, logger: logger}
}

// Sync reads sourcePath, resolves the target keys and overwrites destPath
// with the keys that were found. Nothing is written when the source cannot be
// read or holds no keys.
func (s *Syncer) Sync(sourcePath, destPath string) (SyncResult, error) {
	src, err := envfile.Load(sourcePath)
	if err != nil {
		return SyncResult{}, fmt.Errorf("%w %s: %v", ErrSourceUnreadable, sourcePath, err)
	}
	if src.Len() == 0 {
		return SyncResult{}, fmt.Errorf("%w %s: no keys", ErrSourceUnreadable, sourcePath)
	}

	result := Plan(src, s.opts)
	result.Destination = destPath

	for _, k := range result.Keys {
		if !k.Found {
			s.logger.Debug("target key not found", zap.String("key", k.Key))
			continue
		}
		if k.Via != "" {
			s.logger.Debug("target key resolved via alias", zap.String("key", k.Key), zap.String("alias", k.Via))
		}
	}

	if err := envfile.Write(destPath, result.Entries()); err != nil {
		return result, err
	}

	s.logger.Debug("credentials synced",
		zap.String("source", sourcePath),
		zap.String("destination", destPath),
		zap.Int("written", len(result.Entries())),
		zap.Strings("missing", result.MissingKeys()),
	)
	return result, nil
}
