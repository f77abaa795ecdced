package creds

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/voicectl/internal/envfile"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func defaultOptions() SyncOptions {
	return SyncOptions{TargetKeys: DefaultTargetKeys(), Aliases: DefaultAliases()}
}

func TestPlanUsesTargetOrderAndAlias(t *testing.T) {
	src := envfile.FromMap(map[string]string{
		"DEEPGRAM_API_KEY":        "dg",
		"NEXT_PUBLIC_LIVEKIT_URL": "wss://public.livekit.cloud",
		"LIVEKIT_API_KEY":         "APIkey",
		"UNRELATED":               "x",
	})

	result := Plan(src, defaultOptions())

	entries := result.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, envfile.Entry{Key: "LIVEKIT_URL", Value: "wss://public.livekit.cloud"}, entries[0])
	assert.Equal(t, "LIVEKIT_API_KEY", entries[1].Key)
	assert.Equal(t, "DEEPGRAM_API_KEY", entries[2].Key)

	assert.Equal(t, "NEXT_PUBLIC_LIVEKIT_URL", result.Keys[0].Via)
	assert.Equal(t, []string{"LIVEKIT_API_SECRET", "OPENROUTER_API_KEY", "CARTESIA_VOICE_ID"}, result.MissingKeys())
}

func TestPlanPrefersDirectValueOverAlias(t *testing.T) {
	src := envfile.FromMap(map[string]string{
		"LIVEKIT_URL":             "wss://direct",
		"NEXT_PUBLIC_LIVEKIT_URL": "wss://alias",
	})

	result := Plan(src, defaultOptions())
	assert.Equal(t, "wss://direct", result.Keys[0].Value)
	assert.Empty(t, result.Keys[0].Via)
}

func TestPlanTreatsEmptyAsMissingAndDeduplicates(t *testing.T) {
	src := envfile.FromMap(map[string]string{"A": "", "B": "2"})

	result := Plan(src, SyncOptions{TargetKeys: []string{"B", "A", "B"}})

	require.Len(t, result.Keys, 2)
	assert.Equal(t, []envfile.Entry{{Key: "B", Value: "2"}}, result.Entries())
	assert.Equal(t, []string{"A"}, result.MissingKeys())
}

func TestSyncOverwritesDestination(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "frontend", ".env.local")
	dest := filepath.Join(dir, "backend", ".env")

	writeFile(t, source, "OPENROUTER_API_KEY=or\nLIVEKIT_URL=wss://a\nLIVEKIT_URL=wss://b\n")
	writeFile(t, dest, "STALE=1\nLIVEKIT_URL=wss://old\n")

	syncer := NewSyncer(defaultOptions(), zaptest.NewLogger(t))
	result, err := syncer.Sync(source, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, result.Destination)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "LIVEKIT_URL=wss://b\nOPENROUTER_API_KEY=or\n", string(data))
	assert.NotContains(t, string(data), "STALE")
}

func TestSyncOutputHasEachKeyAtMostOnce(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "src.env")
	dest := filepath.Join(dir, "dst.env")
	writeFile(t, source, "LIVEKIT_URL=wss://x\nNEXT_PUBLIC_LIVEKIT_URL=wss://y\nLIVEKIT_API_KEY=k\nLIVEKIT_API_KEY=k2\n")

	_, err := NewSyncer(defaultOptions(), nil).Sync(source, dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		key, _, _ := strings.Cut(line, "=")
		counts[key]++
	}
	for key, n := range counts {
		assert.Equal(t, 1, n, "key %s written %d times", key, n)
	}
	assert.NotContains(t, counts, "NEXT_PUBLIC_LIVEKIT_URL")
}

func TestSyncFailsOnUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "backend.env")
	writeFile(t, dest, "KEEP=1\n")

	_, err := NewSyncer(defaultOptions(), nil).Sync(filepath.Join(dir, "missing.env"), dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnreadable))

	empty := filepath.Join(dir, "empty.env")
	writeFile(t, empty, "# nothing here\n")
	_, err = NewSyncer(defaultOptions(), nil).Sync(empty, dest)
	assert.True(t, errors.Is(err, ErrSourceUnreadable))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "KEEP=1\n", string(data), "destination must be untouched when the source is unreadable")
}

func TestSyncCopiesSecretsWithDollarSignsUnchanged(t *testing.T) {
	t.Setenv("XYZ", "expanded")
	dir := t.TempDir()
	source := filepath.Join(dir, "frontend", ".env.local")
	dest := filepath.Join(dir, "backend", ".env")
	writeFile(t, source, "LIVEKIT_API_KEY=APIkey\nLIVEKIT_API_SECRET=ab$XYZcd\n")

	_, err := NewSyncer(defaultOptions(), zaptest.NewLogger(t)).Sync(source, dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "LIVEKIT_API_KEY=APIkey\nLIVEKIT_API_SECRET=ab$XYZcd\n", string(data))

	backend, err := envfile.Load(dest)
	require.NoError(t, err)
	frontend, err := envfile.Load(source)
	require.NoError(t, err)
	comparisons := Compare(backend, frontend, []string{"LIVEKIT_API_SECRET"})
	require.Len(t, comparisons, 1)
	assert.Equal(t, OutcomeMatch, comparisons[0].Outcome)
}
