package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/voicectl/internal/config"
	"github.com/eugenenazirov/voicectl/internal/creds"
	"github.com/eugenenazirov/voicectl/internal/diagnostics"
	"github.com/eugenenazirov/voicectl/internal/envcheck"
	"github.com/eugenenazirov/voicectl/internal/token"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestApp(t *testing.T, root string, environ []string, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root

	var out bytes.Buffer
	opts = append([]Option{WithEnviron(func() []string { return environ })}, opts...)
	app, err := New(cfg, zaptest.NewLogger(t), &out, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return app, &out
}

func TestNewResolvesRoot(t *testing.T) {
	root := t.TempDir()
	app, _ := newTestApp(t, root, nil)

	if !filepath.IsAbs(app.Config().Root) {
		t.Fatalf("expected absolute root, got %q", app.Config().Root)
	}
}

func TestResolveProjectRootWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "backend"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested := filepath.Join(root, "deployment", "scripts")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got := ResolveProjectRoot(nested); got != root {
		t.Fatalf("expected %s, got %s", root, got)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), `LIVEKIT_URL=http://x
LIVEKIT_API_KEY=key
LIVEKIT_API_SECRET=secret
OPENROUTER_API_KEY=your_openrouter_key
DEEPGRAM_API_KEY=dg
`)
	app, out := newTestApp(t, root, nil)

	err := app.Validate(envcheck.RoleBackend)
	if !errors.Is(err, envcheck.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Missing required key: CARTESIA_API_KEY",
		"LIVEKIT_URL must start with wss:// or ws://",
		"OPENROUTER_API_KEY still has a placeholder value",
		"LIVEKIT_URL=wss://",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestValidateProcessEnvironmentWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "LIVEKIT_URL=http://x\n")
	environ := []string{
		"LIVEKIT_URL=wss://demo.livekit.cloud",
		"LIVEKIT_API_KEY=k",
		"LIVEKIT_API_SECRET=s",
		"OPENROUTER_API_KEY=o",
		"DEEPGRAM_API_KEY=d",
		"CARTESIA_API_KEY=c",
	}
	app, _ := newTestApp(t, root, environ)

	if err := app.Validate(envcheck.RoleBackend); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestSyncThenVerify(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "frontend", ".env.local"), `NEXT_PUBLIC_LIVEKIT_URL=wss://demo.livekit.cloud
LIVEKIT_API_KEY=APIabcdef
LIVEKIT_API_SECRET=secret
OPENROUTER_API_KEY=sk-or-v1-123
`)
	writeFile(t, filepath.Join(root, ".env"), `LIVEKIT_URL=wss://demo.livekit.cloud
LIVEKIT_API_KEY=APIzzzzzz
`)
	app, out := newTestApp(t, root, nil)

	if err := app.Sync(); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "backend", ".env"))
	if err != nil {
		t.Fatalf("read backend env: %v", err)
	}
	if !strings.HasPrefix(string(data), "LIVEKIT_URL=wss://demo.livekit.cloud\n") {
		t.Fatalf("unexpected backend env:\n%s", data)
	}
	if !strings.Contains(out.String(), "LIVEKIT_URL (from NEXT_PUBLIC_LIVEKIT_URL)") {
		t.Fatalf("alias resolution not reported:\n%s", out.String())
	}

	out.Reset()
	if err := app.Verify(); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	text := out.String()
	if strings.Contains(text, "APIabcdef") || strings.Contains(text, "APIzzzzzz") {
		t.Fatalf("full secret leaked:\n%s", text)
	}
	for _, want := range []string{
		"LIVEKIT_URL missing in " + filepath.Join("frontend", ".env.local"),
		"LIVEKIT_API_KEY mismatch: backend=APIzz... frontend=APIab...",
		"LIVEKIT_API_SECRET missing in .env",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestSyncFailsWithoutSource(t *testing.T) {
	app, _ := newTestApp(t, t.TempDir(), nil)

	if err := app.Sync(); !errors.Is(err, creds.ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
}

func TestDiagnoseWritesMetrics(t *testing.T) {
	root := t.TempDir()
	app, out := newTestApp(t, root, nil, WithDiagnostics(diagnostics.Options{
		Run: func(context.Context, string, ...string) (string, error) {
			return "", errors.New("not installed")
		},
		Listen: func(string, string) (net.Listener, error) { return nil, errors.New("in use") },
		Memory: func() (diagnostics.MemoryInfo, error) { return diagnostics.MemoryInfo{}, diagnostics.ErrMemoryUnavailable },
	}))

	metricsPath := filepath.Join(root, "metrics", "voicectl.prom")
	report, err := app.Diagnose(context.Background(), DiagnoseOptions{MetricsFile: metricsPath})
	if !errors.Is(err, diagnostics.ErrChecksFailed) {
		t.Fatalf("expected ErrChecksFailed, got %v", err)
	}
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit code 1")
	}
	if !strings.Contains(out.String(), "Some checks failed. Please fix the issues above.") {
		t.Fatalf("missing failure summary:\n%s", out.String())
	}
	if _, err := os.Stat(metricsPath); err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
}

func TestLauncherUsesConfiguredPaths(t *testing.T) {
	root := t.TempDir()
	app, _ := newTestApp(t, root, nil)

	cmd := app.Launcher().Command([]string{"dev"})
	want := filepath.Join(root, "backend", "voice_agent_openai.py")
	if cmd.Name != "python3" || len(cmd.Args) != 2 || cmd.Args[0] != want || cmd.Args[1] != "dev" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if cmd.Dir != root {
		t.Fatalf("expected working directory %s, got %s", root, cmd.Dir)
	}
}

func TestTokenPrintsSignedRoomToken(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), `LIVEKIT_URL=wss://demo.livekit.cloud
LIVEKIT_API_KEY=APIkey
LIVEKIT_API_SECRET=file-secret
`)
	app, out := newTestApp(t, root, []string{"LIVEKIT_API_SECRET=env-secret"})

	if err := app.Token(token.Options{Room: "support", Identity: "operator"}); err != nil {
		t.Fatalf("Token returned error: %v", err)
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
		URL         string `json:"url"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if resp.URL != "wss://demo.livekit.cloud" {
		t.Fatalf("unexpected url %q", resp.URL)
	}
	claims, err := token.Parse(resp.AccessToken, "env-secret")
	if err != nil {
		t.Fatalf("token not signed with the process secret: %v", err)
	}
	if claims.Issuer != "APIkey" || claims.Subject != "operator" || claims.Video.Room != "support" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenRequiresCredentials(t *testing.T) {
	app, out := newTestApp(t, t.TempDir(), nil)

	err := app.Token(token.Options{})
	if !errors.Is(err, envcheck.ErrConfiguration) || !errors.Is(err, token.ErrMissingCredentials) {
		t.Fatalf("expected missing credentials, got %v", err)
	}
	if !strings.Contains(out.String(), "Server misconfigured") {
		t.Fatalf("missing failure line:\n%s", out.String())
	}
}
