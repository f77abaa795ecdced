package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/voicectl/internal/config"
	"github.com/eugenenazirov/voicectl/internal/console"
	"github.com/eugenenazirov/voicectl/internal/creds"
	"github.com/eugenenazirov/voicectl/internal/diagnostics"
	"github.com/eugenenazirov/voicectl/internal/envcheck"
	"github.com/eugenenazirov/voicectl/internal/envfile"
	"github.com/eugenenazirov/voicectl/internal/launcher"
	"github.com/eugenenazirov/voicectl/internal/metrics"
	"github.com/eugenenazirov/voicectl/internal/probe"
	"github.com/eugenenazirov/voicectl/internal/token"
)

// projectMarkers identify a project root while walking up from the working
// directory.
var projectMarkers = []string{"backend", "frontend", ".env"}

// App wires the operator commands to one resolved configuration.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	printer *console.Printer
	environ func() []string
	now     func() time.Time
	diag    diagnostics.Options
}

// Option customises an App, primarily for tests.
type Option func(*App)

// WithEnviron replaces os.Environ as the process environment snapshot.
func WithEnviron(fn func() []string) Option {
	return func(a *App) { a.environ = fn }
}

// WithDiagnostics overrides the command runner, listener and memory reader
// used by Diagnose.
func WithDiagnostics(opts diagnostics.Options) Option {
	return func(a *App) {
		a.diag.Run = opts.Run
		a.diag.Listen = opts.Listen
		a.diag.Memory = opts.Memory
	}
}

// New initializes the application. An empty cfg.Root is resolved by walking
// up from the working directory.
func New(cfg config.Config, logger *zap.Logger, out io.Writer, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		cfg.Root = ResolveProjectRoot(wd)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	cfg.Root = root

	a := &App{
		cfg:     cfg,
		logger:  logger.With(zap.String("root", root)),
		printer: console.New(out),
		environ: os.Environ,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.diag = diagnostics.Options{
		Python:       cfg.Python,
		Node:         cfg.Node,
		MinPython:    cfg.MinPython,
		MinNode:      cfg.MinNode,
		MinMemory:    cfg.MinMemoryBytes(),
		RootEnv:      cfg.Path(cfg.Paths.RootEnv),
		FrontendEnv:  cfg.Path(cfg.Paths.FrontendEnv),
		LogsDir:      cfg.Path(cfg.Paths.LogsDir),
		DocsDir:      cfg.Path(cfg.Paths.DocsDir),
		FrontendPort: cfg.FrontendPort,
		Run:          a.diag.Run,
		Listen:       a.diag.Listen,
		Memory:       a.diag.Memory,
	}

	a.logger.Debug("application initialised")
	return a, nil
}

// Config returns the resolved configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Validate checks the credentials of role against its dotenv file merged with
// the process environment. The process environment wins.
func (a *App) Validate(role envcheck.Role) error {
	set, err := envcheck.KeysForRole(role)
	if err != nil {
		return err
	}

	path := a.cfg.Path(a.cfg.Paths.RootEnv)
	if role == envcheck.RoleFrontend {
		path = a.cfg.Path(a.cfg.Paths.FrontendEnv)
	}
	file, err := envfile.LoadOptional(path)
	if err != nil {
		return fmt.Errorf("%w: %w", envcheck.ErrConfiguration, err)
	}
	snapshot := envfile.Merge(file, envfile.FromEnviron(a.environ()))

	report := envcheck.Validate(snapshot, set)
	a.logger.Debug("validation finished",
		zap.String("role", string(role)),
		zap.Int("missing", len(report.Missing)),
		zap.Int("placeholders", len(report.Placeholders)),
		zap.Int("malformed", len(report.Malformed)),
	)

	p := a.printer
	p.Title(fmt.Sprintf("Validating %s environment (%s)", role, a.rel(path)))
	for _, rule := range report.Missing {
		p.Failure(fmt.Sprintf("Missing required key: %s (%s)", rule.Key, rule.Description))
	}
	for _, m := range report.Malformed {
		p.Failure(fmt.Sprintf("%s must start with wss:// or ws:// (got %q)", m.Rule.Key, m.Value))
	}
	for _, rule := range report.Placeholders {
		p.Notice(fmt.Sprintf("%s still has a placeholder value", rule.Key))
	}

	if report.Failed() {
		p.Line("")
		p.Line("Add the following to " + a.rel(path) + ":")
		for _, line := range report.Guidance() {
			p.Line("  " + line)
		}
		return report.Err()
	}

	p.Success("All required keys are set")
	return nil
}

// Sync copies the backend credentials out of the frontend dotenv file.
func (a *App) Sync() error {
	src := a.cfg.Path(a.cfg.Paths.FrontendEnv)
	dst := a.cfg.Path(a.cfg.Paths.BackendEnv)

	syncer := creds.NewSyncer(creds.SyncOptions{
		TargetKeys: a.cfg.Sync.TargetKeys,
		Aliases:    a.cfg.Sync.Aliases,
	}, a.logger)

	p := a.printer
	p.Title(fmt.Sprintf("Syncing credentials %s -> %s", a.rel(src), a.rel(dst)))

	result, err := syncer.Sync(src, dst)
	if err != nil {
		p.Failure(err.Error())
		return err
	}

	for _, k := range result.Keys {
		switch {
		case !k.Found:
			p.Notice(k.Key + " not found")
		case k.Via != "":
			p.Success(fmt.Sprintf("%s (from %s)", k.Key, k.Via))
		default:
			p.Success(k.Key)
		}
	}
	p.Line(fmt.Sprintf("Wrote %d of %d keys to %s", len(result.Entries()), len(result.Keys), a.rel(dst)))
	return nil
}

// Verify compares the shared credentials of the root and frontend dotenv
// files. Differences are reported, never returned as errors.
func (a *App) Verify() error {
	backendPath := a.cfg.Path(a.cfg.Paths.RootEnv)
	frontendPath := a.cfg.Path(a.cfg.Paths.FrontendEnv)

	backend, err := envfile.LoadOptional(backendPath)
	if err != nil {
		return err
	}
	frontend, err := envfile.LoadOptional(frontendPath)
	if err != nil {
		return err
	}

	p := a.printer
	p.Title(fmt.Sprintf("Comparing %s with %s", a.rel(backendPath), a.rel(frontendPath)))

	for _, c := range creds.Compare(backend, frontend, a.cfg.Verify.Keys) {
		switch c.Outcome {
		case creds.OutcomeMatch:
			p.Success(c.Key + " matches")
		case creds.OutcomeMismatch:
			p.Failure(fmt.Sprintf("%s mismatch: backend=%s... frontend=%s...", c.Key, c.BackendPrefix, c.FrontendPrefix))
		case creds.OutcomeBackendMissing:
			p.Failure(fmt.Sprintf("%s missing in %s", c.Key, a.rel(backendPath)))
			if !c.FrontendPresent {
				p.Failure(fmt.Sprintf("%s missing in %s", c.Key, a.rel(frontendPath)))
			}
		case creds.OutcomeFrontendMissing:
			p.Failure(fmt.Sprintf("%s missing in %s", c.Key, a.rel(frontendPath)))
		}
	}
	return nil
}

// DiagnoseOptions selects the optional parts of a diagnostics run.
type DiagnoseOptions struct {
	Probe       bool
	MetricsFile string
	// ProbeConfig overrides endpoints; timeouts and pacing come from config.
	ProbeConfig probe.Config
}

// Diagnose runs the deployment checklist and prints a streaming report.
func (a *App) Diagnose(ctx context.Context, opts DiagnoseOptions) (diagnostics.Report, error) {
	sections := diagnostics.Checklist(a.diag)

	if opts.Probe {
		section, err := a.connectivitySection(opts.ProbeConfig)
		if err != nil {
			return diagnostics.Report{}, err
		}
		sections = append(sections, section)
	}

	p := a.printer
	p.Title("Voice Agent RAG - Deployment Diagnostics")
	p.Line("Running checks...")

	reporter := diagnostics.NewConsoleReporter(p)
	report := diagnostics.NewRunner(a.logger, sections, diagnostics.WithReporter(reporter)).Run(ctx)
	reporter.Summary(report)

	if opts.MetricsFile != "" {
		exporter := metrics.NewExporter()
		exporter.Record(report, a.now())
		if err := exporter.WriteTextfile(opts.MetricsFile); err != nil {
			a.logger.Warn("failed to write metrics textfile", zap.String("path", opts.MetricsFile), zap.Error(err))
		}
	}

	return report, report.Err()
}

func (a *App) connectivitySection(override probe.Config) (diagnostics.Section, error) {
	cfg := override
	cfg.Timeout = a.cfg.Probe.Timeout
	cfg.RPS = a.cfg.Probe.RPS
	cfg.Burst = a.cfg.Probe.Burst
	cfg.Proxy = a.cfg.Probe.Proxy

	prober, err := probe.New(cfg, a.logger)
	if err != nil {
		return diagnostics.Section{}, err
	}

	file, err := envfile.LoadOptional(a.cfg.Path(a.cfg.Paths.RootEnv))
	if err != nil {
		return diagnostics.Section{}, fmt.Errorf("%w: %w", envcheck.ErrConfiguration, err)
	}
	src := envfile.Merge(file, envfile.FromEnviron(a.environ()))

	return diagnostics.Section{Title: diagnostics.SectionConnectivity, Checks: prober.Checks(src)}, nil
}

// Launcher builds the backend launcher. Child output goes to the process's
// standard streams; notices go to the application output.
func (a *App) Launcher() *launcher.Launcher {
	return launcher.New(launcher.Config{
		Python:    a.cfg.Python,
		Script:    a.cfg.Path(a.cfg.Paths.BackendScript),
		Dir:       a.cfg.Root,
		StripKeys: a.cfg.Launcher.StripEnv,
		Environ:   a.environ,
	}, a.printer, a.logger)
}

// Install installs the backend's Python dependencies.
func (a *App) Install(ctx context.Context) error {
	installer := launcher.NewInstaller(a.Launcher(), a.cfg.Path(a.cfg.Paths.Requirements), nil)
	return installer.Run(ctx)
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	URL         string `json:"url"`
}

// Token prints a LiveKit access token and server URL as JSON, using the
// credentials of the root dotenv file merged with the process environment.
func (a *App) Token(opts token.Options) error {
	file, err := envfile.LoadOptional(a.cfg.Path(a.cfg.Paths.RootEnv))
	if err != nil {
		return fmt.Errorf("%w: %w", envcheck.ErrConfiguration, err)
	}
	src := envfile.Merge(file, envfile.FromEnviron(a.environ()))

	raw, claims, err := token.Mint(src.Get(envcheck.KeyLiveKitAPIKey), src.Get(envcheck.KeyLiveKitAPISecret), opts, a.now())
	if errors.Is(err, token.ErrMissingCredentials) {
		a.printer.Failure("Server misconfigured: " + err.Error())
		return fmt.Errorf("%w: %w", envcheck.ErrConfiguration, err)
	}
	if err != nil {
		return err
	}
	a.logger.Debug("access token minted",
		zap.String("room", claims.Video.Room),
		zap.String("identity", claims.Subject),
		zap.Time("expires", claims.ExpiresAt.Time),
	)

	out, err := json.Marshal(tokenResponse{AccessToken: raw, URL: src.Get(envcheck.KeyLiveKitURL)})
	if err != nil {
		return fmt.Errorf("encode token response: %w", err)
	}
	a.printer.Line(string(out))
	return nil
}

func (a *App) rel(path string) string {
	r, err := filepath.Rel(a.cfg.Root, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return path
	}
	return r
}

// ResolveProjectRoot walks up from start until a directory containing one of
// the project markers is found. It returns start when none is found.
func ResolveProjectRoot(start string) string {
	dir := start
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return start
}
