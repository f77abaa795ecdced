package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/voicectl/internal/application"
	"github.com/eugenenazirov/voicectl/internal/config"
	"github.com/eugenenazirov/voicectl/internal/diagnostics"
	"github.com/eugenenazirov/voicectl/internal/envcheck"
	"github.com/eugenenazirov/voicectl/internal/launcher"
	"github.com/eugenenazirov/voicectl/internal/logging"
	"github.com/eugenenazirov/voicectl/internal/token"
)

var signalNotify = signal.Notify

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("voicectl", "Operator toolkit for the voice agent deployment")
	kingpinApp.Writer(stdout)
	kingpinApp.Terminate(nil)

	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	root := kingpinApp.Flag("root", "Project root (default: discovered from the working directory)").String()
	python := kingpinApp.Flag("python", "Python interpreter used by the backend").String()
	port := kingpinApp.Flag("port", "Frontend port checked by diagnose").Default("0").Int()
	proxy := kingpinApp.Flag("proxy", "SOCKS5 proxy (host:port) for connectivity probes").String()
	verbose := kingpinApp.Flag("verbose", "Enable debug logging on stderr").Short('v').Bool()

	validateCmd := kingpinApp.Command("validate", "Check required credentials, placeholders and the LiveKit URL")
	role := validateCmd.Flag("role", "Key set to validate").Default(string(envcheck.RoleBackend)).
		Enum(string(envcheck.RoleBackend), string(envcheck.RoleFrontend))

	syncCmd := kingpinApp.Command("sync", "Copy backend credentials from frontend/.env.local into backend/.env")
	verifyCmd := kingpinApp.Command("verify", "Compare shared credentials between .env and frontend/.env.local")

	diagnoseCmd := kingpinApp.Command("diagnose", "Run the deployment checklist")
	probeFlag := diagnoseCmd.Flag("probe", "Also check connectivity to LiveKit, OpenRouter, Deepgram and Cartesia").Bool()
	metricsFile := diagnoseCmd.Flag("metrics-file", "Write results as a Prometheus textfile").String()

	installCmd := kingpinApp.Command("install", "Install backend Python dependencies without certificate overrides")

	tokenCmd := kingpinApp.Command("token", "Print a LiveKit access token for joining a room")
	room := tokenCmd.Flag("room", "Room to join").Default(token.DefaultRoom).String()
	identity := tokenCmd.Flag("identity", "Participant identity (default: random User_N)").String()
	ttl := tokenCmd.Flag("ttl", "Token lifetime").Default(token.DefaultTTL.String()).Duration()

	command, err := kingpinApp.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "voicectl: %v\n", err)
		return 1
	}

	overrides := &config.CLIOverrides{ConfigFile: *configFile}
	if *root != "" {
		overrides.Root = root
	}
	if *python != "" {
		overrides.Python = python
	}
	if *port > 0 {
		overrides.Port = port
	}
	if *proxy != "" {
		overrides.Proxy = proxy
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "voicectl: failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(*verbose)
	if err != nil {
		fmt.Fprintf(stderr, "voicectl: failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger, stdout)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return 1
	}

	ctx, stop := interruptContext(context.Background())
	defer stop()

	switch command {
	case validateCmd.FullCommand():
		return exitCode(logger, app.Validate(envcheck.Role(*role)))
	case syncCmd.FullCommand():
		return exitCode(logger, app.Sync())
	case verifyCmd.FullCommand():
		return exitCode(logger, app.Verify())
	case diagnoseCmd.FullCommand():
		report, err := app.Diagnose(ctx, application.DiagnoseOptions{Probe: *probeFlag, MetricsFile: *metricsFile})
		if err != nil && !errors.Is(err, diagnostics.ErrChecksFailed) {
			logger.Error("diagnostics aborted", zap.Error(err))
			return 1
		}
		return report.ExitCode()
	case installCmd.FullCommand():
		err := app.Install(ctx)
		if err != nil && !errors.Is(err, launcher.ErrInterrupted) {
			logger.Error("installation failed", zap.Error(err))
		}
		return launcher.ExitCode(err)
	case tokenCmd.FullCommand():
		return exitCode(logger, app.Token(token.Options{Room: *room, Identity: *identity, TTL: *ttl}))
	}
	return 1
}

func exitCode(logger *zap.Logger, err error) int {
	if err == nil {
		return 0
	}
	logger.Debug("command failed", zap.Error(err))
	return 1
}

// interruptContext is cancelled on SIGINT or SIGTERM.
func interruptContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(quit)
		cancel()
	}
}
