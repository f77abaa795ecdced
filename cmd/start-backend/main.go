package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/eugenenazirov/voicectl/internal/application"
	"github.com/eugenenazirov/voicectl/internal/config"
	"github.com/eugenenazirov/voicectl/internal/launcher"
	"github.com/eugenenazirov/voicectl/internal/logging"
)

// flagsEnv carries the launcher's own flags. The command line belongs to the
// backend and is forwarded untouched.
const flagsEnv = "START_BACKEND_FLAGS"

func main() {
	os.Exit(run(os.Args[1:], os.Getenv(flagsEnv), os.Stdout, os.Stderr))
}

type options struct {
	configFile string
	root       string
	python     string
	script     string
	verbose    bool
}

func parseFlags(raw string, stderr io.Writer) (options, error) {
	var opts options

	flags := cli.NewFlagSet(flagsEnv, cli.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to YAML configuration file")
	flags.StringVar(&opts.root, "root", "", "Project root (default: discovered from the working directory)")
	flags.StringVar(&opts.python, "python", "", "Python interpreter")
	flags.StringVar(&opts.script, "script", "", "Backend script, relative to the project root")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	if err := flags.Parse(strings.Fields(raw)); err != nil {
		return options{}, err
	}
	if flags.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument %q", flags.Arg(0))
	}
	return opts, nil
}

func run(args []string, rawFlags string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(rawFlags, stderr)
	if errors.Is(err, cli.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "start-backend: invalid %s: %v\n", flagsEnv, err)
		return 1
	}

	overrides := &config.CLIOverrides{ConfigFile: opts.configFile}
	if opts.root != "" {
		overrides.Root = &opts.root
	}
	if opts.python != "" {
		overrides.Python = &opts.python
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "start-backend: failed to load configuration: %v\n", err)
		return 1
	}
	if opts.script != "" {
		cfg.Paths.BackendScript = opts.script
	}

	logger, err := logging.New(opts.verbose)
	if err != nil {
		fmt.Fprintf(stderr, "start-backend: failed to initialize logger: %v\n", err)
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

	err = app.Launcher().Run(context.Background(), args)
	if err != nil && !errors.Is(err, launcher.ErrInterrupted) {
		logger.Debug("backend failed", zap.Error(err))
	}
	return launcher.ExitCode(err)
}
