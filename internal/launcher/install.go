package launcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Step is one pip invocation group of the installer.
type Step struct {
	Title    string
	Commands [][]string
	// Hard steps abort the installation on failure.
	Hard      bool
	OnSuccess string
	OnFailure string
}

// InstallSteps returns the installation plan for requirements.
func InstallSteps(requirements string) []Step {
	return []Step{
		{
			Title: "Upgrading pip...",
			Commands: [][]string{
				{"-m", "pip", "install", "--upgrade", "pip"},
				{"-m", "pip", "--version"},
			},
			OnFailure: "Pip upgrade failed (non-critical)",
		},
		{
			Title:    "Installing critical dependencies...",
			Commands: [][]string{{"-m", "pip", "install", "python-dotenv", "certifi"}},
			Hard:     true,
		},
		{
			Title: "Attempting to install LiveKit binaries...",
			Commands: [][]string{
				{"-m", "pip", "install", "livekit", "livekit-agents", "--only-binary=:all:", "--prefer-binary"},
			},
			OnSuccess: "LiveKit binary installation successful.",
			OnFailure: "Could not find binaries for LiveKit. Attempting full install (might fail)...",
		},
		{
			Title: fmt.Sprintf("Installing all dependencies from %s...", requirements),
			Commands: [][]string{
				{"-m", "pip", "install", "-r", requirements, "--only-binary=:all:", "--prefer-binary"},
			},
			OnSuccess: "Full installation successful.",
			OnFailure: "Full installation failed. Critical deps should be installed.",
		},
	}
}

// Installer installs the backend's Python dependencies with the same
// stripped environment the backend runs with.
type Installer struct {
	launcher *Launcher
	steps    []Step
	exec     Executor
}

// NewInstaller builds an Installer reusing l's interpreter, environment
// handling and output. A nil exec runs real processes.
func NewInstaller(l *Launcher, requirements string, exec Executor) *Installer {
	if exec == nil {
		exec = execExecutor(l.cfg)
	}
	return &Installer{launcher: l, steps: InstallSteps(requirements), exec: exec}
}

// Run executes every step. Soft step failures are reported and skipped; a
// hard step failure stops the run and is returned.
func (i *Installer) Run(ctx context.Context) error {
	l := i.launcher
	env := l.Env()

	for _, step := range i.steps {
		l.printer.Line(step.Title)

		err := i.runStep(ctx, step, env)
		switch {
		case err == nil:
			if step.OnSuccess != "" {
				l.printer.Line(step.OnSuccess)
			}
		case errors.Is(err, context.Canceled):
			return ErrInterrupted
		case step.Hard:
			l.logger.Error("install step failed", zap.String("step", step.Title), zap.Error(err))
			return err
		default:
			l.logger.Debug("install step failed", zap.String("step", step.Title), zap.Error(err))
			l.printer.Notice(fmt.Sprintf("%s: %v", step.OnFailure, err))
		}
	}
	return nil
}

func (i *Installer) runStep(ctx context.Context, step Step, env []string) error {
	l := i.launcher
	for _, args := range step.Commands {
		c := Command{Name: l.cfg.Python, Args: args, Env: env, Dir: l.cfg.Dir}
		l.logger.Debug("running", zap.Stringer("command", c))
		if err := i.exec(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
