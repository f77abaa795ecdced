package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/voicectl/internal/console"
)

var (
	signalNotify = signal.Notify
	signalStop   = signal.Stop
)

const defaultInterruptGrace = 3 * time.Second

// Config describes the backend process.
type Config struct {
	Python string
	Script string
	// Dir is the working directory of the child; empty means the current one.
	Dir       string
	StripKeys []string
	// Environ returns the parent environment; os.Environ when nil.
	Environ func() []string
	// InterruptGrace is how long the child gets to react to a terminal
	// SIGINT before the launcher sends one itself.
	InterruptGrace time.Duration

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (c Config) withDefaults() Config {
	if c.StripKeys == nil {
		c.StripKeys = DefaultStripKeys()
	}
	if c.Environ == nil {
		c.Environ = os.Environ
	}
	if c.InterruptGrace <= 0 {
		c.InterruptGrace = defaultInterruptGrace
	}
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	return c
}

// Launcher runs the backend script under the configured interpreter.
type Launcher struct {
	cfg     Config
	printer *console.Printer
	logger  *zap.Logger
}

// New constructs a Launcher writing its notices to printer.
func New(cfg Config, printer *console.Printer, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{cfg: cfg.withDefaults(), printer: printer, logger: logger}
}

// Env returns the child environment, announcing every removed key.
func (l *Launcher) Env() []string {
	env, removed := StripEnv(l.cfg.Environ(), l.cfg.StripKeys)
	for _, key := range removed {
		l.printer.Line("Removing problematic env var: " + key)
	}
	return env
}

// Command builds the backend invocation with args forwarded verbatim.
func (l *Launcher) Command(args []string) Command {
	return Command{
		Name: l.cfg.Python,
		Args: append([]string{l.cfg.Script}, args...),
		Dir:  l.cfg.Dir,
	}
}

// Run starts the backend and blocks until it exits. SIGTERM is forwarded to
// the child. SIGINT from a terminal already reaches the child through the
// process group, so it is sent once, and only if the child is still running
// after InterruptGrace. Once an interrupted child exits Run prints a stop
// notice and returns ErrInterrupted. A non-zero exit yields an *ExitError
// with the child's code.
func (l *Launcher) Run(ctx context.Context, args []string) error {
	c := l.Command(args)
	c.Env = l.Env()

	l.printer.Line(fmt.Sprintf("Starting backend from %s...", l.cfg.Script))
	l.logger.Debug("starting backend", zap.String("python", c.Name), zap.Strings("args", c.Args))

	cmd := c.build(l.cfg)
	if err := cmd.Start(); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	sigCh := make(chan os.Signal, 1)
	signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signalStop(sigCh)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var (
		interrupted   bool
		interruptSent bool
		grace         *time.Timer
		graceC        <-chan time.Time
	)
	defer func() {
		if grace != nil {
			grace.Stop()
		}
	}()

	for {
		select {
		case sig := <-sigCh:
			interrupted = true
			if sig != os.Interrupt {
				l.logger.Debug("forwarding signal to backend", zap.String("signal", sig.String()))
				l.forward(cmd, sig)
				continue
			}
			if grace == nil && !interruptSent {
				l.logger.Debug("waiting for backend to handle interrupt", zap.Duration("grace", l.cfg.InterruptGrace))
				grace = time.NewTimer(l.cfg.InterruptGrace)
				graceC = grace.C
			}
		case <-graceC:
			graceC = nil
			if !interruptSent {
				interruptSent = true
				l.logger.Debug("forwarding interrupt to backend")
				l.forward(cmd, os.Interrupt)
			}
		case <-ctx.Done():
			interrupted = true
			if !interruptSent {
				interruptSent = true
				l.forward(cmd, os.Interrupt)
			}
			ctx = context.Background()
		case err := <-done:
			if interrupted {
				l.printer.Line("Backend stopped.")
				return ErrInterrupted
			}
			return l.exitResult(err)
		}
	}
}

func (l *Launcher) forward(cmd *exec.Cmd, sig os.Signal) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		l.logger.Warn("failed to signal backend", zap.Error(err))
		_ = cmd.Process.Kill()
	}
}

func (l *Launcher) exitResult(err error) error {
	if err == nil {
		return nil
	}
	exitErr := asExitError(err)
	l.printer.Line(fmt.Sprintf("Backend exited with code %d", exitErr.Code))
	return exitErr
}

// asExitError converts a Wait or Run error. A child killed by a signal
// reports -1 from ExitCode and is mapped to 1.
func asExitError(err error) *ExitError {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		code := ee.ExitCode()
		if code < 0 {
			code = 1
		}
		return &ExitError{Code: code, Err: err}
	}
	return &ExitError{Code: 1, Err: err}
}
