package launcher

import (
	"context"
	"os/exec"
	"strings"
)

// Command is one child process invocation.
type Command struct {
	Name string
	Args []string
	Env  []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

func (c Command) build(cfg Config) *exec.Cmd {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.Stdin = cfg.Stdin
	cmd.Stdout = cfg.Stdout
	cmd.Stderr = cfg.Stderr
	return cmd
}

// Executor runs a command to completion.
type Executor func(ctx context.Context, c Command) error

func execExecutor(cfg Config) Executor {
	return func(ctx context.Context, c Command) error {
		cmd := c.build(cfg)
		if err := cmd.Start(); err != nil {
			return &ExitError{Code: 1, Err: err}
		}

		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()

		select {
		case err := <-done:
			if err != nil {
				return asExitError(err)
			}
			return nil
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-done
			return ctx.Err()
		}
	}
}
