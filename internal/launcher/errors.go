package launcher

import (
	"errors"
	"fmt"
)

var (
	// ErrChildProcess marks a child that could not start or exited non-zero.
	ErrChildProcess = errors.New("child process failed")
	// ErrInterrupted is returned when the operator stopped the child with a signal.
	ErrInterrupted = errors.New("interrupted")
)

// ExitError carries the exit code a child process finished with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: exit code %d: %v", ErrChildProcess, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: exit code %d", ErrChildProcess, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrChildProcess) hold for every ExitError.
func (e *ExitError) Is(target error) bool { return target == ErrChildProcess }

// ExitCode maps a Run result to the process exit status: 0 for success and
// interruption, the child's code for an ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrInterrupted) {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
