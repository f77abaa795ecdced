package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// ListenFunc opens a listener; net.Listen in production.
type ListenFunc func(network, address string) (net.Listener, error)

// DependencyCheck passes when the command exits successfully. The trimmed
// output is appended to the check name when label is true.
func DependencyCheck(name string, run CommandRunner, hint string, label bool, command string, args ...string) Check {
	return Check{
		Name: name,
		Run: func(ctx context.Context) Result {
			out, err := run(ctx, command, args...)
			if err != nil {
				return Fail(name, hint, fmt.Errorf("%w: %w", ErrDependency, err))
			}
			if label && out != "" {
				return Pass(fmt.Sprintf("%s (%s)", name, firstLine(out)))
			}
			return Pass(name)
		},
	}
}

// PortCheck passes when the TCP port can be bound on localhost.
func PortCheck(listen ListenFunc, port int, role string) Check {
	name := fmt.Sprintf("Port %d (%s) available", port, role)
	return Check{
		Name: name,
		Run: func(context.Context) Result {
			ln, err := listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
			if err != nil {
				return Fail(name, fmt.Sprintf("Kill process using port %d", port), fmt.Errorf("%w: %w", ErrResourceUnavailable, err))
			}
			_ = ln.Close()
			return Pass(name)
		},
	}
}

// EnsureDirCheck passes when dir exists, creating it if absent.
func EnsureDirCheck(dir string) Check {
	label := filepath.Base(dir) + "/ directory"
	return Check{
		Name: label,
		Run: func(context.Context) Result {
			info, err := os.Stat(dir)
			switch {
			case err == nil && info.IsDir():
				return Pass(label + " exists")
			case err == nil:
				return Fail(label, dir+" exists but is not a directory", fmt.Errorf("%w: %s is a file", ErrResourceUnavailable, dir))
			case !errors.Is(err, fs.ErrNotExist):
				return Fail(label, err.Error(), fmt.Errorf("%w: %w", ErrResourceUnavailable, err))
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return Fail(label, fmt.Sprintf("Could not create %s: %v", dir, err), fmt.Errorf("%w: %w", ErrResourceUnavailable, err))
			}
			res := Pass(label)
			res.Notes = []string{"Created " + dir}
			return res
		},
	}
}

// RequireDirCheck passes only when dir already exists.
func RequireDirCheck(dir, hint string) Check {
	name := filepath.Base(dir) + "/ directory exists"
	return Check{
		Name: name,
		Run: func(context.Context) Result {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return Fail(name, hint, fmt.Errorf("%w: %s", ErrDependency, dir))
			}
			return Pass(name)
		},
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '\r' {
			return s[:i]
		}
	}
	return s
}
