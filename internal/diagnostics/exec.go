package diagnostics

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external program and returns its trimmed combined
// output. A program missing from PATH yields an error.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// ExecCommand is the CommandRunner backed by os/exec.
func ExecCommand(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		return text, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return text, nil
}
