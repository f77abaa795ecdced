package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

const gib = 1 << 30

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the first major.minor[.patch] triple from command
// output such as "Python 3.11.4" or "v18.17.0".
func ParseVersion(output string) (*semver.Version, error) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("no version found in %q", output)
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	return semver.NewVersion(fmt.Sprintf("%s.%s.%s", m[1], m[2], patch))
}

// AtLeast reports whether v satisfies ">= min".
func AtLeast(v *semver.Version, min string) (bool, error) {
	c, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return false, fmt.Errorf("parse minimum version %q: %w", min, err)
	}
	return c.Check(v), nil
}

// PythonVersionCheck requires the configured interpreter at or above
// min (major.minor).
func PythonVersionCheck(run CommandRunner, python, min string) Check {
	const name = "Python version"
	return Check{
		Name: name,
		Run: func(ctx context.Context) Result {
			out, err := run(ctx, python, "--version")
			if err != nil {
				return Fail("Python installed", python+" not found in PATH", fmt.Errorf("%w: %w", ErrDependency, err))
			}
			return versionResult(name, out, min, fmt.Sprintf("Requires Python %s or higher", min))
		},
	}
}

// NodeVersionCheck requires Node.js at or above min (major). A missing
// binary is a failure.
func NodeVersionCheck(run CommandRunner, node, min string) Check {
	const name = "Node.js version"
	return Check{
		Name: name,
		Run: func(ctx context.Context) Result {
			out, err := run(ctx, node, "--version")
			if err != nil {
				return Fail("Node.js installed", "Node.js not found in PATH", fmt.Errorf("%w: %w", ErrDependency, err))
			}
			return versionResult(name, out, min, fmt.Sprintf("Requires Node.js %s or higher", min))
		},
	}
}

func versionResult(name, output, min, hint string) Result {
	v, err := ParseVersion(output)
	if err != nil {
		return Fail(name, hint, fmt.Errorf("%w: %w", ErrDependency, err))
	}

	label := fmt.Sprintf("%s (%s)", name, versionLabel(output, v))
	ok, err := AtLeast(v, min)
	if err != nil {
		return Fail(label, hint, err)
	}
	if !ok {
		return Fail(label, hint, fmt.Errorf("%w: %s below %s", ErrDependency, v, min))
	}
	return Pass(label)
}

// versionLabel keeps a leading "v" as printed by node and drops any
// program name prefix such as "Python ".
func versionLabel(output string, v *semver.Version) string {
	loc := versionPattern.FindStringIndex(output)
	if loc == nil {
		return v.String()
	}
	if loc[0] > 0 && output[loc[0]-1] == 'v' {
		loc[0]--
	}
	return output[loc[0]:loc[1]]
}

// MemoryInfo reports system memory in bytes.
type MemoryInfo struct {
	Available uint64
	Total     uint64
}

// MemoryReader measures system memory. It returns ErrMemoryUnavailable when
// the platform offers no way to do so.
type MemoryReader func() (MemoryInfo, error)

// MemoryCheck requires at least minBytes of available memory. When memory
// cannot be measured the check passes with an informational note.
func MemoryCheck(read MemoryReader, minBytes uint64) Check {
	const name = "Available memory"
	hint := fmt.Sprintf("Need at least %s available for embedding model", formatGiB(minBytes))
	return Check{
		Name: name,
		Run: func(context.Context) Result {
			info, err := read()
			if err != nil {
				res := Pass(name)
				res.Notes = []string{fmt.Sprintf("Could not measure memory (%v); skipping", err)}
				return res
			}

			label := fmt.Sprintf("%s (%s / %s)", name, formatGiB(info.Available), formatGiB(info.Total))
			if info.Available < minBytes {
				return Fail(label, hint, fmt.Errorf("%w: %d bytes available", ErrResourceUnavailable, info.Available))
			}
			return Pass(label)
		},
	}
}

func formatGiB(n uint64) string {
	return fmt.Sprintf("%.1fGB", float64(n)/gib)
}

// SystemMemory is the MemoryReader for the current platform.
func SystemMemory() (MemoryInfo, error) {
	info, err := readSystemMemory()
	if err != nil && !errors.Is(err, ErrMemoryUnavailable) {
		return MemoryInfo{}, fmt.Errorf("%w: %w", ErrMemoryUnavailable, err)
	}
	return info, err
}
