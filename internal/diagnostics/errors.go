package diagnostics

import "errors"

var (
	// ErrDependency marks a required runtime, library or tool as missing.
	ErrDependency = errors.New("missing dependency")
	// ErrResourceUnavailable marks a busy port or insufficient memory.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrMemoryUnavailable is returned by a MemoryReader that cannot measure memory.
	ErrMemoryUnavailable = errors.New("memory measurement unavailable")
	// ErrChecksFailed summarises a run with at least one failing check.
	ErrChecksFailed = errors.New("diagnostic checks failed")
)
