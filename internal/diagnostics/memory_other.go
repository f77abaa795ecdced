//go:build !linux

package diagnostics

func readSystemMemory() (MemoryInfo, error) {
	return MemoryInfo{}, ErrMemoryUnavailable
}
