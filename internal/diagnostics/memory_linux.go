//go:build linux

package diagnostics

import (
	"os"

	"golang.org/x/sys/unix"
)

const meminfoPath = "/proc/meminfo"

func readSystemMemory() (MemoryInfo, error) {
	if f, err := os.Open(meminfoPath); err == nil {
		defer f.Close()
		if info, err := parseMeminfo(f); err == nil {
			return info, nil
		}
	}

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return MemoryInfo{}, err
	}
	return sysinfoMemory(&si), nil
}

// sysinfoMemory approximates MemAvailable as free plus buffer RAM. The page
// cache is not reported by sysinfo(2), so the estimate stays low.
func sysinfoMemory(si *unix.Sysinfo_t) MemoryInfo {
	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	return MemoryInfo{
		Available: (uint64(si.Freeram) + uint64(si.Bufferram)) * unit,
		Total:     uint64(si.Totalram) * unit,
	}
}
