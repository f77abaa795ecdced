//go:build linux

package diagnostics

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestSysinfoMemoryCountsBuffers(t *testing.T) {
	var si unix.Sysinfo_t
	si.Totalram = 8192
	si.Freeram = 1024
	si.Bufferram = 1024
	si.Unit = 1 << 20

	info := sysinfoMemory(&si)
	if info.Available != 2*gib {
		t.Fatalf("expected free plus buffer RAM (2 GiB), got %d", info.Available)
	}
	if info.Total != 8*gib {
		t.Fatalf("expected 8 GiB total, got %d", info.Total)
	}

	si.Unit = 0
	if got := sysinfoMemory(&si).Total; got != 8192 {
		t.Fatalf("unit 0 must be treated as bytes, got %d", got)
	}
}
