package diagnostics

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseMeminfo reads MemTotal and MemAvailable from /proc/meminfo content.
func parseMeminfo(r io.Reader) (MemoryInfo, error) {
	var info MemoryInfo
	var haveTotal, haveAvailable bool

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		var target *uint64
		switch fields[0] {
		case "MemTotal:":
			target, haveTotal = &info.Total, true
		case "MemAvailable:":
			target, haveAvailable = &info.Available, true
		default:
			continue
		}

		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return MemoryInfo{}, fmt.Errorf("parse %s: %w", fields[0], err)
		}
		// Values are reported in kB.
		*target = n * 1024
	}
	if err := scanner.Err(); err != nil {
		return MemoryInfo{}, err
	}
	if !haveTotal || !haveAvailable {
		return MemoryInfo{}, fmt.Errorf("meminfo lacks MemTotal or MemAvailable")
	}
	return info, nil
}
