package collector

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

// readSystemVmstat parses every numeric counter in /proc/vmstat, keyed
// by its interned field name. Keeping the full counter set (rather than
// a curated subset) is what lets the format stay forward-compatible
// when the kernel adds counters (spec §4.2).
func readSystemVmstat(in *interner.Interner) (*model.SystemVmstat, error) {
	f, err := os.Open("/proc/vmstat")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	counters := make(map[uint64]uint64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		counters[in.Intern(fields[0])] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &model.SystemVmstat{Counters: counters}, nil
}
