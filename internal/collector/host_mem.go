package collector

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/model"
)

// readSystemMem parses the fields of /proc/meminfo the snapshot needs.
// All values are reported in kB as the kernel writes them.
func readSystemMem() (*model.SystemMem, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parseSystemMem(f)
}

func parseSystemMem(r io.Reader) (*model.SystemMem, error) {
	m := &model.SystemMem{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "MemTotal":
			m.MemTotalKB = v
		case "MemFree":
			m.MemFreeKB = v
		case "MemAvailable":
			m.MemAvailableKB = v
		case "Buffers":
			m.BuffersKB = v
		case "Cached":
			m.CachedKB = v
		case "SwapTotal":
			m.SwapTotalKB = v
		case "SwapFree":
			m.SwapFreeKB = v
		case "Dirty":
			m.DirtyKB = v
		case "Writeback":
			m.WritebackKB = v
		}
	}
	return m, scanner.Err()
}
