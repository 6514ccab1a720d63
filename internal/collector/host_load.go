package collector

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/model"
)

// readSystemLoad parses /proc/loadavg.
func readSystemLoad() (*model.SystemLoad, error) {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return nil, err
	}
	return parseSystemLoad(string(data))
}

func parseSystemLoad(data string) (*model.SystemLoad, error) {
	fields := strings.Fields(data)
	if len(fields) < 4 {
		return nil, fmt.Errorf("/proc/loadavg: too few fields in %q", data)
	}

	load1, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("/proc/loadavg: parse load1: %w", err)
	}
	load5, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, fmt.Errorf("/proc/loadavg: parse load5: %w", err)
	}
	load15, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, fmt.Errorf("/proc/loadavg: parse load15: %w", err)
	}

	runnable, total := uint32(0), uint32(0)
	if parts := strings.SplitN(fields[3], "/", 2); len(parts) == 2 {
		if v, err := strconv.ParseUint(parts[0], 10, 32); err == nil {
			runnable = uint32(v)
		}
		if v, err := strconv.ParseUint(parts[1], 10, 32); err == nil {
			total = uint32(v)
		}
	}

	return &model.SystemLoad{
		Load1: load1, Load5: load5, Load15: load15,
		RunnableTasks: runnable, TotalTasks: total,
	}, nil
}
