package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
)

// readSystemCPU parses /proc/stat's per-cpu jiffy lines into
// model.SystemCPU rows; the aggregate "cpu" line is reported with
// CPUID -1 (spec §4.4.1, §3.2).
func readSystemCPU() ([]model.SystemCPU, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parseSystemCPU(f)
}

func parseSystemCPU(r io.Reader) ([]model.SystemCPU, error) {
	scanner := bufio.NewScanner(r)
	var rows []model.SystemCPU

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "cpu") {
			continue
		}

		cpuID := int32(-1)
		if fields[0] != "cpu" {
			n, err := strconv.Atoi(strings.TrimPrefix(fields[0], "cpu"))
			if err != nil {
				log.Debugf("/proc/stat: bad cpu label %q; skip", fields[0])
				continue
			}
			cpuID = int32(n)
		}

		row := model.SystemCPU{CPUID: cpuID}
		vals := make([]uint64, 10)
		for i := 0; i < 10 && i+1 < len(fields); i++ {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("/proc/stat: parse %q: %w", line, err)
			}
			vals[i] = v
		}
		row.UserJiffies, row.NiceJiffies, row.SystemJiffies, row.IdleJiffies,
			row.IowaitJiffies, row.IrqJiffies, row.SoftirqJiffies, row.StealJiffies,
			row.GuestJiffies, row.GuestNiceJiffies = vals[0], vals[1], vals[2], vals[3],
			vals[4], vals[5], vals[6], vals[7], vals[8], vals[9]

		rows = append(rows, row)
	}
	return rows, scanner.Err()
}

// readSystemStat parses the non-CPU counters of /proc/stat.
func readSystemStat() (*model.SystemStat, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parseSystemStat(f)
}

func parseSystemStat(r io.Reader) (*model.SystemStat, error) {
	s := &model.SystemStat{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "ctxt":
			s.ContextSwitchesTotal, _ = strconv.ParseUint(fields[1], 10, 64)
		case "processes":
			s.ProcessesTotal, _ = strconv.ParseUint(fields[1], 10, 64)
		case "procs_running":
			s.ProcsRunning, _ = strconv.ParseUint(fields[1], 10, 64)
		case "procs_blocked":
			s.ProcsBlocked, _ = strconv.ParseUint(fields[1], 10, 64)
		case "btime":
			v, _ := strconv.ParseInt(fields[1], 10, 64)
			s.BootTimeEpoch = v
		}
	}
	return s, scanner.Err()
}
