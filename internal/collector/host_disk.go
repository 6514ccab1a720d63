package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/filter"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
)

// readSystemDisk parses /proc/diskstats, interning device names through
// in and dropping devices excluded by the diskstats/device filter
// (spec §4.4.1).
func readSystemDisk(in *interner.Interner, f filter.Filter) ([]model.SystemDisk, error) {
	file, err := os.Open("/proc/diskstats")
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return parseSystemDisk(file, in, f)
}

func parseSystemDisk(r io.Reader, in *interner.Interner, f filter.Filter) ([]model.SystemDisk, error) {
	scanner := bufio.NewScanner(r)
	var rows []model.SystemDisk

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Linux <=4.18 has 14 columns, 4.18+ has 18, 5.5+ has 20.
		if len(fields) != 14 && len(fields) != 18 && len(fields) != 20 {
			return nil, fmt.Errorf("/proc/diskstats: unexpected column count %d", len(fields))
		}

		device := fields[2]
		if !f.Pass(device) {
			continue
		}

		vals := make([]uint64, 11)
		for i := 0; i < 11 && i+3 < len(fields); i++ {
			v, err := strconv.ParseUint(fields[i+3], 10, 64)
			if err != nil {
				log.Debugf("/proc/diskstats: parse %q: %s; skip field", fields[i+3], err)
				continue
			}
			vals[i] = v
		}

		rows = append(rows, model.SystemDisk{
			DeviceHash:       in.Intern(device),
			ReadsCompleted:   vals[0],
			ReadsMerged:      vals[1],
			SectorsRead:      vals[2],
			ReadTimeMs:       vals[3],
			WritesCompleted:  vals[4],
			WritesMerged:     vals[5],
			SectorsWritten:   vals[6],
			WriteTimeMs:      vals[7],
			IOInProgress:     vals[8],
			IOTimeMs:         vals[9],
			WeightedIOTimeMs: vals[10],
		})
	}
	return rows, scanner.Err()
}
