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

// readSystemNet parses /proc/net/dev, interning interface names through
// in and dropping interfaces excluded by the netdev/device filter.
func readSystemNet(in *interner.Interner, f filter.Filter) ([]model.SystemNet, error) {
	file, err := os.Open("/proc/net/dev")
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return parseSystemNet(file, in, f)
}

func parseSystemNet(r io.Reader, in *interner.Interner, f filter.Filter) ([]model.SystemNet, error) {
	scanner := bufio.NewScanner(r)

	// /proc/net/dev has a two-line header.
	for i := 0; i < 2; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("/proc/net/dev: missing header")
		}
	}

	var rows []model.SystemNet
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 17 {
			log.Debugf("/proc/net/dev: too few fields; skip line")
			continue
		}

		device := strings.TrimSuffix(fields[0], ":")
		if !f.Pass(device) {
			continue
		}

		vals := make([]uint64, 16)
		for i := 0; i < 16; i++ {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				continue
			}
			vals[i] = v
		}

		rows = append(rows, model.SystemNet{
			DeviceHash: in.Intern(device),
			RxBytes:    vals[0],
			RxPackets:  vals[1],
			RxErrs:     vals[2],
			RxDrop:     vals[3],
			TxBytes:    vals[8],
			TxPackets:  vals[9],
			TxErrs:     vals[10],
			TxDrop:     vals[11],
		})
	}
	return rows, scanner.Err()
}
