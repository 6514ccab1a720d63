package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/model"
)

var psiFiles = map[model.PsiResource]string{
	model.PsiCPU:    "/proc/pressure/cpu",
	model.PsiMemory: "/proc/pressure/memory",
	model.PsiIO:     "/proc/pressure/io",
}

// readSystemPsi reads every /proc/pressure/* file present on the host.
// Kernels without PSI support (or PSI disabled) simply produce no rows,
// which is not an error (spec §4.4.1: "each reader is fallible and
// contributes no block").
func readSystemPsi() ([]model.SystemPsi, error) {
	var rows []model.SystemPsi
	for resource, path := range psiFiles {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		row, err := parseSystemPsi(f, resource)
		_ = f.Close()
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseSystemPsi parses one pressure file, e.g.:
//
//	some avg10=0.00 avg60=0.00 avg300=0.00 total=0
//	full avg10=0.00 avg60=0.00 avg300=0.00 total=0
func parseSystemPsi(r io.Reader, resource model.PsiResource) (model.SystemPsi, error) {
	row := model.SystemPsi{Resource: resource}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		kind := fields[0]

		vals := make(map[string]float64, 3)
		var total uint64
		for _, kv := range fields[1:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				continue
			}
			if parts[0] == "total" {
				total, _ = strconv.ParseUint(parts[1], 10, 64)
				continue
			}
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				continue
			}
			vals[parts[0]] = v
		}

		switch kind {
		case "some":
			row.Some10, row.Some60, row.Some300 = vals["avg10"], vals["avg60"], vals["avg300"]
			row.SomeTotalUsec = total
		case "full":
			row.Full10, row.Full60, row.Full300 = vals["avg10"], vals["avg60"], vals["avg300"]
			row.FullTotalUsec = total
		}
	}
	if err := scanner.Err(); err != nil {
		return row, fmt.Errorf("parse psi: %w", err)
	}
	return row, nil
}
