package collector

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

// readSystemNetSnmp parses /proc/net/snmp and /proc/net/netstat, both
// of which use the "Proto: field1 field2 ..." header-then-values layout,
// and keys each counter by its interned "Proto.Field" name (spec
// §4.4.1).
func readSystemNetSnmp(in *interner.Interner) (*model.SystemNetSnmp, error) {
	counters := make(map[uint64]uint64)

	for _, path := range []string{"/proc/net/snmp", "/proc/net/netstat"} {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		parseSnmpLikeFile(f, in, counters)
		_ = f.Close()
	}

	return &model.SystemNetSnmp{Counters: counters}, nil
}

// parseSnmpLikeFile reads pairs of lines: the first names a protocol and
// its fields, the second carries the matching values in the same order.
func parseSnmpLikeFile(f *os.File, in *interner.Interner, into map[uint64]uint64) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		header := strings.Fields(scanner.Text())
		if len(header) < 2 {
			continue
		}
		proto := strings.TrimSuffix(header[0], ":")
		fieldNames := header[1:]

		if !scanner.Scan() {
			break
		}
		values := strings.Fields(scanner.Text())
		if len(values) < 2 {
			continue
		}
		fieldValues := values[1:]

		n := len(fieldNames)
		if len(fieldValues) < n {
			n = len(fieldValues)
		}
		for i := 0; i < n; i++ {
			v, err := strconv.ParseUint(fieldValues[i], 10, 64)
			if err != nil {
				continue
			}
			into[in.Intern(proto+"."+fieldNames[i])] = v
		}
	}
}
