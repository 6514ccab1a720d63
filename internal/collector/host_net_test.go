package collector

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaponry/snapwatch/internal/filter"
	"github.com/weaponry/snapwatch/internal/interner"
)

const procNetDevSample = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 1000000    2000    0    0    0     0          0         0  1000000    2000    0    0    0     0       0          0
  eth0: 5000000   10000    1    2    0     0          0         0  3000000    8000    0    1    0     0       0          0
docker0:  200000     400    0    0    0     0          0         0   100000     300    0    0    0     0       0          0
`

func TestParseSystemNet(t *testing.T) {
	in := interner.New()
	rows, err := parseSystemNet(strings.NewReader(procNetDevSample), in, filter.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	name, ok := in.Resolve(rows[1].DeviceHash)
	require.True(t, ok)
	assert.Equal(t, "eth0", name)
	assert.Equal(t, uint64(5000000), rows[1].RxBytes)
	assert.Equal(t, uint64(10000), rows[1].RxPackets)
	assert.Equal(t, uint64(1), rows[1].RxErrs)
	assert.Equal(t, uint64(3000000), rows[1].TxBytes)
	assert.Equal(t, uint64(1), rows[1].TxDrop)
}

func TestParseSystemNetExcludesFilteredDevice(t *testing.T) {
	in := interner.New()
	f := filter.Filter{Exclude: `docker|virbr`, ExcludeRE: regexp.MustCompile(`docker|virbr`)}

	rows, err := parseSystemNet(strings.NewReader(procNetDevSample), in, f)
	require.NoError(t, err)
	for _, r := range rows {
		name, _ := in.Resolve(r.DeviceHash)
		assert.NotEqual(t, "docker0", name)
	}
	assert.Len(t, rows, 2)
}

func TestParseSystemNetMissingHeader(t *testing.T) {
	in := interner.New()
	_, err := parseSystemNet(strings.NewReader(""), in, filter.Filter{})
	assert.Error(t, err)
}
