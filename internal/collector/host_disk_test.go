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

const diskstats14 = `   8       0 sda 1000 50 20000 2000 500 10 8000 1000 0 1500 3000
   8      16 sdb 2000 0 40000 1000 100 0 2000 500 0 600 1500
`

const diskstats20 = `   8       0 sda 1000 50 20000 2000 500 10 8000 1000 0 1500 3000 0 0 0 0 0 0
 253       0 dm-0 300 0 6000 100 50 0 400 30 0 50 130
`

func TestParseSystemDiskColumnVariants(t *testing.T) {
	in := interner.New()
	rows, err := parseSystemDisk(strings.NewReader(diskstats14), in, filter.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	name, ok := in.Resolve(rows[0].DeviceHash)
	require.True(t, ok)
	assert.Equal(t, "sda", name)
	assert.Equal(t, uint64(1000), rows[0].ReadsCompleted)
	assert.Equal(t, uint64(50), rows[0].ReadsMerged)
	assert.Equal(t, uint64(20000), rows[0].SectorsRead)
	assert.Equal(t, uint64(3000), rows[0].WeightedIOTimeMs)

	in20 := interner.New()
	rows20, err := parseSystemDisk(strings.NewReader(diskstats20), in20, filter.Filter{})
	require.NoError(t, err)
	require.Len(t, rows20, 2)
	name20, ok := in20.Resolve(rows20[1].DeviceHash)
	require.True(t, ok)
	assert.Equal(t, "dm-0", name20)
}

func TestParseSystemDiskRejectsExcludedDevice(t *testing.T) {
	in := interner.New()
	f := filter.Filter{Exclude: `^loop\d+$`, ExcludeRE: regexp.MustCompile(`^loop\d+$`)}

	input := diskstats14 + "   7       0 loop0 10 0 200 5 0 0 0 0 0 0 0\n"
	rows, err := parseSystemDisk(strings.NewReader(input), in, f)
	require.NoError(t, err)

	for _, r := range rows {
		name, _ := in.Resolve(r.DeviceHash)
		assert.NotEqual(t, "loop0", name)
	}
	assert.Len(t, rows, 2)
}

func TestParseSystemDiskRejectsBadColumnCount(t *testing.T) {
	in := interner.New()
	_, err := parseSystemDisk(strings.NewReader("8 0 sda 1 2 3\n"), in, filter.Filter{})
	assert.Error(t, err)
}
