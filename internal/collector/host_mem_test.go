package collector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const meminfoSample = `MemTotal:       16384000 kB
MemFree:         2048000 kB
MemAvailable:    8192000 kB
Buffers:          512000 kB
Cached:          3072000 kB
SwapTotal:       2048000 kB
SwapFree:        2048000 kB
Dirty:              4096 kB
Writeback:             0 kB
Shmem:            256000 kB
`

func TestParseSystemMem(t *testing.T) {
	m, err := parseSystemMem(strings.NewReader(meminfoSample))
	require.NoError(t, err)

	assert.Equal(t, uint64(16384000), m.MemTotalKB)
	assert.Equal(t, uint64(2048000), m.MemFreeKB)
	assert.Equal(t, uint64(8192000), m.MemAvailableKB)
	assert.Equal(t, uint64(512000), m.BuffersKB)
	assert.Equal(t, uint64(3072000), m.CachedKB)
	assert.Equal(t, uint64(2048000), m.SwapTotalKB)
	assert.Equal(t, uint64(2048000), m.SwapFreeKB)
	assert.Equal(t, uint64(4096), m.DirtyKB)
	assert.Equal(t, uint64(0), m.WritebackKB)
}

func TestParseSystemMemIgnoresUnknownKeys(t *testing.T) {
	m, err := parseSystemMem(strings.NewReader("Weird:    123 kB\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.MemTotalKB)
}
