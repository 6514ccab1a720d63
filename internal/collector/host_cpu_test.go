package collector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const procStatSample = `cpu  1000 0 500 8000 100 0 50 0 0 0
cpu0 500 0 250 4000 50 0 25 0 0 0
cpu1 500 0 250 4000 50 0 25 0 0 0
intr 12345 0 0 0
ctxt 98765
btime 1700000000
processes 4321
procs_running 3
procs_blocked 1
`

func TestParseSystemCPU(t *testing.T) {
	rows, err := parseSystemCPU(strings.NewReader(procStatSample))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, int32(-1), rows[0].CPUID)
	assert.Equal(t, uint64(1000), rows[0].UserJiffies)
	assert.Equal(t, uint64(8000), rows[0].IdleJiffies)
	assert.Equal(t, uint64(100), rows[0].IowaitJiffies)
	assert.Equal(t, uint64(50), rows[0].SoftirqJiffies)

	assert.Equal(t, int32(0), rows[1].CPUID)
	assert.Equal(t, int32(1), rows[2].CPUID)
}

func TestParseSystemStat(t *testing.T) {
	s, err := parseSystemStat(strings.NewReader(procStatSample))
	require.NoError(t, err)

	assert.Equal(t, uint64(98765), s.ContextSwitchesTotal)
	assert.Equal(t, uint64(4321), s.ProcessesTotal)
	assert.Equal(t, uint64(3), s.ProcsRunning)
	assert.Equal(t, uint64(1), s.ProcsBlocked)
	assert.Equal(t, int64(1700000000), s.BootTimeEpoch)
}

func TestParseSystemCPUSkipsMalformedLabel(t *testing.T) {
	rows, err := parseSystemCPU(strings.NewReader("cpuX 1 2 3 4\ncpu 1 2 3 4 5 6 7 8 9 10\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(-1), rows[0].CPUID)
}
