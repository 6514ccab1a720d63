package chunkstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaponry/snapwatch/internal/model"
)

func TestSidecarEncodeDecodeRoundTrip(t *testing.T) {
	entries := []MetricsEntry{
		{ActiveSessions: 3, CPUPctX10: 450},
		{ActiveSessions: 0, CPUPctX10: 0},
		{ActiveSessions: 12, CPUPctX10: 1000},
	}

	got, err := DecodeSidecar(EncodeSidecar(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestDecodeSidecarRejectsMisalignedLength(t *testing.T) {
	_, err := DecodeSidecar([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestComputeMetricsEntryCountsActiveSessions(t *testing.T) {
	idle := idleStateHash
	active := idleStateHash + 1 // any hash distinct from "idle"'s

	snap := &model.Snapshot{Blocks: []model.DataBlock{
		{Kind: model.BlockPgStatActivity, PgStatActivity: []model.PgStatActivity{
			{StateHash: idle},
			{StateHash: active},
			{StateHash: active},
		}},
	}}

	entry := ComputeMetricsEntry(snap, nil)
	assert.Equal(t, uint16(2), entry.ActiveSessions)
	assert.Equal(t, uint16(0), entry.CPUPctX10)
}

func TestComputeMetricsEntryCPUPercent(t *testing.T) {
	prev := &model.SystemCPU{CPUID: -1, UserJiffies: 100, IdleJiffies: 900}
	curr := &model.SystemCPU{CPUID: -1, UserJiffies: 150, IdleJiffies: 940}
	snap := &model.Snapshot{Blocks: []model.DataBlock{
		{Kind: model.BlockSystemCPU, SystemCPU: []model.SystemCPU{*curr}},
	}}

	entry := ComputeMetricsEntry(snap, prev)
	// total delta = 50(user) + 40(idle) = 90, busy = 50, pct = 50/90*1000 ~= 555
	assert.InDelta(t, 555, int(entry.CPUPctX10), 2)
}

func TestBucketMetricsTakesMaxPerBucket(t *testing.T) {
	entries := []MetricsEntry{
		{ActiveSessions: 1}, {ActiveSessions: 5}, {ActiveSessions: 2},
		{ActiveSessions: 3}, {ActiveSessions: 1}, {ActiveSessions: 9},
	}
	out := BucketMetrics(entries, 2)
	require.Len(t, out, 2)
	assert.Equal(t, uint16(5), out[0].ActiveSessions)
	assert.Equal(t, uint16(9), out[1].ActiveSessions)
}

func TestBucketMetricsEmptyInput(t *testing.T) {
	out := BucketMetrics(nil, 3)
	assert.Len(t, out, 3)
	for _, e := range out {
		assert.Equal(t, MetricsEntry{}, e)
	}
}
