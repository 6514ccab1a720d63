package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaponry/snapwatch/internal/model"
)

func TestDiffCountersRate(t *testing.T) {
	prev := &model.Snapshot{Timestamp: 1000, Blocks: []model.DataBlock{
		{Kind: model.BlockSystemNet, SystemNet: []model.SystemNet{{DeviceHash: 1, RxBytes: 1000, TxBytes: 500}}},
	}}
	curr := &model.Snapshot{Timestamp: 1010, Blocks: []model.DataBlock{
		{Kind: model.BlockSystemNet, SystemNet: []model.SystemNet{{DeviceHash: 1, RxBytes: 2000, TxBytes: 600}}},
	}}

	d := Diff(prev, curr)
	require.NotNil(t, d)
	rx := d.Net[1].RxBytesPS
	require.NotNil(t, rx)
	assert.InDelta(t, 100.0, *rx, 0.001)
}

func TestDiffCounterResetIsAbsentNotZero(t *testing.T) {
	prev := &model.Snapshot{Timestamp: 1000, Blocks: []model.DataBlock{
		{Kind: model.BlockSystemNet, SystemNet: []model.SystemNet{{DeviceHash: 1, RxBytes: 5000}}},
	}}
	curr := &model.Snapshot{Timestamp: 1010, Blocks: []model.DataBlock{
		// Counter dropped below its previous value (process/interface restart).
		{Kind: model.BlockSystemNet, SystemNet: []model.SystemNet{{DeviceHash: 1, RxBytes: 10}}},
	}}

	d := Diff(prev, curr)
	require.NotNil(t, d)
	assert.Nil(t, d.Net[1].RxBytesPS)
}

func TestDiffStatementDisappearingQueryIDHasNoRate(t *testing.T) {
	prev := &model.Snapshot{Timestamp: 1000, Blocks: []model.DataBlock{
		{Kind: model.BlockPgStatStatements, PgStatStatements: []model.PgStatStatement{{QueryID: 42, Calls: 10}}},
	}}
	curr := &model.Snapshot{Timestamp: 1010, Blocks: []model.DataBlock{
		{Kind: model.BlockPgStatStatements, PgStatStatements: []model.PgStatStatement{{QueryID: 99, Calls: 1}}},
	}}

	d := Diff(prev, curr)
	require.NotNil(t, d)
	_, ok := d.Statements[42]
	assert.False(t, ok)
}

func TestDiffProcessDiedChildCorrection(t *testing.T) {
	// Parent pid 1 had a child pid 2 that read 300 bytes and then
	// exited; Linux folds that into pid 1's /proc/1/io cumulative
	// counter. Without correction the parent would show a 300-byte
	// spike that it never actually performed this tick.
	prev := &model.Snapshot{Timestamp: 1000, Blocks: []model.DataBlock{
		{Kind: model.BlockProcesses, Processes: []model.Process{
			{PID: 1, PPID: 0, ReadBytes: 100},
			{PID: 2, PPID: 1, ReadBytes: 300},
		}},
	}}
	curr := &model.Snapshot{Timestamp: 1010, Blocks: []model.DataBlock{
		{Kind: model.BlockProcesses, Processes: []model.Process{
			{PID: 1, PPID: 0, ReadBytes: 100 + 300 + 50}, // own 50 bytes plus inherited 300
		}},
	}}

	d := Diff(prev, curr)
	require.NotNil(t, d)
	rate := d.Processes[1].ReadBytesPS
	require.NotNil(t, rate)
	assert.InDelta(t, 5.0, *rate, 0.001) // 50 bytes / 10s, not 350/10s
}

func TestDiffProcessDiedChildCorrectionClampsNegativeToZero(t *testing.T) {
	// Parent's own I/O this tick is smaller than the inherited chunk,
	// so raw_delta - B goes negative; spec says floor at zero, not
	// treat it as an absent counter reset.
	prev := &model.Snapshot{Timestamp: 1000, Blocks: []model.DataBlock{
		{Kind: model.BlockProcesses, Processes: []model.Process{
			{PID: 1, PPID: 0, ReadBytes: 100},
			{PID: 2, PPID: 1, ReadBytes: 300},
		}},
	}}
	curr := &model.Snapshot{Timestamp: 1010, Blocks: []model.DataBlock{
		{Kind: model.BlockProcesses, Processes: []model.Process{
			{PID: 1, PPID: 0, ReadBytes: 100 + 250}, // grew 250, less than the inherited 300
		}},
	}}

	d := Diff(prev, curr)
	require.NotNil(t, d)
	rate := d.Processes[1].ReadBytesPS
	require.NotNil(t, rate)
	assert.InDelta(t, 0.0, *rate, 0.001)
}

func TestHitPctNoTrafficIsAbsent(t *testing.T) {
	assert.Nil(t, hitPct(0, 0))
	got := hitPct(90, 10)
	require.NotNil(t, got)
	assert.InDelta(t, 90.0, *got, 0.001)
}
