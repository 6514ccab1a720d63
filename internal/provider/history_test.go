package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaponry/snapwatch/internal/chunkstore"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

func writeTestChunk(t *testing.T, dir string, timestamps []int64) {
	t.Helper()
	store, err := chunkstore.NewStore(dir)
	require.NoError(t, err)

	for _, ts := range timestamps {
		in := interner.New()
		h := in.Intern("cpu0")
		snap := &model.Snapshot{
			Timestamp: ts,
			Blocks: []model.DataBlock{
				{Kind: model.BlockSystemDisk, SystemDisk: []model.SystemDisk{{DeviceHash: h, ReadsCompleted: uint64(ts)}}},
			},
		}
		require.NoError(t, store.Append(snap, in))
	}
	require.NoError(t, store.Close())
}

func TestHistoryProviderAdvanceAndRewind(t *testing.T) {
	dir := t.TempDir()
	base := int64(1700000000)
	writeTestChunk(t, dir, []int64{base, base + 1, base + 2})

	p, err := NewHistory(dir, InstanceInfo{DatabaseName: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalCount())
	assert.True(t, p.CanRewind())
	assert.False(t, p.IsLive())

	_, _, ok := p.Current()
	assert.False(t, ok, "cursor starts before the first frame")

	snap, _, err := p.Advance(nil)
	require.NoError(t, err)
	assert.Equal(t, base, snap.Timestamp)

	snap, _, err = p.Advance(nil)
	require.NoError(t, err)
	assert.Equal(t, base+1, snap.Timestamp)

	snap, _, err = p.Rewind()
	require.NoError(t, err)
	assert.Equal(t, base, snap.Timestamp)
}

func TestHistoryProviderSeekTo(t *testing.T) {
	dir := t.TempDir()
	base := int64(1700000000)
	writeTestChunk(t, dir, []int64{base, base + 10, base + 20})

	p, err := NewHistory(dir, InstanceInfo{})
	require.NoError(t, err)

	snap, _, err := p.SeekTo(base + 15)
	require.NoError(t, err)
	assert.Equal(t, base+10, snap.Timestamp)
}

func TestHistoryProviderTimelineBounds(t *testing.T) {
	dir := t.TempDir()
	base := int64(1700000000)
	writeTestChunk(t, dir, []int64{base, base + 5})

	p, err := NewHistory(dir, InstanceInfo{})
	require.NoError(t, err)

	start, end, ok := p.TimelineBounds()
	require.True(t, ok)
	assert.True(t, start.Before(end) || start.Equal(end))
}

func TestHistoryProviderEmptyDir(t *testing.T) {
	dir := t.TempDir()
	p, err := NewHistory(dir, InstanceInfo{})
	require.NoError(t, err)
	assert.Equal(t, 0, p.TotalCount())
	_, _, ok := p.TimelineBounds()
	assert.False(t, ok)
}
