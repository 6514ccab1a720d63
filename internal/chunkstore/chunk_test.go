package chunkstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

func makeSnapshot(ts int64, device string) (*model.Snapshot, *interner.Interner) {
	in := interner.New()
	h := in.Intern(device)
	snap := &model.Snapshot{
		Timestamp: ts,
		Blocks: []model.DataBlock{
			{Kind: model.BlockSystemDisk, SystemDisk: []model.SystemDisk{{DeviceHash: h, ReadsCompleted: uint64(ts)}}},
		},
	}
	return snap, in
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC).Unix()
	for i := int64(0); i < 3; i++ {
		snap, in := makeSnapshot(base+i, "sda")
		require.NoError(t, store.Append(snap, in))
	}
	require.NoError(t, store.Close())

	files, err := ListChunkFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	r, err := OpenChunk(files[0])
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 3, r.NumFrames())
	assert.Equal(t, base, r.FrameTimestamp(0))
	assert.Equal(t, base+2, r.FrameTimestamp(2))

	snap, err := r.ReadFrame(1)
	require.NoError(t, err)
	assert.Equal(t, base+1, snap.Timestamp)
	disk := snap.Find(model.BlockSystemDisk)
	require.NotNil(t, disk)
	require.Len(t, disk.SystemDisk, 1)
	name, ok := r.Interner().Resolve(disk.SystemDisk[0].DeviceHash)
	require.True(t, ok)
	assert.Equal(t, "sda", name)
}

func TestStoreFlushesOnHourBoundary(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	hour1 := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC).Unix()
	hour2 := time.Date(2026, 1, 1, 11, 5, 0, 0, time.UTC).Unix()

	snap1, in1 := makeSnapshot(hour1, "sda")
	require.NoError(t, store.Append(snap1, in1))
	snap2, in2 := makeSnapshot(hour2, "sda")
	require.NoError(t, store.Append(snap2, in2))
	require.NoError(t, store.Close())

	files, err := ListChunkFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRotateByAge(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 30; i++ {
		hour := now.Add(-8 * 24 * time.Hour).Add(-time.Duration(i) * time.Hour)
		writeFakeChunk(t, dir, hour, 10<<20)
	}

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	result, err := store.Rotate(RotationPolicy{MaxAgeDays: 7, MaxBytes: 10 << 30}, now)
	require.NoError(t, err)
	assert.Equal(t, 30, result.FilesRemovedByAge)
	assert.Equal(t, 0, result.FilesRemaining)
	assert.Equal(t, int64(0), result.TotalSizeAfter)
}

func TestRotateBySize(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		hour := now.Add(-time.Duration(10-i) * time.Hour)
		writeFakeChunk(t, dir, hour, 200<<20)
	}

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	result, err := store.Rotate(RotationPolicy{MaxAgeDays: 365, MaxBytes: 1 << 30}, now)
	require.NoError(t, err)
	assert.Equal(t, 5, result.FilesRemovedBySize)
	assert.Equal(t, 5, result.FilesRemaining)
	assert.Equal(t, int64(5*(200<<20)), result.TotalSizeAfter)
}

// writeFakeChunk creates a correctly-named, correctly-sized chunk file
// without going through Store, so Rotate's age/size accounting can be
// exercised without writing gigabytes of real snapshot data.
func writeFakeChunk(t *testing.T, dir string, hour time.Time, size int64) {
	t.Helper()
	path := filepath.Join(dir, chunkFileName(hour))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}
