package chunkstore

import (
	"sync"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

// ChunkReader gives random access to the frames of one chunk file
// (spec §4.3 read). Frames decode lazily; the interner is decoded once
// at Open and cached by the reader's caller.
type ChunkReader struct {
	path     string
	data     []byte
	closer   func() error
	interner *interner.Interner
	frames   []frameEntry
}

// OpenChunk memory-maps path and decodes its header.
func OpenChunk(path string) (*ChunkReader, error) {
	in, frames, data, closer, err := readChunkHeader(path)
	if err != nil {
		return nil, err
	}
	return &ChunkReader{path: path, data: data, closer: closer, interner: in, frames: frames}, nil
}

// Close releases the chunk's memory mapping.
func (c *ChunkReader) Close() error {
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

// NumFrames returns the number of snapshots in the chunk.
func (c *ChunkReader) NumFrames() int { return len(c.frames) }

// FrameTimestamp returns the timestamp of the i-th frame without
// decoding its body.
func (c *ChunkReader) FrameTimestamp(i int) int64 { return c.frames[i].timestamp }

// Interner returns the chunk-scoped string interner.
func (c *ChunkReader) Interner() *interner.Interner { return c.interner }

// ReadFrame decompresses and decodes the i-th snapshot.
func (c *ChunkReader) ReadFrame(i int) (*model.Snapshot, error) {
	return decodeFrame(c.data, c.frames[i])
}

// Path returns the chunk's filesystem path.
func (c *ChunkReader) Path() string { return c.path }

// cacheEntry pairs an open reader with the path it was opened for.
type cacheEntry struct {
	path   string
	reader *ChunkReader
}

// ReaderCache is a single-entry LRU over open chunks (spec §4.3.2):
// repeated lookups within one chunk don't re-inflate its interner or
// re-mmap the file. Concurrent readers share it through a RWMutex;
// replacement briefly takes the write lock (spec §5).
type ReaderCache struct {
	mu      sync.RWMutex
	current *cacheEntry
}

// NewReaderCache creates an empty cache.
func NewReaderCache() *ReaderCache { return &ReaderCache{} }

// Get returns an open ChunkReader for path, reusing the cached one if
// it already matches, opening and caching a fresh one otherwise. The
// previous cached reader (if any, and if different) is closed.
func (rc *ReaderCache) Get(path string) (*ChunkReader, error) {
	rc.mu.RLock()
	if rc.current != nil && rc.current.path == path {
		r := rc.current.reader
		rc.mu.RUnlock()
		return r, nil
	}
	rc.mu.RUnlock()

	reader, err := OpenChunk(path)
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	// Another goroutine may have raced us to populate the same path;
	// prefer the winner and close our redundant mapping.
	if rc.current != nil && rc.current.path == path {
		_ = reader.Close()
		return rc.current.reader, nil
	}
	if rc.current != nil {
		_ = rc.current.reader.Close()
	}
	rc.current = &cacheEntry{path: path, reader: reader}
	return reader, nil
}
