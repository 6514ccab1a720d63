//go:build unix

package chunkstore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile memory-maps path read-only (spec §3.3: "Chunk (reading):
// memory-maps .zst"). The returned closer must be called once the
// mapping is no longer needed; callers normally do so when the chunk
// is evicted from the reader cache.
func mmapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := fi.Size()
	if size == 0 {
		return nil, func() error { return nil }, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("chunkstore: mmap %s: %w", path, err)
	}
	closer := func() error { return unix.Munmap(data) }
	return data, closer, nil
}
