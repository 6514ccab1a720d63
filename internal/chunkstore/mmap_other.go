//go:build !unix

package chunkstore

import "os"

// mmapFile falls back to a plain read on platforms without POSIX mmap.
// The returned closer is a no-op since the bytes are a private copy.
func mmapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
