package chunkstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

// RotationPolicy bounds how much history a Store keeps on disk (spec
// §4.3.3).
type RotationPolicy struct {
	MaxAgeDays int
	MaxBytes   int64
}

// RotationResult reports what a Rotate pass removed and what remains
// on disk afterward (spec §4.3.3's documented return tuple).
type RotationResult struct {
	FilesRemovedByAge  int
	FilesRemovedBySize int
	BytesFreed         int64
	FilesRemaining     int
	TotalSizeAfter     int64
}

// Store manages the sequence of hourly chunk files under Dir: it
// buffers snapshots for the chunk currently being written, flushes it
// to disk on rotation or Close, and applies a RotationPolicy to the
// directory's existing chunk files (spec §4.3).
type Store struct {
	Dir string

	mu             sync.Mutex
	scratch        *interner.Interner
	buffered       []*model.Snapshot
	currentHour    time.Time
	prevAggregate  *model.SystemCPU
	sidecarEntries []MetricsEntry
}

// NewStore opens (creating if needed) a chunk directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunkstore: create dir %s: %w", dir, err)
	}
	return &Store{Dir: dir, scratch: interner.New()}, nil
}

// Append adds snap to the in-memory chunk buffer, interning any new
// strings snap references through src. It flushes the previous hour's
// buffer first if snap falls in a new UTC hour (spec §4.3: "chunks are
// keyed by wall-clock hour").
func (s *Store) Append(snap *model.Snapshot, src *interner.Interner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour := time.Unix(snap.Timestamp, 0).UTC().Truncate(time.Hour)
	if !s.currentHour.IsZero() && !hour.Equal(s.currentHour) && len(s.buffered) > 0 {
		if err := s.flushLocked(); err != nil {
			return err
		}
	}
	s.currentHour = hour

	live := make(map[uint64]struct{})
	ReachableHashes(snap, live)
	for h := range live {
		if str, ok := src.Resolve(h); ok {
			s.scratch.Merge(interner.FromMap(map[uint64]string{h: str}))
		}
	}

	entry := ComputeMetricsEntry(snap, s.prevAggregate)
	s.sidecarEntries = append(s.sidecarEntries, entry)
	if b := snap.Find(model.BlockSystemCPU); b != nil {
		for i := range b.SystemCPU {
			if b.SystemCPU[i].CPUID == -1 {
				cpu := b.SystemCPU[i]
				s.prevAggregate = &cpu
			}
		}
	}

	s.buffered = append(s.buffered, snap)
	return nil
}

// Flush writes the current in-memory chunk (if non-empty) to disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if len(s.buffered) == 0 {
		return nil
	}

	live := make(map[uint64]struct{})
	for _, snap := range s.buffered {
		ReachableHashes(snap, live)
	}
	filtered := s.scratch.Filter(live)

	chunkPath := filepath.Join(s.Dir, chunkFileName(s.currentHour))
	if err := writeChunkFile(chunkPath, filtered, s.buffered); err != nil {
		return err
	}

	sidecarPath := filepath.Join(s.Dir, metricsFileName(s.currentHour))
	if err := os.WriteFile(sidecarPath, EncodeSidecar(s.sidecarEntries), 0o644); err != nil {
		return fmt.Errorf("chunkstore: write sidecar: %w", err)
	}

	s.buffered = nil
	s.sidecarEntries = nil
	s.scratch = interner.New()
	s.prevAggregate = nil
	return nil
}

// Close flushes any buffered snapshots.
func (s *Store) Close() error {
	return s.Flush()
}

// chunkAgeInfo pairs a chunk file path with the hour it covers, parsed
// from its filename.
type chunkAgeInfo struct {
	path string
	hour time.Time
	size int64
}

// Rotate enforces policy over Dir's existing chunk files: files older
// than MaxAgeDays are removed first, then, if total size still
// exceeds MaxBytes, the oldest remaining files are removed until it
// fits (spec §4.3.3). Each chunk's sidecar (.metrics) file is removed
// alongside it.
func (s *Store) Rotate(policy RotationPolicy, now time.Time) (RotationResult, error) {
	var result RotationResult

	paths, err := listChunkFiles(s.Dir)
	if err != nil {
		return result, err
	}

	infos := make([]chunkAgeInfo, 0, len(paths))
	for _, p := range paths {
		hour, err := time.Parse(hourLayout, trimExt(filepath.Base(p)))
		if err != nil {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		infos = append(infos, chunkAgeInfo{path: p, hour: hour, size: fi.Size()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].hour.Before(infos[j].hour) })

	var kept []chunkAgeInfo
	if policy.MaxAgeDays > 0 {
		cutoff := now.Add(-time.Duration(policy.MaxAgeDays) * 24 * time.Hour)
		for _, info := range infos {
			if info.hour.Before(cutoff) {
				if err := s.removeChunk(info.path); err != nil {
					return result, err
				}
				result.FilesRemovedByAge++
				result.BytesFreed += info.size
				continue
			}
			kept = append(kept, info)
		}
	} else {
		kept = infos
	}

	var total int64
	for _, info := range kept {
		total += info.size
	}

	if policy.MaxBytes > 0 {
		i := 0
		for total > policy.MaxBytes && i < len(kept) {
			if err := s.removeChunk(kept[i].path); err != nil {
				return result, err
			}
			result.FilesRemovedBySize++
			result.BytesFreed += kept[i].size
			total -= kept[i].size
			i++
		}
	}

	result.FilesRemaining = len(kept) - result.FilesRemovedBySize
	result.TotalSizeAfter = total

	return result, nil
}

func (s *Store) removeChunk(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	sidecar := path[:len(path)-len(filepath.Ext(path))] + ".metrics"
	if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
