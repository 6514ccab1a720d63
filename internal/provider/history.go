package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/weaponry/snapwatch/internal/chunkstore"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
)

// frameRef locates one snapshot within an indexed chunk directory.
type frameRef struct {
	chunkPath string
	frame     int
	timestamp int64
}

// HistoryProvider indexes every chunk in a directory on construction
// and lazily decodes snapshots on demand through a single-entry reader
// cache (spec §4.6.1, §4.3.2). advance()/rewind() move a cursor;
// seek_to() binary-searches the indexed timestamps.
type HistoryProvider struct {
	mu    sync.RWMutex
	dir   string
	cache *chunkstore.ReaderCache

	frames []frameRef
	cursor int // -1 before the first Advance

	instanceInfo InstanceInfo
}

// NewHistory indexes every chunk file under dir. info is static
// metadata about the recording (no live database to query).
func NewHistory(dir string, info InstanceInfo) (*HistoryProvider, error) {
	paths, err := chunkstore.ListChunkFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("provider: list chunks: %w", err)
	}

	var frames []frameRef
	for _, path := range paths {
		r, err := chunkstore.OpenChunk(path)
		if err != nil {
			log.Warnf("provider: skip unreadable chunk %s: %s", path, err)
			continue
		}
		for i := 0; i < r.NumFrames(); i++ {
			frames = append(frames, frameRef{chunkPath: path, frame: i, timestamp: r.FrameTimestamp(i)})
		}
		_ = r.Close()
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].timestamp < frames[j].timestamp })

	return &HistoryProvider{
		dir:          dir,
		cache:        chunkstore.NewReaderCache(),
		frames:       frames,
		cursor:       -1,
		instanceInfo: info,
	}, nil
}

func (p *HistoryProvider) decode(ref frameRef) (*model.Snapshot, *interner.Interner, error) {
	r, err := p.cache.Get(ref.chunkPath)
	if err != nil {
		return nil, nil, err
	}
	snap, err := r.ReadFrame(ref.frame)
	if err != nil {
		return nil, nil, err
	}
	return snap, r.Interner(), nil
}

func (p *HistoryProvider) Current() (*model.Snapshot, *interner.Interner, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cursor < 0 || p.cursor >= len(p.frames) {
		return nil, nil, false
	}
	snap, in, err := p.decode(p.frames[p.cursor])
	if err != nil {
		log.Warnf("provider: decode current frame: %s", err)
		return nil, nil, false
	}
	return snap, in, true
}

// Advance moves the cursor forward one frame. ctx is unused (no
// external calls are made) but kept to satisfy the Provider interface.
func (p *HistoryProvider) Advance(ctx context.Context) (*model.Snapshot, *interner.Interner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor+1 >= len(p.frames) {
		return nil, nil, fmt.Errorf("provider: at end of history")
	}
	p.cursor++
	return p.decode(p.frames[p.cursor])
}

func (p *HistoryProvider) Rewind() (*model.Snapshot, *interner.Interner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor <= 0 {
		return nil, nil, fmt.Errorf("provider: at start of history")
	}
	p.cursor--
	return p.decode(p.frames[p.cursor])
}

// SeekTo moves the cursor to the frame whose timestamp is the closest
// one at or before ts (spec §4.6.1: "binary search over the
// metadata").
func (p *HistoryProvider) SeekTo(ts int64) (*model.Snapshot, *interner.Interner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return nil, nil, fmt.Errorf("provider: empty history")
	}
	idx := sort.Search(len(p.frames), func(i int) bool { return p.frames[i].timestamp > ts })
	if idx == 0 {
		idx = 1
	}
	p.cursor = idx - 1
	return p.decode(p.frames[p.cursor])
}

func (p *HistoryProvider) CanRewind() bool { return true }
func (p *HistoryProvider) IsLive() bool    { return false }
func (p *HistoryProvider) LastError() error { return nil }

func (p *HistoryProvider) Interner() *interner.Interner {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cursor < 0 || p.cursor >= len(p.frames) {
		return nil
	}
	_, in, err := p.decode(p.frames[p.cursor])
	if err != nil {
		return nil
	}
	return in
}

func (p *HistoryProvider) TimelineBounds() (time.Time, time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.frames) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first := time.Unix(p.frames[0].timestamp, 0).UTC()
	last := time.Unix(p.frames[len(p.frames)-1].timestamp, 0).UTC()
	return first, last, true
}

func (p *HistoryProvider) TotalCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.frames)
}

func (p *HistoryProvider) PerDateCounts() []DateCount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	counts := map[string]int{}
	for _, f := range p.frames {
		d := time.Unix(f.timestamp, 0).UTC().Format("2006-01-02")
		counts[d]++
	}
	out := make([]DateCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DateCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (p *HistoryProvider) InstanceInfo(ctx context.Context) InstanceInfo {
	return p.instanceInfo
}
