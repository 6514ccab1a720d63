package provider

import (
	"context"
	"sync"
	"time"

	"github.com/weaponry/snapwatch/internal/chunkstore"
	"github.com/weaponry/snapwatch/internal/collector"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
)

// LiveProvider drives the Collector on each Advance and, if a chunk
// store is configured, persists every snapshot through it before
// returning it (spec §4.6.1). It is the sole mutator of collector
// state; Rewind/SeekTo are unsupported.
type LiveProvider struct {
	mu sync.RWMutex

	col   *collector.Collector
	store *chunkstore.Store

	current   *model.Snapshot
	interner  *interner.Interner
	count     int
	firstTS   time.Time
	lastTS    time.Time
	dateCount map[string]int
}

// NewLive wraps col, optionally persisting every advanced snapshot
// into store (nil disables persistence, e.g. for a dry-run CLI mode).
func NewLive(col *collector.Collector, store *chunkstore.Store) *LiveProvider {
	return &LiveProvider{col: col, store: store, dateCount: map[string]int{}}
}

func (p *LiveProvider) Current() (*model.Snapshot, *interner.Interner, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.interner, p.current != nil
}

// Advance calls the Collector, persists the result, and records it as
// current (spec §4.6.1).
func (p *LiveProvider) Advance(ctx context.Context) (*model.Snapshot, *interner.Interner, error) {
	now := time.Now()
	snap, in := p.col.Tick(ctx, now)

	if p.store != nil {
		if err := p.store.Append(snap, in); err != nil {
			log.Warnf("provider: append to chunk store: %s", err)
		}
	}

	p.mu.Lock()
	p.current, p.interner = snap, in
	p.count++
	ts := time.Unix(snap.Timestamp, 0).UTC()
	if p.firstTS.IsZero() {
		p.firstTS = ts
	}
	p.lastTS = ts
	p.dateCount[ts.Format("2006-01-02")]++
	p.mu.Unlock()

	return snap, in, nil
}

func (p *LiveProvider) Rewind() (*model.Snapshot, *interner.Interner, error) {
	return nil, nil, errUnsupported("rewind")
}

func (p *LiveProvider) SeekTo(ts int64) (*model.Snapshot, *interner.Interner, error) {
	return nil, nil, errUnsupported("seek_to")
}

func (p *LiveProvider) CanRewind() bool { return false }
func (p *LiveProvider) IsLive() bool    { return true }

func (p *LiveProvider) LastError() error {
	return p.col.LastError()
}

func (p *LiveProvider) Interner() *interner.Interner {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interner
}

func (p *LiveProvider) TimelineBounds() (time.Time, time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.firstTS, p.lastTS, !p.firstTS.IsZero()
}

func (p *LiveProvider) TotalCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count
}

func (p *LiveProvider) PerDateCounts() []DateCount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]DateCount, 0, len(p.dateCount))
	for d, c := range p.dateCount {
		out = append(out, DateCount{Date: d, Count: c})
	}
	return out
}

func (p *LiveProvider) InstanceInfo(ctx context.Context) InstanceInfo {
	name, version, standby := p.col.InstanceInfo(ctx)
	return InstanceInfo{DatabaseName: name, ServerVersion: version, IsStandby: standby}
}

type unsupportedOpError string

func (e unsupportedOpError) Error() string { return string(e) + " is unsupported on a live provider" }

func errUnsupported(op string) error { return unsupportedOpError(op) }
