// Package provider implements the cursor abstraction spec §4.6/§6.3
// puts in front of a live Collector or a directory of historical
// chunks: current(), advance(), rewind(), seek_to(), timeline bounds,
// and the last collection error. It is the only surface a future
// UI/web layer would depend on; none of that layer is built here
// (out of scope per spec.md §1).
package provider

import (
	"context"
	"time"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

// InstanceInfo is the provider's instance_info() result (spec §6.3).
type InstanceInfo struct {
	DatabaseName  string
	ServerVersion int
	IsStandby     bool
}

// DateCount is one entry of per_date_counts(), used by calendar UIs.
type DateCount struct {
	Date  string // YYYY-MM-DD, UTC
	Count int
}

// Provider is the cursor abstraction described in spec §4.6.1.
// IsLive() returns true for the live variant, where Rewind/SeekTo are
// unsupported (CanRewind() = false).
type Provider interface {
	Current() (*model.Snapshot, *interner.Interner, bool)
	Advance(ctx context.Context) (*model.Snapshot, *interner.Interner, error)
	Rewind() (*model.Snapshot, *interner.Interner, error)
	SeekTo(ts int64) (*model.Snapshot, *interner.Interner, error)
	CanRewind() bool
	IsLive() bool
	LastError() error
	Interner() *interner.Interner
	TimelineBounds() (start, end time.Time, ok bool)
	TotalCount() int
	PerDateCounts() []DateCount
	InstanceInfo(ctx context.Context) InstanceInfo
}
