package chunkstore

import (
	"encoding/binary"
	"fmt"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

// MetricsEntry is one 4-byte sidecar record (spec §3.1, §4.3.1): enough
// to render a timeline without decompressing the chunk it summarizes.
type MetricsEntry struct {
	ActiveSessions uint16
	CPUPctX10      uint16
}

const sidecarEntrySize = 4

// idleStateHash is interner.Sum64("idle"), the 64-bit XXH64 hash
// (cespare/xxhash, not XXH3) that decides whether a pg_stat_activity
// row counts as an active session.
var idleStateHash = interner.Sum64("idle")

// ComputeMetricsEntry derives the sidecar record for snap, given the
// aggregate SystemCpu(cpu_id=-1) row of the previous snapshot in the
// same chunk (nil for the first snapshot of a chunk, per spec §4.3.1).
func ComputeMetricsEntry(snap *model.Snapshot, prevAggregateCPU *model.SystemCPU) MetricsEntry {
	var entry MetricsEntry

	if b := snap.Find(model.BlockPgStatActivity); b != nil {
		count := 0
		for _, a := range b.PgStatActivity {
			if a.StateHash != idleStateHash {
				count++
			}
		}
		if count > 0xFFFF {
			count = 0xFFFF
		}
		entry.ActiveSessions = uint16(count)
	}

	if prevAggregateCPU != nil {
		if cur := aggregateCPU(snap); cur != nil {
			totalDelta := diffUint64(cur.Total(), prevAggregateCPU.Total())
			idleDelta := diffUint64(cur.Idle(), prevAggregateCPU.Idle())
			if totalDelta > 0 && idleDelta <= totalDelta {
				busy := totalDelta - idleDelta
				pct := float64(busy) / float64(totalDelta) * 1000
				if pct > 0xFFFF {
					pct = 0xFFFF
				}
				entry.CPUPctX10 = uint16(pct)
			}
		}
	}

	return entry
}

func diffUint64(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// aggregateCPU returns the cpu_id=-1 row from snap's SystemCpu block,
// or nil if absent.
func aggregateCPU(snap *model.Snapshot) *model.SystemCPU {
	b := snap.Find(model.BlockSystemCPU)
	if b == nil {
		return nil
	}
	for i := range b.SystemCPU {
		if b.SystemCPU[i].CPUID == -1 {
			return &b.SystemCPU[i]
		}
	}
	return nil
}

// EncodeSidecar packs entries into the on-disk little-endian layout
// described in spec §6.1.
func EncodeSidecar(entries []MetricsEntry) []byte {
	out := make([]byte, len(entries)*sidecarEntrySize)
	for i, e := range entries {
		binary.LittleEndian.PutUint16(out[i*sidecarEntrySize:], e.ActiveSessions)
		binary.LittleEndian.PutUint16(out[i*sidecarEntrySize+2:], e.CPUPctX10)
	}
	return out
}

// DecodeSidecar is the inverse of EncodeSidecar.
func DecodeSidecar(b []byte) ([]MetricsEntry, error) {
	if len(b)%sidecarEntrySize != 0 {
		return nil, fmt.Errorf("chunkstore: sidecar length %d is not a multiple of %d", len(b), sidecarEntrySize)
	}
	n := len(b) / sidecarEntrySize
	out := make([]MetricsEntry, n)
	for i := 0; i < n; i++ {
		out[i].ActiveSessions = binary.LittleEndian.Uint16(b[i*sidecarEntrySize:])
		out[i].CPUPctX10 = binary.LittleEndian.Uint16(b[i*sidecarEntrySize+2:])
	}
	return out, nil
}

// BucketMetrics aggregates entries (in chunk/timeline order) into
// numBuckets buckets, taking the max of each metric per bucket (spec
// §4.3.1, property "heatmap bucket monotonicity"). Buckets with no
// underlying samples are left at zero.
func BucketMetrics(entries []MetricsEntry, numBuckets int) []MetricsEntry {
	out := make([]MetricsEntry, numBuckets)
	if numBuckets <= 0 || len(entries) == 0 {
		return out
	}
	for i, e := range entries {
		bucket := i * numBuckets / len(entries)
		if bucket >= numBuckets {
			bucket = numBuckets - 1
		}
		if e.ActiveSessions > out[bucket].ActiveSessions {
			out[bucket].ActiveSessions = e.ActiveSessions
		}
		if e.CPUPctX10 > out[bucket].CPUPctX10 {
			out[bucket].CPUPctX10 = e.CPUPctX10
		}
	}
	return out
}
