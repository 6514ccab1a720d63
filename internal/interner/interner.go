// Package interner implements content-addressed string deduplication
// scoped to a single chunk (spec §4.1). Strings are addressed by their
// 64-bit xxhash, not by sequence number, so two snapshots in the same
// chunk that reference the same query text or process name share one
// copy on disk.
package interner

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Hash is the 64-bit content hash of an interned string. The zero value
// is reserved to mean "absent" (spec §3.1: empty string and zero hash
// are interchangeable).
type Hash = uint64

// Interner maps content hashes to the strings they were computed from.
// It is safe for concurrent use: the collector may intern strings from
// several readers (procfs, postgres) in parallel before a snapshot is
// assembled.
type Interner struct {
	mu sync.RWMutex
	m  map[Hash]string
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{m: make(map[Hash]string)}
}

// Sum64 computes the content hash used to address s. Two distinct
// strings colliding on this 64-bit hash are treated as the same string;
// this is a documented, accepted caveat (spec §4.1).
func Sum64(s string) Hash {
	if s == "" {
		return 0
	}
	return xxhash.Sum64String(s)
}

// Intern returns the hash of s, inserting s on first sight. Intern is
// idempotent: reinterning an already-known string is a no-op besides
// the lookup, and concurrent calls with equal strings always agree on
// the resulting hash.
func (in *Interner) Intern(s string) Hash {
	if s == "" {
		return 0
	}
	h := Sum64(s)

	in.mu.RLock()
	_, ok := in.m[h]
	in.mu.RUnlock()
	if ok {
		return h
	}

	in.mu.Lock()
	// Collisions are assumed not to occur (spec §4.1); keep whichever
	// string got there first.
	if _, ok := in.m[h]; !ok {
		in.m[h] = s
	}
	in.mu.Unlock()

	return h
}

// Resolve returns the string stored for h, or "", false if absent.
func (in *Interner) Resolve(h Hash) (string, bool) {
	if h == 0 {
		return "", false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	s, ok := in.m[h]
	return s, ok
}

// Len returns the number of distinct strings currently held.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.m)
}

// Merge inserts every mapping from other into in. On a (hypothetical)
// conflict the existing entry wins, consistent with the no-collision
// assumption that both entries would be equal anyway.
func (in *Interner) Merge(other *Interner) {
	if other == nil {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	for h, s := range other.m {
		if _, ok := in.m[h]; !ok {
			in.m[h] = s
		}
	}
}

// Filter returns a fresh interner containing only the entries whose
// hash is present in live. Used at chunk flush time to drop strings no
// longer reachable from any buffered snapshot (spec §4.3).
func (in *Interner) Filter(live map[Hash]struct{}) *Interner {
	out := New()
	in.mu.RLock()
	defer in.mu.RUnlock()
	for h := range live {
		if h == 0 {
			continue
		}
		if s, ok := in.m[h]; ok {
			out.m[h] = s
		}
	}
	return out
}

// All returns a snapshot copy of the hash->string mapping, for
// serialization.
func (in *Interner) All() map[Hash]string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make(map[Hash]string, len(in.m))
	for h, s := range in.m {
		out[h] = s
	}
	return out
}

// FromMap builds an interner pre-populated from a decoded mapping, used
// when loading a chunk header off disk.
func FromMap(m map[Hash]string) *Interner {
	in := New()
	for h, s := range m {
		in.m[h] = s
	}
	return in
}
