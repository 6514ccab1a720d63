// Package chunkstore implements the append-only, rotating, random-access
// log of snapshots described in spec §4.3: an on-disk encoding
// (this file and codec_host.go/codec_postgres.go), per-frame zstd
// compression (file.go), and a sidecar metrics file for timeline
// scanning without decompression (sidecar.go).
package chunkstore

import (
	"fmt"

	"github.com/weaponry/snapwatch/internal/model"
)

// codecVersion is written at the front of every frame so that a future
// decoder can branch on layout changes; current readers reject frames
// from a newer major version but happily decode older ones by treating
// fields unknown at encode time as defaulted (spec §4.2).
const codecVersion = 1

// EncodeSnapshot serializes one snapshot into a self-contained,
// uncompressed byte frame. The caller (chunk writer) is responsible for
// zstd-framing the result; keeping compression out of the codec keeps
// frame round-trip tests cheap (spec §8: "Chunk round-trip").
func EncodeSnapshot(s *model.Snapshot) []byte {
	w := newWriter()
	w.u8(codecVersion)
	w.varint(s.Timestamp)
	w.uvarint(uint64(len(s.Blocks)))
	for i := range s.Blocks {
		encodeBlock(w, &s.Blocks[i])
	}
	return w.Bytes()
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(b []byte) (*model.Snapshot, error) {
	r := newReader(b)

	ver, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("chunkstore: read version: %w", err)
	}
	if ver > codecVersion {
		return nil, fmt.Errorf("chunkstore: frame version %d newer than supported %d", ver, codecVersion)
	}

	ts, err := r.varint()
	if err != nil {
		return nil, fmt.Errorf("chunkstore: read timestamp: %w", err)
	}

	n, err := r.uvarint()
	if err != nil {
		return nil, fmt.Errorf("chunkstore: read block count: %w", err)
	}

	s := &model.Snapshot{Timestamp: ts, Blocks: make([]model.DataBlock, 0, n)}
	for i := uint64(0); i < n; i++ {
		blk, err := decodeBlock(r)
		if err != nil {
			return nil, fmt.Errorf("chunkstore: decode block %d: %w", i, err)
		}
		s.Blocks = append(s.Blocks, blk)
	}
	return s, nil
}

// ReachableHashes walks every interned-string field referenced by a
// snapshot and returns the set of hashes it uses. The chunk writer uses
// this at flush time to filter the scratch interner down to exactly
// what is reachable from the buffered snapshots (spec §4.3, §3.2).
func ReachableHashes(s *model.Snapshot, into map[uint64]struct{}) {
	add := func(h uint64) {
		if h != 0 {
			into[h] = struct{}{}
		}
	}
	for i := range s.Blocks {
		b := &s.Blocks[i]
		switch b.Kind {
		case model.BlockProcesses:
			for _, p := range b.Processes {
				add(p.CommHash)
				add(p.CmdlineHash)
			}
		case model.BlockCgroup:
			if b.Cgroup != nil {
				for _, e := range b.Cgroup.IO {
					add(e.DeviceHash)
				}
			}
		case model.BlockSystemDisk:
			for _, d := range b.SystemDisk {
				add(d.DeviceHash)
			}
		case model.BlockSystemNet:
			for _, n := range b.SystemNet {
				add(n.DeviceHash)
			}
		case model.BlockSystemVmstat:
			if b.SystemVmstat != nil {
				for h := range b.SystemVmstat.Counters {
					add(h)
				}
			}
		case model.BlockSystemNetSnmp:
			if b.SystemNetSnmp != nil {
				for h := range b.SystemNetSnmp.Counters {
					add(h)
				}
			}
		case model.BlockPgStatActivity:
			for _, a := range b.PgStatActivity {
				add(a.DatabaseHash)
				add(a.UsernameHash)
				add(a.StateHash)
				add(a.WaitEventTypeHash)
				add(a.WaitEventHash)
				add(a.QueryHash)
			}
		case model.BlockPgStatStatements:
			for _, st := range b.PgStatStatements {
				add(st.DatabaseHash)
				add(st.UsernameHash)
				add(st.QueryTextHash)
			}
		case model.BlockPgStatDatabase:
			for _, d := range b.PgStatDatabase {
				add(d.DatnameHash)
			}
		case model.BlockPgStatUserTables:
			for _, t := range b.PgStatUserTables {
				add(t.SchemaHash)
				add(t.RelnameHash)
			}
		case model.BlockPgStatUserIndexes:
			for _, idx := range b.PgStatUserIndexes {
				add(idx.SchemaHash)
				add(idx.RelnameHash)
				add(idx.IndexrelnameHash)
			}
		case model.BlockPgLockTree:
			for _, l := range b.PgLockTree {
				add(l.LockModeHash)
				add(l.RelationHash)
				add(l.QueryHash)
			}
		case model.BlockPgLogEvents:
			for _, e := range b.PgLogEvents {
				add(e.MessageHash)
				add(e.PatternHash)
			}
		case model.BlockPgSettings:
			for _, st := range b.PgSettings {
				add(st.NameHash)
				add(st.SettingHash)
				add(st.UnitHash)
			}
		}
	}
}

func encodeBlock(w *writer, b *model.DataBlock) {
	w.u8(uint8(b.Kind))
	switch b.Kind {
	case model.BlockProcesses:
		encodeProcesses(w, b.Processes)
	case model.BlockCgroup:
		encodeCgroup(w, b.Cgroup)
	case model.BlockSystemCPU:
		encodeSystemCPU(w, b.SystemCPU)
	case model.BlockSystemMem:
		encodeSystemMem(w, b.SystemMem)
	case model.BlockSystemLoad:
		encodeSystemLoad(w, b.SystemLoad)
	case model.BlockSystemDisk:
		encodeSystemDisk(w, b.SystemDisk)
	case model.BlockSystemNet:
		encodeSystemNet(w, b.SystemNet)
	case model.BlockSystemPsi:
		encodeSystemPsi(w, b.SystemPsi)
	case model.BlockSystemVmstat:
		encodeCounterMap(w, b.SystemVmstat.Counters)
	case model.BlockSystemStat:
		encodeSystemStat(w, b.SystemStat)
	case model.BlockSystemNetSnmp:
		encodeCounterMap(w, b.SystemNetSnmp.Counters)
	case model.BlockPgStatActivity:
		encodePgStatActivity(w, b.PgStatActivity)
	case model.BlockPgStatStatements:
		encodePgStatStatements(w, b.PgStatStatements)
	case model.BlockPgStatDatabase:
		encodePgStatDatabase(w, b.PgStatDatabase)
	case model.BlockPgStatUserTables:
		encodePgStatUserTables(w, b.PgStatUserTables)
	case model.BlockPgStatUserIndexes:
		encodePgStatUserIndexes(w, b.PgStatUserIndexes)
	case model.BlockPgStatBgwriter:
		encodePgStatBgwriter(w, b.PgStatBgwriter)
	case model.BlockPgLockTree:
		encodePgLockTree(w, b.PgLockTree)
	case model.BlockPgLogEvents:
		encodePgLogEvents(w, b.PgLogEvents)
	case model.BlockPgSettings:
		encodePgSettings(w, b.PgSettings)
	}
}

func decodeBlock(r *reader) (model.DataBlock, error) {
	kindByte, err := r.u8()
	if err != nil {
		return model.DataBlock{}, err
	}
	kind := model.BlockKind(kindByte)
	b := model.DataBlock{Kind: kind}

	var derr error
	switch kind {
	case model.BlockProcesses:
		b.Processes, derr = decodeProcesses(r)
	case model.BlockCgroup:
		b.Cgroup, derr = decodeCgroup(r)
	case model.BlockSystemCPU:
		b.SystemCPU, derr = decodeSystemCPU(r)
	case model.BlockSystemMem:
		b.SystemMem, derr = decodeSystemMem(r)
	case model.BlockSystemLoad:
		b.SystemLoad, derr = decodeSystemLoad(r)
	case model.BlockSystemDisk:
		b.SystemDisk, derr = decodeSystemDisk(r)
	case model.BlockSystemNet:
		b.SystemNet, derr = decodeSystemNet(r)
	case model.BlockSystemPsi:
		b.SystemPsi, derr = decodeSystemPsi(r)
	case model.BlockSystemVmstat:
		var m map[uint64]uint64
		m, derr = decodeCounterMap(r)
		b.SystemVmstat = &model.SystemVmstat{Counters: m}
	case model.BlockSystemStat:
		b.SystemStat, derr = decodeSystemStat(r)
	case model.BlockSystemNetSnmp:
		var m map[uint64]uint64
		m, derr = decodeCounterMap(r)
		b.SystemNetSnmp = &model.SystemNetSnmp{Counters: m}
	case model.BlockPgStatActivity:
		b.PgStatActivity, derr = decodePgStatActivity(r)
	case model.BlockPgStatStatements:
		b.PgStatStatements, derr = decodePgStatStatements(r)
	case model.BlockPgStatDatabase:
		b.PgStatDatabase, derr = decodePgStatDatabase(r)
	case model.BlockPgStatUserTables:
		b.PgStatUserTables, derr = decodePgStatUserTables(r)
	case model.BlockPgStatUserIndexes:
		b.PgStatUserIndexes, derr = decodePgStatUserIndexes(r)
	case model.BlockPgStatBgwriter:
		b.PgStatBgwriter, derr = decodePgStatBgwriter(r)
	case model.BlockPgLockTree:
		b.PgLockTree, derr = decodePgLockTree(r)
	case model.BlockPgLogEvents:
		b.PgLogEvents, derr = decodePgLogEvents(r)
	case model.BlockPgSettings:
		b.PgSettings, derr = decodePgSettings(r)
	default:
		return model.DataBlock{}, fmt.Errorf("chunkstore: unknown block kind %d", kindByte)
	}
	return b, derr
}

func encodeCounterMap(w *writer, m map[uint64]uint64) {
	w.uvarint(uint64(len(m)))
	for h, v := range m {
		w.hash(h)
		w.uvarint(v)
	}
}

func decodeCounterMap(r *reader) (map[uint64]uint64, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	m := make(map[uint64]uint64, n)
	for i := uint64(0); i < n; i++ {
		h, err := r.hash()
		if err != nil {
			return nil, err
		}
		v, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		m[h] = v
	}
	return m, nil
}
