// Package model defines the snapshot data model (spec §3.1): a
// timestamped sequence of tagged-union data blocks produced by one
// collector tick. In place of the teacher's per-metric
// prometheus.Collector implementations, snapwatch collects into this
// single in-memory structure once per tick and hands it whole to the
// chunk store and to live consumers.
package model

// Hash is a 64-bit content hash produced by the string interner
// (spec §4.1). It addresses strings that live in the owning chunk's
// interner rather than being copied inline into every block.
type Hash = uint64

// Snapshot is one atomic collection tick (spec §3.1). Blocks within a
// snapshot are collected as close together as feasible but need not be
// simultaneous; Timestamp is strictly nondecreasing across a stream
// (spec §3.2).
type Snapshot struct {
	Timestamp int64 // epoch seconds
	Blocks    []DataBlock
}

// BlockKind tags which variant of DataBlock is populated. A DataBlock
// is a sum type: exactly the field matching Kind is meaningful.
type BlockKind uint8

const (
	BlockProcesses BlockKind = iota
	BlockCgroup
	BlockSystemCPU
	BlockSystemMem
	BlockSystemLoad
	BlockSystemDisk
	BlockSystemNet
	BlockSystemPsi
	BlockSystemVmstat
	BlockSystemStat
	BlockSystemNetSnmp
	BlockPgStatActivity
	BlockPgStatStatements
	BlockPgStatDatabase
	BlockPgStatUserTables
	BlockPgStatUserIndexes
	BlockPgStatBgwriter
	BlockPgLockTree
	BlockPgLogEvents
	BlockPgSettings
)

// String returns the block kind name as it appears in spec.md §3.1.
func (k BlockKind) String() string {
	switch k {
	case BlockProcesses:
		return "Processes"
	case BlockCgroup:
		return "Cgroup"
	case BlockSystemCPU:
		return "SystemCpu"
	case BlockSystemMem:
		return "SystemMem"
	case BlockSystemLoad:
		return "SystemLoad"
	case BlockSystemDisk:
		return "SystemDisk"
	case BlockSystemNet:
		return "SystemNet"
	case BlockSystemPsi:
		return "SystemPsi"
	case BlockSystemVmstat:
		return "SystemVmstat"
	case BlockSystemStat:
		return "SystemStat"
	case BlockSystemNetSnmp:
		return "SystemNetSnmp"
	case BlockPgStatActivity:
		return "PgStatActivity"
	case BlockPgStatStatements:
		return "PgStatStatements"
	case BlockPgStatDatabase:
		return "PgStatDatabase"
	case BlockPgStatUserTables:
		return "PgStatUserTables"
	case BlockPgStatUserIndexes:
		return "PgStatUserIndexes"
	case BlockPgStatBgwriter:
		return "PgStatBgwriter"
	case BlockPgLockTree:
		return "PgLockTree"
	case BlockPgLogEvents:
		return "PgLogEvents"
	case BlockPgSettings:
		return "PgSettings"
	default:
		return "Unknown"
	}
}

// DataBlock is the tagged union described in spec.md §3.1. Only the
// field matching Kind is populated; the rest are left at their zero
// value. A single sum type, rather than a slice of boxed interfaces,
// keeps the codec (internal/chunkstore) exhaustive and keeps per-kind
// rate computation (internal/provider) a plain switch.
type DataBlock struct {
	Kind BlockKind

	Processes         []Process
	Cgroup            *Cgroup
	SystemCPU         []SystemCPU
	SystemMem         *SystemMem
	SystemLoad        *SystemLoad
	SystemDisk        []SystemDisk
	SystemNet         []SystemNet
	SystemPsi         []SystemPsi
	SystemVmstat      *SystemVmstat
	SystemStat        *SystemStat
	SystemNetSnmp     *SystemNetSnmp
	PgStatActivity    []PgStatActivity
	PgStatStatements  []PgStatStatement
	PgStatDatabase    []PgStatDatabase
	PgStatUserTables  []PgStatUserTable
	PgStatUserIndexes []PgStatUserIndex
	PgStatBgwriter    *PgStatBgwriter
	PgLockTree        []PgLockNode
	PgLogEvents       []PgLogEvent
	PgSettings        []PgSetting
}

// Find returns the block of the given kind, or nil if the snapshot
// omits it (spec §3.1: missing is not the same as zero).
func (s *Snapshot) Find(kind BlockKind) *DataBlock {
	for i := range s.Blocks {
		if s.Blocks[i].Kind == kind {
			return &s.Blocks[i]
		}
	}
	return nil
}
