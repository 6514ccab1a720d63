package model

// PgStatActivity is one row of pg_stat_activity (spec §4.4.2). Per-entity
// identity for delta correlation is the backend pid (spec §3.1).
type PgStatActivity struct {
	PID int32

	DatabaseHash      Hash
	UsernameHash      Hash
	StateHash         Hash // "active", "idle", "idle in transaction", ...
	WaitEventTypeHash Hash
	WaitEventHash     Hash
	QueryHash         Hash // left(query, N), interned

	// QueryID is only available on PG>=14; projected as 0 on older
	// servers (spec §4.4.2).
	QueryID uint64

	XactStartEpoch   int64
	QueryStartEpoch  int64
	StateChangeEpoch int64
}

// PgStatStatement is one row of pg_stat_statements (spec §4.4.2).
// Per-entity identity is QueryID. Column availability differs by
// server version: PG<13 only has total_time/mean_time, PG>=13 adds
// total_exec_time/mean_exec_time/total_plan_time/wal_records/wal_bytes;
// missing columns default to zero (spec §4.4.2).
type PgStatStatement struct {
	QueryID uint64

	DatabaseHash  Hash
	UsernameHash  Hash
	QueryTextHash Hash

	Calls    uint64
	Rows     uint64

	TotalExecTimeMs float64
	MeanExecTimeMs  float64
	TotalPlanTimeMs float64

	SharedBlksHit      uint64
	SharedBlksRead     uint64
	SharedBlksDirtied  uint64
	SharedBlksWritten  uint64
	LocalBlksHit       uint64
	LocalBlksRead      uint64
	TempBlksRead       uint64
	TempBlksWritten    uint64

	WalRecords uint64
	WalBytes   uint64
}

// PgStatDatabase is one row of pg_stat_database. Fields marked PG>=14
// default to zero on older servers (spec §4.4.2).
type PgStatDatabase struct {
	DatID        uint32
	DatnameHash  Hash

	NumBackends   int32
	XactCommit    uint64
	XactRollback  uint64
	BlksRead      uint64
	BlksHit       uint64
	TupReturned   uint64
	TupFetched    uint64
	TupInserted   uint64
	TupUpdated    uint64
	TupDeleted    uint64
	Conflicts     uint64
	TempFiles     uint64
	TempBytes     uint64
	Deadlocks     uint64

	// PG>=14 only.
	SessionTimeMs           float64
	ActiveTimeMs            float64
	IdleInTransactionTimeMs float64
	Sessions                uint64
	SessionsAbandoned       uint64
	SessionsFatal           uint64
	SessionsKilled          uint64
}

// PgStatUserTable is one row of pg_stat_user_tables. Per-entity
// identity is relid (spec §3.1).
type PgStatUserTable struct {
	RelID       uint32
	SchemaHash  Hash
	RelnameHash Hash

	SeqScan       uint64
	SeqTupRead    uint64
	IdxScan       uint64
	IdxTupFetch   uint64
	NTupIns       uint64
	NTupUpd       uint64
	NTupDel       uint64
	NTupHotUpd    uint64
	NLiveTup      int64
	NDeadTup      int64

	VacuumCount      uint64
	AutovacuumCount  uint64
	AnalyzeCount     uint64
	AutoanalyzeCount uint64

	HeapBlksRead uint64
	HeapBlksHit  uint64
}

// PgStatUserIndex is one row of pg_stat_user_indexes. Per-entity
// identity is indexrelid (spec §3.1).
type PgStatUserIndex struct {
	IndexRelID       uint32
	RelID            uint32
	SchemaHash       Hash
	RelnameHash      Hash
	IndexrelnameHash Hash

	IdxScan     uint64
	IdxTupRead  uint64
	IdxTupFetch uint64

	IdxBlksRead uint64
	IdxBlksHit  uint64
}

// PgStatBgwriter mirrors pg_stat_bgwriter; it is a singleton row.
type PgStatBgwriter struct {
	CheckpointsTimed uint64
	CheckpointsReq   uint64

	CheckpointWriteTimeMs float64
	CheckpointSyncTimeMs  float64

	BuffersCheckpoint   uint64
	BuffersClean        uint64
	MaxwrittenClean     uint64
	BuffersBackend      uint64
	BuffersBackendFsync uint64
	BuffersAlloc        uint64
}

// PgLockNode is one flattened row of the recursive pg_locks /
// pg_blocking_pids / pg_stat_activity join (spec §4.4.2). Per-entity
// identity for delta correlation is pid; Depth >= 1.
type PgLockNode struct {
	PID      int32
	RootPID  int32
	Depth    int32

	LockModeHash  Hash
	RelationHash  Hash
	QueryHash     Hash
}

// LogEventKind classifies a parsed log line (spec §4.5).
type LogEventKind uint8

const (
	LogEventError LogEventKind = iota
	LogEventFatal
	LogEventPanic
	LogEventCheckpoint
	LogEventAutovacuum
)

// PgLogEvent is one event produced by the log tailer and folded into
// the next collected snapshot (spec §4.4.3 step 4).
type PgLogEvent struct {
	TimestampEpoch int64
	Kind           LogEventKind

	MessageHash Hash // original message, verbatim
	PatternHash Hash // normalized grouping key (spec §4.5)
}

// PgSetting is one row of pg_settings.
type PgSetting struct {
	NameHash    Hash
	SettingHash Hash
	UnitHash    Hash
}
