package model

// Process describes one /proc/<pid> sample (spec §4.4.1). Per-entity
// identity for delta correlation across snapshots is the pid itself
// (spec §3.1).
type Process struct {
	PID  int32
	PPID int32

	CommHash    Hash // /proc/<pid>/comm
	CmdlineHash Hash // /proc/<pid>/cmdline, joined with spaces

	State byte // one of R, S, D, Z, T, ...

	// Jiffy counters from /proc/<pid>/stat, convertible to seconds via
	// USER_HZ = 100 (spec §4.4.1).
	UtimeJiffies uint64
	StimeJiffies uint64

	RSSBytes uint64 // resident set size
	VSZBytes uint64 // virtual memory size

	// Cumulative counters from /proc/<pid>/io. Linux folds a dead
	// child's io into its parent on wait(4); internal/provider applies
	// the died-children correction described in spec §4.6.2.
	ReadBytes  uint64
	WriteBytes uint64
	ReadOps    uint64 // syscr
	WriteOps   uint64 // syscw

	// IsSupervisor is true when this pid had at least one live child in
	// the snapshot it was observed in; used to flag known supervisors
	// (postmaster, the collector's own parent) whose io deltas absorb
	// dead-children corrections and should be excluded from anomaly
	// rules (spec §9).
	IsSupervisor bool
}

// Cgroup captures cgroup v2 controller state for the container the
// collector runs in (spec §4.4.1). Present iff the host is
// containerized or cgroup collection was forced (spec §3.2).
type Cgroup struct {
	CPUMaxQuotaUsec  int64 // -1 means "max" (unlimited)
	CPUMaxPeriodUsec int64

	CPUStatUsageUsec     uint64
	CPUStatUserUsec      uint64
	CPUStatSystemUsec    uint64
	CPUStatNrThrottled   uint64
	CPUStatThrottledUsec uint64

	MemoryMaxBytes     int64 // -1 means "max"
	MemoryCurrentBytes uint64
	MemorySwapBytes    uint64
	MemoryAnonBytes    uint64
	MemoryFileBytes    uint64
	OOMKillCount       uint64 // memory.events: oom_kill

	PidsCurrent int64
	PidsMax     int64 // -1 means "max"

	IO []CgroupIOEntry
}

// CgroupIOEntry is one device line from io.stat.
type CgroupIOEntry struct {
	DeviceHash Hash // "major:minor" or resolved device name
	ReadBytes  uint64
	WriteBytes uint64
	ReadOps    uint64
	WriteOps   uint64
}

// SystemCPU is one row of /proc/stat CPU jiffy counters (spec §3.2). A
// CPUID of -1 denotes the aggregate row; every other row is per-core.
type SystemCPU struct {
	CPUID int32

	UserJiffies      uint64
	NiceJiffies      uint64
	SystemJiffies    uint64
	IdleJiffies      uint64
	IowaitJiffies    uint64
	IrqJiffies       uint64
	SoftirqJiffies   uint64
	StealJiffies     uint64
	GuestJiffies     uint64
	GuestNiceJiffies uint64
}

// Total returns the sum of all jiffy buckets, the denominator used by
// the sidecar cpu_pct_x10 computation (spec §4.3.1).
func (c SystemCPU) Total() uint64 {
	return c.UserJiffies + c.NiceJiffies + c.SystemJiffies + c.IdleJiffies +
		c.IowaitJiffies + c.IrqJiffies + c.SoftirqJiffies + c.StealJiffies
}

// Idle returns the idle+iowait jiffies, used to derive the busy
// fraction for the sidecar metric.
func (c SystemCPU) Idle() uint64 {
	return c.IdleJiffies + c.IowaitJiffies
}

// SystemMem mirrors the subset of /proc/meminfo needed downstream, in
// kB as reported by the kernel.
type SystemMem struct {
	MemTotalKB     uint64
	MemFreeKB      uint64
	MemAvailableKB uint64
	BuffersKB      uint64
	CachedKB       uint64
	SwapTotalKB    uint64
	SwapFreeKB     uint64
	DirtyKB        uint64
	WritebackKB    uint64
}

// SystemLoad mirrors /proc/loadavg.
type SystemLoad struct {
	Load1         float64
	Load5         float64
	Load15        float64
	RunnableTasks uint32
	TotalTasks    uint32
}

// SystemDisk is one device row from /proc/diskstats. Per-entity
// identity is the interned device name (spec §3.1).
type SystemDisk struct {
	DeviceHash Hash

	ReadsCompleted  uint64
	ReadsMerged     uint64
	SectorsRead     uint64
	ReadTimeMs      uint64
	WritesCompleted uint64
	WritesMerged    uint64
	SectorsWritten  uint64
	WriteTimeMs     uint64
	IOInProgress    uint64
	IOTimeMs        uint64
	WeightedIOTimeMs uint64
}

// SystemNet is one interface row from /proc/net/dev.
type SystemNet struct {
	DeviceHash Hash

	RxBytes   uint64
	RxPackets uint64
	RxErrs    uint64
	RxDrop    uint64
	TxBytes   uint64
	TxPackets uint64
	TxErrs    uint64
	TxDrop    uint64
}

// PsiResource enumerates the /proc/pressure/* files.
type PsiResource uint8

const (
	PsiCPU PsiResource = iota
	PsiMemory
	PsiIO
)

// SystemPsi is one resource's pressure stall information.
type SystemPsi struct {
	Resource PsiResource

	Some10  float64
	Some60  float64
	Some300 float64
	SomeTotalUsec uint64

	// Full is absent (all zero) for PsiCPU; the kernel does not report it.
	Full10  float64
	Full60  float64
	Full300 float64
	FullTotalUsec uint64
}

// SystemVmstat carries /proc/vmstat counters keyed by interned field
// name. A map keeps this block forward-compatible: a reader built
// against an older field set simply never looks up keys it doesn't
// know, satisfying spec §4.2's "decode to defaulted values" rule.
type SystemVmstat struct {
	Counters map[Hash]uint64
}

// SystemStat carries the non-CPU counters of /proc/stat.
type SystemStat struct {
	ContextSwitchesTotal uint64
	ProcessesTotal       uint64
	ProcsRunning         uint64
	ProcsBlocked         uint64
	BootTimeEpoch        int64
}

// SystemNetSnmp carries selected counters from /proc/net/snmp and
// /proc/net/netstat, keyed by interned "Proto.Field" names (e.g.
// "Tcp.RetransSegs").
type SystemNetSnmp struct {
	Counters map[Hash]uint64
}
