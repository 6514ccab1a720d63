package provider

import "github.com/weaponry/snapwatch/internal/model"

// Rate is Option<float>: nil means absent, per spec §4.6.2's reset
// semantic ("Otherwise the rate is absent, not zero").
type Rate = *float64

func rate(cur, prev uint64, dt float64) Rate {
	if dt <= 0 || cur < prev {
		return nil
	}
	v := float64(cur-prev) / dt
	return &v
}

func rateFloat(cur, prev float64, dt float64) Rate {
	if dt <= 0 || cur < prev {
		return nil
	}
	v := (cur - prev) / dt
	return &v
}

// rateClampedDelta turns an already-computed signed delta into a rate,
// floored at zero rather than treated as an absent counter reset (spec
// §4.6.2's died-children correction: "never goes negative, clamped to
// zero").
func rateClampedDelta(delta int64, dt float64) Rate {
	if dt <= 0 {
		return nil
	}
	if delta < 0 {
		delta = 0
	}
	v := float64(delta) / dt
	return &v
}

// hitPct derives a cache hit percentage from hit/(hit+read) (spec
// §4.6.2). Returns nil when there is no traffic to divide by.
func hitPct(hit, read uint64) Rate {
	total := hit + read
	if total == 0 {
		return nil
	}
	v := 100 * float64(hit) / float64(total)
	return &v
}

// Diff computes the diff between two consecutive snapshots. dt is
// curr.Timestamp - prev.Timestamp in seconds.
func Diff(prev, curr *model.Snapshot) *Diffs {
	if prev == nil || curr == nil {
		return nil
	}
	dt := float64(curr.Timestamp - prev.Timestamp)

	d := &Diffs{}
	d.Processes = diffProcesses(prev, curr, dt)
	d.Statements = diffStatements(prev, curr, dt)
	d.UserTables = diffUserTables(prev, curr, dt)
	d.UserIndexes = diffUserIndexes(prev, curr, dt)
	d.Bgwriter = diffBgwriter(prev, curr, dt)
	d.CPU = diffCPU(prev, curr, dt)
	d.Disk = diffDisk(prev, curr, dt)
	d.Net = diffNet(prev, curr, dt)
	return d
}

// Diffs bundles the per-entity-type rate structures produced between
// two consecutive snapshots (spec §4.6.2).
type Diffs struct {
	Processes  map[int32]ProcessRate
	Statements map[uint64]StatementRate
	UserTables map[uint32]TableRate
	UserIndexes map[uint32]IndexRate
	Bgwriter   *BgwriterRate
	CPU        map[int32]CPURate
	Disk       map[model.Hash]DiskRate
	Net        map[model.Hash]NetRate
}

// ProcessRate holds I/O and CPU rates for one PID, with the
// died-children correction applied to ReadBytes/WriteBytes (spec
// §4.6.2).
type ProcessRate struct {
	UtimeJps Rate // jiffies/s
	StimeJps Rate

	ReadBytesPS  Rate
	WriteBytesPS Rate
	ReadOpsPS    Rate
	WriteOpsPS   Rate
}

func diffProcesses(prev, curr *model.Snapshot, dt float64) map[int32]ProcessRate {
	pb := prev.Find(model.BlockProcesses)
	cb := curr.Find(model.BlockProcesses)
	if pb == nil || cb == nil {
		return nil
	}

	prevByPID := make(map[int32]model.Process, len(pb.Processes))
	for _, p := range pb.Processes {
		prevByPID[p.PID] = p
	}
	currByPID := make(map[int32]struct{}, len(cb.Processes))
	for _, p := range cb.Processes {
		currByPID[p.PID] = struct{}{}
	}

	// Died children's last cumulative I/O is folded into their parent
	// by Linux on wait(4); bucket it by ppid so it can be subtracted
	// from the parent's raw delta and not misread as a burst (spec
	// §4.6.2).
	diedIOByPPID := make(map[int32]struct {
		read, write uint64
	})
	for pid, p := range prevByPID {
		if _, alive := currByPID[pid]; alive {
			continue
		}
		b := diedIOByPPID[p.PPID]
		b.read += p.ReadBytes
		b.write += p.WriteBytes
		diedIOByPPID[p.PPID] = b
	}

	out := make(map[int32]ProcessRate, len(cb.Processes))
	for _, c := range cb.Processes {
		p, ok := prevByPID[c.PID]
		if !ok {
			continue
		}

		r := ProcessRate{
			UtimeJps:   rate(c.UtimeJiffies, p.UtimeJiffies, dt),
			StimeJps:   rate(c.StimeJiffies, p.StimeJiffies, dt),
			ReadOpsPS:  rate(c.ReadOps, p.ReadOps, dt),
			WriteOpsPS: rate(c.WriteOps, p.WriteOps, dt),
		}

		if died, ok := diedIOByPPID[c.PID]; ok {
			// Subtract the inherited cumulative I/O so a child's exit
			// does not read as a spike in the parent's own rate; the
			// corrected delta is floored at zero rather than treated
			// as a counter reset.
			readDelta := int64(c.ReadBytes) - int64(p.ReadBytes) - int64(died.read)
			writeDelta := int64(c.WriteBytes) - int64(p.WriteBytes) - int64(died.write)
			r.ReadBytesPS = rateClampedDelta(readDelta, dt)
			r.WriteBytesPS = rateClampedDelta(writeDelta, dt)
		} else {
			r.ReadBytesPS = rate(c.ReadBytes, p.ReadBytes, dt)
			r.WriteBytesPS = rate(c.WriteBytes, p.WriteBytes, dt)
		}
		out[c.PID] = r
	}
	return out
}

// StatementRate is keyed by queryid; if a queryid disappears between
// ticks (evicted from pg_stat_statements), it simply has no entry
// (spec §4.6.2).
type StatementRate struct {
	CallsPS   Rate
	RowsPS    Rate
	ExecTimeMsPS Rate
	BlksHitPct   Rate
}

func diffStatements(prev, curr *model.Snapshot, dt float64) map[uint64]StatementRate {
	pb := prev.Find(model.BlockPgStatStatements)
	cb := curr.Find(model.BlockPgStatStatements)
	if pb == nil || cb == nil {
		return nil
	}
	prevByID := make(map[uint64]model.PgStatStatement, len(pb.PgStatStatements))
	for _, s := range pb.PgStatStatements {
		prevByID[s.QueryID] = s
	}
	out := make(map[uint64]StatementRate, len(cb.PgStatStatements))
	for _, c := range cb.PgStatStatements {
		p, ok := prevByID[c.QueryID]
		if !ok {
			continue
		}
		out[c.QueryID] = StatementRate{
			CallsPS:      rate(c.Calls, p.Calls, dt),
			RowsPS:       rate(c.Rows, p.Rows, dt),
			ExecTimeMsPS: rateFloat(c.TotalExecTimeMs, p.TotalExecTimeMs, dt),
			BlksHitPct:   hitPct(c.SharedBlksHit, c.SharedBlksRead),
		}
	}
	return out
}

// TableRate holds per-table rates keyed by relid.
type TableRate struct {
	SeqScanPS  Rate
	IdxScanPS  Rate
	TupInsPS   Rate
	TupUpdPS   Rate
	TupDelPS   Rate
	BlksHitPct Rate
}

func diffUserTables(prev, curr *model.Snapshot, dt float64) map[uint32]TableRate {
	pb := prev.Find(model.BlockPgStatUserTables)
	cb := curr.Find(model.BlockPgStatUserTables)
	if pb == nil || cb == nil {
		return nil
	}
	prevByID := make(map[uint32]model.PgStatUserTable, len(pb.PgStatUserTables))
	for _, t := range pb.PgStatUserTables {
		prevByID[t.RelID] = t
	}
	out := make(map[uint32]TableRate, len(cb.PgStatUserTables))
	for _, c := range cb.PgStatUserTables {
		p, ok := prevByID[c.RelID]
		if !ok {
			continue
		}
		out[c.RelID] = TableRate{
			SeqScanPS:  rate(c.SeqScan, p.SeqScan, dt),
			IdxScanPS:  rate(c.IdxScan, p.IdxScan, dt),
			TupInsPS:   rate(c.NTupIns, p.NTupIns, dt),
			TupUpdPS:   rate(c.NTupUpd, p.NTupUpd, dt),
			TupDelPS:   rate(c.NTupDel, p.NTupDel, dt),
			BlksHitPct: hitPct(c.HeapBlksHit, c.HeapBlksRead),
		}
	}
	return out
}

// IndexRate holds per-index rates keyed by indexrelid.
type IndexRate struct {
	IdxScanPS  Rate
	BlksHitPct Rate
}

func diffUserIndexes(prev, curr *model.Snapshot, dt float64) map[uint32]IndexRate {
	pb := prev.Find(model.BlockPgStatUserIndexes)
	cb := curr.Find(model.BlockPgStatUserIndexes)
	if pb == nil || cb == nil {
		return nil
	}
	prevByID := make(map[uint32]model.PgStatUserIndex, len(pb.PgStatUserIndexes))
	for _, i := range pb.PgStatUserIndexes {
		prevByID[i.IndexRelID] = i
	}
	out := make(map[uint32]IndexRate, len(cb.PgStatUserIndexes))
	for _, c := range cb.PgStatUserIndexes {
		p, ok := prevByID[c.IndexRelID]
		if !ok {
			continue
		}
		out[c.IndexRelID] = IndexRate{
			IdxScanPS:  rate(c.IdxScan, p.IdxScan, dt),
			BlksHitPct: hitPct(c.IdxBlksHit, c.IdxBlksRead),
		}
	}
	return out
}

// BgwriterRate is a singleton diff since pg_stat_bgwriter has one row.
type BgwriterRate struct {
	CheckpointsTimedPS Rate
	CheckpointsReqPS   Rate
	BuffersCheckpointPS Rate
	BuffersCleanPS     Rate
	BuffersBackendPS   Rate
}

func diffBgwriter(prev, curr *model.Snapshot, dt float64) *BgwriterRate {
	pb := prev.Find(model.BlockPgStatBgwriter)
	cb := curr.Find(model.BlockPgStatBgwriter)
	if pb == nil || cb == nil || pb.PgStatBgwriter == nil || cb.PgStatBgwriter == nil {
		return nil
	}
	p, c := pb.PgStatBgwriter, cb.PgStatBgwriter
	return &BgwriterRate{
		CheckpointsTimedPS:  rate(c.CheckpointsTimed, p.CheckpointsTimed, dt),
		CheckpointsReqPS:    rate(c.CheckpointsReq, p.CheckpointsReq, dt),
		BuffersCheckpointPS: rate(c.BuffersCheckpoint, p.BuffersCheckpoint, dt),
		BuffersCleanPS:      rate(c.BuffersClean, p.BuffersClean, dt),
		BuffersBackendPS:    rate(c.BuffersBackend, p.BuffersBackend, dt),
	}
}

// CPURate is the busy percentage for one CPU (or -1 for the
// aggregate), derived from jiffy deltas over the total jiffy delta.
type CPURate struct {
	BusyPct Rate
}

func diffCPU(prev, curr *model.Snapshot, dt float64) map[int32]CPURate {
	pb := prev.Find(model.BlockSystemCPU)
	cb := curr.Find(model.BlockSystemCPU)
	if pb == nil || cb == nil {
		return nil
	}
	prevByID := make(map[int32]model.SystemCPU, len(pb.SystemCPU))
	for _, s := range pb.SystemCPU {
		prevByID[s.CPUID] = s
	}
	out := make(map[int32]CPURate, len(cb.SystemCPU))
	for _, c := range cb.SystemCPU {
		p, ok := prevByID[c.CPUID]
		if !ok {
			continue
		}
		totalDelta := c.Total() - p.Total()
		idleDelta := c.IdleJiffies - p.IdleJiffies
		if c.Total() < p.Total() || totalDelta == 0 {
			out[c.CPUID] = CPURate{}
			continue
		}
		v := 100 * (1 - float64(idleDelta)/float64(totalDelta))
		out[c.CPUID] = CPURate{BusyPct: &v}
	}
	return out
}

// DiskRate holds throughput for one block device, keyed by its
// interned device-name hash.
type DiskRate struct {
	ReadsPS  Rate
	WritesPS Rate
	SectorsReadPS Rate
	SectorsWritePS Rate
}

func diffDisk(prev, curr *model.Snapshot, dt float64) map[model.Hash]DiskRate {
	pb := prev.Find(model.BlockSystemDisk)
	cb := curr.Find(model.BlockSystemDisk)
	if pb == nil || cb == nil {
		return nil
	}
	prevByDev := make(map[model.Hash]model.SystemDisk, len(pb.SystemDisk))
	for _, d := range pb.SystemDisk {
		prevByDev[d.DeviceHash] = d
	}
	out := make(map[model.Hash]DiskRate, len(cb.SystemDisk))
	for _, c := range cb.SystemDisk {
		p, ok := prevByDev[c.DeviceHash]
		if !ok {
			continue
		}
		out[c.DeviceHash] = DiskRate{
			ReadsPS:        rate(c.ReadsCompleted, p.ReadsCompleted, dt),
			WritesPS:       rate(c.WritesCompleted, p.WritesCompleted, dt),
			SectorsReadPS:  rate(c.SectorsRead, p.SectorsRead, dt),
			SectorsWritePS: rate(c.SectorsWritten, p.SectorsWritten, dt),
		}
	}
	return out
}

// NetRate holds throughput for one network interface, keyed by its
// interned device-name hash.
type NetRate struct {
	RxBytesPS Rate
	TxBytesPS Rate
}

func diffNet(prev, curr *model.Snapshot, dt float64) map[model.Hash]NetRate {
	pb := prev.Find(model.BlockSystemNet)
	cb := curr.Find(model.BlockSystemNet)
	if pb == nil || cb == nil {
		return nil
	}
	prevByDev := make(map[model.Hash]model.SystemNet, len(pb.SystemNet))
	for _, n := range pb.SystemNet {
		prevByDev[n.DeviceHash] = n
	}
	out := make(map[model.Hash]NetRate, len(cb.SystemNet))
	for _, c := range cb.SystemNet {
		p, ok := prevByDev[c.DeviceHash]
		if !ok {
			continue
		}
		out[c.DeviceHash] = NetRate{
			RxBytesPS: rate(c.RxBytes, p.RxBytes, dt),
			TxBytesPS: rate(c.TxBytes, p.TxBytes, dt),
		}
	}
	return out
}
