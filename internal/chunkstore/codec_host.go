package chunkstore

import "github.com/weaponry/snapwatch/internal/model"

func encodeProcesses(w *writer, ps []model.Process) {
	w.uvarint(uint64(len(ps)))
	for _, p := range ps {
		w.varint(int64(p.PID))
		w.varint(int64(p.PPID))
		w.hash(p.CommHash)
		w.hash(p.CmdlineHash)
		w.u8(p.State)
		w.uvarint(p.UtimeJiffies)
		w.uvarint(p.StimeJiffies)
		w.uvarint(p.RSSBytes)
		w.uvarint(p.VSZBytes)
		w.uvarint(p.ReadBytes)
		w.uvarint(p.WriteBytes)
		w.uvarint(p.ReadOps)
		w.uvarint(p.WriteOps)
		if p.IsSupervisor {
			w.u8(1)
		} else {
			w.u8(0)
		}
	}
}

func decodeProcesses(r *reader) ([]model.Process, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.Process, 0, n)
	for i := uint64(0); i < n; i++ {
		var p model.Process
		pid, err := r.varint()
		if err != nil {
			return nil, err
		}
		p.PID = int32(pid)
		ppid, err := r.varint()
		if err != nil {
			return nil, err
		}
		p.PPID = int32(ppid)
		if p.CommHash, err = r.hash(); err != nil {
			return nil, err
		}
		if p.CmdlineHash, err = r.hash(); err != nil {
			return nil, err
		}
		if p.State, err = r.u8(); err != nil {
			return nil, err
		}
		if p.UtimeJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.StimeJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.RSSBytes, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.VSZBytes, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.ReadBytes, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.WriteBytes, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.ReadOps, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.WriteOps, err = r.uvarint(); err != nil {
			return nil, err
		}
		sup, err := r.u8()
		if err != nil {
			return nil, err
		}
		p.IsSupervisor = sup != 0
		out = append(out, p)
	}
	return out, nil
}

func encodeCgroup(w *writer, c *model.Cgroup) {
	if c == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.varint(c.CPUMaxQuotaUsec)
	w.varint(c.CPUMaxPeriodUsec)
	w.uvarint(c.CPUStatUsageUsec)
	w.uvarint(c.CPUStatUserUsec)
	w.uvarint(c.CPUStatSystemUsec)
	w.uvarint(c.CPUStatNrThrottled)
	w.uvarint(c.CPUStatThrottledUsec)
	w.varint(c.MemoryMaxBytes)
	w.uvarint(c.MemoryCurrentBytes)
	w.uvarint(c.MemorySwapBytes)
	w.uvarint(c.MemoryAnonBytes)
	w.uvarint(c.MemoryFileBytes)
	w.uvarint(c.OOMKillCount)
	w.varint(c.PidsCurrent)
	w.varint(c.PidsMax)
	w.uvarint(uint64(len(c.IO)))
	for _, e := range c.IO {
		w.hash(e.DeviceHash)
		w.uvarint(e.ReadBytes)
		w.uvarint(e.WriteBytes)
		w.uvarint(e.ReadOps)
		w.uvarint(e.WriteOps)
	}
}

func decodeCgroup(r *reader) (*model.Cgroup, error) {
	present, err := r.u8()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	c := &model.Cgroup{}
	if c.CPUMaxQuotaUsec, err = r.varint(); err != nil {
		return nil, err
	}
	if c.CPUMaxPeriodUsec, err = r.varint(); err != nil {
		return nil, err
	}
	if c.CPUStatUsageUsec, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.CPUStatUserUsec, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.CPUStatSystemUsec, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.CPUStatNrThrottled, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.CPUStatThrottledUsec, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.MemoryMaxBytes, err = r.varint(); err != nil {
		return nil, err
	}
	if c.MemoryCurrentBytes, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.MemorySwapBytes, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.MemoryAnonBytes, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.MemoryFileBytes, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.OOMKillCount, err = r.uvarint(); err != nil {
		return nil, err
	}
	if c.PidsCurrent, err = r.varint(); err != nil {
		return nil, err
	}
	if c.PidsMax, err = r.varint(); err != nil {
		return nil, err
	}
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	c.IO = make([]model.CgroupIOEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		var e model.CgroupIOEntry
		if e.DeviceHash, err = r.hash(); err != nil {
			return nil, err
		}
		if e.ReadBytes, err = r.uvarint(); err != nil {
			return nil, err
		}
		if e.WriteBytes, err = r.uvarint(); err != nil {
			return nil, err
		}
		if e.ReadOps, err = r.uvarint(); err != nil {
			return nil, err
		}
		if e.WriteOps, err = r.uvarint(); err != nil {
			return nil, err
		}
		c.IO = append(c.IO, e)
	}
	return c, nil
}

func encodeSystemCPU(w *writer, cs []model.SystemCPU) {
	w.uvarint(uint64(len(cs)))
	for _, c := range cs {
		w.varint(int64(c.CPUID))
		w.uvarint(c.UserJiffies)
		w.uvarint(c.NiceJiffies)
		w.uvarint(c.SystemJiffies)
		w.uvarint(c.IdleJiffies)
		w.uvarint(c.IowaitJiffies)
		w.uvarint(c.IrqJiffies)
		w.uvarint(c.SoftirqJiffies)
		w.uvarint(c.StealJiffies)
		w.uvarint(c.GuestJiffies)
		w.uvarint(c.GuestNiceJiffies)
	}
}

func decodeSystemCPU(r *reader) ([]model.SystemCPU, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.SystemCPU, 0, n)
	for i := uint64(0); i < n; i++ {
		var c model.SystemCPU
		id, err := r.varint()
		if err != nil {
			return nil, err
		}
		c.CPUID = int32(id)
		if c.UserJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.NiceJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.SystemJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.IdleJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.IowaitJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.IrqJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.SoftirqJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.StealJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.GuestJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		if c.GuestNiceJiffies, err = r.uvarint(); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func encodeSystemMem(w *writer, m *model.SystemMem) {
	if m == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.uvarint(m.MemTotalKB)
	w.uvarint(m.MemFreeKB)
	w.uvarint(m.MemAvailableKB)
	w.uvarint(m.BuffersKB)
	w.uvarint(m.CachedKB)
	w.uvarint(m.SwapTotalKB)
	w.uvarint(m.SwapFreeKB)
	w.uvarint(m.DirtyKB)
	w.uvarint(m.WritebackKB)
}

func decodeSystemMem(r *reader) (*model.SystemMem, error) {
	present, err := r.u8()
	if err != nil || present == 0 {
		return nil, err
	}
	m := &model.SystemMem{}
	for _, f := range []*uint64{&m.MemTotalKB, &m.MemFreeKB, &m.MemAvailableKB, &m.BuffersKB, &m.CachedKB, &m.SwapTotalKB, &m.SwapFreeKB, &m.DirtyKB, &m.WritebackKB} {
		if *f, err = r.uvarint(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func encodeSystemLoad(w *writer, l *model.SystemLoad) {
	if l == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.f64(l.Load1)
	w.f64(l.Load5)
	w.f64(l.Load15)
	w.uvarint(uint64(l.RunnableTasks))
	w.uvarint(uint64(l.TotalTasks))
}

func decodeSystemLoad(r *reader) (*model.SystemLoad, error) {
	present, err := r.u8()
	if err != nil || present == 0 {
		return nil, err
	}
	l := &model.SystemLoad{}
	if l.Load1, err = r.f64(); err != nil {
		return nil, err
	}
	if l.Load5, err = r.f64(); err != nil {
		return nil, err
	}
	if l.Load15, err = r.f64(); err != nil {
		return nil, err
	}
	v, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	l.RunnableTasks = uint32(v)
	v, err = r.uvarint()
	if err != nil {
		return nil, err
	}
	l.TotalTasks = uint32(v)
	return l, nil
}

func encodeSystemDisk(w *writer, ds []model.SystemDisk) {
	w.uvarint(uint64(len(ds)))
	for _, d := range ds {
		w.hash(d.DeviceHash)
		w.uvarint(d.ReadsCompleted)
		w.uvarint(d.ReadsMerged)
		w.uvarint(d.SectorsRead)
		w.uvarint(d.ReadTimeMs)
		w.uvarint(d.WritesCompleted)
		w.uvarint(d.WritesMerged)
		w.uvarint(d.SectorsWritten)
		w.uvarint(d.WriteTimeMs)
		w.uvarint(d.IOInProgress)
		w.uvarint(d.IOTimeMs)
		w.uvarint(d.WeightedIOTimeMs)
	}
}

func decodeSystemDisk(r *reader) ([]model.SystemDisk, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.SystemDisk, 0, n)
	for i := uint64(0); i < n; i++ {
		var d model.SystemDisk
		if d.DeviceHash, err = r.hash(); err != nil {
			return nil, err
		}
		fields := []*uint64{&d.ReadsCompleted, &d.ReadsMerged, &d.SectorsRead, &d.ReadTimeMs, &d.WritesCompleted, &d.WritesMerged, &d.SectorsWritten, &d.WriteTimeMs, &d.IOInProgress, &d.IOTimeMs, &d.WeightedIOTimeMs}
		for _, f := range fields {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func encodeSystemNet(w *writer, ns []model.SystemNet) {
	w.uvarint(uint64(len(ns)))
	for _, n := range ns {
		w.hash(n.DeviceHash)
		w.uvarint(n.RxBytes)
		w.uvarint(n.RxPackets)
		w.uvarint(n.RxErrs)
		w.uvarint(n.RxDrop)
		w.uvarint(n.TxBytes)
		w.uvarint(n.TxPackets)
		w.uvarint(n.TxErrs)
		w.uvarint(n.TxDrop)
	}
}

func decodeSystemNet(r *reader) ([]model.SystemNet, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.SystemNet, 0, n)
	for i := uint64(0); i < n; i++ {
		var e model.SystemNet
		if e.DeviceHash, err = r.hash(); err != nil {
			return nil, err
		}
		fields := []*uint64{&e.RxBytes, &e.RxPackets, &e.RxErrs, &e.RxDrop, &e.TxBytes, &e.TxPackets, &e.TxErrs, &e.TxDrop}
		for _, f := range fields {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func encodeSystemPsi(w *writer, ps []model.SystemPsi) {
	w.uvarint(uint64(len(ps)))
	for _, p := range ps {
		w.u8(uint8(p.Resource))
		w.f64(p.Some10)
		w.f64(p.Some60)
		w.f64(p.Some300)
		w.uvarint(p.SomeTotalUsec)
		w.f64(p.Full10)
		w.f64(p.Full60)
		w.f64(p.Full300)
		w.uvarint(p.FullTotalUsec)
	}
}

func decodeSystemPsi(r *reader) ([]model.SystemPsi, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.SystemPsi, 0, n)
	for i := uint64(0); i < n; i++ {
		var p model.SystemPsi
		res, err := r.u8()
		if err != nil {
			return nil, err
		}
		p.Resource = model.PsiResource(res)
		if p.Some10, err = r.f64(); err != nil {
			return nil, err
		}
		if p.Some60, err = r.f64(); err != nil {
			return nil, err
		}
		if p.Some300, err = r.f64(); err != nil {
			return nil, err
		}
		if p.SomeTotalUsec, err = r.uvarint(); err != nil {
			return nil, err
		}
		if p.Full10, err = r.f64(); err != nil {
			return nil, err
		}
		if p.Full60, err = r.f64(); err != nil {
			return nil, err
		}
		if p.Full300, err = r.f64(); err != nil {
			return nil, err
		}
		if p.FullTotalUsec, err = r.uvarint(); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func encodeSystemStat(w *writer, s *model.SystemStat) {
	if s == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.uvarint(s.ContextSwitchesTotal)
	w.uvarint(s.ProcessesTotal)
	w.uvarint(s.ProcsRunning)
	w.uvarint(s.ProcsBlocked)
	w.varint(s.BootTimeEpoch)
}

func decodeSystemStat(r *reader) (*model.SystemStat, error) {
	present, err := r.u8()
	if err != nil || present == 0 {
		return nil, err
	}
	s := &model.SystemStat{}
	if s.ContextSwitchesTotal, err = r.uvarint(); err != nil {
		return nil, err
	}
	if s.ProcessesTotal, err = r.uvarint(); err != nil {
		return nil, err
	}
	if s.ProcsRunning, err = r.uvarint(); err != nil {
		return nil, err
	}
	if s.ProcsBlocked, err = r.uvarint(); err != nil {
		return nil, err
	}
	if s.BootTimeEpoch, err = r.varint(); err != nil {
		return nil, err
	}
	return s, nil
}
