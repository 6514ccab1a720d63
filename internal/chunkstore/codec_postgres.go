package chunkstore

import "github.com/weaponry/snapwatch/internal/model"

func encodePgStatActivity(w *writer, as []model.PgStatActivity) {
	w.uvarint(uint64(len(as)))
	for _, a := range as {
		w.varint(int64(a.PID))
		w.hash(a.DatabaseHash)
		w.hash(a.UsernameHash)
		w.hash(a.StateHash)
		w.hash(a.WaitEventTypeHash)
		w.hash(a.WaitEventHash)
		w.hash(a.QueryHash)
		w.uvarint(a.QueryID)
		w.varint(a.XactStartEpoch)
		w.varint(a.QueryStartEpoch)
		w.varint(a.StateChangeEpoch)
	}
}

func decodePgStatActivity(r *reader) ([]model.PgStatActivity, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgStatActivity, 0, n)
	for i := uint64(0); i < n; i++ {
		var a model.PgStatActivity
		pid, err := r.varint()
		if err != nil {
			return nil, err
		}
		a.PID = int32(pid)
		if a.DatabaseHash, err = r.hash(); err != nil {
			return nil, err
		}
		if a.UsernameHash, err = r.hash(); err != nil {
			return nil, err
		}
		if a.StateHash, err = r.hash(); err != nil {
			return nil, err
		}
		if a.WaitEventTypeHash, err = r.hash(); err != nil {
			return nil, err
		}
		if a.WaitEventHash, err = r.hash(); err != nil {
			return nil, err
		}
		if a.QueryHash, err = r.hash(); err != nil {
			return nil, err
		}
		if a.QueryID, err = r.uvarint(); err != nil {
			return nil, err
		}
		if a.XactStartEpoch, err = r.varint(); err != nil {
			return nil, err
		}
		if a.QueryStartEpoch, err = r.varint(); err != nil {
			return nil, err
		}
		if a.StateChangeEpoch, err = r.varint(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func encodePgStatStatements(w *writer, ss []model.PgStatStatement) {
	w.uvarint(uint64(len(ss)))
	for _, s := range ss {
		w.uvarint(s.QueryID)
		w.hash(s.DatabaseHash)
		w.hash(s.UsernameHash)
		w.hash(s.QueryTextHash)
		w.uvarint(s.Calls)
		w.uvarint(s.Rows)
		w.f64(s.TotalExecTimeMs)
		w.f64(s.MeanExecTimeMs)
		w.f64(s.TotalPlanTimeMs)
		w.uvarint(s.SharedBlksHit)
		w.uvarint(s.SharedBlksRead)
		w.uvarint(s.SharedBlksDirtied)
		w.uvarint(s.SharedBlksWritten)
		w.uvarint(s.LocalBlksHit)
		w.uvarint(s.LocalBlksRead)
		w.uvarint(s.TempBlksRead)
		w.uvarint(s.TempBlksWritten)
		w.uvarint(s.WalRecords)
		w.uvarint(s.WalBytes)
	}
}

func decodePgStatStatements(r *reader) ([]model.PgStatStatement, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgStatStatement, 0, n)
	for i := uint64(0); i < n; i++ {
		var s model.PgStatStatement
		if s.QueryID, err = r.uvarint(); err != nil {
			return nil, err
		}
		if s.DatabaseHash, err = r.hash(); err != nil {
			return nil, err
		}
		if s.UsernameHash, err = r.hash(); err != nil {
			return nil, err
		}
		if s.QueryTextHash, err = r.hash(); err != nil {
			return nil, err
		}
		if s.Calls, err = r.uvarint(); err != nil {
			return nil, err
		}
		if s.Rows, err = r.uvarint(); err != nil {
			return nil, err
		}
		if s.TotalExecTimeMs, err = r.f64(); err != nil {
			return nil, err
		}
		if s.MeanExecTimeMs, err = r.f64(); err != nil {
			return nil, err
		}
		if s.TotalPlanTimeMs, err = r.f64(); err != nil {
			return nil, err
		}
		fields := []*uint64{&s.SharedBlksHit, &s.SharedBlksRead, &s.SharedBlksDirtied, &s.SharedBlksWritten, &s.LocalBlksHit, &s.LocalBlksRead, &s.TempBlksRead, &s.TempBlksWritten, &s.WalRecords, &s.WalBytes}
		for _, f := range fields {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func encodePgStatDatabase(w *writer, ds []model.PgStatDatabase) {
	w.uvarint(uint64(len(ds)))
	for _, d := range ds {
		w.uvarint(uint64(d.DatID))
		w.hash(d.DatnameHash)
		w.varint(int64(d.NumBackends))
		w.uvarint(d.XactCommit)
		w.uvarint(d.XactRollback)
		w.uvarint(d.BlksRead)
		w.uvarint(d.BlksHit)
		w.uvarint(d.TupReturned)
		w.uvarint(d.TupFetched)
		w.uvarint(d.TupInserted)
		w.uvarint(d.TupUpdated)
		w.uvarint(d.TupDeleted)
		w.uvarint(d.Conflicts)
		w.uvarint(d.TempFiles)
		w.uvarint(d.TempBytes)
		w.uvarint(d.Deadlocks)
		w.f64(d.SessionTimeMs)
		w.f64(d.ActiveTimeMs)
		w.f64(d.IdleInTransactionTimeMs)
		w.uvarint(d.Sessions)
		w.uvarint(d.SessionsAbandoned)
		w.uvarint(d.SessionsFatal)
		w.uvarint(d.SessionsKilled)
	}
}

func decodePgStatDatabase(r *reader) ([]model.PgStatDatabase, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgStatDatabase, 0, n)
	for i := uint64(0); i < n; i++ {
		var d model.PgStatDatabase
		datid, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		d.DatID = uint32(datid)
		if d.DatnameHash, err = r.hash(); err != nil {
			return nil, err
		}
		nb, err := r.varint()
		if err != nil {
			return nil, err
		}
		d.NumBackends = int32(nb)
		fields := []*uint64{&d.XactCommit, &d.XactRollback, &d.BlksRead, &d.BlksHit, &d.TupReturned, &d.TupFetched, &d.TupInserted, &d.TupUpdated, &d.TupDeleted, &d.Conflicts, &d.TempFiles, &d.TempBytes, &d.Deadlocks}
		for _, f := range fields {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		if d.SessionTimeMs, err = r.f64(); err != nil {
			return nil, err
		}
		if d.ActiveTimeMs, err = r.f64(); err != nil {
			return nil, err
		}
		if d.IdleInTransactionTimeMs, err = r.f64(); err != nil {
			return nil, err
		}
		fields2 := []*uint64{&d.Sessions, &d.SessionsAbandoned, &d.SessionsFatal, &d.SessionsKilled}
		for _, f := range fields2 {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func encodePgStatUserTables(w *writer, ts []model.PgStatUserTable) {
	w.uvarint(uint64(len(ts)))
	for _, t := range ts {
		w.uvarint(uint64(t.RelID))
		w.hash(t.SchemaHash)
		w.hash(t.RelnameHash)
		w.uvarint(t.SeqScan)
		w.uvarint(t.SeqTupRead)
		w.uvarint(t.IdxScan)
		w.uvarint(t.IdxTupFetch)
		w.uvarint(t.NTupIns)
		w.uvarint(t.NTupUpd)
		w.uvarint(t.NTupDel)
		w.uvarint(t.NTupHotUpd)
		w.varint(t.NLiveTup)
		w.varint(t.NDeadTup)
		w.uvarint(t.VacuumCount)
		w.uvarint(t.AutovacuumCount)
		w.uvarint(t.AnalyzeCount)
		w.uvarint(t.AutoanalyzeCount)
		w.uvarint(t.HeapBlksRead)
		w.uvarint(t.HeapBlksHit)
	}
}

func decodePgStatUserTables(r *reader) ([]model.PgStatUserTable, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgStatUserTable, 0, n)
	for i := uint64(0); i < n; i++ {
		var t model.PgStatUserTable
		relid, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		t.RelID = uint32(relid)
		if t.SchemaHash, err = r.hash(); err != nil {
			return nil, err
		}
		if t.RelnameHash, err = r.hash(); err != nil {
			return nil, err
		}
		ufields := []*uint64{&t.SeqScan, &t.SeqTupRead, &t.IdxScan, &t.IdxTupFetch, &t.NTupIns, &t.NTupUpd, &t.NTupDel, &t.NTupHotUpd}
		for _, f := range ufields {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		if t.NLiveTup, err = r.varint(); err != nil {
			return nil, err
		}
		if t.NDeadTup, err = r.varint(); err != nil {
			return nil, err
		}
		ufields2 := []*uint64{&t.VacuumCount, &t.AutovacuumCount, &t.AnalyzeCount, &t.AutoanalyzeCount, &t.HeapBlksRead, &t.HeapBlksHit}
		for _, f := range ufields2 {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func encodePgStatUserIndexes(w *writer, is []model.PgStatUserIndex) {
	w.uvarint(uint64(len(is)))
	for _, idx := range is {
		w.uvarint(uint64(idx.IndexRelID))
		w.uvarint(uint64(idx.RelID))
		w.hash(idx.SchemaHash)
		w.hash(idx.RelnameHash)
		w.hash(idx.IndexrelnameHash)
		w.uvarint(idx.IdxScan)
		w.uvarint(idx.IdxTupRead)
		w.uvarint(idx.IdxTupFetch)
		w.uvarint(idx.IdxBlksRead)
		w.uvarint(idx.IdxBlksHit)
	}
}

func decodePgStatUserIndexes(r *reader) ([]model.PgStatUserIndex, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgStatUserIndex, 0, n)
	for i := uint64(0); i < n; i++ {
		var idx model.PgStatUserIndex
		v, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		idx.IndexRelID = uint32(v)
		if v, err = r.uvarint(); err != nil {
			return nil, err
		}
		idx.RelID = uint32(v)
		if idx.SchemaHash, err = r.hash(); err != nil {
			return nil, err
		}
		if idx.RelnameHash, err = r.hash(); err != nil {
			return nil, err
		}
		if idx.IndexrelnameHash, err = r.hash(); err != nil {
			return nil, err
		}
		fields := []*uint64{&idx.IdxScan, &idx.IdxTupRead, &idx.IdxTupFetch, &idx.IdxBlksRead, &idx.IdxBlksHit}
		for _, f := range fields {
			if *f, err = r.uvarint(); err != nil {
				return nil, err
			}
		}
		out = append(out, idx)
	}
	return out, nil
}

func encodePgStatBgwriter(w *writer, b *model.PgStatBgwriter) {
	if b == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.uvarint(b.CheckpointsTimed)
	w.uvarint(b.CheckpointsReq)
	w.f64(b.CheckpointWriteTimeMs)
	w.f64(b.CheckpointSyncTimeMs)
	w.uvarint(b.BuffersCheckpoint)
	w.uvarint(b.BuffersClean)
	w.uvarint(b.MaxwrittenClean)
	w.uvarint(b.BuffersBackend)
	w.uvarint(b.BuffersBackendFsync)
	w.uvarint(b.BuffersAlloc)
}

func decodePgStatBgwriter(r *reader) (*model.PgStatBgwriter, error) {
	present, err := r.u8()
	if err != nil || present == 0 {
		return nil, err
	}
	b := &model.PgStatBgwriter{}
	if b.CheckpointsTimed, err = r.uvarint(); err != nil {
		return nil, err
	}
	if b.CheckpointsReq, err = r.uvarint(); err != nil {
		return nil, err
	}
	if b.CheckpointWriteTimeMs, err = r.f64(); err != nil {
		return nil, err
	}
	if b.CheckpointSyncTimeMs, err = r.f64(); err != nil {
		return nil, err
	}
	fields := []*uint64{&b.BuffersCheckpoint, &b.BuffersClean, &b.MaxwrittenClean, &b.BuffersBackend, &b.BuffersBackendFsync, &b.BuffersAlloc}
	for _, f := range fields {
		if *f, err = r.uvarint(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func encodePgLockTree(w *writer, ls []model.PgLockNode) {
	w.uvarint(uint64(len(ls)))
	for _, l := range ls {
		w.varint(int64(l.PID))
		w.varint(int64(l.RootPID))
		w.varint(int64(l.Depth))
		w.hash(l.LockModeHash)
		w.hash(l.RelationHash)
		w.hash(l.QueryHash)
	}
}

func decodePgLockTree(r *reader) ([]model.PgLockNode, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgLockNode, 0, n)
	for i := uint64(0); i < n; i++ {
		var l model.PgLockNode
		pid, err := r.varint()
		if err != nil {
			return nil, err
		}
		l.PID = int32(pid)
		root, err := r.varint()
		if err != nil {
			return nil, err
		}
		l.RootPID = int32(root)
		depth, err := r.varint()
		if err != nil {
			return nil, err
		}
		l.Depth = int32(depth)
		if l.LockModeHash, err = r.hash(); err != nil {
			return nil, err
		}
		if l.RelationHash, err = r.hash(); err != nil {
			return nil, err
		}
		if l.QueryHash, err = r.hash(); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func encodePgLogEvents(w *writer, es []model.PgLogEvent) {
	w.uvarint(uint64(len(es)))
	for _, e := range es {
		w.varint(e.TimestampEpoch)
		w.u8(uint8(e.Kind))
		w.hash(e.MessageHash)
		w.hash(e.PatternHash)
	}
}

func decodePgLogEvents(r *reader) ([]model.PgLogEvent, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgLogEvent, 0, n)
	for i := uint64(0); i < n; i++ {
		var e model.PgLogEvent
		if e.TimestampEpoch, err = r.varint(); err != nil {
			return nil, err
		}
		k, err := r.u8()
		if err != nil {
			return nil, err
		}
		e.Kind = model.LogEventKind(k)
		if e.MessageHash, err = r.hash(); err != nil {
			return nil, err
		}
		if e.PatternHash, err = r.hash(); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func encodePgSettings(w *writer, ss []model.PgSetting) {
	w.uvarint(uint64(len(ss)))
	for _, s := range ss {
		w.hash(s.NameHash)
		w.hash(s.SettingHash)
		w.hash(s.UnitHash)
	}
}

func decodePgSettings(r *reader) ([]model.PgSetting, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out := make([]model.PgSetting, 0, n)
	for i := uint64(0); i < n; i++ {
		var s model.PgSetting
		if s.NameHash, err = r.hash(); err != nil {
			return nil, err
		}
		if s.SettingHash, err = r.hash(); err != nil {
			return nil, err
		}
		if s.UnitHash, err = r.hash(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
