package collector

import (
	"context"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
	"github.com/weaponry/snapwatch/internal/pgstore"
)

// collectPgStatActivity has no cache (spec §4.4.2 table): re-query every tick.
func collectPgStatActivity(ctx context.Context, db *pgstore.DB, in *interner.Interner) ([]model.PgStatActivity, error) {
	rows, err := db.Conn.Query(ctx, pgStatActivityQuery(db.ServerVersion))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PgStatActivity
	for rows.Next() {
		var a model.PgStatActivity
		var datname, usename, state, waitType, waitEvent, query string
		if err := rows.Scan(&a.PID, &datname, &usename, &state, &waitType, &waitEvent, &query,
			&a.XactStartEpoch, &a.QueryStartEpoch, &a.StateChangeEpoch, &a.QueryID); err != nil {
			log.Debugf("collector: pg_stat_activity: scan row: %s; skip", err)
			continue
		}
		a.DatabaseHash = in.Intern(datname)
		a.UsernameHash = in.Intern(usename)
		a.StateHash = in.Intern(state)
		a.WaitEventTypeHash = in.Intern(waitType)
		a.WaitEventHash = in.Intern(waitEvent)
		a.QueryHash = in.Intern(query)
		out = append(out, a)
	}
	return out, rows.Err()
}

func collectPgStatDatabase(ctx context.Context, db *pgstore.DB, in *interner.Interner) ([]model.PgStatDatabase, error) {
	rows, err := db.Conn.Query(ctx, pgStatDatabaseQuery(db.ServerVersion))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PgStatDatabase
	for rows.Next() {
		var d model.PgStatDatabase
		var datname string
		if err := rows.Scan(&d.DatID, &datname, &d.NumBackends, &d.XactCommit, &d.XactRollback,
			&d.BlksRead, &d.BlksHit, &d.TupReturned, &d.TupFetched, &d.TupInserted, &d.TupUpdated,
			&d.TupDeleted, &d.Conflicts, &d.TempFiles, &d.TempBytes, &d.Deadlocks,
			&d.SessionTimeMs, &d.ActiveTimeMs, &d.IdleInTransactionTimeMs,
			&d.Sessions, &d.SessionsAbandoned, &d.SessionsFatal, &d.SessionsKilled); err != nil {
			log.Debugf("collector: pg_stat_database: scan row: %s; skip", err)
			continue
		}
		d.DatnameHash = in.Intern(datname)
		out = append(out, d)
	}
	return out, rows.Err()
}

func collectPgStatBgwriter(ctx context.Context, db *pgstore.DB) (*model.PgStatBgwriter, error) {
	var bg model.PgStatBgwriter
	err := db.Conn.QueryRow(ctx, queryPgStatBgwriter).Scan(
		&bg.CheckpointsTimed, &bg.CheckpointsReq,
		&bg.CheckpointWriteTimeMs, &bg.CheckpointSyncTimeMs,
		&bg.BuffersCheckpoint, &bg.BuffersClean, &bg.MaxwrittenClean,
		&bg.BuffersBackend, &bg.BuffersBackendFsync, &bg.BuffersAlloc)
	if err != nil {
		return nil, err
	}
	return &bg, nil
}

func collectPgLockTree(ctx context.Context, db *pgstore.DB, in *interner.Interner) ([]model.PgLockNode, error) {
	rows, err := db.Conn.Query(ctx, queryPgLockTree)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PgLockNode
	for rows.Next() {
		var n model.PgLockNode
		var mode, relation, query string
		if err := rows.Scan(&n.PID, &n.RootPID, &n.Depth, &mode, &relation, &query); err != nil {
			log.Debugf("collector: pg_locks tree: scan row: %s; skip", err)
			continue
		}
		n.LockModeHash = in.Intern(mode)
		n.RelationHash = in.Intern(relation)
		n.QueryHash = in.Intern(query)
		out = append(out, n)
	}
	return out, rows.Err()
}

// cachedStatement/cachedUserTable/cachedUserIndex/cachedSetting hold the
// TTL-cached view rows as plain strings, per spec §4.4.2: "TTL caches
// store original strings plus counters, NOT interned hashes".

type cachedStatement struct {
	queryID                                         uint64
	database, username, queryText                   string
	calls, rows                                      uint64
	totalExecMs, meanExecMs, totalPlanMs             float64
	sharedHit, sharedRead, sharedDirtied, sharedWrit uint64
	localHit, localRead, tempRead, tempWrit          uint64
	walRecords, walBytes                             uint64
}

func (src *PgSource) fetchStatStatements(ctx context.Context, in *interner.Interner) []model.PgStatStatement {
	if src.statStatements.expired(src.Cfg.StatStatementsTTL) {
		rows, err := queryStatStatements(ctx, src.statStatementsHost, src.Cfg.StatStatementsLimit)
		if err != nil {
			log.Warnf("collector: pg_stat_statements: %s", err)
			return nil
		}
		src.statStatements.store(rows)
	}
	cached, _ := src.statStatements.payload.([]cachedStatement)
	out := make([]model.PgStatStatement, 0, len(cached))
	for _, c := range cached {
		out = append(out, model.PgStatStatement{
			QueryID:         c.queryID,
			DatabaseHash:    in.Intern(c.database),
			UsernameHash:    in.Intern(c.username),
			QueryTextHash:   in.Intern(c.queryText),
			Calls:           c.calls,
			Rows:            c.rows,
			TotalExecTimeMs: c.totalExecMs,
			MeanExecTimeMs:  c.meanExecMs,
			TotalPlanTimeMs: c.totalPlanMs,
			SharedBlksHit:   c.sharedHit,
			SharedBlksRead:  c.sharedRead,
			SharedBlksDirtied: c.sharedDirtied,
			SharedBlksWritten: c.sharedWrit,
			LocalBlksHit:    c.localHit,
			LocalBlksRead:   c.localRead,
			TempBlksRead:    c.tempRead,
			TempBlksWritten: c.tempWrit,
			WalRecords:      c.walRecords,
			WalBytes:        c.walBytes,
		})
	}
	return out
}

func queryStatStatements(ctx context.Context, db *pgstore.DB, limit int) ([]cachedStatement, error) {
	rows, err := db.Conn.Query(ctx, pgStatStatementsQuery(db.ServerVersion, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cachedStatement
	for rows.Next() {
		var c cachedStatement
		if err := rows.Scan(&c.queryID, &c.database, &c.username, &c.queryText,
			&c.calls, &c.rows, &c.totalExecMs, &c.meanExecMs, &c.totalPlanMs,
			&c.sharedHit, &c.sharedRead, &c.sharedDirtied, &c.sharedWrit,
			&c.localHit, &c.localRead, &c.tempRead, &c.tempWrit,
			&c.walRecords, &c.walBytes); err != nil {
			log.Debugf("collector: pg_stat_statements: scan row: %s; skip", err)
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type cachedUserTable struct {
	relID                                                    uint32
	schema, relname                                          string
	seqScan, seqTupRead, idxScan, idxTupFetch                uint64
	nTupIns, nTupUpd, nTupDel, nTupHotUpd                    uint64
	nLiveTup, nDeadTup                                       int64
	vacuumCount, autovacuumCount, analyzeCount, autoanalyzeCount uint64
	heapBlksRead, heapBlksHit                                uint64
}

func (src *PgSource) fetchUserTables(ctx context.Context, in *interner.Interner) []model.PgStatUserTable {
	if src.userTables.expired(src.Cfg.UserTablesTTL) {
		var all []cachedUserTable
		for _, db := range src.Pool.Clients() {
			rows, err := queryUserTables(ctx, db)
			if err != nil {
				log.Warnf("collector: pg_stat_user_tables on %s: %s", db.Config.Database, err)
				continue
			}
			all = append(all, rows...)
		}
		src.userTables.store(all)
	}
	cached, _ := src.userTables.payload.([]cachedUserTable)
	out := make([]model.PgStatUserTable, 0, len(cached))
	for _, c := range cached {
		out = append(out, model.PgStatUserTable{
			RelID: c.relID, SchemaHash: in.Intern(c.schema), RelnameHash: in.Intern(c.relname),
			SeqScan: c.seqScan, SeqTupRead: c.seqTupRead, IdxScan: c.idxScan, IdxTupFetch: c.idxTupFetch,
			NTupIns: c.nTupIns, NTupUpd: c.nTupUpd, NTupDel: c.nTupDel, NTupHotUpd: c.nTupHotUpd,
			NLiveTup: c.nLiveTup, NDeadTup: c.nDeadTup,
			VacuumCount: c.vacuumCount, AutovacuumCount: c.autovacuumCount,
			AnalyzeCount: c.analyzeCount, AutoanalyzeCount: c.autoanalyzeCount,
			HeapBlksRead: c.heapBlksRead, HeapBlksHit: c.heapBlksHit,
		})
	}
	return out
}

func queryUserTables(ctx context.Context, db *pgstore.DB) ([]cachedUserTable, error) {
	rows, err := db.Conn.Query(ctx, queryPgStatUserTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cachedUserTable
	for rows.Next() {
		var c cachedUserTable
		if err := rows.Scan(&c.relID, &c.schema, &c.relname,
			&c.seqScan, &c.seqTupRead, &c.idxScan, &c.idxTupFetch,
			&c.nTupIns, &c.nTupUpd, &c.nTupDel, &c.nTupHotUpd, &c.nLiveTup, &c.nDeadTup,
			&c.vacuumCount, &c.autovacuumCount, &c.analyzeCount, &c.autoanalyzeCount,
			&c.heapBlksRead, &c.heapBlksHit); err != nil {
			log.Debugf("collector: pg_stat_user_tables: scan row: %s; skip", err)
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type cachedUserIndex struct {
	indexRelID, relID                    uint32
	schema, relname, indexrelname        string
	idxScan, idxTupRead, idxTupFetch     uint64
	idxBlksRead, idxBlksHit              uint64
}

func (src *PgSource) fetchUserIndexes(ctx context.Context, in *interner.Interner) []model.PgStatUserIndex {
	if src.userIndexes.expired(src.Cfg.UserIndexesTTL) {
		var all []cachedUserIndex
		for _, db := range src.Pool.Clients() {
			rows, err := queryUserIndexes(ctx, db)
			if err != nil {
				log.Warnf("collector: pg_stat_user_indexes on %s: %s", db.Config.Database, err)
				continue
			}
			all = append(all, rows...)
		}
		src.userIndexes.store(all)
	}
	cached, _ := src.userIndexes.payload.([]cachedUserIndex)
	out := make([]model.PgStatUserIndex, 0, len(cached))
	for _, c := range cached {
		out = append(out, model.PgStatUserIndex{
			IndexRelID: c.indexRelID, RelID: c.relID,
			SchemaHash: in.Intern(c.schema), RelnameHash: in.Intern(c.relname),
			IndexrelnameHash: in.Intern(c.indexrelname),
			IdxScan:          c.idxScan, IdxTupRead: c.idxTupRead, IdxTupFetch: c.idxTupFetch,
			IdxBlksRead: c.idxBlksRead, IdxBlksHit: c.idxBlksHit,
		})
	}
	return out
}

func queryUserIndexes(ctx context.Context, db *pgstore.DB) ([]cachedUserIndex, error) {
	rows, err := db.Conn.Query(ctx, queryPgStatUserIndexes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cachedUserIndex
	for rows.Next() {
		var c cachedUserIndex
		if err := rows.Scan(&c.indexRelID, &c.relID, &c.schema, &c.relname, &c.indexrelname,
			&c.idxScan, &c.idxTupRead, &c.idxTupFetch, &c.idxBlksRead, &c.idxBlksHit); err != nil {
			log.Debugf("collector: pg_stat_user_indexes: scan row: %s; skip", err)
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type cachedSetting struct {
	name, setting, unit string
}

func (src *PgSource) fetchSettings(ctx context.Context, in *interner.Interner) []model.PgSetting {
	if src.settings.expired(src.Cfg.SettingsTTL) {
		rows, err := queryPgSettingsRows(ctx, src.Pool.Main)
		if err != nil {
			log.Warnf("collector: pg_settings: %s", err)
			return nil
		}
		src.settings.store(rows)
	}
	cached, _ := src.settings.payload.([]cachedSetting)
	out := make([]model.PgSetting, 0, len(cached))
	for _, c := range cached {
		out = append(out, model.PgSetting{
			NameHash: in.Intern(c.name), SettingHash: in.Intern(c.setting), UnitHash: in.Intern(c.unit),
		})
	}
	return out
}

func queryPgSettingsRows(ctx context.Context, db *pgstore.DB) ([]cachedSetting, error) {
	rows, err := db.Conn.Query(ctx, queryPgSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cachedSetting
	for rows.Next() {
		var c cachedSetting
		if err := rows.Scan(&c.name, &c.setting, &c.unit); err != nil {
			log.Debugf("collector: pg_settings: scan row: %s; skip", err)
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
