package collector

import "fmt"

// Query shapes are version-aware per spec §4.4.2: columns that don't
// exist on older servers are projected as literal zeros, so the scanned
// struct gets zero values for them.

const queryPgStatActivity = `
SELECT pid, datname, usename, state,
       coalesce(wait_event_type, ''), coalesce(wait_event, ''),
       coalesce(query, ''),
       extract(epoch from xact_start)::bigint,
       extract(epoch from query_start)::bigint,
       extract(epoch from state_change)::bigint
       %s
FROM pg_stat_activity
WHERE pid <> pg_backend_pid()`

const queryIDColumnPG14 = `, coalesce(query_id, 0)`
const queryIDColumnLegacy = `, 0::bigint`

func pgStatActivityQuery(serverVersion int) string {
	col := queryIDColumnLegacy
	if serverVersion >= 140000 {
		col = queryIDColumnPG14
	}
	return fmt.Sprintf(queryPgStatActivity, col)
}

func pgStatStatementsQuery(serverVersion int, limit int) string {
	if serverVersion >= 130000 {
		return fmt.Sprintf(`
SELECT queryid, coalesce(d.datname, ''), coalesce(u.usename, ''), query,
       calls, rows,
       total_exec_time, mean_exec_time, total_plan_time,
       shared_blks_hit, shared_blks_read, shared_blks_dirtied, shared_blks_written,
       local_blks_hit, local_blks_read, temp_blks_read, temp_blks_written,
       wal_records, wal_bytes
FROM pg_stat_statements s
LEFT JOIN pg_database d ON d.oid = s.dbid
LEFT JOIN pg_user u ON u.usesysid = s.userid
ORDER BY total_exec_time DESC
LIMIT %d`, limit)
	}
	return fmt.Sprintf(`
SELECT queryid, coalesce(d.datname, ''), coalesce(u.usename, ''), query,
       calls, rows,
       total_time, mean_time, 0,
       shared_blks_hit, shared_blks_read, shared_blks_dirtied, shared_blks_written,
       local_blks_hit, local_blks_read, temp_blks_read, temp_blks_written,
       0, 0
FROM pg_stat_statements s
LEFT JOIN pg_database d ON d.oid = s.dbid
LEFT JOIN pg_user u ON u.usesysid = s.userid
ORDER BY total_time DESC
LIMIT %d`, limit)
}

func pgStatDatabaseQuery(serverVersion int) string {
	if serverVersion >= 140000 {
		return `
SELECT datid, datname, numbackends, xact_commit, xact_rollback, blks_read, blks_hit,
       tup_returned, tup_fetched, tup_inserted, tup_updated, tup_deleted,
       conflicts, temp_files, temp_bytes, deadlocks,
       session_time, active_time, idle_in_transaction_time,
       sessions, sessions_abandoned, sessions_fatal, sessions_killed
FROM pg_stat_database
WHERE datname IS NOT NULL`
	}
	return `
SELECT datid, datname, numbackends, xact_commit, xact_rollback, blks_read, blks_hit,
       tup_returned, tup_fetched, tup_inserted, tup_updated, tup_deleted,
       conflicts, temp_files, temp_bytes, deadlocks,
       0, 0, 0, 0, 0, 0, 0
FROM pg_stat_database
WHERE datname IS NOT NULL`
}

const queryPgStatUserTables = `
SELECT relid, schemaname, relname,
       seq_scan, seq_tup_read, idx_scan, idx_tup_fetch,
       n_tup_ins, n_tup_upd, n_tup_del, n_tup_hot_upd, n_live_tup, n_dead_tup,
       vacuum_count, autovacuum_count, analyze_count, autoanalyze_count,
       heap_blks_read, heap_blks_hit
FROM pg_stat_user_tables`

const queryPgStatUserIndexes = `
SELECT indexrelid, relid, schemaname, relname, indexrelname,
       idx_scan, idx_tup_read, idx_tup_fetch,
       idx_blks_read, idx_blks_hit
FROM pg_stat_user_indexes i
JOIN pg_statio_user_indexes s USING (indexrelid)`

const queryPgStatBgwriter = `
SELECT checkpoints_timed, checkpoints_req,
       checkpoint_write_time, checkpoint_sync_time,
       buffers_checkpoint, buffers_clean, maxwritten_clean,
       buffers_backend, buffers_backend_fsync, buffers_alloc
FROM pg_stat_bgwriter`

const queryPgLockTree = `
WITH RECURSIVE tree AS (
    SELECT blocked.pid AS pid, blocked.pid AS root_pid, 1 AS depth,
           locks.mode, locks.relation::regclass::text AS relation,
           a.query
    FROM pg_stat_activity blocked
    JOIN pg_locks locks ON locks.pid = blocked.pid AND NOT locks.granted
    JOIN pg_stat_activity a ON a.pid = blocked.pid
    WHERE cardinality(pg_blocking_pids(blocked.pid)) > 0
    UNION ALL
    SELECT bp, tree.root_pid, tree.depth + 1, tree.mode, tree.relation, tree.query
    FROM tree, unnest(pg_blocking_pids(tree.pid)) AS bp
)
SELECT pid, root_pid, depth, coalesce(mode, ''), coalesce(relation, ''), coalesce(query, '')
FROM tree`

const queryPgSettings = `SELECT name, setting, coalesce(unit, '') FROM pg_settings`

const queryPgIsInRecovery = `SELECT pg_is_in_recovery()`

const queryPgStatReplication = `
SELECT coalesce(client_addr::text, ''), coalesce(state, ''),
       coalesce(pg_wal_lsn_diff(pg_current_wal_lsn(), replay_lsn), 0)
FROM pg_stat_replication`

const queryPgReplayLagStandby = `
SELECT extract(epoch from now() - pg_last_xact_replay_timestamp())`
