package collector

import (
	"context"

	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/pgstore"
)

// ReplicationStatus is the result of the spec §4.4.2 replication probe:
// on a primary it lists each replica's lag, on a standby it reports its
// own lag behind the primary.
type ReplicationStatus struct {
	IsStandby bool
	StandbyLagSeconds float64
	Replicas  []ReplicaLag
}

// ReplicaLag is one row of pg_stat_replication as observed from a
// primary.
type ReplicaLag struct {
	ClientAddr string
	State      string
	LagBytes   int64
}

// fetchReplicationStatus is the TTL-gated entry point used by the
// collector (spec §4.4.2's caching table lists pg_replication_status
// at a 30s TTL, same as the other views). On a cache hit it returns
// the previous result without querying.
func (src *PgSource) fetchReplicationStatus(ctx context.Context) *ReplicationStatus {
	if src.replication.expired(src.Cfg.ReplicationTTL) {
		status, err := queryReplicationStatus(ctx, src.Pool.Main)
		if err != nil {
			log.Warnf("collector: replication status: %s", err)
			return nil
		}
		src.replication.store(status)
	}
	cached, _ := src.replication.payload.(*ReplicationStatus)
	return cached
}

func queryReplicationStatus(ctx context.Context, db *pgstore.DB) (*ReplicationStatus, error) {
	var standby bool
	if err := db.Conn.QueryRow(ctx, queryPgIsInRecovery).Scan(&standby); err != nil {
		return nil, err
	}

	if standby {
		var lag float64
		if err := db.Conn.QueryRow(ctx, queryPgReplayLagStandby).Scan(&lag); err != nil {
			log.Debugf("collector: standby replay lag: %s", err)
		}
		return &ReplicationStatus{IsStandby: true, StandbyLagSeconds: lag}, nil
	}

	rows, err := db.Conn.Query(ctx, queryPgStatReplication)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	status := &ReplicationStatus{}
	for rows.Next() {
		var r ReplicaLag
		if err := rows.Scan(&r.ClientAddr, &r.State, &r.LagBytes); err != nil {
			log.Debugf("collector: pg_stat_replication: scan row: %s; skip", err)
			continue
		}
		status.Replicas = append(status.Replicas, r)
	}
	return status, rows.Err()
}
