package collector

import (
	"context"
	"time"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/logtail"
	"github.com/weaponry/snapwatch/internal/model"
	"github.com/weaponry/snapwatch/internal/pgstore"
)

// Config bundles the host and PostgreSQL source configuration for one
// Collector.
type Config struct {
	Host HostConfig
	Pg   PgConfig
}

// Collector produces one snapshot per tick from host and PostgreSQL
// sources plus whatever the log tailer has buffered since the last
// tick (spec §4.4, §4.4.3). It runs single-threaded: Tick must not be
// called concurrently with itself.
type Collector struct {
	cfg    Config
	pg     *PgSource
	tailer *logtail.Tailer
}

// New builds a Collector around an already-connected PostgreSQL pool
// and an optional log tailer (nil disables PgLogEvents).
func New(cfg Config, pool *pgstore.Pool, tailer *logtail.Tailer) *Collector {
	return &Collector{
		cfg:    cfg,
		pg:     &PgSource{Pool: pool, Cfg: cfg.Pg},
		tailer: tailer,
	}
}

// Tick implements the protocol in spec §4.4.3: assemble a fresh
// interner, read host then PostgreSQL blocks, drain the log tailer,
// and stamp the snapshot's timestamp.
func (c *Collector) Tick(ctx context.Context, now time.Time) (*model.Snapshot, *interner.Interner) {
	in := interner.New()
	snap := &model.Snapshot{}

	collectHost(snap, in, c.cfg.Host)

	if c.pg != nil && c.pg.Pool != nil {
		collectPostgres(ctx, snap, in, c.pg)
	}

	if c.tailer != nil {
		events := c.tailer.Drain(in)
		if len(events) > 0 {
			snap.Blocks = append(snap.Blocks, model.DataBlock{Kind: model.BlockPgLogEvents, PgLogEvents: events})
		}
	}

	snap.Timestamp = now.Unix()
	return snap, in
}

// LastError returns the most recently observed PostgreSQL-source error,
// used for the provider's last_error() (spec §6.3).
func (c *Collector) LastError() error {
	if c.pg == nil || c.pg.Pool == nil {
		return nil
	}
	return c.pg.Pool.LastError()
}

// InstanceInfo reports the largest-DB name, server version and
// standby status the provider exposes through instance_info() (spec
// §6.3).
func (c *Collector) InstanceInfo(ctx context.Context) (dbName string, serverVersion int, isStandby bool) {
	if c.pg == nil || c.pg.Pool == nil || c.pg.Pool.Main == nil {
		return "", 0, false
	}
	main := c.pg.Pool.Main
	dbName = main.Config.Database
	serverVersion = main.ServerVersion
	if status := c.pg.fetchReplicationStatus(ctx); status != nil {
		isStandby = status.IsStandby
	}
	return dbName, serverVersion, isStandby
}
