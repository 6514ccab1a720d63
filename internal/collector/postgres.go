package collector

import (
	"context"
	"time"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
	"github.com/weaponry/snapwatch/internal/pgstore"
)

// PgConfig controls the PostgreSQL source's caching and row limits
// (spec §4.4.2).
type PgConfig struct {
	StatStatementsTTL time.Duration // 0 disables caching (re-query every tick); negative omits the view
	UserTablesTTL     time.Duration
	UserIndexesTTL    time.Duration
	SettingsTTL       time.Duration
	ReplicationTTL    time.Duration

	StatStatementsLimit int
}

// DefaultPgConfig matches the TTLs in spec §4.4.2's caching table.
func DefaultPgConfig() PgConfig {
	return PgConfig{
		StatStatementsTTL:   30 * time.Second,
		UserTablesTTL:       30 * time.Second,
		UserIndexesTTL:      30 * time.Second,
		SettingsTTL:         time.Hour,
		ReplicationTTL:      30 * time.Second,
		StatStatementsLimit: 1000,
	}
}

// PgSource holds the connection pool and the per-view TTL caches that
// persist across ticks (spec §4.4.2).
type PgSource struct {
	Pool *pgstore.Pool
	Cfg  PgConfig

	statStatements ttlCache
	userTables     ttlCache
	userIndexes    ttlCache
	settings       ttlCache
	replication    ttlCache

	lastExtensionProbe time.Time
	statStatementsHost *pgstore.DB // which client (main or pool) has pg_stat_statements

	lastDBListRefresh time.Time
}

const extensionDiscoveryTTL = 5 * time.Minute
const dbListRefreshInterval = time.Minute

// ttlCache is a generic re-query-on-expiry cache. The cached payload is
// an opaque value the caller interprets; only the timestamp logic is
// shared (spec §4.4.2: "TTL caches store original strings plus
// counters, NOT interned hashes").
type ttlCache struct {
	fetchedAt time.Time
	payload   interface{}
}

func (c *ttlCache) expired(ttl time.Duration) bool {
	return ttl <= 0 || time.Since(c.fetchedAt) >= ttl
}

func (c *ttlCache) store(payload interface{}) {
	c.fetchedAt = time.Now()
	c.payload = payload
}

// collectPostgres fills s with every PostgreSQL block, respecting the
// TTL caches and the extension-discovery/pool-refresh cadences (spec
// §4.4.2, §4.4.3 step 3).
func collectPostgres(ctx context.Context, s *model.Snapshot, in *interner.Interner, src *PgSource) {
	src.Pool.Tick(ctx)

	if time.Since(src.lastDBListRefresh) >= dbListRefreshInterval {
		if names, err := src.Pool.Main.AllDatabases(ctx); err != nil {
			log.Warnf("collector: list databases: %s", err)
		} else {
			src.Pool.EnsurePoolClients(ctx, names)
		}
		src.lastDBListRefresh = time.Now()
	}

	if time.Since(src.lastExtensionProbe) >= extensionDiscoveryTTL {
		src.discoverStatStatements(ctx)
		src.lastExtensionProbe = time.Now()
	}

	main := src.Pool.Main

	if rows, err := collectPgStatActivity(ctx, main, in); err != nil {
		log.Warnf("collector: pg_stat_activity: %s", err)
		src.Pool.SetLastError(err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgStatActivity, PgStatActivity: rows})
	}

	if rows, err := collectPgStatDatabase(ctx, main, in); err != nil {
		log.Warnf("collector: pg_stat_database: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgStatDatabase, PgStatDatabase: rows})
	}

	if bg, err := collectPgStatBgwriter(ctx, main); err != nil {
		log.Warnf("collector: pg_stat_bgwriter: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgStatBgwriter, PgStatBgwriter: bg})
	}

	if rows, err := collectPgLockTree(ctx, main, in); err != nil {
		log.Warnf("collector: pg_locks tree: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgLockTree, PgLockTree: rows})
	}

	if src.statStatementsHost != nil && src.Cfg.StatStatementsTTL >= 0 {
		rows := src.fetchStatStatements(ctx, in)
		if rows != nil {
			s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgStatStatements, PgStatStatements: rows})
		}
	}

	if rows := src.fetchUserTables(ctx, in); rows != nil {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgStatUserTables, PgStatUserTables: rows})
	}

	if rows := src.fetchUserIndexes(ctx, in); rows != nil {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgStatUserIndexes, PgStatUserIndexes: rows})
	}

	if rows := src.fetchSettings(ctx, in); rows != nil {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockPgSettings, PgSettings: rows})
	}
}

// discoverStatStatements probes the main client first, then each pool
// client, recording which one hosts pg_stat_statements (spec §4.4.2).
func (src *PgSource) discoverStatStatements(ctx context.Context) {
	src.Pool.Main.ResetExtensionCache()
	if src.Pool.Main.HasExtension(ctx, "pg_stat_statements") {
		src.statStatementsHost = src.Pool.Main
		return
	}
	for _, db := range src.Pool.Clients() {
		if db == src.Pool.Main {
			continue
		}
		db.ResetExtensionCache()
		if db.HasExtension(ctx, "pg_stat_statements") {
			src.statStatementsHost = db
			return
		}
	}
	src.statStatementsHost = nil
}
