// Package pgstore wraps pgx connections to PostgreSQL/PgBouncer and the
// largest-database auto-detection and extension-discovery behavior the
// collector's PostgreSQL source depends on (spec §4.4.2).
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/weaponry/snapwatch/internal/log"
)

const queryLargestDatabase = `
SELECT datname FROM pg_database
WHERE NOT datistemplate AND datallowconn AND datname <> 'postgres'
ORDER BY pg_database_size(oid) DESC
LIMIT 1`

const queryServerVersion = `SHOW server_version_num`

const queryAllDatabases = `
SELECT datname FROM pg_database WHERE NOT datistemplate AND datallowconn`

// DB wraps one pgx connection along with the version and extension
// metadata the collector caches for its lifetime (spec §4.4.2:
// "Connection loss on the main client drops cached metadata").
type DB struct {
	Config        *pgx.ConnConfig
	Conn          *pgx.Conn
	ServerVersion int // server_version_num, read once per connection

	// hasStatStatements is nil until probed; extension discovery sets
	// it explicitly so a negative result doesn't get re-probed every
	// tick before its TTL expires.
	hasStatStatements *bool
}

// Connect opens a connection using connString, enabling the
// simple-protocol compatibility mode PgBouncer requires, and reads the
// server version once.
func Connect(ctx context.Context, connString string) (*DB, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	return ConnectConfig(ctx, config)
}

// ConnectConfig is like Connect but takes an already-parsed config, so
// callers (e.g. the per-database pool) can clone and retarget a known
// good config without re-parsing a DSN.
func ConnectConfig(ctx context.Context, config *pgx.ConnConfig) (*DB, error) {
	cfg := config.Copy()
	cfg.PreferSimpleProtocol = true

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{Config: cfg, Conn: conn}
	if err := db.Conn.QueryRow(ctx, queryServerVersion).Scan(&db.ServerVersion); err != nil {
		log.Warnf("pgstore: read server_version_num: %s", err)
	}
	return db, nil
}

// Close closes the underlying connection, logging but not returning a
// close-time error (mirrors the teacher's best-effort shutdown).
func (db *DB) Close(ctx context.Context) {
	if db.Conn == nil {
		return
	}
	if err := db.Conn.Close(ctx); err != nil {
		log.Warnf("pgstore: close connection: %s; ignore", err)
	}
}

// LargestDatabase returns the name of the largest non-template,
// non-"postgres" database allowed for connection, used by auto-detect
// mode (spec §4.4.2).
func (db *DB) LargestDatabase(ctx context.Context) (string, error) {
	var name string
	if err := db.Conn.QueryRow(ctx, queryLargestDatabase).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}

// AllDatabases lists every database allowed for connection, used to
// build the per-database pool (spec §4.4.2).
func (db *DB) AllDatabases(ctx context.Context) ([]string, error) {
	rows, err := db.Conn.Query(ctx, queryAllDatabases)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// HasExtension reports whether name is installed and queryable,
// caching the result on db so repeated calls within the same TTL
// window are free (spec §4.4.2 extension discovery).
func (db *DB) HasExtension(ctx context.Context, name string) bool {
	if db.hasStatStatements != nil {
		return *db.hasStatStatements
	}

	var exists bool
	checkQuery := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = '%s')", name)
	if err := db.Conn.QueryRow(ctx, checkQuery).Scan(&exists); err != nil {
		log.Errorf("pgstore: check extension %s: %s", name, err)
		return false
	}
	if !exists {
		db.hasStatStatements = &exists
		return false
	}

	contentQuery := fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", name)
	var dummy int
	if err := db.Conn.QueryRow(ctx, contentQuery).Scan(&dummy); err != nil {
		log.Warnf("pgstore: extension %s installed but not queryable: %s", name, err)
		exists = false
	}
	db.hasStatStatements = &exists
	return exists
}

// ResetExtensionCache clears the cached extension probe result so the
// next HasExtension call re-probes (called by the collector's 5-minute
// extension discovery tick).
func (db *DB) ResetExtensionCache() {
	db.hasStatStatements = nil
}

// IsInRecovery reports whether this server is a standby.
func (db *DB) IsInRecovery(ctx context.Context) (bool, error) {
	var recovery bool
	if err := db.Conn.QueryRow(ctx, "SELECT pg_is_in_recovery()").Scan(&recovery); err != nil {
		return false, err
	}
	return recovery, nil
}
