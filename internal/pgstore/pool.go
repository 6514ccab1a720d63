package pgstore

import (
	"context"
	"sync"
	"time"

	"github.com/weaponry/snapwatch/internal/log"
)

// largestDBRecheckInterval is how often auto-detect mode re-queries for
// the largest database (spec §4.4.2).
const largestDBRecheckInterval = 10 * time.Minute

// Pool owns the main client plus one client per discovered database,
// and implements largest-database auto-detection (spec §4.4.2).
// Connection loss on the main client drops cached metadata; connection
// loss on a pool client drops only that entry.
type Pool struct {
	mu sync.Mutex

	dsnTemplate string // connection string with dbname left to override
	fixedDBName string // set when the operator explicitly chose a DB

	Main *DB

	pool           map[string]*DB
	lastDetectedAt time.Time

	lastErr error
}

// NewPool connects the main client. If dbName is empty the pool enters
// auto-detection mode and immediately resolves the largest database.
func NewPool(ctx context.Context, dsnTemplate, dbName string) (*Pool, error) {
	main, err := Connect(ctx, withDBName(dsnTemplate, dbName))
	if err != nil {
		return nil, err
	}

	p := &Pool{
		dsnTemplate: dsnTemplate,
		fixedDBName: dbName,
		Main:        main,
		pool:        make(map[string]*DB),
	}

	if dbName == "" {
		if err := p.detectLargest(ctx); err != nil {
			log.Warnf("pgstore: initial largest-database detection failed: %s", err)
		}
	}
	return p, nil
}

// withDBName substitutes dbname into a "dbname=X ..." style DSN
// fragment; an empty name leaves the template's own default in place
// (pgx defaults it to the connecting user's name, matching libpq).
func withDBName(dsnTemplate, name string) string {
	if name == "" {
		return dsnTemplate
	}
	return dsnTemplate + " dbname=" + name
}

// Tick runs the periodic maintenance the pool needs: in auto-detect
// mode, re-checks the largest database every 10 minutes and
// transparently reconnects the main client if it changed (spec
// §4.4.2).
func (p *Pool) Tick(ctx context.Context) {
	if p.fixedDBName != "" {
		return
	}
	p.mu.Lock()
	due := time.Since(p.lastDetectedAt) >= largestDBRecheckInterval
	p.mu.Unlock()
	if !due {
		return
	}
	if err := p.detectLargest(ctx); err != nil {
		log.Warnf("pgstore: largest-database recheck failed: %s", err)
	}
}

func (p *Pool) detectLargest(ctx context.Context) error {
	name, err := p.Main.LargestDatabase(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastDetectedAt = time.Now()

	if p.Main.Config.Database == name {
		return nil
	}

	newMain, err := Connect(ctx, withDBName(p.dsnTemplate, name))
	if err != nil {
		return err
	}
	old := p.Main
	p.Main = newMain
	old.Close(ctx)
	log.Infof("pgstore: switched main connection to largest database %q", name)
	return nil
}

// EnsurePoolClients opens a client for every database in names that
// doesn't already have one, and drops clients for databases no longer
// present.
func (p *Pool) EnsurePoolClients(ctx context.Context, names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}

	for name, db := range p.pool {
		if _, ok := want[name]; !ok {
			db.Close(ctx)
			delete(p.pool, name)
		}
	}

	for name := range want {
		if _, ok := p.pool[name]; ok {
			continue
		}
		cfg := p.Main.Config.Copy()
		cfg.Database = name
		db, err := ConnectConfig(ctx, cfg)
		if err != nil {
			log.Warnf("pgstore: connect pool client for %s: %s", name, err)
			continue
		}
		p.pool[name] = db
	}
}

// Clients returns the main client plus every pool client, for callers
// that need to walk all connected databases (spec §4.4.2: "Per-DB
// collection walks the pool").
func (p *Pool) Clients() []*DB {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*DB, 0, len(p.pool)+1)
	out = append(out, p.Main)
	for _, db := range p.pool {
		out = append(out, db)
	}
	return out
}

// DropPoolClient closes and forgets the client for name, called when a
// per-DB query observes the connection is dead (spec §4.4.2: "Connection
// loss on a pool client drops only that entry").
func (p *Pool) DropPoolClient(ctx context.Context, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if db, ok := p.pool[name]; ok {
		db.Close(ctx)
		delete(p.pool, name)
	}
}

// Close shuts down the main client and every pool client.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Main.Close(ctx)
	for _, db := range p.pool {
		db.Close(ctx)
	}
}

// SetLastError records the most recent PostgreSQL-source error so the
// collector can surface it as the snapshot's last_error (spec §4.4.2
// partial-failure isolation).
func (p *Pool) SetLastError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
}

// LastError returns the most recently recorded PostgreSQL-source error,
// if any.
func (p *Pool) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
