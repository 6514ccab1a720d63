package logtail

import (
	"context"
	"sync"
	"time"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
)

// Config selects the file to follow and how its lines are parsed.
type Config struct {
	Path         string
	Format       Format
	PollInterval time.Duration
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return time.Second
	}
	return c.PollInterval
}

type bufferedEvent struct {
	ts      int64
	kind    model.LogEventKind
	message string
}

// Tailer polls one PostgreSQL server log file and buffers parsed
// events for the next collector tick to drain (spec §4.4.3 step 4,
// §4.5). All exported methods are safe for concurrent use; Run is
// meant to execute in its own goroutine.
type Tailer struct {
	cfg Config

	mu  sync.Mutex
	ft  *fileTailer
	buf []bufferedEvent
}

// New opens path at its current end-of-file, per spec §4.5 ("Starts at
// end of file; historic content is ignored").
func New(cfg Config) (*Tailer, error) {
	ft, err := newFileTailer(cfg.Path)
	if err != nil {
		return nil, err
	}
	return &Tailer{cfg: cfg, ft: ft}, nil
}

// SwitchFile redirects the tailer to a new path from its beginning,
// used when pg_current_logfile() reports a rotation to a differently
// named file (teacher: postgres_logs.go's updateLogfile channel).
func (t *Tailer) SwitchFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if path == t.ft.path {
		return
	}
	log.Infof("logtail: switching to %s", path)
	t.ft.switchFile(path)
}

// Run polls the file on cfg.PollInterval until ctx is canceled.
func (t *Tailer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.pollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.poll()
		}
	}
}

func (t *Tailer) poll() {
	t.mu.Lock()
	lines, err := t.ft.readNewLines()
	t.mu.Unlock()
	if err != nil {
		log.Warnf("logtail: read %s: %s", t.cfg.Path, err)
		return
	}
	if len(lines) == 0 {
		return
	}

	now := time.Now().Unix()
	parsed := make([]bufferedEvent, 0, len(lines))
	for _, line := range lines {
		var pl parsedLine
		if t.cfg.Format == FormatCSVLog {
			pl = parseCSVLogLine(line)
		} else {
			pl = parseStderrLine(line)
		}
		if !pl.kept {
			continue
		}
		parsed = append(parsed, bufferedEvent{ts: now, kind: pl.kind, message: pl.message})
	}
	if len(parsed) == 0 {
		return
	}

	t.mu.Lock()
	t.buf = append(t.buf, parsed...)
	t.mu.Unlock()
}

// Drain returns every event buffered since the last Drain, interning
// both the verbatim message and its normalized pattern against in
// (spec §4.4.3 step 4).
func (t *Tailer) Drain(in *interner.Interner) []model.PgLogEvent {
	t.mu.Lock()
	buf := t.buf
	t.buf = nil
	t.mu.Unlock()

	if len(buf) == 0 {
		return nil
	}

	events := make([]model.PgLogEvent, 0, len(buf))
	for _, e := range buf {
		events = append(events, model.PgLogEvent{
			TimestampEpoch: e.ts,
			Kind:           e.kind,
			MessageHash:    in.Intern(e.message),
			PatternHash:    in.Intern(normalizePattern(e.message)),
		})
	}
	return events
}
