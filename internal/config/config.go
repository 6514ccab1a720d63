// Package config loads snapwatchd's single JSON configuration file and
// applies defaults/validation (teacher: internal/pgscv/config.go).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/weaponry/snapwatch/internal/filter"
)

const (
	defaultTickInterval  = 10 * time.Second
	defaultRootDir       = "/var/lib/snapwatchd"
	defaultMaxAgeDays    = 30
	defaultMaxBytes      = 10 << 30 // 10 GiB
	defaultLogLevel      = "info"
	defaultPostgresPort  = 5432
	defaultLogPollPeriod = time.Second
)

// Postgres holds the connection pieces the collector needs to reach
// the server (spec §6.2). DBName left empty enables largest-database
// auto-detection.
type Postgres struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// ConnString builds a libpq-style connection string; empty fields are
// omitted so PG* environment variables and ~/.pgpass still apply.
func (p Postgres) ConnString() string {
	s := ""
	add := func(k, v string) {
		if v != "" {
			s += k + "=" + v + " "
		}
	}
	add("host", p.Host)
	if p.Port != 0 {
		add("port", fmt.Sprintf("%d", p.Port))
	}
	add("user", p.User)
	add("password", p.Password)
	add("dbname", p.DBName)
	add("sslmode", p.SSLMode)
	return s
}

// DSNTemplate builds the connection string without dbname, the piece
// internal/pgstore.Pool appends per client (spec §4.4.2's largest-DB
// auto-detection and per-database pool clients).
func (p Postgres) DSNTemplate() string {
	t := p
	t.DBName = ""
	return t.ConnString()
}

// LogTailer configures the PostgreSQL server log follower (spec §4.5).
type LogTailer struct {
	Enabled           bool          `json:"enabled"`
	Path              string        `json:"path"`
	Format            string        `json:"format"` // "stderr" or "csvlog"
	PollPeriodSeconds int           `json:"poll_period_seconds"`
	PollPeriod        time.Duration `json:"-"`
}

// ChunkStore configures the rotating snapshot log (spec §4.3).
type ChunkStore struct {
	RootDir    string `json:"root_dir"`
	MaxAgeDays int    `json:"max_age_days"`
	MaxBytes   int64  `json:"max_bytes"`
}

// Config is snapwatchd's whole configuration (spec §6.2, ambient
// stack). It is read from a single JSON file the way the teacher's
// pgscv.Config is.
type Config struct {
	LogLevel string `json:"log_level"`

	TickInterval time.Duration `json:"-"`
	TickIntervalSeconds int    `json:"tick_interval_seconds"`

	Postgres   Postgres               `json:"postgres"`
	LogTailer  LogTailer              `json:"log_tailer"`
	ChunkStore ChunkStore             `json:"chunk_store"`
	Filters    map[string]filter.Filter `json:"filters"`

	ForceCgroup bool `json:"force_cgroup"`
}

// Load reads and parses the JSON config file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate fills in defaults and rejects nonsensical values (teacher:
// Config.Validate in internal/pgscv/config.go).
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	if c.TickIntervalSeconds <= 0 {
		c.TickInterval = defaultTickInterval
	} else {
		c.TickInterval = time.Duration(c.TickIntervalSeconds) * time.Second
	}

	if c.ChunkStore.RootDir == "" {
		c.ChunkStore.RootDir = defaultRootDir
	}
	if c.ChunkStore.MaxAgeDays <= 0 {
		c.ChunkStore.MaxAgeDays = defaultMaxAgeDays
	}
	if c.ChunkStore.MaxBytes <= 0 {
		c.ChunkStore.MaxBytes = defaultMaxBytes
	}

	if c.Postgres.Port == 0 {
		c.Postgres.Port = defaultPostgresPort
	}

	if c.LogTailer.Enabled {
		if c.LogTailer.Path == "" {
			return fmt.Errorf("log_tailer.path is required when log_tailer.enabled is true")
		}
		switch c.LogTailer.Format {
		case "":
			c.LogTailer.Format = "stderr"
		case "stderr", "csvlog":
		default:
			return fmt.Errorf("log_tailer.format must be 'stderr' or 'csvlog', got %q", c.LogTailer.Format)
		}
	}
	if c.LogTailer.PollPeriodSeconds <= 0 {
		c.LogTailer.PollPeriod = defaultLogPollPeriod
	} else {
		c.LogTailer.PollPeriod = time.Duration(c.LogTailer.PollPeriodSeconds) * time.Second
	}

	if c.Filters == nil {
		c.Filters = map[string]filter.Filter{}
	}
	filter.DefaultFilters(c.Filters)
	if err := filter.CompileFilters(c.Filters); err != nil {
		return fmt.Errorf("config: compile filters: %w", err)
	}

	return nil
}
