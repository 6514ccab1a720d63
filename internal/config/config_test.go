package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapwatchd.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidateDefaults(t *testing.T) {
	path := writeConfigFile(t, `{}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Equal(t, defaultTickInterval, cfg.TickInterval)
	assert.Equal(t, defaultRootDir, cfg.ChunkStore.RootDir)
	assert.Equal(t, defaultPostgresPort, cfg.Postgres.Port)
	assert.Equal(t, defaultLogPollPeriod, cfg.LogTailer.PollPeriod)
	assert.NotEmpty(t, cfg.Filters)
}

func TestValidateCustomTickInterval(t *testing.T) {
	path := writeConfigFile(t, `{"tick_interval_seconds": 5}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5e9, float64(cfg.TickInterval))
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	path := writeConfigFile(t, `{"log_tailer": {"enabled": true, "path": "/var/log/postgresql.log", "format": "json"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	err = cfg.Validate()
	assert.Error(t, err)
}

func TestValidateRejectsEnabledTailerWithoutPath(t *testing.T) {
	path := writeConfigFile(t, `{"log_tailer": {"enabled": true}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	err = cfg.Validate()
	assert.Error(t, err)
}

func TestPostgresConnString(t *testing.T) {
	p := Postgres{Host: "localhost", Port: 5432, User: "snapwatch", DBName: "postgres"}
	got := p.ConnString()
	assert.Contains(t, got, "host=localhost")
	assert.Contains(t, got, "port=5432")
	assert.Contains(t, got, "user=snapwatch")
	assert.Contains(t, got, "dbname=postgres")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
