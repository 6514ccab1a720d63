package logtail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

func TestTailerIgnoresHistoricContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postgresql.log")
	require.NoError(t, os.WriteFile(path, []byte("FATAL:  old message\n"), 0o644))

	tailer, err := New(Config{Path: path})
	require.NoError(t, err)

	tailer.poll()
	events := tailer.Drain(interner.New())
	assert.Empty(t, events)
}

func TestTailerReadsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postgresql.log")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	tailer, err := New(Config{Path: path})
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("LOG:  connection received\nERROR:  42601:  syntax error\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tailer.poll()
	in := interner.New()
	events := tailer.Drain(in)
	require.Len(t, events, 1)
	assert.Equal(t, model.LogEventError, events[0].Kind)
	msg, ok := in.Resolve(events[0].MessageHash)
	require.True(t, ok)
	assert.Equal(t, "syntax error", msg)
}

func TestTailerDetectsRotationByTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postgresql.log")
	require.NoError(t, os.WriteFile(path, []byte("LOG:  database system is ready to accept connections\n"), 0o644))

	tailer, err := New(Config{Path: path})
	require.NoError(t, err)

	// Simulate logrotate: replace the file with a fresh, shorter one
	// (a new inode on a real rotation).
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, []byte("PANIC:  disk full\n"), 0o644))

	tailer.poll()
	events := tailer.Drain(interner.New())
	require.Len(t, events, 1)
	assert.Equal(t, model.LogEventPanic, events[0].Kind)
}

func TestTailerDrainClearsBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postgresql.log")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	tailer, err := New(Config{Path: path})
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("FATAL:  oops\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tailer.poll()
	in := interner.New()
	first := tailer.Drain(in)
	require.Len(t, first, 1)

	second := tailer.Drain(in)
	assert.Empty(t, second)
}
