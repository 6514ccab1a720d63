package logtail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaponry/snapwatch/internal/model"
)

func TestParseStderrLine(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		wantKept bool
		wantKind model.LogEventKind
		wantMsg  string
	}{
		{
			name:     "error with sqlstate stripped",
			line:     `2026-08-01 10:00:00 UTC [1234] ERROR:  42601:  syntax error at or near "foo"`,
			wantKept: true,
			wantKind: model.LogEventError,
			wantMsg:  `syntax error at or near "foo"`,
		},
		{
			name:     "fatal",
			line:     "FATAL:  password authentication failed for user \"bob\"",
			wantKept: true,
			wantKind: model.LogEventFatal,
			wantMsg:  `password authentication failed for user "bob"`,
		},
		{
			name:     "panic",
			line:     "PANIC:  could not write to file",
			wantKept: true,
			wantKind: model.LogEventPanic,
		},
		{
			name:     "checkpoint log line kept",
			line:     "LOG:  checkpoint starting: time",
			wantKept: true,
			wantKind: model.LogEventCheckpoint,
		},
		{
			name:     "autovacuum log line kept",
			line:     "LOG:  automatic vacuum of table \"db.public.t\": index scans: 1",
			wantKept: true,
			wantKind: model.LogEventAutovacuum,
		},
		{
			name:     "ordinary log line discarded",
			line:     "LOG:  connection received: host=127.0.0.1",
			wantKept: false,
		},
		{
			name:     "empty line discarded",
			line:     "",
			wantKept: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseStderrLine(tc.line)
			assert.Equal(t, tc.wantKept, got.kept)
			if tc.wantKept {
				assert.Equal(t, tc.wantKind, got.kind)
			}
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, got.message)
			}
		})
	}
}

func TestParseCSVLogLine(t *testing.T) {
	fields := make([]string, 24)
	for i := range fields {
		fields[i] = ""
	}
	fields[10] = "ERROR"
	fields[12] = "relation \"widgets\" does not exist"
	line := buildCSVLine(fields)

	got := parseCSVLogLine(line)
	assert.True(t, got.kept)
	assert.Equal(t, model.LogEventError, got.kind)
	assert.Equal(t, "relation \"widgets\" does not exist", got.message)
}

func buildCSVLine(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		escaped := strings.ReplaceAll(f, `"`, `""`)
		out += "\"" + escaped + "\""
	}
	return out
}

func TestNormalizePattern(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "quoted identifier collapsed",
			in:   `relation "public.orders" does not exist`,
			want: `relation "..." does not exist`,
		},
		{
			name: "single quoted literal collapsed",
			in:   `invalid input syntax for type integer: 'abc'`,
			want: `invalid input syntax for type integer: '...'`,
		},
		{
			name: "transaction counter collapsed",
			in:   "could not serialize access due to concurrent update transaction 12345",
			want: "could not serialize access due to concurrent update transaction ...",
		},
		{
			name: "wal address collapsed",
			in:   "redo done at 1A/2B3C4D5E",
			want: "redo done at x/x",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizePattern(tc.in))
		})
	}
}

func TestNormalizePatternTruncates(t *testing.T) {
	long := make([]byte, maxPatternBytes+100)
	for i := range long {
		long[i] = 'x'
	}
	got := normalizePattern(string(long))
	assert.Len(t, got, maxPatternBytes)
}
