package logtail

import (
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/weaponry/snapwatch/internal/model"
)

// Format selects which log_destination layout poll lines are parsed
// as (spec §4.5).
type Format int

const (
	FormatStderr Format = iota
	FormatCSVLog
)

// parsedLine is an intermediate result before hashes are interned;
// it is zero-valued (kept=false) for lines that carry no signal
// (spec §4.5: "All other LOG lines are discarded").
type parsedLine struct {
	kind    model.LogEventKind
	message string
	kept    bool
}

var sentinels = []struct {
	prefix string
	kind   model.LogEventKind
}{
	{"PANIC:  ", model.LogEventPanic},
	{"FATAL:  ", model.LogEventFatal},
	{"ERROR:  ", model.LogEventError},
}

var sqlstateRE = regexp.MustCompile(`^[0-9A-Z]{5}:  `)

var (
	checkpointStartRE    = regexp.MustCompile(`checkpoint starting:`)
	checkpointCompleteRE = regexp.MustCompile(`checkpoint complete:`)
	autovacuumRE         = regexp.MustCompile(`automatic vacuum of table`)
	autoanalyzeRE        = regexp.MustCompile(`automatic analyze of table`)
)

// parseStderrLine applies the sentinel scan described in spec §4.5. It
// is prefix-agnostic: log_line_prefix content before the sentinel is
// ignored, mirroring the teacher's reExtract approach of matching the
// severity token wherever it falls in the line.
func parseStderrLine(line string) parsedLine {
	for _, s := range sentinels {
		if idx := strings.Index(line, s.prefix); idx >= 0 {
			msg := line[idx+len(s.prefix):]
			msg = sqlstateRE.ReplaceAllString(msg, "")
			return parsedLine{kind: s.kind, message: msg, kept: true}
		}
	}

	if idx := strings.Index(line, "LOG:  "); idx >= 0 {
		msg := line[idx+len("LOG:  "):]
		switch {
		case checkpointStartRE.MatchString(msg), checkpointCompleteRE.MatchString(msg):
			return parsedLine{kind: model.LogEventCheckpoint, message: msg, kept: true}
		case autovacuumRE.MatchString(msg), autoanalyzeRE.MatchString(msg):
			return parsedLine{kind: model.LogEventAutovacuum, message: msg, kept: true}
		}
	}

	return parsedLine{}
}

// parseCSVLogLine parses one PG 12+ csvlog record. Column 11 (index
// 10) is severity, column 13 (index 12) is the message (spec §4.5).
func parseCSVLogLine(line string) parsedLine {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil || len(fields) < 13 {
		return parsedLine{}
	}

	severity := strings.TrimSpace(fields[10])
	message := fields[12]

	switch severity {
	case "PANIC":
		return parsedLine{kind: model.LogEventPanic, message: message, kept: true}
	case "FATAL":
		return parsedLine{kind: model.LogEventFatal, message: message, kept: true}
	case "ERROR":
		return parsedLine{kind: model.LogEventError, message: message, kept: true}
	case "LOG":
		switch {
		case checkpointStartRE.MatchString(message), checkpointCompleteRE.MatchString(message):
			return parsedLine{kind: model.LogEventCheckpoint, message: message, kept: true}
		case autovacuumRE.MatchString(message), autoanalyzeRE.MatchString(message):
			return parsedLine{kind: model.LogEventAutovacuum, message: message, kept: true}
		}
	}

	return parsedLine{}
}

// Normalization patterns for grouping anomalies (spec §4.5). Order
// matters: paren/bracket groups, then quoted forms, then counted words
// and WAL addresses, so digit/id replacement never runs inside a quote.
var (
	doubleQuotedRE = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	singleQuotedRE = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	parenRE        = regexp.MustCompile(`\([^()]*\)`)
	bracketRE      = regexp.MustCompile(`\[[^\[\]]*\]`)
	countedWordRE  = regexp.MustCompile(`(?i)\b(transaction|relation|process|database|PID|on page|TIMELINE)\s+\d+`)
	walAddrRE      = regexp.MustCompile(`[0-9A-Fa-f]+/[0-9A-Fa-f]+`)
)

const maxPatternBytes = 256

// normalizePattern collapses identifiers, literals and counters in a
// log message into a stable grouping key (spec §4.5).
func normalizePattern(message string) string {
	// Each pass collapses the innermost groups to a bracket-free marker,
	// so the enclosing group matches on the next pass; up to three
	// nesting levels are collapsed.
	for i := 0; i < 3; i++ {
		before := message
		message = parenRE.ReplaceAllString(message, "\x00")
		message = bracketRE.ReplaceAllString(message, "\x01")
		if message == before {
			break
		}
	}
	message = strings.NewReplacer("\x00", "(...)", "\x01", "[...]").Replace(message)
	message = doubleQuotedRE.ReplaceAllString(message, `"..."`)
	message = singleQuotedRE.ReplaceAllString(message, "'...'")
	message = countedWordRE.ReplaceAllStringFunc(message, func(m string) string {
		parts := countedWordRE.FindStringSubmatch(m)
		return parts[1] + " ..."
	})
	message = walAddrRE.ReplaceAllString(message, "x/x")

	if len(message) > maxPatternBytes {
		message = message[:maxPatternBytes]
	}
	return message
}
