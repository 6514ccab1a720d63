// Package logtail follows the PostgreSQL server log through rotation
// and emits parsed events (spec §4.5). The state machine is grounded
// on original_source's FileTailer (inode + byte offset polling); the
// severity classification and normalization regexps are grounded on
// the teacher's internal/collector/postgres_logs.go logParser.
package logtail

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/weaponry/snapwatch/internal/log"
)

// maxLinesPerPoll bounds memory on huge backlogs (spec §4.5). Residual
// lines remain for the next poll.
const maxLinesPerPoll = 10000

// fileTailer tracks {path, byte_offset, inode} and reads newly
// appended lines, detecting rotation by inode change or truncation.
type fileTailer struct {
	path   string
	offset int64
	inode  uint64
}

// newFileTailer opens path and seeks to its current end; historic
// content is ignored (spec §4.5).
func newFileTailer(path string) (*fileTailer, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &fileTailer{
		path:   path,
		offset: fi.Size(),
		inode:  inodeOf(fi),
	}, nil
}

// switchFile starts reading a new path from its beginning, used when
// PostgreSQL reports a changed current_logfile.
func (t *fileTailer) switchFile(path string) {
	t.path = path
	t.offset = 0
	t.inode = 0
}

// readNewLines returns at most maxLinesPerPoll new lines. A missing
// file (rotation in progress) yields an empty result, not an error.
func (t *fileTailer) readNewLines() ([]string, error) {
	fi, err := os.Stat(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	current := inodeOf(fi)
	if current != t.inode || fi.Size() < t.offset {
		t.inode = current
		t.offset = 0
	}

	if fi.Size() <= t.offset {
		return nil, nil
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, err
	}

	var lines []string
	consumed := int64(0)
	reader := bufio.NewReaderSize(f, 64*1024)
	for len(lines) < maxLinesPerPoll {
		raw, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Debugf("logtail: read %s: %s", t.path, err)
			}
			// A partial trailing line (no terminating newline yet) is
			// left for the next poll.
			break
		}
		consumed += int64(len(raw))
		lines = append(lines, string(bytes.TrimRight([]byte(raw), "\r\n")))
	}

	t.offset += consumed
	return lines, nil
}
