package collector

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
)

// readProcesses walks /proc/<pid> for every numeric entry and reads
// stat, cmdline and io. A process that disappears mid-read is silently
// skipped rather than failing the whole block (spec §4.4.1).
func readProcesses(in *interner.Interner) ([]model.Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	childCount := make(map[int32]int)
	var procs []model.Process

	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}

		p, err := readProcess(int32(pid), in)
		if err != nil {
			log.Debugf("pid %d disappeared or unreadable: %s; skip", pid, err)
			continue
		}
		childCount[p.PPID]++
		procs = append(procs, *p)
	}

	for i := range procs {
		if childCount[procs[i].PID] > 0 {
			procs[i].IsSupervisor = true
		}
	}

	return procs, nil
}

func readProcess(pid int32, in *interner.Interner) (*model.Process, error) {
	p := &model.Process{PID: pid}

	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return nil, err
	}
	p.CommHash = in.Intern(strings.TrimSpace(string(comm)))

	cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err == nil {
		joined := strings.Join(strings.FieldsFunc(string(cmdline), func(r rune) bool { return r == 0 }), " ")
		p.CmdlineHash = in.Intern(joined)
	}

	if err := readProcessStat(pid, p); err != nil {
		return nil, err
	}

	readProcessIO(pid, p)

	return p, nil
}

// readProcessStat parses /proc/<pid>/stat. The comm field is
// parenthesized and may itself contain spaces, so indexing is anchored
// on the last ')' rather than simple field-splitting.
func readProcessStat(pid int32, p *model.Process) error {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return err
	}
	line := string(data)

	closeParen := strings.LastIndexByte(line, ')')
	if closeParen < 0 {
		return fmt.Errorf("pid %d: malformed stat line", pid)
	}
	rest := strings.Fields(line[closeParen+1:])
	// rest[0]=state rest[1]=ppid ... rest[11]=utime rest[12]=stime ... rest[20]=vsize rest[21]=rss
	// (0-indexed starting right after comm, i.e. field 3 of /proc/pid/stat is rest[0]).
	if len(rest) < 22 {
		return fmt.Errorf("pid %d: too few stat fields", pid)
	}

	p.State = rest[0][0]
	if ppid, err := strconv.ParseInt(rest[1], 10, 32); err == nil {
		p.PPID = int32(ppid)
	}
	if ut, err := strconv.ParseUint(rest[11], 10, 64); err == nil {
		p.UtimeJiffies = ut
	}
	if st, err := strconv.ParseUint(rest[12], 10, 64); err == nil {
		p.StimeJiffies = st
	}
	if vsz, err := strconv.ParseUint(rest[20], 10, 64); err == nil {
		p.VSZBytes = vsz
	}
	if rss, err := strconv.ParseUint(rest[21], 10, 64); err == nil {
		p.RSSBytes = rss * uint64(os.Getpagesize())
	}
	return nil
}

// readProcessIO parses /proc/<pid>/io, which requires elevated
// privilege on some kernels; a failure here is non-fatal and simply
// leaves the io counters at zero.
func readProcessIO(pid int32, p *model.Process) {
	f, err := os.Open(filepath.Join("/proc", strconv.Itoa(int(pid)), "io"))
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSuffix(fields[0], ":") {
		case "rchar":
			p.ReadBytes = v
		case "wchar":
			p.WriteBytes = v
		case "syscr":
			p.ReadOps = v
		case "syscw":
			p.WriteOps = v
		}
	}
}
