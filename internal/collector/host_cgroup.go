package collector

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

const cgroupRoot = "/sys/fs/cgroup"

// isContainerized implements the detection heuristics from spec
// §4.4.1: Kubernetes env vars, a mounted service-account token,
// /.dockerenv, /run/.containerenv, or container markers in
// /proc/1/cgroup.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return true
	}

	f, err := os.Open("/proc/1/cgroup")
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "docker") || strings.Contains(line, "kubepods") ||
			strings.Contains(line, "containerd") || strings.Contains(line, "lxc") {
			return true
		}
	}
	return false
}

// readCgroup parses the cgroup v2 controller files for the cgroup the
// collector's own process belongs to (spec §4.4.1).
func readCgroup(in *interner.Interner) (*model.Cgroup, error) {
	cg := &model.Cgroup{}

	if err := parseCPUMax(cg); err != nil {
		return nil, err
	}
	parseCPUStat(cg)
	parseMemory(cg)
	parsePids(cg)
	parseIOStat(cg, in)

	return cg, nil
}

func parseCPUMax(cg *model.Cgroup) error {
	data, err := os.ReadFile(cgroupRoot + "/cpu.max")
	if err != nil {
		return err
	}
	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return nil
	}
	if fields[0] == "max" {
		cg.CPUMaxQuotaUsec = -1
	} else if v, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
		cg.CPUMaxQuotaUsec = v
	}
	if v, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
		cg.CPUMaxPeriodUsec = v
	}
	return nil
}

func parseCPUStat(cg *model.Cgroup) {
	f, err := os.Open(cgroupRoot + "/cpu.stat")
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
		switch fields[0] {
		case "usage_usec":
			cg.CPUStatUsageUsec = v
		case "user_usec":
			cg.CPUStatUserUsec = v
		case "system_usec":
			cg.CPUStatSystemUsec = v
		case "nr_throttled":
			cg.CPUStatNrThrottled = v
		case "throttled_usec":
			cg.CPUStatThrottledUsec = v
		}
	}
}

func parseMemory(cg *model.Cgroup) {
	if data, err := os.ReadFile(cgroupRoot + "/memory.max"); err == nil {
		s := strings.TrimSpace(string(data))
		if s == "max" {
			cg.MemoryMaxBytes = -1
		} else if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			cg.MemoryMaxBytes = v
		}
	}
	if data, err := os.ReadFile(cgroupRoot + "/memory.current"); err == nil {
		if v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64); err == nil {
			cg.MemoryCurrentBytes = v
		}
	}

	if f, err := os.Open(cgroupRoot + "/memory.stat"); err == nil {
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
			switch fields[0] {
			case "swap":
				cg.MemorySwapBytes = v
			case "anon":
				cg.MemoryAnonBytes = v
			case "file":
				cg.MemoryFileBytes = v
			}
		}
	}

	if f, err := os.Open(cgroupRoot + "/memory.events"); err == nil {
		defer func() { _ = f.Close() }()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 2 && fields[0] == "oom_kill" {
				if v, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
					cg.OOMKillCount = v
				}
			}
		}
	}
}

func parsePids(cg *model.Cgroup) {
	if data, err := os.ReadFile(cgroupRoot + "/pids.current"); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64); err == nil {
			cg.PidsCurrent = v
		}
	}
	if data, err := os.ReadFile(cgroupRoot + "/pids.max"); err == nil {
		s := strings.TrimSpace(string(data))
		if s == "max" {
			cg.PidsMax = -1
		} else if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			cg.PidsMax = v
		}
	}
}

// parseIOStat parses io.stat, whose lines look like:
//
//	253:0 rbytes=123 wbytes=456 rios=1 wios=2 dbytes=0 dios=0
func parseIOStat(cg *model.Cgroup, in *interner.Interner) {
	f, err := os.Open(cgroupRoot + "/io.stat")
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		entry := model.CgroupIOEntry{DeviceHash: in.Intern(fields[0])}
		for _, kv := range fields[1:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				continue
			}
			v, err := strconv.ParseUint(parts[1], 10, 64)
			if err != nil {
				continue
			}
			switch parts[0] {
			case "rbytes":
				entry.ReadBytes = v
			case "wbytes":
				entry.WriteBytes = v
			case "rios":
				entry.ReadOps = v
			case "wios":
				entry.WriteOps = v
			}
		}
		cg.IO = append(cg.IO, entry)
	}
}
