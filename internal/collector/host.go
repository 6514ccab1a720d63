// Package collector assembles one snapshot per tick from procfs,
// cgroup v2, and PostgreSQL sources (spec §4.4).
package collector

import (
	"github.com/weaponry/snapwatch/internal/filter"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/model"
)

// HostConfig controls which host sources are read and how their
// entities are filtered.
type HostConfig struct {
	// ForceCgroup collects cgroup v2 data even when the container
	// detection heuristics in spec §4.4.1 don't fire.
	ForceCgroup bool

	Filters map[string]filter.Filter
}

// DefaultHostConfig returns a HostConfig with the default device and
// filesystem filters compiled in (spec §4.4.1).
func DefaultHostConfig() HostConfig {
	filters := make(map[string]filter.Filter)
	filter.DefaultFilters(filters)
	if err := filter.CompileFilters(filters); err != nil {
		log.Warnf("collector: compile default filters: %s", err)
	}
	return HostConfig{Filters: filters}
}

// collectHost fills s with every host block. Each reader is fallible
// and on error contributes no block rather than failing the whole
// snapshot (spec §4.4.3 step 2).
func collectHost(s *model.Snapshot, in *interner.Interner, cfg HostConfig) {
	if cpus, err := readSystemCPU(); err != nil {
		log.Debugf("collector: system cpu: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemCPU, SystemCPU: cpus})
	}

	if stat, err := readSystemStat(); err != nil {
		log.Debugf("collector: system stat: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemStat, SystemStat: stat})
	}

	if mem, err := readSystemMem(); err != nil {
		log.Debugf("collector: system mem: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemMem, SystemMem: mem})
	}

	if load, err := readSystemLoad(); err != nil {
		log.Debugf("collector: system load: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemLoad, SystemLoad: load})
	}

	if disks, err := readSystemDisk(in, cfg.Filters["diskstats/device"]); err != nil {
		log.Debugf("collector: system disk: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemDisk, SystemDisk: disks})
	}

	if nets, err := readSystemNet(in, cfg.Filters["netdev/device"]); err != nil {
		log.Debugf("collector: system net: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemNet, SystemNet: nets})
	}

	if psi, err := readSystemPsi(); err != nil {
		log.Debugf("collector: system psi: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemPsi, SystemPsi: psi})
	}

	if vm, err := readSystemVmstat(in); err != nil {
		log.Debugf("collector: system vmstat: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemVmstat, SystemVmstat: vm})
	}

	if snmp, err := readSystemNetSnmp(in); err != nil {
		log.Debugf("collector: system netsnmp: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockSystemNetSnmp, SystemNetSnmp: snmp})
	}

	if procs, err := readProcesses(in); err != nil {
		log.Debugf("collector: processes: %s", err)
	} else {
		s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockProcesses, Processes: procs})
	}

	if cfg.ForceCgroup || isContainerized() {
		if cg, err := readCgroup(in); err != nil {
			log.Debugf("collector: cgroup: %s", err)
		} else {
			s.Blocks = append(s.Blocks, model.DataBlock{Kind: model.BlockCgroup, Cgroup: cg})
		}
	}
}
