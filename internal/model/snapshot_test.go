package model

import "testing"

func TestSnapshotFindMissingBlock(t *testing.T) {
	s := Snapshot{Timestamp: 100, Blocks: []DataBlock{{Kind: BlockSystemMem, SystemMem: &SystemMem{MemTotalKB: 1}}}}

	if b := s.Find(BlockCgroup); b != nil {
		t.Fatalf("expected missing Cgroup block to be nil, got %+v", b)
	}
	b := s.Find(BlockSystemMem)
	if b == nil || b.SystemMem == nil || b.SystemMem.MemTotalKB != 1 {
		t.Fatalf("expected to find SystemMem block, got %+v", b)
	}
}

func TestBlockKindString(t *testing.T) {
	if BlockPgStatActivity.String() != "PgStatActivity" {
		t.Fatalf("unexpected name: %s", BlockPgStatActivity.String())
	}
}

func TestCPUTotalsIdle(t *testing.T) {
	c := SystemCPU{UserJiffies: 10, IdleJiffies: 5, IowaitJiffies: 2}
	if c.Idle() != 7 {
		t.Fatalf("expected idle=7, got %d", c.Idle())
	}
	if c.Total() != 17 {
		t.Fatalf("expected total=17, got %d", c.Total())
	}
}
