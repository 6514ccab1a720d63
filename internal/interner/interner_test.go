package interner

import "testing"

func TestInternResolveRoundTrip(t *testing.T) {
	in := New()
	cases := []string{"idle", "SELECT 1", "", "autovacuum worker"}
	for _, s := range cases {
		h := in.Intern(s)
		got, ok := in.Resolve(h)
		if s == "" {
			if ok {
				t.Fatalf("expected empty string to resolve as absent, got %q", got)
			}
			continue
		}
		if !ok || got != s {
			t.Fatalf("Resolve(Intern(%q)) = %q, %v; want %q, true", s, got, ok, s)
		}
	}
}

func TestInternIdempotent(t *testing.T) {
	in := New()
	h1 := in.Intern("active")
	h2 := in.Intern("active")
	if h1 != h2 {
		t.Fatalf("expected idempotent hash, got %d != %d", h1, h2)
	}
	if in.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", in.Len())
	}
}

func TestMergeKeepsExisting(t *testing.T) {
	a := New()
	b := New()
	ha := a.Intern("query text")
	hb := b.Intern("query text")
	if ha != hb {
		t.Fatalf("expected equal hashes for equal strings")
	}
	a.Merge(b)
	s, ok := a.Resolve(ha)
	if !ok || s != "query text" {
		t.Fatalf("merge lost value: %q, %v", s, ok)
	}
}

func TestFilterSoundness(t *testing.T) {
	in := New()
	h1 := in.Intern("users")
	h2 := in.Intern("orders")
	_ = in.Intern("archived_logs")

	live := map[Hash]struct{}{h1: {}, h2: {}}
	filtered := in.Filter(live)

	if filtered.Len() != 2 {
		t.Fatalf("expected 2 live entries, got %d", filtered.Len())
	}
	if s, ok := filtered.Resolve(h1); !ok || s != "users" {
		t.Fatalf("filter dropped reachable hash h1")
	}
	if s, ok := filtered.Resolve(h2); !ok || s != "orders" {
		t.Fatalf("filter dropped reachable hash h2")
	}
}

func TestAbsentHashIsZero(t *testing.T) {
	in := New()
	if h := in.Intern(""); h != 0 {
		t.Fatalf("expected zero hash for empty string, got %d", h)
	}
	if _, ok := in.Resolve(0); ok {
		t.Fatalf("expected zero hash to never resolve")
	}
}
