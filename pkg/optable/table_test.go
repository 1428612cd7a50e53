package optable

import "testing"

func TestAllocLookupRelease(t *testing.T) {
	tbl := NewTable(4)
	id := tbl.Alloc(Recv, nil)
	if !tbl.Lookup(id) {
		t.Fatal("Lookup should be true right after Alloc")
	}
	tag, ok := tbl.Tag(id)
	if !ok || tag != Recv {
		t.Fatalf("Tag() = (%v, %v), want (Recv, true)", tag, ok)
	}
	tbl.Release(id)
	if tbl.Lookup(id) {
		t.Fatal("Lookup should be false after Release")
	}
}

func TestStaleIDAfterReuseIsGone(t *testing.T) {
	tbl := NewTable(1)
	id1 := tbl.Alloc(Read, nil)
	tbl.Release(id1)
	id2 := tbl.Alloc(Write, nil)

	if tbl.Lookup(id1) {
		t.Fatal("stale id1 should read as gone after slot reuse")
	}
	if !tbl.Lookup(id2) {
		t.Fatal("id2 should be live")
	}
	if _, ok := tbl.Context(id1); ok {
		t.Fatal("Context(id1) should fail after reuse")
	}
}

func TestResultPtrWritesThrough(t *testing.T) {
	tbl := NewTable(2)
	id := tbl.Alloc(Send, nil)
	rp, ok := tbl.ResultPtr(id)
	if !ok {
		t.Fatal("ResultPtr should succeed")
	}
	rp.N = 128
	rp2, _ := tbl.ResultPtr(id)
	if rp2.N != 128 {
		t.Fatalf("N = %d, want 128", rp2.N)
	}
}

func TestResultPtrSurvivesConcurrentGrowth(t *testing.T) {
	tbl := NewTable(1)
	id := tbl.Alloc(Send, nil)
	rp, ok := tbl.ResultPtr(id)
	if !ok {
		t.Fatal("ResultPtr should succeed")
	}

	// Grow the table well past its initial capacity while holding rp,
	// the way a worker-pool closure holds a ResultPtr across the
	// submission thread allocating unrelated operations concurrently.
	for i := 0; i < 64; i++ {
		tbl.Alloc(Recv, nil)
	}

	rp.N = 42
	rp2, ok := tbl.ResultPtr(id)
	if !ok {
		t.Fatal("ResultPtr should still succeed after growth")
	}
	if rp2.N != 42 {
		t.Fatalf("N = %d, want 42 (rp became stale across slice growth)", rp2.N)
	}
}

func TestUnsafeIDFromSlot(t *testing.T) {
	tbl := NewTable(2)
	id := tbl.Alloc(Poll, nil)
	idx, _ := decodeID(id)
	reconstructed := tbl.UnsafeIDFromSlot(idx)
	if reconstructed != id {
		t.Fatalf("UnsafeIDFromSlot = %d, want %d", reconstructed, id)
	}
}

func TestOpTagPortEligible(t *testing.T) {
	if Poll.PortEligible() {
		t.Fatal("poll must not be port-eligible")
	}
	if !Recv.PortEligible() {
		t.Fatal("recv must be port-eligible")
	}
}
