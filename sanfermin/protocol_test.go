package sanfermin

import "testing"

func mustNew(t *testing.T, p Params) *Protocol {
	t.Helper()
	proto, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	proto.Init()
	return proto
}

// TestEightNodesAllFinish exercises the smallest configuration that touches
// every level: every node should converge to aggValue == NodeCount, with
// thresholdAt no later than doneAt.
func TestEightNodesAllFinish(t *testing.T) {
	p := mustNew(t, Params{
		NodeCount:      8,
		Threshold:      3,
		PairingTime:    4,
		ReplyTimeout:   300,
		CandidateCount: 1,
		SignatureSize:  48,
		Shuffled:       false,
	})
	p.Network().RunMs(5000)

	for i := 0; i < 8; i++ {
		ns := p.nodeByID(i)
		if !ns.done {
			t.Fatalf("node %d did not finish", i)
		}
		if ns.aggValue != 8 {
			t.Fatalf("node %d aggValue = %d, want 8", i, ns.aggValue)
		}
		if ns.thresholdAt == 0 {
			t.Fatalf("node %d never recorded thresholdAt", i)
		}
		if ns.thresholdAt > ns.doneAt {
			t.Fatalf("node %d thresholdAt %d > doneAt %d", i, ns.thresholdAt, ns.doneAt)
		}
	}
}

// TestTwoNodesOneSwap covers the smallest possible topology: a single level,
// a single swap, both nodes finish with aggValue 2.
func TestTwoNodesOneSwap(t *testing.T) {
	p := mustNew(t, Params{
		NodeCount:      2,
		Threshold:      2,
		PairingTime:    2,
		ReplyTimeout:   50,
		CandidateCount: 1,
		SignatureSize:  32,
	})
	p.Network().RunMs(1000)

	for i := 0; i < 2; i++ {
		ns := p.nodeByID(i)
		if !ns.done {
			t.Fatalf("node %d did not finish", i)
		}
		if ns.aggValue != 2 {
			t.Fatalf("node %d aggValue = %d, want 2", i, ns.aggValue)
		}
	}
}

// TestMsgDiscardTimeStallsEveryone verifies that if every message is
// discarded at send time (latency exceeds the discard limit), no node can
// ever complete a swap.
func TestMsgDiscardTimeStallsEveryone(t *testing.T) {
	p := mustNew(t, Params{
		NodeCount:      4,
		Threshold:      2,
		PairingTime:    2,
		ReplyTimeout:   20,
		CandidateCount: 1,
		SignatureSize:  16,
	})
	p.Network().SetMsgDiscardTime(1)
	p.Network().RunMs(500)

	for i := 0; i < 4; i++ {
		ns := p.nodeByID(i)
		if ns.done {
			t.Fatalf("node %d finished despite total message discard", i)
		}
		if ns.aggValue != 1 {
			t.Fatalf("node %d aggValue = %d, want 1 (no swap ever completed)", i, ns.aggValue)
		}
	}
}

// TestExhaustedCandidatePoolStopsSilently checks that once usedCandidates
// covers every candidate at a level, pickCandidates is a silent no-op rather
// than panicking or looping.
func TestExhaustedCandidatePoolStopsSilently(t *testing.T) {
	p := mustNew(t, Params{
		NodeCount:      4,
		Threshold:      4,
		PairingTime:    2,
		ReplyTimeout:   10,
		CandidateCount: 4, // larger than any level's pool
		SignatureSize:  16,
	})
	ns := p.nodeByID(0)
	level := ns.currentPrefixLength
	for _, c := range candidatesAt(0, level, p.l) {
		ns.usedCandidates[level].Set(c)
	}
	ns.pendingNodes = make(map[int]bool)

	// Should not panic even though the pool is already exhausted.
	p.pickCandidates(ns, level)
	if len(ns.pendingNodes) != 0 {
		t.Fatalf("expected no pending peers once the candidate pool is exhausted, got %v", ns.pendingNodes)
	}
}

// TestCopyIsIndependent checks Copy produces a distinct, uninitialized
// instance that does not share kernel or node state with the original.
func TestCopyIsIndependent(t *testing.T) {
	p := mustNew(t, Params{
		NodeCount:      4,
		Threshold:      2,
		PairingTime:    2,
		ReplyTimeout:   20,
		CandidateCount: 1,
		SignatureSize:  16,
	})
	p.Network().RunMs(200)

	clone := p.Copy().(*Protocol)
	if clone.net != nil {
		t.Fatalf("Copy must not carry over the original's kernel")
	}
	if clone.params != p.params {
		t.Fatalf("Copy must preserve params: got %+v, want %+v", clone.params, p.params)
	}
	clone.Init()
	if clone.Network() == p.Network() {
		t.Fatalf("Copy's kernel must be distinct from the original's")
	}
}

// TestDeterministicReplay runs the same scenario twice with the same seed
// and checks every node finishes at the same virtual time both times.
func TestDeterministicReplay(t *testing.T) {
	newRun := func() *Protocol {
		return mustNew(t, Params{
			NodeCount:      8,
			Threshold:      8,
			PairingTime:    3,
			ReplyTimeout:   100,
			CandidateCount: 1,
			SignatureSize:  32,
			Shuffled:       true,
			Seed:           42,
		})
	}

	a := newRun()
	a.Network().RunMs(3000)
	b := newRun()
	b.Network().RunMs(3000)

	for i := 0; i < 8; i++ {
		na, nb := a.nodeByID(i), b.nodeByID(i)
		if na.doneAt != nb.doneAt {
			t.Fatalf("node %d doneAt differs across runs: %d vs %d", i, na.doneAt, nb.doneAt)
		}
		if na.aggValue != nb.aggValue {
			t.Fatalf("node %d aggValue differs across runs: %d vs %d", i, na.aggValue, nb.aggValue)
		}
	}
}

// TestFutureSigsTailRecursion seeds a value for a level the node has not
// reached yet and checks that entering the level consumes it and moves
// straight on, as if the swap had completed at the usual pace.
func TestFutureSigsTailRecursion(t *testing.T) {
	p := mustNew(t, Params{
		NodeCount:      8,
		Threshold:      8,
		PairingTime:    2,
		ReplyTimeout:   50,
		CandidateCount: 1,
		SignatureSize:  32,
	})
	ns := p.nodeByID(0)

	ns.aggValue = 4
	ns.futureSigs[1] = 2
	ns.futureSigs[0] = 2
	p.enterLevel(ns, 1)

	if !ns.done {
		t.Fatal("node should ride futureSigs all the way to done")
	}
	if ns.aggValue != 8 {
		t.Fatalf("aggValue = %d, want 8 after consuming both future values", ns.aggValue)
	}
	if len(ns.futureSigs) != 0 {
		t.Fatalf("futureSigs should be consumed, still holds %v", ns.futureSigs)
	}
}
