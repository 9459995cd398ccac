package flood

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

// TestFloodReachesEveryLiveNode checks that a small flood run eventually
// delivers the message to every node that isn't marked down.
func TestFloodReachesEveryLiveNode(t *testing.T) {
	p := mustNew(t, Params{NodeCount: 10, PeersCount: 3, DelayBeforeResent: 5})
	p.Network().RunMs(500)

	for i := 0; i < 10; i++ {
		if !p.Seen(i, 1) {
			t.Fatalf("node %d never received the flood message", i)
		}
	}
}

// TestDeadNodesNeverParticipate checks that nodes below DeadNodeCount
// never send or receive (the kernel silently drops messages to/from a
// down node).
func TestDeadNodesNeverParticipate(t *testing.T) {
	p := mustNew(t, Params{NodeCount: 8, DeadNodeCount: 2, PeersCount: 3, DelayBeforeResent: 5})
	p.Network().RunMs(500)

	for i := 0; i < 2; i++ {
		if p.Seen(i, 1) {
			t.Fatalf("dead node %d should never be marked as having seen the message", i)
		}
	}
	for i := 2; i < 8; i++ {
		if !p.Seen(i, 1) {
			t.Fatalf("live node %d never received the flood message", i)
		}
	}
}

// TestCopyIsIndependent checks Copy produces a distinct, uninitialized
// instance sharing no kernel state with the original.
func TestCopyIsIndependent(t *testing.T) {
	p := mustNew(t, Params{NodeCount: 6, PeersCount: 2, DelayBeforeResent: 1})
	p.Network().RunMs(100)

	clone := p.Copy().(*Protocol)
	if clone.net != nil {
		t.Fatal("Copy must not carry over the original's kernel")
	}
	clone.Init()
	if clone.Network() == p.Network() {
		t.Fatal("Copy's kernel must be distinct from the original's")
	}
}
