package handel

import (
	"reflect"
	"sort"
	"testing"
)

func TestPeersAtSizes(t *testing.T) {
	const l = 3
	for level := 1; level < l; level++ {
		got := peersAt(0, level, l)
		if len(got) != peersCount(level) {
			t.Fatalf("peersAt(level=%d) size = %d, want %d", level, len(got), peersCount(level))
		}
	}
}

func TestPeersAtDisjointAcrossLevels(t *testing.T) {
	const l = 4
	seen := map[int]int{}
	for level := 1; level < l; level++ {
		for _, p := range peersAt(0, level, l) {
			if other, ok := seen[p]; ok {
				t.Fatalf("peer %d appears at both level %d and %d", p, other, level)
			}
			seen[p] = level
		}
	}
}

func TestPeersAtTopLevel(t *testing.T) {
	const l = 3
	got := peersAt(0, l-1, l)
	sort.Ints(got)
	want := []int{2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("top-level peers = %v, want %v", got, want)
	}
}

// Levels 0..L-1 reach the node itself plus one disjoint "sibling subtree"
// per level, covering exactly half the network (one level short of a full
// binary partition).
func TestPeersAtCoverHalfTheNetworkWithSelf(t *testing.T) {
	const l = 3
	seen := map[int]bool{0: true} // level 0 is the node itself
	for level := 1; level < l; level++ {
		for _, p := range peersAt(0, level, l) {
			seen[p] = true
		}
	}
	if len(seen) != 1<<(l-1) {
		t.Fatalf("levels 0..%d cover %d ids, want %d", l-1, len(seen), 1<<(l-1))
	}
}

func TestPeersAtLevelZeroIsEmpty(t *testing.T) {
	if got := peersAt(3, 0, 3); got != nil {
		t.Fatalf("level 0 must have no peers of its own, got %v", got)
	}
}
