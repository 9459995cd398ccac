package sanfermin

import (
	"reflect"
	"sort"
	"testing"
)

func TestIsCandidateAtSymmetric(t *testing.T) {
	const l = 3
	for level := 0; level < l; level++ {
		for a := 0; a < 8; a++ {
			for b := 0; b < 8; b++ {
				if isCandidateAt(a, b, level, l) != isCandidateAt(b, a, level, l) {
					t.Fatalf("isCandidateAt(%d,%d,%d) asymmetric", a, b, level)
				}
			}
		}
	}
}

func TestCandidatesAtMatchesBruteForce(t *testing.T) {
	const l = 3
	for level := 0; level < l; level++ {
		for id := 0; id < 8; id++ {
			var want []int
			for other := 0; other < 8; other++ {
				if other != id && isCandidateAt(id, other, level, l) {
					want = append(want, other)
				}
			}
			got := candidatesAt(id, level, l)
			sort.Ints(got)
			sort.Ints(want)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("candidatesAt(%d, %d) = %v, want %v", id, level, got, want)
			}
		}
	}
}

func TestCandidatesAtTopLevelIsSinglePeer(t *testing.T) {
	const l = 3
	got := candidatesAt(5, l-1, l)
	if len(got) != 1 {
		t.Fatalf("top level must pair with exactly one peer, got %v", got)
	}
	if got[0] != 4 {
		t.Fatalf("node 5's top-level peer = %d, want 4", got[0])
	}
}

func TestCandidatesAtBottomLevelIsHalfTheSpace(t *testing.T) {
	const l = 3
	got := candidatesAt(0, 0, l)
	if len(got) != 4 {
		t.Fatalf("level 0 pool size = %d, want 4", len(got))
	}
}
