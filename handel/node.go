package handel

import "github.com/example/distsim/bitset"

// nodeState holds one node's full Handel run: one hLevel per level, plus
// the cross-level bookkeeping the protocol needs to decide completion.
type nodeState struct {
	id int

	levels  []*hLevel // index 0..L-1, levels[0] is the pre-populated base case
	ownHash Hash

	finishedPeers *bitset.BitSet
	blacklist     *bitset.BitSet

	thresholdAt int
	doneAt      int
	done        bool

	pendingVerify map[int]bool // levels currently waiting on a scheduled merge
}

func newNodeState(id, l, nodeCount int, ownHash Hash) *nodeState {
	ns := &nodeState{
		id:            id,
		levels:        make([]*hLevel, l),
		ownHash:       ownHash,
		finishedPeers: bitset.New(nodeCount),
		blacklist:     bitset.New(nodeCount),
		pendingVerify: make(map[int]bool),
	}
	for level := 0; level < l; level++ {
		ns.levels[level] = newHLevel(id, level, l, nodeCount, ownHash)
	}
	return ns
}

// totalCardinality sums each level's best incoming contribution, used to
// evaluate the aggregate-wide threshold.
func (ns *nodeState) totalCardinality() int {
	total := 0
	for _, hl := range ns.levels {
		if att, ok := hl.incoming[ns.ownHash]; ok {
			total += att.Who.Cardinality()
		}
	}
	return total
}

func (ns *nodeState) allLevelsComplete() bool {
	for _, hl := range ns.levels {
		if !hl.isIncomingComplete() {
			return false
		}
	}
	return true
}
