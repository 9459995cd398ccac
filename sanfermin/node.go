package sanfermin

import "github.com/example/distsim/bitset"

// nodeState holds one node's per-run aggregation state.
type nodeState struct {
	id int

	currentPrefixLength int
	aggValue            int
	isSwapping          bool

	signatureCache map[int]int // level -> this node's aggValue snapshot at that level
	futureSigs     map[int]int // level -> a value received before reaching that level
	pendingNodes   map[int]bool
	usedCandidates map[int]*bitset.BitSet

	thresholdAt int
	doneAt      int
	done        bool
}

func newNodeState(id int) *nodeState {
	return &nodeState{
		id:             id,
		aggValue:       1,
		signatureCache: make(map[int]int),
		futureSigs:     make(map[int]int),
		pendingNodes:   make(map[int]bool),
		usedCandidates: make(map[int]*bitset.BitSet),
	}
}
