package miner

// minerState tracks one node's view of the chain and, for selfish miners,
// the private fork it is withholding.
type minerState struct {
	id        int
	hashPower int
	selfish   bool

	head      *Block // the chain tip this node mines on top of
	mining    *Block // the candidate block currently being attempted
	threshold float64

	// Selfish-only bookkeeping.
	privateHead *Block
	otherHead   *Block
	withheld    []*Block

	blocksMined   int
	blocksAdopted int // count of this node's own blocks that adopt made its head
}

func newMinerState(id, hashPower int, selfish bool, genesis *Block) *minerState {
	ns := &minerState{
		id:        id,
		hashPower: hashPower,
		selfish:   selfish,
		head:      genesis,
	}
	if selfish {
		ns.privateHead = genesis
		ns.otherHead = genesis
	}
	return ns
}

// mineOn returns the block a node should build its next candidate on top
// of: the private fork for a selfish miner, the public head otherwise.
func (ns *minerState) mineOn() *Block {
	if ns.selfish {
		return ns.privateHead
	}
	return ns.head
}
