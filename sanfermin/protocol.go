package sanfermin

import (
	"github.com/example/distsim/bitset"
	"github.com/example/distsim/internal/simlog"
	"github.com/example/distsim/protocol"
	"github.com/example/distsim/sim"
)

// Protocol drives a San Fermín aggregation over a kernel it owns.
type Protocol struct {
	params Params
	l      int // log2(NodeCount)

	net      *sim.Kernel
	state    []*nodeState
	finished []int

	log *simlog.Logger
}

var _ protocol.Protocol = (*Protocol)(nil)

// New validates params and returns a ready-to-Init protocol instance.
func New(params Params) (*Protocol, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Protocol{params: params, l: params.levels(), log: simlog.Default()}, nil
}

// Init populates the kernel with NodeCount nodes and drives every node into
// its initial level L-1.
func (p *Protocol) Init() {
	p.net = sim.NewKernel(sim.Config{Seed: p.params.Seed, Latency: p.params.Latency})
	p.log = p.net.Log()
	p.state = make([]*nodeState, p.params.NodeCount)
	for i := 0; i < p.params.NodeCount; i++ {
		n := sim.NewNode(i, (i*2654435761)%p.net.MaxX(), (i*40503)%p.net.MaxY())
		if n.X < 0 {
			n.X = -n.X
		}
		if n.Y < 0 {
			n.Y = -n.Y
		}
		if err := p.net.AddNode(n); err != nil {
			panic(err)
		}
		p.state[i] = newNodeState(i)
	}
	for _, ns := range p.state {
		p.enterLevel(ns, p.l-1)
	}
}

// Copy returns an independent, uninitialized instance with identical
// parameters.
func (p *Protocol) Copy() protocol.Protocol {
	return &Protocol{params: p.params, l: p.l, log: p.log}
}

// SetSeed overrides the RNG seed used by a subsequent Init, letting a
// scenario runner reseed each round.
func (p *Protocol) SetSeed(seed int64) { p.params.Seed = seed }

// Network returns the kernel this protocol drives.
func (p *Protocol) Network() *sim.Kernel { return p.net }

// Finished returns the node ids that have completed, in completion order.
func (p *Protocol) Finished() []int {
	out := make([]int, len(p.finished))
	copy(out, p.finished)
	return out
}

// nodeByID exposes one node's aggregation state for tests.
func (p *Protocol) nodeByID(id int) *nodeState { return p.state[id] }

func (p *Protocol) node(id int) *sim.Node { return p.net.Registry().Get(id) }

// AggValue returns node id's current aggregate signature count.
func (p *Protocol) AggValue(id int) int { return p.state[id].aggValue }

// Done reports whether node id has finished (its level-0 swap committed).
func (p *Protocol) Done(id int) bool { return p.state[id].done }

// DoneAt returns the virtual time node id finished, or 0 if not yet done.
func (p *Protocol) DoneAt(id int) int { return p.state[id].doneAt }

// ThresholdAt returns the virtual time node id's aggregate first reached the
// configured threshold, or 0 if it hasn't yet.
func (p *Protocol) ThresholdAt(id int) int { return p.state[id].thresholdAt }

// enterLevel moves a node to the given level and starts swapping there. A
// node swaps at every level from L-1 down to 0 inclusive; entering "level"
// -1 means the level-0 swap has committed and the node is finished.
func (p *Protocol) enterLevel(ns *nodeState, level int) {
	if ns.aggValue >= p.params.Threshold && ns.thresholdAt == 0 {
		ns.thresholdAt = p.net.Time() + 2*p.params.PairingTime
	}

	if level < 0 {
		if !ns.done {
			ns.currentPrefixLength = 0
			ns.doneAt = p.net.Time() + 2*p.params.PairingTime
			ns.done = true
			p.finished = append(p.finished, ns.id)
			p.node(ns.id).DoneAt = ns.doneAt
		}
		return
	}

	ns.currentPrefixLength = level
	ns.isSwapping = false
	ns.pendingNodes = make(map[int]bool)
	ns.signatureCache[level] = ns.aggValue

	if fv, ok := ns.futureSigs[level]; ok {
		delete(ns.futureSigs, level)
		ns.aggValue += fv
		p.enterLevel(ns, level-1)
		return
	}

	p.pickCandidates(ns, level)
}

// pickCandidates chooses up to CandidateCount unused candidates at level,
// sends them SwapRequest, and arms a timeout. If the pool is exhausted the
// node stays at this level silently.
func (p *Protocol) pickCandidates(ns *nodeState, level int) {
	used := ns.usedCandidates[level]
	if used == nil {
		used = bitset.New(p.params.NodeCount)
		ns.usedCandidates[level] = used
	}

	pool := candidatesAt(ns.id, level, p.l)
	if p.params.Shuffled {
		p.net.Rand().Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	var picked []int
	for _, c := range pool {
		if used.IsSet(c) {
			continue
		}
		picked = append(picked, c)
		if len(picked) >= p.params.CandidateCount {
			break
		}
	}
	if len(picked) == 0 {
		return
	}

	owner := p.node(ns.id)
	for _, c := range picked {
		ns.pendingNodes[c] = true
		used.Set(c)
		req := &swapRequest{proto: p, level: level, aggValue: ns.aggValue}
		if err := p.net.Send(req, p.net.Time(), owner, p.node(c)); err != nil {
			p.log.Warnf("sanfermin: node %d send to %d failed: %v", ns.id, c, err)
		}
	}

	p.net.RegisterTask(func(net *sim.Kernel) {
		p.onTimeout(ns, level)
	}, p.net.Time()+p.params.ReplyTimeout, owner)
}

// onTimeout retries the next candidate batch. A timeout whose level no
// longer matches the node's current level, or that arrives while a swap is
// already committing, is stale and is absorbed silently.
func (p *Protocol) onTimeout(ns *nodeState, level int) {
	if ns.done || ns.currentPrefixLength != level || ns.isSwapping {
		return
	}
	p.pickCandidates(ns, level)
}

// onSwapRequest is the fastest way to swap, since the value is already
// embedded in the message. Requests for another level are answered
// optimistically from the cache when possible.
func (p *Protocol) onSwapRequest(fromID, toID, level, aggValue int) {
	ns := p.state[toID]

	if ns.done || level != ns.currentPrefixLength {
		if cached, ok := ns.signatureCache[level]; ok {
			p.reply(ns, fromID, statusOK, level, cached)
			return
		}
		p.reply(ns, fromID, statusNO, level, 0)
		if isCandidateAt(toID, fromID, level, p.l) {
			ns.signatureCache[level] = aggValue
		}
		return
	}

	if ns.isSwapping {
		p.reply(ns, fromID, statusOK, ns.currentPrefixLength, ns.aggValue)
		return
	}

	if isCandidateAt(toID, fromID, ns.currentPrefixLength, p.l) {
		p.transition(ns, fromID, aggValue)
	}
}

// onSwapReply commits a swap on OK and retries the next candidate on NO.
func (p *Protocol) onSwapReply(fromID, toID int, status replyStatus, level, aggValue int) {
	ns := p.state[toID]
	if level != ns.currentPrefixLength || ns.done || ns.isSwapping {
		return
	}

	switch status {
	case statusOK:
		if ns.pendingNodes[fromID] {
			delete(ns.pendingNodes, fromID)
			p.transition(ns, fromID, aggValue)
		} else if isCandidateAt(toID, fromID, ns.currentPrefixLength, p.l) {
			p.transition(ns, fromID, aggValue)
		}
	case statusNO:
		if ns.pendingNodes[fromID] {
			delete(ns.pendingNodes, fromID)
			p.pickCandidates(ns, ns.currentPrefixLength)
		}
	}
}

// transition prevents any more aggregation at this level, then after
// PairingTime ms commits the aggregate and moves to the next level down.
func (p *Protocol) transition(ns *nodeState, peerID, incomingValue int) {
	ns.isSwapping = true
	level := ns.currentPrefixLength
	owner := p.node(ns.id)
	p.net.RegisterTask(func(net *sim.Kernel) {
		ns.aggValue += incomingValue
		p.enterLevel(ns, level-1)
	}, p.net.Time()+p.params.PairingTime, owner)
}

func (p *Protocol) reply(ns *nodeState, toID int, status replyStatus, level, aggValue int) {
	rep := &swapReply{proto: p, status: status, level: level, aggValue: aggValue}
	to := p.node(toID)
	if to == nil {
		return
	}
	if err := p.net.Send(rep, p.net.Time(), p.node(ns.id), to); err != nil {
		p.log.Warnf("sanfermin: node %d reply to %d failed: %v", ns.id, toID, err)
	}
}
