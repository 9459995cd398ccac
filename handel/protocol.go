package handel

import (
	"github.com/example/distsim/bitset"
	"github.com/example/distsim/internal/simlog"
	"github.com/example/distsim/protocol"
	"github.com/example/distsim/sim"
)

// targetHash is the single value every node in a run aggregates signatures
// over. The simulator does not model a Byzantine fork-choice between
// competing values, so one hash per run is sufficient.
const targetHash Hash = "block"

// Protocol drives a Handel aggregation over a kernel it owns.
type Protocol struct {
	params Params
	l      int

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

// Init populates the kernel with NodeCount nodes, builds each node's level
// state, and starts every node's doCycle dispatch loop.
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
		p.state[i] = newNodeState(i, p.l, p.params.NodeCount, targetHash)
	}
	for _, ns := range p.state {
		p.refreshOutgoing(ns)
		p.checkCompletion(ns)
	}

	for _, ns := range p.state {
		ns := ns
		owner := p.node(ns.id)
		p.net.RegisterPeriodicTask(func(net *sim.Kernel) {
			p.doCycle(ns)
		}, 1, p.params.CycleTime, owner, func() bool { return !ns.done })
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

func (p *Protocol) node(id int) *sim.Node { return p.net.Registry().Get(id) }

func (p *Protocol) nodeByID(id int) *nodeState { return p.state[id] }

// Finished returns the node ids that have completed, in completion order.
func (p *Protocol) Finished() []int {
	out := make([]int, len(p.finished))
	copy(out, p.finished)
	return out
}

// doCycle sends, for every open level with a contactable peer, the node's
// current outgoing aggregate — unless the payload is unchanged and the
// cursor is back at the previous recipient.
func (p *Protocol) doCycle(ns *nodeState) {
	for level := 1; level < p.l; level++ {
		hl := ns.levels[level]
		if hl.outgoingFinished {
			continue
		}
		if !hl.open(p.net.Time(), p.params.LevelWaitTime) {
			continue
		}
		att, ok := hl.outgoing[ns.ownHash]
		if !ok {
			continue
		}
		peer, ok := hl.nextPeer(ns.finishedPeers, ns.blacklist)
		if !ok {
			continue
		}
		if hl.outgoingCardinality == hl.lastMessageCardinality && peer == hl.lastNode {
			continue
		}
		hl.lastMessageCardinality = hl.outgoingCardinality
		hl.lastNode = peer

		msg := &sendAggregation{proto: p, level: level, complete: hl.isIncomingComplete(), attestation: *att}
		owner, to := p.node(ns.id), p.node(peer)
		if to == nil {
			continue
		}
		if err := p.net.Send(msg, p.net.Time(), owner, to); err != nil {
			p.log.Warnf("handel: node %d send to %d at level %d failed: %v", ns.id, peer, level, err)
		}
	}
}

// onAggregation queues the attestation for verification and, if no merge
// is already scheduled for this level, schedules one. A sender whose own
// incoming set is complete needs nothing more from us: since the level
// partition is disjoint, marking it finished node-wide stops exactly the
// sends for the one level it appears in.
func (p *Protocol) onAggregation(fromID, toID, level int, complete bool, att Attestation) {
	ns := p.state[toID]
	hl := ns.levels[level]
	if complete {
		ns.finishedPeers.Set(fromID)
	}
	if hl.isIncomingComplete() {
		return
	}

	hl.toVerifyAgg = append(hl.toVerifyAgg, aggToVerify{from: fromID, rank: len(hl.toVerifyAgg), sig: att})
	if ns.pendingVerify[level] {
		return
	}
	ns.pendingVerify[level] = true
	owner := p.node(toID)
	p.net.RegisterTask(func(net *sim.Kernel) {
		p.verifyLevel(ns, level)
	}, p.net.Time()+p.params.PairingTime, owner)
}

// verifyLevel implements the PairingTime-delayed merge decision: pick the
// best queued candidate and merge it, then reschedule if more candidates
// remain for this level.
func (p *Protocol) verifyLevel(ns *nodeState, level int) {
	delete(ns.pendingVerify, level)
	hl := ns.levels[level]

	best := hl.bestToVerify(p.params.WindowSize, ns.blacklist)
	if best == nil {
		return
	}
	hl.mergeIncoming(best.from, best.sig)
	p.refreshOutgoing(ns)
	p.checkCompletion(ns)

	if !hl.isIncomingComplete() && len(hl.toVerifyAgg) > 0 {
		ns.pendingVerify[level] = true
		owner := p.node(ns.id)
		p.net.RegisterTask(func(net *sim.Kernel) {
			p.verifyLevel(ns, level)
		}, p.net.Time()+p.params.PairingTime, owner)
	}
}

// refreshOutgoing rebuilds every level's outgoing attestation from the
// cumulative union of all lower levels' incoming attestations: by the
// doubling structure of the level partition, that union's cardinality never
// exceeds the receiving level's peersCount.
func (p *Protocol) refreshOutgoing(ns *nodeState) {
	acc := bitset.New(p.params.NodeCount)
	for level := 0; level < p.l; level++ {
		hl := ns.levels[level]
		if level > 0 {
			card := acc.Cardinality()
			if card > hl.outgoingCardinality {
				hl.outgoing[ns.ownHash] = &Attestation{Hash: ns.ownHash, Who: acc.Clone()}
				hl.outgoingCardinality = card
			}
		}
		if att, ok := hl.incoming[ns.ownHash]; ok {
			acc.UnionInPlace(att.Who)
		}
	}
}

func (p *Protocol) checkCompletion(ns *nodeState) {
	total := ns.totalCardinality()
	if total >= p.params.Threshold && ns.thresholdAt == 0 {
		ns.thresholdAt = p.net.Time()
	}
	if !ns.done && ns.allLevelsComplete() {
		ns.done = true
		ns.doneAt = p.net.Time()
		p.finished = append(p.finished, ns.id)
		p.node(ns.id).DoneAt = ns.doneAt
	}
}
