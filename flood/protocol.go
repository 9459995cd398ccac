package flood

import (
	"github.com/example/distsim/protocol"
	"github.com/example/distsim/sim"
)

// floodMessage carries msgID to one peer; a node relays it to its whole peer
// set only the first time it sees it, and ignores later copies.
type floodMessage struct {
	proto *Protocol
	msgID int
}

func (m *floodMessage) Size() int { return 1 }

func (m *floodMessage) Action(net *sim.Kernel, from, to *sim.Node) {
	m.proto.onFlood(to.ID, m.msgID)
}

// Protocol drives a flood broadcast over a kernel it owns: one node sends a
// single message, every recipient relays it once to its own peer set, and
// a node is "done" the first time it has seen the message.
type Protocol struct {
	params Params

	net    *sim.Kernel
	peers  [][]int
	seen   []map[int]bool
	doneAt []int
}

var _ protocol.Protocol = (*Protocol)(nil)

// New validates params and returns a ready-to-Init protocol instance.
func New(params Params) (*Protocol, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Protocol{params: params}, nil
}

// Init populates the kernel, assigns each node a deterministic ring-based
// peer set of size PeersCount, and sends the single flood message from
// node 0 (or the first live node).
func (p *Protocol) Init() {
	p.net = sim.NewKernel(sim.Config{Seed: p.params.Seed, Latency: p.params.Latency})
	n := p.params.NodeCount
	p.peers = make([][]int, n)
	p.seen = make([]map[int]bool, n)
	p.doneAt = make([]int, n)

	for i := 0; i < n; i++ {
		node := sim.NewNode(i, 0, 0)
		node.Down = i < p.params.DeadNodeCount
		if err := p.net.AddNode(node); err != nil {
			panic(err)
		}
		p.seen[i] = make(map[int]bool)
		p.peers[i] = ringPeers(i, n, p.params.PeersCount)
	}

	sender := p.params.DeadNodeCount
	p.seen[sender][1] = true
	p.relay(sender, 1)
}

// ringPeers returns id's deterministic peer set: the next `count` ids
// around a ring, wrapping past n.
func ringPeers(id, n, count int) []int {
	if count > n-1 {
		count = n - 1
	}
	out := make([]int, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, (id+i)%n)
	}
	return out
}

// Copy returns an independent, uninitialized instance with identical
// parameters.
func (p *Protocol) Copy() protocol.Protocol {
	return &Protocol{params: p.params}
}

// SetSeed overrides the RNG seed used by a subsequent Init.
func (p *Protocol) SetSeed(seed int64) { p.params.Seed = seed }

// Network returns the kernel this protocol drives.
func (p *Protocol) Network() *sim.Kernel { return p.net }

// Seen reports whether node id has received msgID.
func (p *Protocol) Seen(id, msgID int) bool { return p.seen[id][msgID] }

// DoneAt returns the virtual time node id first saw the message, or 0.
func (p *Protocol) DoneAt(id int) int { return p.doneAt[id] }

func (p *Protocol) onFlood(id, msgID int) {
	if p.seen[id][msgID] {
		return
	}
	p.seen[id][msgID] = true
	p.doneAt[id] = p.net.Time()
	p.net.Registry().Get(id).DoneAt = p.net.Time()
	p.relay(id, msgID)
}

// relay schedules msgID's retransmission from id to its peers after
// DelayBeforeResent ms, staggered by DelayBetweenSends.
func (p *Protocol) relay(id, msgID int) {
	owner := p.net.Registry().Get(id)
	var peers []*sim.Node
	for _, peerID := range p.peers[id] {
		peers = append(peers, p.net.Registry().Get(peerID))
	}
	if len(peers) == 0 {
		return
	}
	send := func(net *sim.Kernel) {
		msg := &floodMessage{proto: p, msgID: msgID}
		net.SendWithDelay(msg, net.Time(), owner, p.params.DelayBetweenSends, peers...)
	}
	if p.params.DelayBeforeResent <= 0 {
		send(p.net)
		return
	}
	p.net.RegisterTask(send, p.net.Time()+p.params.DelayBeforeResent, owner)
}
