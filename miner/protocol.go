package miner

import (
	"math"

	"github.com/example/distsim/internal/simlog"
	"github.com/example/distsim/protocol"
	"github.com/example/distsim/sim"
)

// mineTickMs is the granularity at which each node re-rolls its mining
// dice.
const mineTickMs = 10

// Protocol drives a proof-of-work block-production run over a kernel it
// owns: honest longest-chain miners, and (for the first SelfishCount
// nodes) a selfish-mining variant that withholds blocks while it holds a
// private lead.
type Protocol struct {
	params Params

	net      *sim.Kernel
	state    []*minerState
	genesis  *Block
	nextID   int
	finished []int

	log *simlog.Logger
}

var _ protocol.Protocol = (*Protocol)(nil)

// New validates params and returns a ready-to-Init protocol instance.
func New(params Params) (*Protocol, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Protocol{params: params, log: simlog.Default()}, nil
}

// Init populates the kernel with NodeCount nodes on top of a shared
// genesis block and starts every node's mining-tick loop.
func (p *Protocol) Init() {
	p.net = sim.NewKernel(sim.Config{Seed: p.params.Seed, Latency: p.params.Latency})
	p.log = p.net.Log()
	p.genesis = genesisBlock()
	p.nextID = 1
	p.state = make([]*minerState, p.params.NodeCount)
	p.finished = nil

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
		selfish := i < p.params.SelfishCount
		p.state[i] = newMinerState(i, p.params.HashPower[i], selfish, p.genesis)
	}

	for _, ns := range p.state {
		ns := ns
		owner := p.node(ns.id)
		p.startNewMining(ns, ns.mineOn())
		p.net.RegisterPeriodicTask(func(net *sim.Kernel) {
			p.mineTick(ns)
		}, mineTickMs, mineTickMs, owner, nil)
	}
}

// Copy returns an independent, uninitialized instance with identical
// parameters.
func (p *Protocol) Copy() protocol.Protocol {
	return &Protocol{params: p.params, log: p.log}
}

// SetSeed overrides the RNG seed used by a subsequent Init.
func (p *Protocol) SetSeed(seed int64) { p.params.Seed = seed }

// Network returns the kernel this protocol drives.
func (p *Protocol) Network() *sim.Kernel { return p.net }

func (p *Protocol) node(id int) *sim.Node { return p.net.Registry().Get(id) }

func (p *Protocol) nodeByID(id int) *minerState { return p.state[id] }

// Head returns node id's current chain tip. For a selfish miner this is its
// own best chain, which includes blocks it is still withholding.
func (p *Protocol) Head(id int) *Block { return p.state[id].head }

// startNewMining allocates a fresh candidate block on top of father and
// solves for that block.s per-tick success probability.
func (p *Protocol) startNewMining(ns *minerState, father *Block) {
	ns.mining = &Block{ID: p.nextID, Height: father.Height + 1, Parent: father, Producer: ns.id}
	p.nextID++
	ns.threshold = solveInTick(ns.hashPower, p.params.Difficulty)
}

// solveInTick computes the probability that a node with the given relative
// hash power finds a valid nonce within one mineTickMs window, as the
// complement of "no single hash succeeds".
func solveInTick(hashPower int, difficulty int64) float64 {
	attempts := float64(hashPower) * float64(mineTickMs)
	singleSuccess := 1.0 / float64(difficulty)
	noSuccess := math.Pow(1-singleSuccess, attempts)
	return 1 - noSuccess
}

// mineTick rolls one mining-window dice throw: on success, the candidate
// block is finalized and handed to the honest/selfish adoption path; on
// failure nothing changes and the next tick tries again.
func (p *Protocol) mineTick(ns *minerState) {
	if ns.mining == nil {
		p.startNewMining(ns, ns.mineOn())
	}
	if p.net.Rand().Float64() >= ns.threshold {
		return
	}
	mined := ns.mining
	ns.mining = nil
	ns.blocksMined++

	if ns.selfish {
		p.onSelfishMined(ns, mined)
	} else {
		p.adopt(ns, mined)
		p.broadcast(ns, mined)
		p.startNewMining(ns, ns.head)
	}
}

// adopt applies the longest-chain rule: mined becomes head only if it
// extends a strictly longer chain than the current head.
func (p *Protocol) adopt(ns *minerState, b *Block) bool {
	if b.Height > ns.head.Height {
		ns.head = b
		if b.Producer == ns.id {
			ns.blocksAdopted++
		}
		return true
	}
	return false
}

func (p *Protocol) broadcast(ns *minerState, b *Block) {
	owner := p.node(ns.id)
	var peers []*sim.Node
	for _, other := range p.state {
		if other.id == ns.id {
			continue
		}
		peers = append(peers, p.node(other.id))
	}
	if len(peers) == 0 {
		return
	}
	msg := &blockMessage{proto: p, block: b}
	if err := p.net.SendWithDelay(msg, p.net.Time()+1, owner, 0, peers...); err != nil {
		p.log.Warnf("miner: node %d broadcast failed: %v", ns.id, err)
	}
}

// onSelfishMined applies the withholding policy: keep mining privately
// unless the public chain is one block behind and
// the private lead just reached two, in which case release enough to
// convert the public miners onto the withheld fork.
func (p *Protocol) onSelfishMined(ns *minerState, mined *Block) {
	ns.privateHead = mined
	ns.head = mined // the selfish node itself always mines on its own best chain
	ns.withheld = append(ns.withheld, mined)

	deltaP := ns.privateHead.Height - (ns.otherHead.Height - 1)
	if deltaP == 0 && ownStreak(ns.privateHead, ns.id) == 2 {
		p.releaseSelfish(ns, ns.privateHead)
	}
	p.startNewMining(ns, ns.privateHead)
}

// onBlockReceived applies either the selfish release policy or the honest
// miner.s plain longest-chain switch, depending on ns.selfish.
func (p *Protocol) onBlockReceived(ns *minerState, rcv *Block) {
	if !ns.selfish {
		if p.adopt(ns, rcv) {
			p.startNewMining(ns, ns.head)
		} else if ns.mining != nil && rcv.Height >= ns.mining.Height {
			// A competing block at or above our candidate's height: keep
			// mining on the current head rather than an already-stale parent.
			p.startNewMining(ns, ns.head)
		}
		return
	}

	if rcv.Height <= ns.otherHead.Height {
		return
	}
	ns.otherHead = rcv

	deltaP := ns.privateHead.Height - (ns.otherHead.Height - 1)
	switch {
	case deltaP <= 0:
		// Public chain won: abandon the private fork and mine publicly.
		p.releaseSelfish(ns, ns.privateHead)
		ns.otherHead = best(ns.otherHead, ns.privateHead)
		ns.head = ns.otherHead
		p.startNewMining(ns, ns.head)
	case deltaP == 1:
		// Tie: race by releasing the withheld tip.
		p.releaseOne(ns, ns.privateHead)
	case deltaP == 2:
		// One ahead: release the parent to pull the network onto our fork.
		if ns.privateHead.Parent != nil {
			p.releaseOne(ns, ns.privateHead.Parent)
		}
	default:
		// Far ahead: release just enough of the withheld tail.
		toSend := ns.privateHead
		for isWithheld(ns.withheld, toSend.Parent) {
			toSend = toSend.Parent
		}
		p.releaseOne(ns, toSend)
	}
}

func (p *Protocol) releaseOne(ns *minerState, b *Block) {
	if b == nil || b.Producer != ns.id {
		return
	}
	ns.otherHead = best(ns.otherHead, b)
	ns.withheld = removeBlock(ns.withheld, b)
	p.broadcast(ns, b)
}

// releaseSelfish sends every withheld ancestor of head down to (but not
// past) the current public head, oldest first so peers can adopt in order.
func (p *Protocol) releaseSelfish(ns *minerState, head *Block) {
	var chain []*Block
	for b := head; b != nil && b.Producer == ns.id && b.Height > ns.otherHead.Height-1; b = b.Parent {
		chain = append(chain, b)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		p.releaseOne(ns, chain[i])
	}
}

func removeBlock(bs []*Block, target *Block) []*Block {
	out := bs[:0]
	for _, b := range bs {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

func isWithheld(bs []*Block, target *Block) bool {
	for _, b := range bs {
		if b == target {
			return true
		}
	}
	return false
}

// best returns whichever of a, b has greater height (a on ties).
func best(a, b *Block) *Block {
	if b != nil && b.Height > a.Height {
		return b
	}
	return a
}

// blockMessage carries a mined block to a peer; size is a nominal
// per-block accounting figure independent of real serialization.
type blockMessage struct {
	proto *Protocol
	block *Block
}

func (m *blockMessage) Size() int { return 512 }

func (m *blockMessage) Action(net *sim.Kernel, from, to *sim.Node) {
	ns := m.proto.nodeByID(to.ID)
	m.proto.onBlockReceived(ns, m.block)
}
