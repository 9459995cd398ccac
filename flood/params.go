// Package flood implements a trivial flood-broadcast protocol: the
// simplest possible implementation of the protocol façade, used to
// exercise sim.Kernel independent of any aggregation logic.
package flood

import (
	"fmt"

	"github.com/example/distsim/sim"
)

// Params enumerates every tunable of a flood run.
type Params struct {
	NodeCount int
	// DeadNodeCount marks the first DeadNodeCount nodes (by id) down: they
	// never send or receive.
	DeadNodeCount int
	// DelayBeforeResent is how long a node waits before relaying a message
	// it has not seen before to its peers.
	DelayBeforeResent int
	// PeersCount bounds how many peers each node relays to.
	PeersCount int
	// DelayBetweenSends staggers sends to successive peers (0 = simultaneous).
	DelayBetweenSends int
	Seed              int64
	Latency           sim.LatencyModel
}

// Validate checks structural preconditions and fills in defaults.
func (p *Params) Validate() error {
	if p.NodeCount <= 0 {
		return fmt.Errorf("flood: NodeCount must be positive, got %d", p.NodeCount)
	}
	if p.DeadNodeCount < 0 || p.DeadNodeCount >= p.NodeCount {
		return fmt.Errorf("flood: DeadNodeCount must be in [0, NodeCount), got %d", p.DeadNodeCount)
	}
	if p.PeersCount <= 0 {
		p.PeersCount = p.NodeCount - 1
	}
	if p.PeersCount > p.NodeCount-1 {
		p.PeersCount = p.NodeCount - 1
	}
	if p.DelayBeforeResent < 0 {
		return fmt.Errorf("flood: DelayBeforeResent must be non-negative, got %d", p.DelayBeforeResent)
	}
	if p.Latency == nil {
		p.Latency = sim.ConstantLatency(1)
	}
	return nil
}
