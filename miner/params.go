// Package miner implements a minimal proof-of-work block-production
// protocol over the shared kernel: a longest-chain honest miner and a
// selfish-mining variant that withholds blocks according to its private
// lead over the public chain. Difficulty retargeting is not modeled.
package miner

import (
	"fmt"

	"github.com/example/distsim/sim"
)

// Params enumerates every tunable of a mining run.
type Params struct {
	NodeCount int
	// HashPower is each node's relative hash rate in arbitrary units; if
	// nil, every node gets equal power.
	HashPower []int
	// Difficulty is the constant PoW target; higher values make mining
	// slower. Must be positive.
	Difficulty int64
	// SelfishCount marks the first SelfishCount nodes (by id) as selfish
	// miners; the rest mine and broadcast honestly.
	SelfishCount int
	Seed         int64
	Latency      sim.LatencyModel
}

// Validate checks structural preconditions and fills in defaults.
func (p *Params) Validate() error {
	if p.NodeCount <= 0 {
		return fmt.Errorf("miner: NodeCount must be positive, got %d", p.NodeCount)
	}
	if p.Difficulty <= 0 {
		return fmt.Errorf("miner: Difficulty must be positive, got %d", p.Difficulty)
	}
	if p.SelfishCount < 0 || p.SelfishCount > p.NodeCount {
		return fmt.Errorf("miner: SelfishCount must be in [0, NodeCount], got %d", p.SelfishCount)
	}
	if p.HashPower == nil {
		p.HashPower = make([]int, p.NodeCount)
		for i := range p.HashPower {
			p.HashPower[i] = 1
		}
	}
	if len(p.HashPower) != p.NodeCount {
		return fmt.Errorf("miner: HashPower must have NodeCount entries, got %d want %d", len(p.HashPower), p.NodeCount)
	}
	for i, hp := range p.HashPower {
		if hp <= 0 {
			return fmt.Errorf("miner: HashPower[%d] must be positive, got %d", i, hp)
		}
	}
	if p.Latency == nil {
		p.Latency = sim.ConstantLatency(1)
	}
	return nil
}
