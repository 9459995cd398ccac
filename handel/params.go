// Package handel implements the Handel multi-level signature-aggregation
// protocol: nodes organized into log2(nodeCount) levels, each contacting a
// disjoint, growing peer set and merging overlapping attestations by
// contributor bit-set.
package handel

import (
	"fmt"
	"math/bits"

	"github.com/example/distsim/sim"
)

// Params enumerates every tunable of a Handel run.
type Params struct {
	NodeCount     int // must be a power of two
	Threshold     int // aggregate cardinality at which thresholdAt is recorded
	LevelWaitTime int // ms before level ℓ opens unconditionally
	PairingTime   int // ms to verify one incoming aggregate before merging it
	CycleTime     int // ms between a node's doCycle dispatch ticks
	WindowSize    int // bestToVerify's window size
	SignatureSize int // bytes, used for message accounting only
	Seed          int64
	Latency       sim.LatencyModel // nil selects a 1ms constant model
}

// Validate checks structural preconditions and fills in defaults.
func (p *Params) Validate() error {
	if p.NodeCount <= 1 || p.NodeCount&(p.NodeCount-1) != 0 {
		return fmt.Errorf("handel: NodeCount must be a power of two > 1, got %d", p.NodeCount)
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("handel: Threshold must be positive, got %d", p.Threshold)
	}
	if p.LevelWaitTime <= 0 {
		return fmt.Errorf("handel: LevelWaitTime must be positive, got %d", p.LevelWaitTime)
	}
	if p.PairingTime <= 0 {
		return fmt.Errorf("handel: PairingTime must be positive, got %d", p.PairingTime)
	}
	if p.CycleTime <= 0 {
		p.CycleTime = 1
	}
	if p.WindowSize <= 0 {
		p.WindowSize = 1
	}
	if p.SignatureSize <= 0 {
		return fmt.Errorf("handel: SignatureSize must be positive, got %d", p.SignatureSize)
	}
	if p.Latency == nil {
		p.Latency = sim.ConstantLatency(1)
	}
	return nil
}

// levels returns L = log2(NodeCount).
func (p *Params) levels() int { return bits.TrailingZeros(uint(p.NodeCount)) }
