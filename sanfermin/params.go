// Package sanfermin implements the San Fermín binary-swap signature
// aggregation protocol: a node pairs up with progressively more distant
// peers along a binary tree of its id, aggregating one bit-level at a
// time, with optimistic replies and per-level timeouts.
package sanfermin

import (
	"fmt"
	"math/bits"

	"github.com/example/distsim/sim"
)

// Params enumerates every tunable of a San Fermín run; this is the
// protocol's parameter record — a flat struct of
// integers/booleans, with no reflection involved at the core level.
type Params struct {
	NodeCount      int // must be a power of two
	Threshold      int // aggValue at which thresholdAt is recorded
	PairingTime    int // ms to verify and commit one swap
	ReplyTimeout   int // ms to wait for a SwapReply before retrying
	CandidateCount int // candidates contacted per batch at a level
	SignatureSize  int // bytes, used for message accounting only
	Shuffled       bool
	Seed           int64
	Latency        sim.LatencyModel // nil selects a 1ms constant model
}

// Validate checks structural preconditions and fills in defaults. A
// non-power-of-two NodeCount is a configuration error: the
// per-level candidate math assumes nodeCount rounds cleanly to 2^L.
func (p *Params) Validate() error {
	if p.NodeCount <= 1 || p.NodeCount&(p.NodeCount-1) != 0 {
		return fmt.Errorf("sanfermin: NodeCount must be a power of two > 1, got %d", p.NodeCount)
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("sanfermin: Threshold must be positive, got %d", p.Threshold)
	}
	if p.PairingTime <= 0 {
		return fmt.Errorf("sanfermin: PairingTime must be positive, got %d", p.PairingTime)
	}
	if p.ReplyTimeout <= 0 {
		return fmt.Errorf("sanfermin: ReplyTimeout must be positive, got %d", p.ReplyTimeout)
	}
	if p.CandidateCount <= 0 {
		return fmt.Errorf("sanfermin: CandidateCount must be positive, got %d", p.CandidateCount)
	}
	if p.SignatureSize <= 0 {
		return fmt.Errorf("sanfermin: SignatureSize must be positive, got %d", p.SignatureSize)
	}
	if p.Latency == nil {
		p.Latency = sim.ConstantLatency(1)
	}
	return nil
}

// levels returns L = log2(NodeCount).
func (p *Params) levels() int { return bits.TrailingZeros(uint(p.NodeCount)) }
