// Package scenario implements the repeated-round benchmark harness that
// drives any protocol façade and samples per-node statistics over virtual
// time, folding every round into min/max/avg series per metric.
package scenario

import "github.com/example/distsim/sim"

// StatsGetter is the contract a caller supplies to extract named metrics
// from the node registry at each sampling point.
type StatsGetter interface {
	// Fields lists the metric names Get will populate.
	Fields() []string
	// Get computes one value per field, aggregated across nodes.
	Get(nodes []*sim.Node) map[string]float64
}

// Seedable lets a protocol accept a per-round RNG seed from the runner
// .
type Seedable interface {
	SetSeed(seed int64)
}

// NodeCountStats is a minimal StatsGetter reporting message counters
// summed across the registry; useful as a smoke-test getter
// and as a template for protocol-specific ones.
type NodeCountStats struct{}

func (NodeCountStats) Fields() []string { return []string{"msgSent", "msgReceived", "bytesSent"} }

func (NodeCountStats) Get(nodes []*sim.Node) map[string]float64 {
	var sent, recv, bytes int64
	for _, n := range nodes {
		if n == nil {
			continue
		}
		sent += int64(n.MsgSent)
		recv += int64(n.MsgReceived)
		bytes += n.BytesSent
	}
	return map[string]float64{
		"msgSent":     float64(sent),
		"msgReceived": float64(recv),
		"bytesSent":   float64(bytes),
	}
}
