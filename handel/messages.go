package handel

import "github.com/example/distsim/sim"

// sendAggregation carries one level's current outgoing attestations plus
// whether the sender considers that level's incoming set complete
// .
type sendAggregation struct {
	proto       *Protocol
	level       int
	complete    bool
	attestation Attestation
}

func (m *sendAggregation) Size() int { return m.proto.params.SignatureSize }

func (m *sendAggregation) Action(net *sim.Kernel, from, to *sim.Node) {
	m.proto.onAggregation(from.ID, to.ID, m.level, m.complete, m.attestation)
}
