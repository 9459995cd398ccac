package handel

import "github.com/example/distsim/bitset"

// Hash identifies the value an Attestation signs. Real Handel deployments
// hash the block/vote being attested to; the simulator only needs equality,
// so a small string tag is enough.
type Hash string

// Attestation pairs a signed value with the bit-set of contributors whose
// signatures have been aggregated into it.
type Attestation struct {
	Hash Hash
	Who  *bitset.BitSet
}

func newAttestation(hash Hash, nodeCount int, contributor int) Attestation {
	who := bitset.New(nodeCount)
	who.Set(contributor)
	return Attestation{Hash: hash, Who: who}
}
