package handel

import "github.com/example/distsim/bitset"

// aggToVerify is one unverified incoming aggregate awaiting a merge
// decision.
type aggToVerify struct {
	from int
	rank int
	sig  Attestation
}

// hLevel is one node's per-level Handel state.
type hLevel struct {
	level      int
	peersCount int
	peers      []int // deterministic emission order
	nodeCount  int

	incoming    map[Hash]*Attestation
	indIncoming map[Hash]*bitset.BitSet
	outgoing    map[Hash]*Attestation

	incomingCardinality int
	outgoingCardinality int

	toVerifyAgg []aggToVerify

	outgoingFinished bool
	posInLevel       int

	lastMessageCardinality int
	lastNode               int // -1 when no message has been sent yet
}

func newHLevel(id, level, l, nodeCount int, ownHash Hash) *hLevel {
	hl := &hLevel{
		level:       level,
		peersCount:  peersCount(level),
		peers:       peersAt(id, level, l),
		nodeCount:   nodeCount,
		incoming:    make(map[Hash]*Attestation),
		indIncoming: make(map[Hash]*bitset.BitSet),
		outgoing:    make(map[Hash]*Attestation),
		lastNode:    -1,
	}
	if level == 0 {
		// At level 0 we need (and have) only our own signature; there is
		// nothing to send.
		att := newAttestation(ownHash, nodeCount, id)
		hl.incoming[ownHash] = &att
		hl.incomingCardinality = 1
		hl.outgoingFinished = true
		ind := bitset.New(nodeCount)
		ind.Set(id)
		hl.indIncoming[ownHash] = ind
	}
	return hl
}

func (hl *hLevel) isIncomingComplete() bool { return hl.incomingCardinality >= hl.peersCount }
func (hl *hLevel) isOutgoingComplete() bool { return hl.outgoingCardinality >= hl.peersCount }

func (hl *hLevel) open(now, levelWaitTime int) bool {
	if hl.level <= 1 {
		return true
	}
	return now >= (hl.level-1)*levelWaitTime || hl.isOutgoingComplete()
}

// nextPeer advances the round-robin cursor and returns the next contactable
// peer, skipping finishedPeers and blacklist. A full revolution with no
// candidate sets outgoingFinished.
func (hl *hLevel) nextPeer(finishedPeers, blacklist *bitset.BitSet) (int, bool) {
	n := len(hl.peers)
	if n == 0 {
		return 0, false
	}
	for i := 0; i < n; i++ {
		idx := (hl.posInLevel + i) % n
		p := hl.peers[idx]
		if finishedPeers.IsSet(p) || blacklist.IsSet(p) {
			continue
		}
		hl.posInLevel = (idx + 1) % n
		return p, true
	}
	hl.outgoingFinished = true
	return 0, false
}

// sizeIfMerged projects the incoming cardinality that would result from
// merging who (contributing to hash) into the current incoming set, without
// mutating any state.
func (hl *hLevel) sizeIfMerged(hash Hash, who *bitset.BitSet) int {
	total := 0
	existing, ok := hl.incoming[hash]
	for h, att := range hl.incoming {
		if h != hash {
			total += att.Who.Cardinality()
		}
	}
	if !ok {
		return total + who.Cardinality()
	}
	if existing.Who.Disjoint(who) {
		return total + existing.Who.Cardinality() + who.Cardinality()
	}
	merged := who
	if ind := hl.indIncoming[hash]; ind != nil {
		merged = ind.Union(who)
	}
	m, o := merged.Cardinality(), existing.Who.Cardinality()
	if m > o {
		return total + m
	}
	return total + o
}

// mergeIncoming applies the same case analysis as sizeIfMerged but mutates
// incoming, indIncoming and incomingCardinality.
func (hl *hLevel) mergeIncoming(from int, av Attestation) {
	ind := hl.indIncoming[av.Hash]
	if ind == nil {
		ind = bitset.New(hl.nodeCount)
		hl.indIncoming[av.Hash] = ind
	}
	ind.Set(from)

	existing, ok := hl.incoming[av.Hash]
	if !ok {
		cp := av.Who.Clone()
		hl.incoming[av.Hash] = &Attestation{Hash: av.Hash, Who: cp}
		hl.incomingCardinality += cp.Cardinality()
		if hl.incomingCardinality > hl.peersCount {
			panic("handel: incomingCardinality exceeded peersCount")
		}
		return
	}
	if existing.Who.Disjoint(av.Who) {
		merged := existing.Who.Union(av.Who)
		delta := merged.Cardinality() - existing.Who.Cardinality()
		existing.Who = merged
		hl.incomingCardinality += delta
		if hl.incomingCardinality > hl.peersCount {
			panic("handel: incomingCardinality exceeded peersCount")
		}
		return
	}
	merged := ind.Union(av.Who)
	m, o := merged.Cardinality(), existing.Who.Cardinality()
	if m > o {
		hl.incomingCardinality += m - o
		existing.Who = merged
		if hl.incomingCardinality > hl.peersCount {
			panic("handel: incomingCardinality exceeded peersCount")
		}
	}
}

// bestToVerify prunes stale or non-improving entries from toVerifyAgg and
// returns the best remaining candidate by projected merged size. If
// incoming is already complete, the queue is dropped and none is returned.
// bestInside (a windowed choice by rank) is never assigned, so selection
// always falls through to bestOutside.
// TODO: use minRank and windowSize for a genuine windowed choice.
func (hl *hLevel) bestToVerify(windowSize int, blacklist *bitset.BitSet) *aggToVerify {
	if hl.isIncomingComplete() {
		hl.toVerifyAgg = nil
		return nil
	}

	kept := hl.toVerifyAgg[:0]
	for _, item := range hl.toVerifyAgg {
		if blacklist.IsSet(item.from) {
			continue
		}
		if hl.sizeIfMerged(item.sig.Hash, item.sig.Who) <= hl.incomingCardinality {
			continue
		}
		kept = append(kept, item)
	}
	hl.toVerifyAgg = kept
	if len(kept) == 0 {
		return nil
	}

	minRank := kept[0].rank
	for _, item := range kept[1:] {
		if item.rank < minRank {
			minRank = item.rank
		}
	}
	var bestInside *aggToVerify

	var bestOutside *aggToVerify
	bestSize := -1
	for i := range kept {
		sz := hl.sizeIfMerged(kept[i].sig.Hash, kept[i].sig.Who)
		if sz > bestSize {
			bestSize = sz
			bestOutside = &kept[i]
		}
	}
	if bestInside != nil {
		return bestInside
	}
	return bestOutside
}
