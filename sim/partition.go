package sim

import (
	"fmt"
	"sort"
)

// PartitionSet is an ordered list of X-axis cut coordinates. A node's
// partition id is the number of cuts strictly to its left; two nodes can
// only exchange a message when they share a partition id at delivery time.
type PartitionSet struct {
	maxX int
	cuts []int
}

func newPartitionSet(maxX int) *PartitionSet {
	return &PartitionSet{maxX: maxX}
}

// Partition adds a cut at fraction*MaxX. It fails if fraction is out of
// (0,1) or if the resulting cut coordinate already exists.
func (p *PartitionSet) Partition(fraction float64) error {
	if fraction <= 0 || fraction >= 1 {
		return fmt.Errorf("sim: partition fraction must be in (0,1), got %v", fraction)
	}
	cut := int(fraction * float64(p.maxX))
	for _, c := range p.cuts {
		if c == cut {
			return fmt.Errorf("sim: duplicate partition cut at x=%d", cut)
		}
	}
	p.cuts = append(p.cuts, cut)
	sort.Ints(p.cuts)
	return nil
}

// EndPartition clears every cut.
func (p *PartitionSet) EndPartition() {
	p.cuts = nil
}

// PartitionOf returns the partition id of an x coordinate: the count of
// cuts strictly less than x.
func (p *PartitionSet) PartitionOf(x int) int {
	id := 0
	for _, c := range p.cuts {
		if c < x {
			id++
		} else {
			break
		}
	}
	return id
}
