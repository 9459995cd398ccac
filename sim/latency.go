package sim

import "math"

// LatencyModel computes a one-way delivery delay, in milliseconds, between
// two nodes given a caller-reproducible random draw in [0,99]. Models must
// be pure: the only source of variance is rnd.
type LatencyModel interface {
	Latency(from, to *Node, rnd int) int
}

// ConstantLatency returns every message with the same fixed delay.
type ConstantLatency int

func (c ConstantLatency) Latency(from, to *Node, rnd int) int { return int(c) }

// DistanceLatencyFunc maps Euclidean distance between two node positions
// through a caller-supplied curve, e.g. distance/speed-of-light-in-fiber.
type DistanceLatencyFunc func(distance float64) int

type distanceLatency struct {
	curve DistanceLatencyFunc
}

// DistanceLatency builds a latency model driven purely by node position.
func DistanceLatency(curve DistanceLatencyFunc) LatencyModel {
	return distanceLatency{curve: curve}
}

func (d distanceLatency) Latency(from, to *Node, rnd int) int {
	dx := float64(from.X - to.X)
	dy := float64(from.Y - to.Y)
	return d.curve(math.Sqrt(dx*dx + dy*dy))
}

// EmpiricalLatency builds a latency model from an empirical CDF: two
// equal-length arrays of (proportion, value). sum(proportions) is the
// denominator against which the caller's rnd in [0,99] is scaled, so it
// need not equal 100.
type empiricalLatency struct {
	props []int
	vals  []int
	total int
}

func EmpiricalLatency(proportions, values []int) LatencyModel {
	total := 0
	for _, p := range proportions {
		total += p
	}
	e := &empiricalLatency{total: total}
	e.props = append(e.props, proportions...)
	e.vals = append(e.vals, values...)
	return e
}

func (e *empiricalLatency) Latency(from, to *Node, rnd int) int {
	if e.total <= 0 || len(e.props) == 0 {
		return 0
	}
	scaled := rnd * e.total / 100
	cum := 0
	for i, p := range e.props {
		cum += p
		if scaled < cum {
			return e.vals[i]
		}
	}
	return e.vals[len(e.vals)-1]
}

// IC3Latency is a measured intercontinental-link bucket table: a short
// empirical CDF over millisecond buckets, independent of node position.
func IC3Latency() LatencyModel {
	return EmpiricalLatency(
		[]int{16, 18, 24, 11, 17, 11, 3},
		[]int{10, 25, 50, 75, 100, 150, 250},
	)
}
