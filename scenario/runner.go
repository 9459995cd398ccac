package scenario

import (
	"fmt"

	"github.com/example/distsim/protocol"
	"github.com/example/distsim/sim"
)

// Series holds one metric's per-sample min/max/avg across every round.
type Series struct {
	Field string
	Min   []float64
	Max   []float64
	Avg   []float64
}

// Result is a runner's full output: one time axis shared by every field,
// and one Series per field reported by the stats getter.
type Result struct {
	TimesMs []int
	Series  map[string]*Series
}

// Runner drives roundCount independent copies of a protocol template,
// sampling stats every statEachXms virtual ms until continueIf returns
// false, then folds every round's samples into a min/max/avg series per
// field.
type Runner struct {
	Template    protocol.Protocol
	Stats       StatsGetter
	StatEachXms int
	RoundCount  int
	ContinueIf  func(net *sim.Kernel) bool
	OnRoundEnd  func(round int, net *sim.Kernel)
}

// Run executes every round and returns the folded result. It returns an
// error if RoundCount <= 0 or StatEachXms <= 0, both configuration errors.
func (r *Runner) Run() (*Result, error) {
	if r.RoundCount <= 0 {
		return nil, fmt.Errorf("scenario: RoundCount must be positive, got %d", r.RoundCount)
	}
	if r.StatEachXms <= 0 {
		return nil, fmt.Errorf("scenario: StatEachXms must be positive, got %d", r.StatEachXms)
	}

	perRound := make([][]map[string]float64, r.RoundCount)
	maxSteps := 0

	for round := 0; round < r.RoundCount; round++ {
		proto := r.Template.Copy()
		if seedable, ok := proto.(Seedable); ok {
			seedable.SetSeed(int64(round))
		}
		proto.Init()
		net := proto.Network()

		var samples []map[string]float64
		for r.ContinueIf == nil || r.ContinueIf(net) {
			net.RunMs(r.StatEachXms)
			samples = append(samples, r.Stats.Get(net.Registry().All()))
		}
		perRound[round] = samples
		if len(samples) > maxSteps {
			maxSteps = len(samples)
		}
		if r.OnRoundEnd != nil {
			r.OnRoundEnd(round, net)
		}
	}

	result := &Result{Series: make(map[string]*Series, len(r.Stats.Fields()))}
	for step := 0; step < maxSteps; step++ {
		result.TimesMs = append(result.TimesMs, (step+1)*r.StatEachXms)
	}
	for _, field := range r.Stats.Fields() {
		result.Series[field] = r.foldField(field, perRound, maxSteps)
	}
	return result, nil
}

func (r *Runner) foldField(field string, perRound [][]map[string]float64, maxSteps int) *Series {
	s := &Series{Field: field}
	for step := 0; step < maxSteps; step++ {
		var values []float64
		for _, round := range perRound {
			if step >= len(round) {
				continue
			}
			if v, ok := round[step][field]; ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			s.Min = append(s.Min, 0)
			s.Max = append(s.Max, 0)
			s.Avg = append(s.Avg, 0)
			continue
		}
		min, max, sum := values[0], values[0], 0.0
		for _, v := range values {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
		}
		s.Min = append(s.Min, min)
		s.Max = append(s.Max, max)
		s.Avg = append(s.Avg, sum/float64(len(values)))
	}
	return s
}
