package scenario

import (
	"github.com/example/distsim/handel"
	"github.com/example/distsim/sanfermin"
)

// SanFerminPreset names a ready-to-run San Fermín configuration.
type SanFerminPreset struct {
	Name        string
	Description string
	Params      sanfermin.Params
}

// SanFerminPresets returns the built-in San Fermín scenarios.
func SanFerminPresets() []SanFerminPreset {
	return []SanFerminPreset{
		{
			Name:        "small_unshuffled",
			Description: "8 nodes, threshold 3, deterministic candidate order — the smallest scenario that exercises every level",
			Params: sanfermin.Params{
				NodeCount:      8,
				Threshold:      3,
				PairingTime:    4,
				ReplyTimeout:   300,
				CandidateCount: 1,
				SignatureSize:  48,
			},
		},
		{
			Name:        "medium_shuffled",
			Description: "64 nodes, shuffled candidate order, threshold set to full aggregation",
			Params: sanfermin.Params{
				NodeCount:      64,
				Threshold:      64,
				PairingTime:    10,
				ReplyTimeout:   200,
				CandidateCount: 2,
				SignatureSize:  48,
				Shuffled:       true,
			},
		},
		{
			Name:        "lossy_pair",
			Description: "2 nodes, short reply timeout; no message discard window is set, so the single swap completes",
			Params: sanfermin.Params{
				NodeCount:      2,
				Threshold:      2,
				PairingTime:    2,
				ReplyTimeout:   20,
				CandidateCount: 1,
				SignatureSize:  32,
			},
		},
	}
}

// HandelPreset names a ready-to-run Handel configuration.
type HandelPreset struct {
	Name        string
	Description string
	Params      handel.Params
}

// HandelPresets returns the built-in Handel scenarios.
func HandelPresets() []HandelPreset {
	return []HandelPreset{
		{
			Name:        "small",
			Description: "8 nodes, short level-wait, exercises per-level suppression and bit-set merge",
			Params: handel.Params{
				NodeCount:     8,
				Threshold:     4,
				LevelWaitTime: 10,
				PairingTime:   2,
				CycleTime:     1,
				SignatureSize: 32,
			},
		},
		{
			Name:        "medium",
			Description: "32 nodes, longer level-wait to give every level a fair contention window",
			Params: handel.Params{
				NodeCount:     32,
				Threshold:     16,
				LevelWaitTime: 25,
				PairingTime:   5,
				CycleTime:     2,
				SignatureSize: 32,
			},
		},
	}
}
