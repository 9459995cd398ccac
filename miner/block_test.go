package miner

import "testing"

func TestOwnStreakCountsConsecutiveProducer(t *testing.T) {
	genesis := genesisBlock()
	b1 := &Block{ID: 1, Height: 1, Parent: genesis, Producer: 0}
	b2 := &Block{ID: 2, Height: 2, Parent: b1, Producer: 0}
	b3 := &Block{ID: 3, Height: 3, Parent: b2, Producer: 1}

	if got := ownStreak(b2, 0); got != 2 {
		t.Fatalf("ownStreak(b2, 0) = %d, want 2", got)
	}
	if got := ownStreak(b3, 0); got != 0 {
		t.Fatalf("ownStreak(b3, 0) = %d, want 0 (producer mismatch at the tip)", got)
	}
	if got := ownStreak(genesis, 0); got != 0 {
		t.Fatalf("ownStreak(genesis, 0) = %d, want 0", got)
	}
}

func TestParamsValidateDefaultsHashPower(t *testing.T) {
	p := Params{NodeCount: 3, Difficulty: 10}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(p.HashPower) != 3 {
		t.Fatalf("expected 3 default hash-power entries, got %d", len(p.HashPower))
	}
	for _, hp := range p.HashPower {
		if hp != 1 {
			t.Fatalf("default hash power = %d, want 1", hp)
		}
	}
}

func TestParamsValidateRejectsBadSelfishCount(t *testing.T) {
	p := Params{NodeCount: 3, Difficulty: 10, SelfishCount: 4}
	if err := p.Validate(); err == nil {
		t.Fatal("expected an error for SelfishCount > NodeCount")
	}
}
