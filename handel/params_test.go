package handel

import "testing"

func TestValidateRejectsNonPowerOfTwo(t *testing.T) {
	p := Params{NodeCount: 6, Threshold: 1, LevelWaitTime: 1, PairingTime: 1, SignatureSize: 1}
	if err := p.Validate(); err == nil {
		t.Fatal("expected an error for a non-power-of-two NodeCount")
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	p := Params{NodeCount: 8, Threshold: 1, LevelWaitTime: 1, PairingTime: 1, SignatureSize: 1}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Latency == nil {
		t.Fatal("Validate must install a default latency model")
	}
	if p.CycleTime <= 0 {
		t.Fatal("Validate must install a default CycleTime")
	}
	if p.WindowSize <= 0 {
		t.Fatal("Validate must install a default WindowSize")
	}
}

func TestLevelsIsLog2(t *testing.T) {
	p := Params{NodeCount: 16}
	if got := p.levels(); got != 4 {
		t.Fatalf("levels() = %d, want 4", got)
	}
}
