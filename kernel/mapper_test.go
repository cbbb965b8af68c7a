package kernel

import "testing"

// TestMapperSteadyStateMatchesS1 exercises spec scenario S1: at
// arousal=0.5, valence=0.3, density=0.5, tension=0.3, after enough blocks
// for the second-stage BPM smoothing to converge, bpm is ~125 and pulses=6.
func TestMapperSteadyStateMatchesS1(t *testing.T) {
	cfg := DefaultConfig()
	mp := NewMapper(cfg, 100)
	s := CurrentState{Arousal: 0.5, Valence: 0.3, Density: 0.5, Tension: 0.3}

	var params MusicalParams
	for i := 0; i < 500; i++ {
		params = mp.Map(s)
	}

	if d := absF(params.BPM - 125); d > 1.0 {
		t.Fatalf("bpm = %f, want ~125", params.BPM)
	}
	if params.Primary.Pulses != 6 {
		t.Fatalf("pulses = %d, want 6", params.Primary.Pulses)
	}
}

func TestMapperIsDeterministicGivenSameHistory(t *testing.T) {
	cfg := DefaultConfig()
	states := []CurrentState{
		{Arousal: 0.2, Valence: -0.4, Density: 0.1, Tension: 0.9},
		{Arousal: 0.6, Valence: 0.1, Density: 0.5, Tension: 0.5},
		{Arousal: 0.9, Valence: 0.8, Density: 0.9, Tension: 0.1},
	}

	run := func() []MusicalParams {
		mp := NewMapper(cfg, 100)
		out := make([]MusicalParams, 0, len(states))
		for _, s := range states {
			out = append(out, mp.Map(s))
		}
		return out
	}

	a := run()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("mapper output diverged at step %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestMapperDensityStepHitsEveryIntegerPulseCount(t *testing.T) {
	cfg := DefaultConfig()
	mp := NewMapper(cfg, 100)
	steps := mp.primarySteps

	prev := -1
	for d := 0.0; d <= 1.0; d += 0.01 {
		s := CurrentState{Arousal: 0.5, Density: d, Tension: 0.3}
		params := mp.Map(s)
		if prev >= 0 && params.Primary.Pulses < prev {
			t.Fatalf("pulses decreased during a monotonic density ramp: %d -> %d", prev, params.Primary.Pulses)
		}
		if params.Primary.Pulses-prev > 1 && prev >= 0 {
			t.Fatalf("pulses skipped an integer: %d -> %d", prev, params.Primary.Pulses)
		}
		prev = params.Primary.Pulses
	}
	if steps <= 0 {
		t.Fatalf("unexpected primary step count %d", steps)
	}
}
