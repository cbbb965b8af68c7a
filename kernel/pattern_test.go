package kernel

import "testing"

// TestPatternGenerationIsDeterministic is testable property #3.
func TestPatternGenerationIsDeterministic(t *testing.T) {
	spec := RhythmSpec{Steps: 16, Pulses: 5, Rotation: 3}
	a := GeneratePattern(RhythmEven, spec, 0.4, 0.6, 3)
	b := GeneratePattern(RhythmEven, spec, 0.4, 0.6, 3)

	if a.Steps != b.Steps || len(a.Hits) != len(b.Hits) {
		t.Fatalf("pattern shape differs between calls")
	}
	for i := range a.Hits {
		if a.Hits[i] != b.Hits[i] {
			t.Fatalf("pattern differs at step %d", i)
		}
	}
}

func TestBjorklundPulseCount(t *testing.T) {
	for _, tc := range []struct{ steps, pulses int }{
		{16, 5}, {12, 7}, {8, 3}, {16, 0}, {16, 16},
	} {
		hits := bjorklundPattern(tc.steps, tc.pulses)
		if len(hits) != tc.steps {
			t.Fatalf("steps=%d pulses=%d: got %d hits slots, want %d", tc.steps, tc.pulses, len(hits), tc.steps)
		}
		count := 0
		for _, h := range hits {
			if h {
				count++
			}
		}
		if count != tc.pulses {
			t.Fatalf("steps=%d pulses=%d: got %d onsets, want %d", tc.steps, tc.pulses, count, tc.pulses)
		}
	}
}

func TestRotatePatternPreservesOnsetCount(t *testing.T) {
	hits := bjorklundPattern(16, 5)
	rotated := rotatePattern(hits, 7)
	if len(rotated) != len(hits) {
		t.Fatalf("rotation changed length")
	}
	count := 0
	for _, h := range rotated {
		if h {
			count++
		}
	}
	if count != 5 {
		t.Fatalf("rotation changed onset count: got %d", count)
	}
}

func TestGeneratePatternClampsOutOfRangeInputs(t *testing.T) {
	spec := RhythmSpec{Steps: 8, Pulses: 99, Rotation: -3}
	p := GeneratePattern(RhythmEven, spec, 0.1, 0.1, 3)
	if p.Steps != 8 {
		t.Fatalf("steps changed unexpectedly: %d", p.Steps)
	}
	count := 0
	for _, h := range p.Hits {
		if h {
			count++
		}
	}
	if count != 8 {
		t.Fatalf("pulses not clamped to steps: got %d onsets", count)
	}
}

func TestGrooveFillZoneAtHighTension(t *testing.T) {
	spec := RhythmSpec{Steps: 16, Pulses: 4, Rotation: 0}
	p := GeneratePattern(RhythmGroove, spec, 0.95, 0.9, 3)
	start := p.Steps - p.Steps/4
	for i := start; i < p.Steps; i++ {
		if !p.Hits[i] {
			t.Fatalf("expected fill zone onset at step %d, pattern=%v", i, p.Hits)
		}
	}
}
