package kernel

import "testing"

// TestSequencerStepMonotonicity is testable property #4.
func TestSequencerStepMonotonicity(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSequencer(true)
	spec := RhythmSpec{Steps: 16, Pulses: 4, Rotation: 0}

	prevStep := -1
	var stepsSeen int
	for i := 0; i < cfg.SampleRate; i++ { // one second, comfortably several steps at any sane bpm
		trig, fired := s.AdvanceSample(RhythmEven, spec, 0.3, 0.3, 120, cfg)
		_ = trig
		if !fired {
			continue
		}
		cur := s.State().CurrentStep
		if prevStep >= 0 {
			want := (prevStep + 1) % spec.Steps
			if cur != want {
				t.Fatalf("step non-monotonic: prev=%d cur=%d want=%d", prevStep, cur, want)
			}
		}
		prevStep = cur
		stepsSeen++
	}
	if stepsSeen == 0 {
		t.Fatalf("sequencer never fired a step in one second at 120bpm")
	}
}

func TestSequencerRegeneratesOnlyOnIntegerBucketChange(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSequencer(true)
	spec := RhythmSpec{Steps: 16, Pulses: 4, Rotation: 0}

	s.ensurePattern(RhythmEven, spec, 0.31, 0.5, cfg.MaxPolygons)
	first := s.state.Pattern

	// Same tension bucket (0.3x still buckets to 3), pattern must be
	// byte-identical (same slice contents) without a regeneration.
	s.ensurePattern(RhythmEven, spec, 0.39, 0.5, cfg.MaxPolygons)
	second := s.state.Pattern
	for i := range first.Hits {
		if first.Hits[i] != second.Hits[i] {
			t.Fatalf("pattern changed within the same tension bucket")
		}
	}

	// Crossing into a new tension bucket may change it (no assertion on the
	// new shape itself, only that the cache key advanced).
	s.ensurePattern(RhythmEven, spec, 0.51, 0.5, cfg.MaxPolygons)
	if s.state.cachedTension != tensionBucket(0.51) {
		t.Fatalf("cached tension bucket not updated after crossing")
	}
}

func TestMergeTriggersPrimaryWinsAndGhostsSecondary(t *testing.T) {
	primary := StepTrigger{Kick: true, Velocity: 1.0, IsStrongBeat: true}
	secondary := StepTrigger{Kick: true, Hat: true, Velocity: 0.8}

	out := mergeTriggers(primary, secondary)
	if !out.Kick {
		t.Fatalf("expected kick to survive the merge")
	}
	if !out.Ghost {
		t.Fatalf("expected colliding secondary kick to be flagged as a ghost")
	}
	if !out.Hat {
		t.Fatalf("expected secondary-only hat to pass through")
	}
	if out.Velocity != 1.0 {
		t.Fatalf("expected merge to keep the louder velocity, got %f", out.Velocity)
	}
}

func TestMergeTriggersNoCollisionNoGhost(t *testing.T) {
	primary := StepTrigger{Snare: true}
	secondary := StepTrigger{Hat: true}
	out := mergeTriggers(primary, secondary)
	if out.Ghost {
		t.Fatalf("no collision occurred, Ghost should be false")
	}
	if !out.Snare || !out.Hat {
		t.Fatalf("expected both non-colliding triggers to pass through")
	}
}
