package kernel

import "testing"

// TestLeadPitchStaysInScale is testable property #6: every emitted melody
// pitch is a member of the currently published scale (transposed by the
// key root).
func TestLeadPitchStaysInScale(t *testing.T) {
	rnd := newRNG(123)
	keyRoot := 2 // D
	mg := NewMelodyGenerator(rnd, keyRoot)
	chord := triadTones(keyRoot, false, false)
	mp := MusicalParams{Scale: ScaleMajor, MelodySmoothness: 0.5}

	allowed := map[int]bool{}
	for _, iv := range ScaleMajor.Intervals() {
		allowed[pcMod(keyRoot+iv)] = true
	}

	for i := 0; i < 500; i++ {
		strong := i%4 == 0
		pitch := mg.NextLeadPitch(mp, chord, ScaleMajor, keyRoot, strong, rnd)
		pc := pcMod(int(pitch))
		if !allowed[pc] {
			t.Fatalf("step %d: pitch %d (pc %d) not in scale", i, pitch, pc)
		}
		if pitch < leadLow || pitch > leadHigh {
			t.Fatalf("step %d: pitch %d outside configured octave window [%d,%d]", i, pitch, leadLow, leadHigh)
		}
	}
}

// TestLeadPitchStaysInScaleWithOutOfScaleChord exercises the same property
// against a chord that is NOT diatonic to the published scale (as a
// neo-Riemannian PLR transform can produce at high tension): the snap
// target must never land on the out-of-scale tone.
func TestLeadPitchStaysInScaleWithOutOfScaleChord(t *testing.T) {
	rnd := newRNG(7)
	keyRoot := 0 // C
	mg := NewMelodyGenerator(rnd, keyRoot)
	// C# minor triad: none of its tones (1, 4, 8) are in C major.
	chord := triadTones(1, true, false)
	mp := MusicalParams{Scale: ScaleMajor, MelodySmoothness: 0.5}

	allowed := map[int]bool{}
	for _, iv := range ScaleMajor.Intervals() {
		allowed[pcMod(keyRoot+iv)] = true
	}

	for i := 0; i < 500; i++ {
		strong := i%4 == 0
		pitch := mg.NextLeadPitch(mp, chord, ScaleMajor, keyRoot, strong, rnd)
		pc := pcMod(int(pitch))
		if !allowed[pc] {
			t.Fatalf("step %d: pitch %d (pc %d) not in scale despite out-of-scale chord", i, pitch, pc)
		}
	}
}

func TestGapFillBiasesOppositeAfterLeap(t *testing.T) {
	rnd := newRNG(5)
	mg := &MelodyGenerator{lastMove: 10} // a leap upward just happened

	up, down := 0, 0
	for i := 0; i < 2000; i++ {
		d := mg.pickDegreeDelta(0.5, 0, rnd)
		if d > 0 {
			up++
		} else if d < 0 {
			down++
		}
	}
	if down <= up {
		t.Fatalf("expected gap-fill to bias movement downward after an upward leap: up=%d down=%d", up, down)
	}
}

func TestVoicingKindByDensity(t *testing.T) {
	if voicingKindFor(0.1) != VoicingBlock {
		t.Fatalf("expected block voicing at low density")
	}
	if voicingKindFor(0.5) != VoicingShell {
		t.Fatalf("expected shell voicing at mid density")
	}
	if voicingKindFor(0.9) != VoicingDrop2 {
		t.Fatalf("expected drop-2 voicing at high density")
	}
}

func TestNextVoicingMinimizesMotionFromPrevious(t *testing.T) {
	rnd := newRNG(1)
	mg := NewMelodyGenerator(rnd, 0)
	chordA := triadTones(0, false, false)
	chordB := triadTones(2, false, false) // a whole step up

	first := mg.NextVoicing(chordA, 0.1, 3)
	second := mg.NextVoicing(chordB, 0.1, 3)

	for i := 0; i < second.Count && i < first.Count; i++ {
		if d := absInt(second.Pitches[i] - first.Pitches[i]); d > 6 {
			t.Fatalf("voice %d moved %d semitones, expected nearest-octave voice leading to keep it small", i, d)
		}
	}
}
