package kernel

import "testing"

func TestPLRTransformsKnownTriads(t *testing.T) {
	// C major (root=0, major) under each transform.
	if r, m := plrTransform('P', 0, false); r != 0 || !m {
		t.Fatalf("P(C major) = (%d,%v), want (0,true) [C minor]", r, m)
	}
	if r, m := plrTransform('L', 0, false); r != 4 || !m {
		t.Fatalf("L(C major) = (%d,%v), want (4,true) [E minor]", r, m)
	}
	if r, m := plrTransform('R', 0, false); r != 9 || !m {
		t.Fatalf("R(C major) = (%d,%v), want (9,true) [A minor]", r, m)
	}
	// And back: L(E minor) should return to C major.
	if r, m := plrTransform('L', 4, true); r != 0 || m {
		t.Fatalf("L(E minor) = (%d,%v), want (0,false) [C major]", r, m)
	}
}

func TestTriadTonesQuality(t *testing.T) {
	major := triadTones(0, false, false)
	if major.Count != 3 || major.Tones[0] != 0 || major.Tones[1] != 4 || major.Tones[2] != 7 {
		t.Fatalf("C major triad wrong: %+v", major)
	}
	minor := triadTones(0, true, false)
	if minor.Tones[1] != 3 {
		t.Fatalf("C minor triad wrong third: %+v", minor)
	}
}

// TestChordChangeGatedByMeasureCount is testable property #5: the chord
// only advances once MeasuresIntoChord reaches ChordChangeMeasures.
func TestChordChangeGatedByMeasureCount(t *testing.T) {
	h := NewHarmonyDriver(0)
	mp := MusicalParams{Scale: ScaleMajor, ChordChangeMeasures: 2}
	s := CurrentState{Valence: 0.5, Tension: 0.1}
	rnd := newRNG(1)

	startRoot, startMinor := h.ChordRoot()

	h.AdvanceMeasure(mp, ProgressionConsonantFunctional, s, rnd)
	if r, m := h.ChordRoot(); r != startRoot || m != startMinor {
		t.Fatalf("chord changed before ChordChangeMeasures elapsed: (%d,%v)", r, m)
	}

	h.AdvanceMeasure(mp, ProgressionConsonantFunctional, s, rnd)
	if h.State().CycleState != chordCommitted {
		t.Fatalf("expected a committed chord change on the Nth measure")
	}
}

func TestHarmonyNeverRepeatsTabooChord(t *testing.T) {
	h := NewHarmonyDriver(0)
	mp := MusicalParams{Scale: ScaleMajor, ChordChangeMeasures: 1}
	s := CurrentState{Valence: 0.2, Tension: 0.1} // low tension: functional-grammar dominated
	rnd := newRNG(7)

	var lastTwo [2]ChordSnapshot
	for i := 0; i < 30; i++ {
		h.AdvanceMeasure(mp, ProgressionConsonantFunctional, s, rnd)
		root, minor := h.ChordRoot()
		cur := ChordSnapshot{RootPC: root, IsMinor: minor}
		if cur == lastTwo[0] && i > 2 {
			t.Fatalf("chord %d repeated the chord from two changes ago (A->B->A)", i)
		}
		lastTwo[0] = lastTwo[1]
		lastTwo[1] = cur
	}
}

func TestCadentialOverrideForcesResolutionAtLowTension(t *testing.T) {
	h := NewHarmonyDriver(0)
	h.ctx.ChordChangeCount = 3 // next commit is the 4th chord of a phrase

	calm := CurrentState{Tension: 0.1}
	if !h.shouldForceCadence(calm) {
		t.Fatalf("expected cadential override at phrase boundary with low tension")
	}

	tense := CurrentState{Tension: 0.8}
	if h.shouldForceCadence(tense) {
		t.Fatalf("cadential override should not fire at high tension")
	}
}

func TestStrategyWeightsSumToOne(t *testing.T) {
	for _, tension := range []float64{0, 0.2, 0.33, 0.5, 0.66, 0.85, 1.0} {
		wFunc, wVL, wNR := strategyWeights(tension)
		sum := wFunc + wVL + wNR
		if absF(sum-1.0) > 1e-9 {
			t.Fatalf("tension=%f: weights sum to %f, want 1", tension, sum)
		}
		if wFunc < 0 || wVL < 0 || wNR < 0 {
			t.Fatalf("tension=%f: negative weight: func=%f vl=%f nr=%f", tension, wFunc, wVL, wNR)
		}
	}
}
