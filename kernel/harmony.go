package kernel

import "math"

// HarmonyDriver implements chord-level harmonic progression (C4, spec §4.4).
// It holds no randomness of its own: callers pass the kernel's single shared
// rng so that look-ahead simulation can reproduce a run exactly by cloning
// both the driver's HarmonyContext and that rng's state together.
type HarmonyDriver struct {
	ctx HarmonyContext
}

// NewHarmonyDriver seeds the driver on the tonic major triad of keyRoot.
func NewHarmonyDriver(keyRoot int) *HarmonyDriver {
	root := pcMod(keyRoot)
	h := &HarmonyDriver{}
	h.ctx.KeyRoot = root
	h.ctx.ChordRoot = root
	h.ctx.ChordIsMinor = false
	h.ctx.Chord = triadTones(root, false, false)
	h.ctx.CommittedKind = ProgressionConsonantFunctional
	h.ctx.CandidateKind = ProgressionConsonantFunctional
	return h
}

// State/SetState expose HarmonyContext for inspection and for look-ahead
// cloning (C8).
func (h *HarmonyDriver) State() HarmonyContext   { return h.ctx }
func (h *HarmonyDriver) SetState(c HarmonyContext) { h.ctx = c }

// Chord returns the currently committed chord's pitch-class set.
func (h *HarmonyDriver) Chord() ChordSet { return h.ctx.Chord }

// ChordRoot returns the current chord's root pitch class and quality.
func (h *HarmonyDriver) ChordRoot() (int, bool) { return h.ctx.ChordRoot, h.ctx.ChordIsMinor }

// Snapshot produces the payload pushed to the harmony outbox (§4.7) once
// per primary-sequencer measure; the caller fills in Step.
func (h *HarmonyDriver) Snapshot() HarmonyState {
	return HarmonyState{
		ChordIdx:      h.ctx.Degree,
		ChordRoot:     h.ctx.ChordRoot,
		IsMinor:       h.ctx.ChordIsMinor,
		MeasureNumber: h.ctx.MeasureNumber,
	}
}

const (
	kindStabilityMeasures = 2
	kindDeltaThreshold    = 0.1
	cadencePhraseChords   = 4
	cadenceTensionCeiling = 0.3
)

// AdvanceMeasure is called once per primary-sequencer measure boundary
// (current_step wraps to 0). It updates the progression-kind hysteresis and,
// once the chord has held for ChordChangeMeasures measures, advances the
// chord slot through Hold -> Candidate -> Committed (§4.4).
func (h *HarmonyDriver) AdvanceMeasure(mp MusicalParams, candidateKind ProgressionKind, s CurrentState, rnd *rng) HarmonyState {
	h.ctx.MeasureNumber++
	h.ctx.MeasuresIntoChord++
	h.updateKindStability(candidateKind, s)

	if h.ctx.MeasuresIntoChord >= mp.ChordChangeMeasures {
		h.commitNextChord(mp, s, rnd)
	} else {
		h.ctx.CycleState = chordHold
	}

	snap := h.Snapshot()
	return snap
}

// updateKindStability gates a progression-KIND change behind measure
// stability and a minimum emotional delta since the last commit (§4.4:
// "a change only fires after stability for >=M measures AND the emotional
// delta exceeds a threshold" — the Open Question this implementation
// resolves concretely).
func (h *HarmonyDriver) updateKindStability(candidateKind ProgressionKind, s CurrentState) {
	if candidateKind == h.ctx.CandidateKind {
		h.ctx.KindStableMeasures++
	} else {
		h.ctx.CandidateKind = candidateKind
		h.ctx.KindStableMeasures = 1
	}

	if h.ctx.CommittedKind == h.ctx.CandidateKind {
		return
	}
	delta := math.Abs(s.Valence-h.ctx.LastCommitValence) + math.Abs(s.Tension-h.ctx.LastCommitTension)
	if h.ctx.KindStableMeasures >= kindStabilityMeasures && delta >= kindDeltaThreshold {
		h.ctx.CommittedKind = h.ctx.CandidateKind
		h.ctx.LastCommitValence = s.Valence
		h.ctx.LastCommitTension = s.Tension
	}
}

// commitNextChord runs the strategy blend (functional grammar / parsimonious
// voice-leading / neo-Riemannian PLR), the cadential override, and the taboo
// check, then commits the result.
func (h *HarmonyDriver) commitNextChord(mp MusicalParams, s CurrentState, rnd *rng) {
	h.ctx.CycleState = chordCandidate

	wFunc, wVL, _ := strategyWeights(s.Tension)
	r := rnd.Float64()

	var candDegree, candRoot int
	var candIsMinor bool
	var haveDegree bool

	switch {
	case r < wFunc:
		candDegree = nextFunctionalDegree(rnd, h.ctx.Degree, s.Tension)
		candRoot = degreeRootPC(mp.Scale, h.ctx.KeyRoot, candDegree)
		candIsMinor = triadQuality(mp.Scale, candDegree)
		haveDegree = true
	case r < wFunc+wVL:
		candDegree, candRoot, candIsMinor = h.voiceLeadingCandidate(mp.Scale)
		haveDegree = true
	default:
		candRoot, candIsMinor = plrTransform(plrPick(rnd), h.ctx.ChordRoot, h.ctx.ChordIsMinor)
		haveDegree = false
	}

	if h.shouldForceCadence(s) {
		candDegree, candRoot, candIsMinor = 0, degreeRootPC(mp.Scale, h.ctx.KeyRoot, 0), triadQuality(mp.Scale, 0)
		haveDegree = true
	}

	// Taboo: never let the candidate resolve to the chord from two changes
	// ago (an A -> B -> A loop), falling back to the voice-leading search —
	// unless the repeat lands on the tonic triad, which reads as an
	// explicit resolution rather than a stuck oscillation and so is exempt.
	isTonic := candRoot == h.ctx.KeyRoot && candIsMinor == triadQuality(mp.Scale, 0)
	if !isTonic && candRoot == h.ctx.TabooB.RootPC && candIsMinor == h.ctx.TabooB.IsMinor {
		candDegree, candRoot, candIsMinor = h.voiceLeadingCandidate(mp.Scale)
		haveDegree = true
	}

	h.ctx.TabooA = h.ctx.TabooB
	h.ctx.TabooB = ChordSnapshot{RootPC: h.ctx.ChordRoot, IsMinor: h.ctx.ChordIsMinor}

	h.ctx.ChordRoot = candRoot
	h.ctx.ChordIsMinor = candIsMinor
	if haveDegree {
		h.ctx.Degree = candDegree
	}

	withSeventh := h.ctx.CommittedKind == ProgressionExtendedDominant || s.Tension > 0.6
	h.ctx.Chord = triadTones(candRoot, candIsMinor, withSeventh)

	h.ctx.PublishedScale = mp.Scale
	h.ctx.ChordChangeCount++
	h.ctx.CycleState = chordCommitted
	h.ctx.MeasuresIntoChord = 0
}

// shouldForceCadence implements the cadential override: at a 4-chord phrase
// boundary with tension low enough that a resolution reads as intentional
// rather than abrupt, force the next chord back to the tonic regardless of
// what the strategy blend picked.
func (h *HarmonyDriver) shouldForceCadence(s CurrentState) bool {
	if s.Tension > cadenceTensionCeiling {
		return false
	}
	return (h.ctx.ChordChangeCount+1)%cadencePhraseChords == 0
}

// strategyWeights blends the three chord-selection strategies by tension,
// the curve committed to: functional dominates below tension 0.33, then fades
// linearly (slope 2) in favor of parsimonious voice-leading, reaching zero at
// about 0.83; neo-Riemannian PLR ramps in from tension 0.5 to 0.85 and
// scales the other two down by its own share.
func strategyWeights(tension float64) (wFunc, wVL, wNR float64) {
	wNR = clamp((tension-0.5)/0.35, 0, 1)
	remaining := 1 - wNR
	wFuncRaw := clamp(1-2*math.Max(tension-0.33, 0), 0, 1)
	wFunc = remaining * wFuncRaw
	wVL = remaining * (1 - wFuncRaw)
	return
}

// functional grammar: weighted productions per scale degree (0-indexed:
// I ii iii IV V vi vii), tension-dependent on V's deceptive-cadence branch.
type production struct {
	next   int
	weight func(tension float64) float64
}

var functionalGrammar = map[int][]production{
	0: {{3, constWeight(0.4)}, {4, constWeight(0.4)}, {5, constWeight(0.2)}},
	1: {{4, constWeight(1.0)}},
	2: {{5, constWeight(1.0)}},
	3: {{4, constWeight(0.6)}, {1, constWeight(0.4)}},
	4: {{0, func(t float64) float64 { return 1 - t }}, {5, func(t float64) float64 { return t }}},
	5: {{3, constWeight(0.5)}, {1, constWeight(0.5)}},
	6: {{0, constWeight(1.0)}},
}

func constWeight(w float64) func(float64) float64 {
	return func(float64) float64 { return w }
}

func nextFunctionalDegree(rnd *rng, degree int, tension float64) int {
	prods := functionalGrammar[degree%7]
	if len(prods) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range prods {
		total += p.weight(tension)
	}
	if total <= 0 {
		return prods[0].next
	}
	r := rnd.Float64() * total
	acc := 0.0
	for _, p := range prods {
		acc += p.weight(tension)
		if r <= acc {
			return p.next
		}
	}
	return prods[len(prods)-1].next
}

// majorQualities/minorQualities give each diatonic degree's triad quality
// (true = minor third above the root; vii/ii-diminished is folded into
// "minor" for the purposes of chord-tone construction).
var majorQualities = [7]bool{false, true, true, false, false, true, true}
var minorQualities = [7]bool{true, true, false, true, true, false, false}

func triadQuality(scale Scale, degree int) bool {
	idx := ((degree % 7) + 7) % 7
	if scale == ScaleMinor || scale == ScalePhrygian {
		return minorQualities[idx]
	}
	return majorQualities[idx]
}

func degreeRootPC(scale Scale, keyRoot, degree int) int {
	intervals := scale.Intervals()
	idx := ((degree % 7) + 7) % 7
	return pcMod(keyRoot + intervals[idx])
}

// triadTones builds a triad (or tetrad, with a diatonic-ish seventh) from an
// explicit root/quality, independent of any scale degree — used for
// neo-Riemannian and voice-leading candidates that may land outside the
// current scale.
func triadTones(root int, isMinor bool, withSeventh bool) ChordSet {
	third := 4
	if isMinor {
		third = 3
	}
	cs := ChordSet{Count: 3}
	cs.Tones[0] = pcMod(root)
	cs.Tones[1] = pcMod(root + third)
	cs.Tones[2] = pcMod(root + 7)
	if withSeventh {
		seventh := 11
		if isMinor {
			seventh = 10
		}
		cs.Tones[3] = pcMod(root + seventh)
		cs.Count = 4
	}
	return cs
}

// voiceLeadingCandidate searches the seven diatonic triads (excluding the
// current degree) for the one with the smallest total semitone displacement
// from the current chord — the parsimonious voice-leading strategy.
func (h *HarmonyDriver) voiceLeadingCandidate(scale Scale) (degree, root int, isMinor bool) {
	bestCost := 1 << 30
	degree, root, isMinor = h.ctx.Degree, h.ctx.ChordRoot, h.ctx.ChordIsMinor
	for d := 0; d < 7; d++ {
		if d == h.ctx.Degree {
			continue
		}
		r := degreeRootPC(scale, h.ctx.KeyRoot, d)
		m := triadQuality(scale, d)
		cand := triadTones(r, m, false)
		cost := totalDisplacement(h.ctx.Chord, cand)
		if cost < bestCost {
			bestCost, degree, root, isMinor = cost, d, r, m
		}
	}
	return
}

var perms3 = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// totalDisplacement is the minimum-over-voice-assignments sum of circular
// semitone distances between two triads' pitch classes.
func totalDisplacement(a, b ChordSet) int {
	best := 1 << 30
	for _, perm := range perms3 {
		sum := pcDist(a.Tones[0], b.Tones[perm[0]]) +
			pcDist(a.Tones[1], b.Tones[perm[1]]) +
			pcDist(a.Tones[2], b.Tones[perm[2]])
		if sum < best {
			best = sum
		}
	}
	return best
}

func pcDist(x, y int) int {
	d := pcMod(x - y)
	if d > 6 {
		d = 12 - d
	}
	return d
}

// plrPick draws one of the three neo-Riemannian transforms uniformly.
func plrPick(rnd *rng) byte {
	switch rnd.Intn(3) {
	case 0:
		return 'P'
	case 1:
		return 'L'
	default:
		return 'R'
	}
}

// plrTransform applies a neo-Riemannian Parallel/Leading-tone/Relative
// transform to a triad, grounded in the standard PLR group definitions over
// pitch-class root + quality.
func plrTransform(kind byte, root int, isMinor bool) (int, bool) {
	switch kind {
	case 'P':
		return root, !isMinor
	case 'R':
		if !isMinor {
			return pcMod(root + 9), true
		}
		return pcMod(root + 3), false
	default: // 'L'
		if !isMinor {
			return pcMod(root + 4), true
		}
		return pcMod(root + 8), false
	}
}
