package kernel

// Melody and voicing generation (C5, spec §4.5), grounded on the
// scale/chord/contour shapes in the example pack's procedural music
// generator (opd-ai-vania's music_gen.go: scale tables, chord tone
// selection, bass/melody/pad generation by step).

const (
	leadBaseMIDI = 60 // scale-degree-0 reference octave for the lead line
	leadLow      = 57
	leadHigh     = 84

	voicingLow = 52
	voicingHigh = 79

	bassLow = 33
	bassHigh = 48

	gapFillLeapSemitones = 7
)

// degreeDeltas lists the diatonic scale-step movements the Markov generator
// samples from; kept as a fixed array (no slice) to stay allocation-free.
var degreeDeltas = [7]int{-3, -2, -1, 0, 1, 2, 3}

// MelodyGenerator is the per-kernel, audio-thread-owned state of the
// melodic line and chord voicings: the 1/f contour generator, the last
// scale-step/pitch (for the Markov step and the gap-fill rule), and the
// previous voicing (for voice-leading-minimizing octave assignment).
type MelodyGenerator struct {
	onef *VossMcCartney

	lastIdx  int // absolute scale-step index, can exceed [0,6] and go negative
	lastPitch int
	lastMove int

	bassPitch    int
	bassInit     bool
	voicing      Voicing
}

// NewMelodyGenerator seeds the melodic line at the tonic, leadBaseMIDI +
// keyRoot.
func NewMelodyGenerator(rnd *rng, keyRoot int) *MelodyGenerator {
	mg := &MelodyGenerator{onef: NewVossMcCartney(rnd)}
	mg.lastPitch = foldOctave(leadBaseMIDI+keyRoot, leadLow, leadHigh)
	return mg
}

// State/SetState expose the generator for look-ahead cloning. onef is a
// pointer field, so a plain struct copy would let the clone alias the
// live generator's 1/f state; State deep-copies it instead.
func (mg *MelodyGenerator) State() MelodyGenerator {
	cp := *mg
	onefCopy := mg.onef.State()
	cp.onef = &onefCopy
	return cp
}

func (mg *MelodyGenerator) SetState(s MelodyGenerator) {
	*mg = s
	onefCopy := s.onef.State()
	mg.onef = &onefCopy
}

// scaleDegreePitch maps an absolute scale-step index to a MIDI pitch at the
// reference octave, before the caller's keyRoot transposition.
func scaleDegreePitch(scale Scale, idx int) int {
	intervals := scale.Intervals()
	octave := floorDiv(idx, 7)
	deg := ((idx % 7) + 7) % 7
	return leadBaseMIDI + intervals[deg] + 12*octave
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func foldOctave(p, lo, hi int) int {
	for p < lo {
		p += 12
	}
	for p > hi {
		p -= 12
	}
	return p
}

func nearestOctaveTo(pitch, target int) int {
	for pitch-target > 6 {
		pitch -= 12
	}
	for pitch-target < -6 {
		pitch += 12
	}
	return pitch
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func signedPcDelta(from, to int) int {
	d := pcMod(to - from)
	if d > 6 {
		d -= 12
	}
	return d
}

// scalePitchClasses returns the set of pitch classes belonging to scale
// rooted at keyRoot.
func scalePitchClasses(scale Scale, keyRoot int) [12]bool {
	var set [12]bool
	for _, iv := range scale.Intervals() {
		set[pcMod(keyRoot+iv)] = true
	}
	return set
}

// nearestChordTonePitch retargets pitch's pitch class to whichever chord
// tone, among those that are also members of the published scale (spec
// §4.4/§4.6, testable property #6), is reachable by the smallest signed
// semitone step. A chord produced by a PLR transform can contain tones
// outside that scale (e.g. a parallel/relative transform at high tension);
// such tones are never snap targets, so the emitted pitch always stays in
// scale. If no chord tone lies in the scale, pitch is returned unsnapped —
// it is already a scale member by construction (scaleDegreePitch).
func nearestChordTonePitch(pitch int, chord ChordSet, scale Scale, keyRoot int) int {
	inScale := scalePitchClasses(scale, keyRoot)
	best := pitch
	bestDist := 1 << 30
	pc := pcMod(pitch)
	for i := 0; i < chord.Count; i++ {
		tone := chord.Tones[i]
		if !inScale[tone] {
			continue
		}
		delta := signedPcDelta(pc, tone)
		if d := absInt(delta); d < bestDist {
			bestDist = d
			best = pitch + delta
		}
	}
	return best
}

// pickDegreeDelta draws a scale-step movement. The distribution narrows
// (prefers conjunct motion) as melodySmoothness rises, is nudged toward the
// sign of the 1/f fractal bias, and is biased opposite the sign of the last
// movement once that movement was a leap (the gap-fill rule).
func (mg *MelodyGenerator) pickDegreeDelta(smoothness, fractalBias float64, rnd *rng) int {
	k := 0.15 + smoothness*0.6
	var weights [7]float64
	total := 0.0
	wasLeap := absInt(mg.lastMove) > gapFillLeapSemitones
	lastSign := sign(mg.lastMove)

	for i, d := range degreeDeltas {
		w := expNeg(float64(d*d) * k)
		w *= 1 + fractalBias*float64(d)*0.3
		if w < 0.001 {
			w = 0.001
		}
		if wasLeap && d != 0 {
			if sign(d) == lastSign {
				w *= 0.4
			} else {
				w *= 1.8
			}
		}
		weights[i] = w
		total += w
	}

	r := rnd.Float64() * total
	acc := 0.0
	for i, d := range degreeDeltas {
		acc += weights[i]
		if r <= acc {
			return d
		}
	}
	return 0
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// expNeg is a tiny e^-x for x>=0 via a bounded Taylor-ish approximation,
// avoiding a math.Exp import for a single call site; adequate because only
// the relative ordering of weights matters, not their absolute value.
func expNeg(x float64) float64 {
	if x > 20 {
		return 0
	}
	// 1/(1+x+x^2/2+x^3/6+x^4/24) approximates e^-x for x>=0 within the
	// weighting precision this generator needs.
	denom := 1 + x + x*x/2 + x*x*x/6 + x*x*x*x/24
	return 1 / denom
}

// NextLeadPitch produces one melodic pitch for a lead-flagged step (spec
// §4.5: fractal bias + Markov step + gap-fill, chord-tone snapping
// probability floored by is_strong_beat). scale is the harmony driver's
// currently published scale (HarmonyContext.PublishedScale), not
// mp.Scale directly, since the chord backing this step may have been
// committed under a slightly different emotional state than the one
// mp reflects this block.
func (mg *MelodyGenerator) NextLeadPitch(mp MusicalParams, chord ChordSet, scale Scale, keyRoot int, isStrongBeat bool, rnd *rng) uint8 {
	fractal := mg.onef.Next(rnd)
	delta := mg.pickDegreeDelta(mp.MelodySmoothness, fractal, rnd)
	mg.lastIdx += delta

	pitch := scaleDegreePitch(scale, mg.lastIdx) + keyRoot

	inChordProb := 0.4
	if isStrongBeat {
		inChordProb = 0.7
	}
	if rnd.Float64() < inChordProb {
		pitch = nearestChordTonePitch(pitch, chord, scale, keyRoot)
	}

	pitch = nearestOctaveTo(pitch, mg.lastPitch)
	pitch = foldOctave(pitch, leadLow, leadHigh)

	mg.lastMove = pitch - mg.lastPitch
	mg.lastPitch = pitch
	return uint8(clampInt(pitch, 0, 127))
}

// BassPitch plays the current chord's root, voice-led from the previous
// bass note by nearest-octave selection (spec's "inversion chosen by
// contour" reduced to the simplest contour-following rule: least motion).
func (mg *MelodyGenerator) BassPitch(chord ChordSet) uint8 {
	root := voicingLow
	if chord.Count > 0 {
		root = foldOctave(bassLow+chord.Tones[0], bassLow, bassHigh)
	}
	if mg.bassInit {
		root = nearestOctaveTo(root, mg.bassPitch)
	}
	mg.bassPitch = root
	mg.bassInit = true
	return uint8(clampInt(root, 0, 127))
}

// VoicingKind selects the voice-spacing strategy (spec §4.5).
type VoicingKind int

const (
	VoicingBlock VoicingKind = iota
	VoicingShell
	VoicingDrop2
)

func voicingKindFor(density float64) VoicingKind {
	switch {
	case density > 0.66:
		return VoicingDrop2
	case density > 0.33:
		return VoicingShell
	default:
		return VoicingBlock
	}
}

const maxVoiceSlots = 8

// Voicing is a fixed-capacity set of sounding pitches for the polyphonic
// voice channels.
type Voicing struct {
	Pitches [maxVoiceSlots]int
	Count   int
}

// chordTonePCs picks the pitch-class subset a voicing kind uses: block/
// drop-2 use every chord tone, shell reduces to root/3rd/7th (or 5th if the
// chord has no seventh).
func chordTonePCs(chord ChordSet, kind VoicingKind) ([maxVoiceSlots]int, int) {
	var pcs [maxVoiceSlots]int
	if kind != VoicingShell {
		n := 0
		for i := 0; i < chord.Count && i < maxVoiceSlots; i++ {
			pcs[n] = chord.Tones[i]
			n++
		}
		return pcs, n
	}
	pcs[0] = chord.Tones[0]
	n := 1
	if chord.Count >= 2 {
		pcs[1] = chord.Tones[1]
		n = 2
	}
	if chord.Count == 4 {
		pcs[2] = chord.Tones[3]
		n = 3
	} else if chord.Count >= 3 {
		pcs[2] = chord.Tones[2]
		n = 3
	}
	return pcs, n
}

// NextVoicing rebuilds the chord-voice channels' pitches on a chord change,
// choosing the spacing by voicing_density and assigning octaves to minimize
// total semitone movement from the previous voicing (spec §4.5's
// voice-leading-preferred voicing permutation, reduced to a per-voice
// nearest-octave heuristic rather than an exhaustive permutation search).
func (mg *MelodyGenerator) NextVoicing(chord ChordSet, density float64, nVoices int) Voicing {
	if nVoices > maxVoiceSlots {
		nVoices = maxVoiceSlots
	}
	if nVoices < 1 {
		nVoices = 1
	}
	kind := voicingKindFor(density)
	pcs, n := chordTonePCs(chord, kind)
	if n == 0 {
		n = 1
	}
	origN := n
	for n < nVoices {
		pcs[n] = pcs[n%origN]
		n++
	}
	if n > nVoices {
		n = nVoices
	}

	prev := mg.voicing
	var out Voicing
	out.Count = n
	for i := 0; i < n; i++ {
		p := foldOctave(voicingLow+pcs[i], voicingLow, voicingHigh)
		if i < prev.Count {
			p = nearestOctaveTo(p, prev.Pitches[i])
		}
		out.Pitches[i] = p
	}

	if kind == VoicingDrop2 && n >= 2 {
		hi := 0
		for i := 1; i < n; i++ {
			if out.Pitches[i] > out.Pitches[hi] {
				hi = i
			}
		}
		second := -1
		for i := 0; i < n; i++ {
			if i == hi {
				continue
			}
			if second == -1 || out.Pitches[i] > out.Pitches[second] {
				second = i
			}
		}
		if second >= 0 {
			out.Pitches[second] -= 12
		}
	}

	mg.voicing = out
	return out
}
