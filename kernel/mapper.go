package kernel

// Mapper implements the emotion -> music mapping (C2, spec §4.2). It is a
// deterministic function of CurrentState plus a small amount of persistent
// state: the smoothed BPM (a second exponential stage, since bpm is not
// itself one of the four EngineParams fields the morpher advances) and the
// hysteresis bucket indices for scale family and progression kind.
type Mapper struct {
	cfg Config

	smoothedBPM float64

	scaleBucket       int
	progressionBucket int

	rhythmMode     RhythmMode
	primarySteps   int
	secondarySteps int
}

// valenceThresholds buckets valence into 5 bands; scaleForBucket maps them,
// darkest first, to phrygian or minor (by tension), minor, dorian or
// mixolydian (by tension), mixolydian, major.
var valenceThresholds = []float64{-0.6, -0.2, 0.2, 0.6}

// progression buckets: (valence sign) x (tension low/mid/high), folded into
// a single ordered axis so bucketHysteresis's single-boundary-at-a-time rule
// applies. Ordered from "darkest" to "brightest/most chromatic":
// darkModal(negative,calm) < consonantFunctional(positive,calm) <
// extendedDominant(positive,mid) < neoRiemannian(any,tense).
var progressionThresholds = []float64{-0.15, 0.35, 0.7}

// NewMapper constructs a mapper with rhythm-mode and poly-steps defaults;
// these are the discrete selectors §6.2 says are applied at the next block
// boundary via set_algorithm/set_poly_steps.
func NewMapper(cfg Config, initialBPM float64) *Mapper {
	return &Mapper{
		cfg:            cfg,
		smoothedBPM:    initialBPM,
		rhythmMode:     RhythmEven,
		primarySteps:   16,
		secondarySteps: 12,
	}
}

// MapperState is the mapper's persistent smoothing/hysteresis state,
// exposed for look-ahead cloning.
type MapperState struct {
	SmoothedBPM       float64
	ScaleBucket       int
	ProgressionBucket int
	RhythmMode        RhythmMode
	PrimarySteps      int
	SecondarySteps    int
}

// State/SetState expose the mapper's persistent state for cloning.
func (m *Mapper) State() MapperState {
	return MapperState{
		SmoothedBPM:       m.smoothedBPM,
		ScaleBucket:       m.scaleBucket,
		ProgressionBucket: m.progressionBucket,
		RhythmMode:        m.rhythmMode,
		PrimarySteps:      m.primarySteps,
		SecondarySteps:    m.secondarySteps,
	}
}

func (m *Mapper) SetState(s MapperState) {
	m.smoothedBPM = s.SmoothedBPM
	m.scaleBucket = s.ScaleBucket
	m.progressionBucket = s.ProgressionBucket
	m.rhythmMode = s.RhythmMode
	m.primarySteps = s.PrimarySteps
	m.secondarySteps = s.SecondarySteps
}

// SetAlgorithm changes the rhythm-mode selector (§6.2 set_algorithm).
func (m *Mapper) SetAlgorithm(mode RhythmMode) { m.rhythmMode = mode }

// SetPolySteps changes the primary sequencer's step count; the secondary
// sequencer is retuned to a 3:4 polyrhythmic ratio of it (minimum 4 steps),
// which is the concrete polyrhythm relationship this implementation commits
// to (spec leaves the exact secondary-derivation unspecified).
func (m *Mapper) SetPolySteps(n int) {
	if n < 4 {
		n = 4
	}
	if n > 192 {
		n = 192
	}
	m.primarySteps = n
	sec := n * 3 / 4
	if sec < 4 {
		sec = 4
	}
	m.secondarySteps = sec
}

// Map derives MusicalParams from the current lagged emotional state. Pure
// given the mapper's own persistent smoothing/hysteresis state, which is
// itself a deterministic function of the history of CurrentState values
// seen so far (spec §4.2: "Deterministic").
func (m *Mapper) Map(s CurrentState) MusicalParams {
	rawBPM := clamp(70+s.Arousal*110, 30, 220)
	m.smoothedBPM = smoothStep(m.smoothedBPM, rawBPM, smoothBPM)
	bpm := clamp(m.smoothedBPM, 30, 220)

	m.scaleBucket = bucketHysteresis(s.Valence, valenceThresholds, m.scaleBucket, hysteresisMargin)
	scale := scaleForBucket(m.scaleBucket, s.Tension)

	progAxis := progressionAxis(s.Valence, s.Tension)
	m.progressionBucket = bucketHysteresis(progAxis, progressionThresholds, m.progressionBucket, hysteresisMargin)

	pulses := round(1 + s.Density*float64(m.cfg.MaxPulsesEven-1))
	pulses = clampInt(pulses, 0, m.primarySteps)
	rotation := round(s.Tension * float64(m.primarySteps))
	rotation = ((rotation % m.primarySteps) + m.primarySteps) % m.primarySteps

	secPulses := clampInt(round(1+s.Density*float64(m.secondarySteps-1)), 0, m.secondarySteps)
	secRotation := round(s.Tension * float64(m.secondarySteps))
	secRotation = ((secRotation % m.secondarySteps) + m.secondarySteps) % m.secondarySteps

	measuresPerChord := 4
	if s.Valence > 0.5 {
		measuresPerChord = 2
	}

	articulation := clamp(0.95-s.Tension*0.75, 0.20, 0.95)
	smoothness := clamp(1-(0.5*s.Arousal+0.5*s.Tension), 0.1, 0.95)

	return MusicalParams{
		BPM:                 bpm,
		Key:                 0, // global key root lives in HarmonyContext; mapper only derives mode/tempo/rhythm
		Scale:               scale,
		RhythmMode:          m.rhythmMode,
		Primary:             RhythmSpec{Steps: m.primarySteps, Pulses: pulses, Rotation: rotation},
		Secondary:           RhythmSpec{Steps: m.secondarySteps, Pulses: secPulses, Rotation: secRotation},
		ChordChangeMeasures: measuresPerChord,
		MelodySmoothness:    smoothness,
		VoicingDensity:      s.Density,
		ArticulationRatio:   articulation,
		FMRatio:             1 + s.Tension*4,
		FMDepth:             s.Tension * 0.8,
		FilterCutoffIntent:  clamp(0.2+s.Tension*0.8, 0, 1),
	}
}

// ProgressionKind returns the progression kind implied by the mapper's
// current (already-hysteresis-gated) bucket. The harmony driver still gates
// an actual change behind measure-stability (§4.4); this is the raw
// candidate it gates.
func (m *Mapper) ProgressionKind() ProgressionKind {
	switch m.progressionBucket {
	case 0:
		return ProgressionDarkModal
	case 1:
		return ProgressionConsonantFunctional
	case 2:
		return ProgressionExtendedDominant
	default:
		return ProgressionNeoRiemannian
	}
}

func progressionAxis(valence, tension float64) float64 {
	// High tension dominates regardless of valence (chromatic/cinematic
	// territory); otherwise valence separates dark modal from brighter
	// functional/extended-dominant families.
	return valence*(1-tension) + tension
}

func scaleForBucket(bucket int, tension float64) Scale {
	switch bucket {
	case 0:
		if tension > 0.5 {
			return ScalePhrygian
		}
		return ScaleMinor
	case 1:
		return ScaleMinor
	case 2:
		if tension > 0.5 {
			return ScaleDorian
		}
		return ScaleMixolydian
	case 3:
		return ScaleMixolydian
	default:
		return ScaleMajor
	}
}
