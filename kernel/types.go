// Package kernel implements the real-time music kernel: the deterministic,
// sample-accurate pipeline that turns a slowly drifting emotional state into
// a stream of note events. See SPEC_FULL.md for the full contract.
package kernel

import "math"

// Channel routing. Kick/snare/hat/bass/lead are monophonic; voice channels
// hold chord voicings and may have up to Config.NVoice concurrent notes.
const (
	ChKick = iota
	ChSnare
	ChHat
	ChBass
	ChLead
	ChVoiceBase // ChVoiceBase .. ChVoiceBase+NVoice-1
)

// ChControl is the channel number reserved for ControlChange events; the
// kernel does not emit any.
const ChControl = 15

// EngineParams is the control-plane target, mutated only by the surrounding
// application and read as a coherent snapshot by the kernel once per block.
type EngineParams struct {
	Arousal float64 // [0,1]
	Valence float64 // [-1,1]
	Density float64 // [0,1]
	Tension float64 // [0,1]
}

// Clamp returns p with every field restricted to its declared range.
func (p EngineParams) Clamp() EngineParams {
	return EngineParams{
		Arousal: clamp(p.Arousal, 0, 1),
		Valence: clamp(p.Valence, -1, 1),
		Density: clamp(p.Density, 0, 1),
		Tension: clamp(p.Tension, 0, 1),
	}
}

// CurrentState is the lagged, audio-thread-owned version of EngineParams,
// advanced once per block by the Morpher (C1).
type CurrentState struct {
	Arousal float64
	Valence float64
	Density float64
	Tension float64
}

// Scale names a musical mode. The zero value is ScaleMajor.
type Scale int

const (
	ScaleMajor Scale = iota
	ScaleMixolydian
	ScaleDorian
	ScalePhrygian
	ScaleMinor
)

// Intervals returns the semitone intervals of the scale from its root.
func (s Scale) Intervals() []int {
	switch s {
	case ScaleMajor:
		return []int{0, 2, 4, 5, 7, 9, 11}
	case ScaleMixolydian:
		return []int{0, 2, 4, 5, 7, 9, 10}
	case ScaleDorian:
		return []int{0, 2, 3, 5, 7, 9, 10}
	case ScalePhrygian:
		return []int{0, 1, 3, 5, 7, 8, 10}
	case ScaleMinor:
		return []int{0, 2, 3, 5, 7, 8, 10}
	default:
		return []int{0, 2, 4, 5, 7, 9, 11}
	}
}

func (s Scale) String() string {
	switch s {
	case ScaleMajor:
		return "major"
	case ScaleMixolydian:
		return "mixolydian"
	case ScaleDorian:
		return "dorian"
	case ScalePhrygian:
		return "phrygian"
	case ScaleMinor:
		return "minor"
	default:
		return "major"
	}
}

// RhythmMode selects the pattern-generation strategy for a sequencer.
type RhythmMode int

const (
	RhythmEven RhythmMode = iota
	RhythmBalancedPolygon
	RhythmGroove
)

// ProgressionKind names a chord-sequencing strategy family (spec §4.4).
type ProgressionKind int

const (
	ProgressionConsonantFunctional ProgressionKind = iota
	ProgressionDarkModal
	ProgressionExtendedDominant
	ProgressionNeoRiemannian
)

// RhythmSpec is the discrete, integer-valued shape of one sequencer's
// pattern: the inputs that, when unchanged, guarantee pattern reuse.
type RhythmSpec struct {
	Steps    int
	Pulses   int
	Rotation int
}

// MusicalParams is the pure, per-block derivation of CurrentState (C2).
type MusicalParams struct {
	BPM                 float64
	Key                 int // pitch class 0..11
	Scale               Scale
	RhythmMode          RhythmMode
	Primary             RhythmSpec
	Secondary           RhythmSpec
	ChordChangeMeasures int
	MelodySmoothness    float64
	VoicingDensity      float64
	ArticulationRatio   float64
	FMRatio             float64
	FMDepth             float64
	FilterCutoffIntent  float64
}

// RhythmPattern is a deterministic boolean onset vector.
type RhythmPattern struct {
	Steps int
	Hits  []bool
}

// SequencerState is the mutable, audio-thread-owned state of one rhythm
// sequencer.
type SequencerState struct {
	Pattern              RhythmPattern
	CurrentStep          int
	SamplesPerStep       int64
	SamplesUntilNextStep int64

	// cache key: regeneration happens only when one of these changes.
	cachedMode     RhythmMode
	cachedSpec     RhythmSpec
	cachedTension  int // bucketed
	cachedDensity  int // bucketed
	cacheValid     bool
}

// StepTrigger is what a sequencer emits for the step it just landed on.
type StepTrigger struct {
	Kick         bool
	Snare        bool
	Hat          bool
	Bass         bool
	Lead         bool
	Velocity     float64
	IsStrongBeat bool
	Ghost        bool // downgraded due to cross-sequencer collision, see rhythm.go
	MeasureStart bool // this sequencer's pattern just wrapped back to step 0
}

// EventKind tags an AudioEvent's payload.
type EventKind uint8

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventControlChange
)

// AudioEvent is a fixed-size, POD downstream event. Fields not used by a
// given Kind are zero.
type AudioEvent struct {
	Kind            EventKind
	Channel         uint8
	Pitch           uint8
	Velocity        uint8
	Step            uint32
	DurationSamples uint32
	CC              uint8
	CCValue         uint8
}

// ActiveVoice tracks the one sounding note on a monophonic channel, or one
// slot of a polyphonic voicing channel.
type ActiveVoice struct {
	Active          bool
	Pitch           uint8
	SamplesRemaining int64
	OwnerStep       uint32
}

// HarmonyState is the bounded snapshot published through the harmony outbox
// (§4.7) once per primary-sequencer measure, consumed by UI/visualization.
type HarmonyState struct {
	ChordIdx      int
	ChordRoot     int
	IsMinor       bool
	MeasureNumber uint32
	Step          uint32
}

// ChordSet is a fixed-capacity pitch-class set (triad or tetrad), used in
// place of a slice so harmony advances never allocate (invariant #1).
type ChordSet struct {
	Tones [4]int
	Count int
}

// ChordSnapshot is the minimal identity of a chord, used by the taboo list.
type ChordSnapshot struct {
	RootPC  int
	IsMinor bool
}

// chordCycleState names where a chord slot sits in its per-measure lifecycle
// (spec §4.4: "Hold -> Candidate -> Committed -> Hold").
type chordCycleState int

const (
	chordHold chordCycleState = iota
	chordCandidate
	chordCommitted
)

// HarmonyContext is the audio-thread-owned state of the harmonic progression
// driver (C4): the global key, the committed/candidate progression-kind
// hysteresis, the current chord, and the two-deep taboo ring that blocks
// immediate A->B->A loops.
type HarmonyContext struct {
	KeyRoot int

	// PublishedScale is the scale melody pitches are constrained to (spec
	// §4.4/§4.6's "suggested scale"). Set each commit from the mapper's
	// current Scale, so a PLR-transformed chord's tones outside that scale
	// still get snapped onto a scale member rather than leaking through.
	PublishedScale Scale

	CommittedKind      ProgressionKind
	CandidateKind      ProgressionKind
	KindStableMeasures int
	LastCommitValence  float64
	LastCommitTension  float64

	Degree       int
	ChordRoot    int
	ChordIsMinor bool
	Chord        ChordSet

	TabooA ChordSnapshot
	TabooB ChordSnapshot

	MeasureNumber     uint32
	MeasuresIntoChord int
	ChordChangeCount  uint32

	CycleState chordCycleState
}

// Frame is one step of look-ahead simulation output (C8).
type Frame struct {
	OffsetInSteps int
	Trigger       StepTrigger
	Events        []AudioEvent
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// pcMod reduces a pitch class (or pitch) into [0,12) semitone space.
func pcMod(v int) int {
	v %= 12
	if v < 0 {
		v += 12
	}
	return v
}
