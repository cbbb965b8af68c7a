package kernel

// Sequencer advances one rhythmic clock and regenerates its pattern only
// when a discrete input changes (C3, spec §4.3). Two independent
// Sequencers (primary, secondary) share a sample clock but run on their own
// step counters, which is what produces the polymeter described in §4.3.
type Sequencer struct {
	state     SequencerState
	isPrimary bool
}

// NewSequencer creates a sequencer with an empty (silent) pattern; the
// first Advance call regenerates it from the initial MusicalParams.
func NewSequencer(isPrimary bool) *Sequencer {
	return &Sequencer{isPrimary: isPrimary}
}

// ensurePattern regenerates the cached pattern iff mode/spec/tension-bucket/
// density-bucket changed since the last call (invariant #4: at most one
// regeneration per block, and only on an integer-input change).
func (s *Sequencer) ensurePattern(mode RhythmMode, spec RhythmSpec, tension, density float64, maxPolygons int) {
	tb := tensionBucket(tension)
	db := densityBucket(density)

	if s.state.cacheValid &&
		s.state.cachedMode == mode &&
		s.state.cachedSpec == spec &&
		s.state.cachedTension == tb &&
		s.state.cachedDensity == db {
		return
	}

	pattern := GeneratePattern(mode, spec, tension, density, maxPolygons)

	if len(s.state.Pattern.Hits) == 0 {
		s.state.CurrentStep = 0
	} else if s.state.CurrentStep >= pattern.Steps {
		s.state.CurrentStep %= maxInt(pattern.Steps, 1)
	}

	s.state.Pattern = pattern
	s.state.cachedMode = mode
	s.state.cachedSpec = spec
	s.state.cachedTension = tb
	s.state.cachedDensity = db
	s.state.cacheValid = true
}

// AdvanceSample moves the sequencer forward by one sample. It returns a
// StepTrigger (and true) exactly on the sample where a new step begins.
func (s *Sequencer) AdvanceSample(mode RhythmMode, spec RhythmSpec, tension, density float64, bpm float64, cfg Config) (StepTrigger, bool) {
	s.ensurePattern(mode, spec, tension, density, cfg.MaxPolygons)

	if s.state.SamplesPerStep == 0 {
		s.state.SamplesPerStep = samplesPerStep(bpm, cfg)
		s.state.SamplesUntilNextStep = s.state.SamplesPerStep
	}

	s.state.SamplesUntilNextStep--
	if s.state.SamplesUntilNextStep > 0 {
		return StepTrigger{}, false
	}

	steps := s.state.Pattern.Steps
	if steps <= 0 {
		s.state.SamplesUntilNextStep = s.state.SamplesPerStep
		return StepTrigger{}, false
	}

	s.state.CurrentStep = (s.state.CurrentStep + 1) % steps
	// Tempo changes take effect only for the step that is about to start,
	// never retroactively shortening/lengthening the step just finished
	// (spec §4.3: "the current step's length is preserved").
	s.state.SamplesPerStep = samplesPerStep(bpm, cfg)
	s.state.SamplesUntilNextStep = s.state.SamplesPerStep

	onset := s.state.Pattern.Hits[s.state.CurrentStep]
	strong := s.state.CurrentStep%cfg.SubdivisionsPerBeat == 0

	trig := StepTrigger{IsStrongBeat: strong, MeasureStart: s.state.CurrentStep == 0}
	if !onset {
		return trig, true
	}

	if s.isPrimary {
		trig.Kick = strong
		trig.Bass = strong
		trig.Snare = !strong
		trig.Lead = true
	} else {
		trig.Hat = true
	}
	trig.Velocity = 1.0
	return trig, true
}

// State exposes the sequencer's current state for inspection/cloning.
func (s *Sequencer) State() SequencerState { return s.state }

// SetState restores a previously captured state (used by look-ahead clone).
func (s *Sequencer) SetState(st SequencerState) { s.state = st }

// samplesPerStep recomputes step duration from the currently-smoothed bpm
// (spec §4.3): sampleRate * 60 / bpm / subdivisionsPerBeat.
func samplesPerStep(bpm float64, cfg Config) int64 {
	if bpm <= 0 {
		bpm = 1
	}
	v := float64(cfg.SampleRate) * 60.0 / bpm / float64(cfg.SubdivisionsPerBeat)
	n := int64(v)
	if n < 1 {
		n = 1
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// mergeTriggers resolves same-sample collisions between the primary and
// secondary sequencer's triggers. The merged trigger keeps the primary's
// beat flags and takes Hat from the secondary; Kick/Snare/Bass are set if
// either sequencer set them, so a shared channel fires once. When both set
// the same one of those, the result is flagged Ghost, and EmitStep then
// halves the velocity of every note it fires for that step. Velocity is
// the larger of the two.
func mergeTriggers(primary, secondary StepTrigger) StepTrigger {
	out := primary
	out.Hat = secondary.Hat

	collide := func(primaryHas, secondaryHas bool) (keep bool, ghost bool) {
		if secondaryHas && primaryHas {
			return true, true
		}
		return primaryHas || secondaryHas, false
	}

	if k, g := collide(primary.Kick, secondary.Kick); k {
		out.Kick = true
		out.Ghost = out.Ghost || g
	}
	if k, g := collide(primary.Snare, secondary.Snare); k {
		out.Snare = true
		out.Ghost = out.Ghost || g
	}
	if k, g := collide(primary.Bass, secondary.Bass); k {
		out.Bass = true
		out.Ghost = out.Ghost || g
	}

	out.Velocity = primary.Velocity
	if secondary.Velocity > out.Velocity {
		out.Velocity = secondary.Velocity
	}
	out.IsStrongBeat = primary.IsStrongBeat
	return out
}
