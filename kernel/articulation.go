package kernel

// Articulation and event emission (C6, spec §4.6): gate-duration and
// velocity humanization via the kernel's seeded PRNG, active-voice tracking per
// channel, and the NoteOff-before-NoteOn retrigger rule for monophonic
// channels.

const numChannels = 16

// GM-ish fixed drum pitches; the percussion channels have no melodic
// content of their own, only the trigger's presence/absence.
const (
	pitchKick  = 36
	pitchSnare = 38
	pitchHat   = 42
)

// Articulator owns the one ActiveVoice per channel that spec §4.6 requires
// for retrigger detection and for driving each voice's NoteOff at the end of
// its gate.
type Articulator struct {
	active [numChannels]ActiveVoice
}

func NewArticulator() *Articulator { return &Articulator{} }

// State/SetState expose the articulator for look-ahead cloning.
func (a *Articulator) State() [numChannels]ActiveVoice    { return a.active }
func (a *Articulator) SetState(s [numChannels]ActiveVoice) { a.active = s }

// TickSample advances every active voice's remaining-samples countdown by
// one and emits the NoteOff for any voice whose gate just closed. Called
// once per sample, before any NoteOn for that sample is considered, so a
// natural gate expiry and a retrigger on the same sample never double-emit.
func (a *Articulator) TickSample(ring *EventRing, step uint32) {
	for ch := 0; ch < numChannels; ch++ {
		v := &a.active[ch]
		if !v.Active {
			continue
		}
		v.SamplesRemaining--
		if v.SamplesRemaining <= 0 {
			ring.Push(AudioEvent{Kind: EventNoteOff, Channel: uint8(ch), Pitch: v.Pitch, Step: step})
			v.Active = false
		}
	}
}

// noteOn retriggers (NoteOff then NoteOn) a monophonic channel and records
// the new active voice.
func (a *Articulator) noteOn(ring *EventRing, ch int, pitch uint8, velocity float64, gate int64, step uint32) {
	if a.active[ch].Active {
		ring.Push(AudioEvent{Kind: EventNoteOff, Channel: uint8(ch), Pitch: a.active[ch].Pitch, Step: step})
		a.active[ch].Active = false
	}
	vel := uint8(clampInt(round(velocity*127), 0, 127))
	ring.Push(AudioEvent{Kind: EventNoteOn, Channel: uint8(ch), Pitch: pitch, Velocity: vel, Step: step, DurationSamples: uint32(gate)})
	a.active[ch] = ActiveVoice{Active: true, Pitch: pitch, SamplesRemaining: gate, OwnerStep: step}
}

// baseVelocity gives each channel's nominal accent, boosted on strong beats.
func baseVelocity(strong bool, ch int) float64 {
	base := 0.6
	switch ch {
	case ChKick:
		base = 0.9
	case ChSnare:
		base = 0.8
	case ChHat:
		base = 0.5
	case ChBass:
		base = 0.75
	case ChLead:
		base = 0.7
	}
	if strong {
		base += 0.15
	}
	return base
}

// gateDuration computes gate_duration_samples = round(samples_per_step *
// articulation_ratio * humanization), humanization ~ U[0.9,1.1], clamped to
// a configured minimum to avoid sub-audible clicks.
func gateDuration(samplesPerStep int64, articulationRatio float64, minGate int64, rnd *rng) int64 {
	human := rnd.Uniform(0.9, 1.1)
	g := int64(round(float64(samplesPerStep) * articulationRatio * human))
	if g < minGate {
		g = minGate
	}
	return g
}

// velocityFor computes velocity = base_velocity * (0.7 + 0.3*arousal),
// clamped to [0.3,1.0], with a second humanization factor in [0.95,1.05].
func velocityFor(strong bool, ch int, arousal float64, rnd *rng) float64 {
	v := baseVelocity(strong, ch) * (0.7 + 0.3*arousal)
	v = clamp(v, 0.3, 1.0)
	human := rnd.Uniform(0.95, 1.05)
	return clamp(v*human, 0.3, 1.0)
}

// EmitStep is called once per sample on which AdvanceSample reported a new
// step, and emits every NoteOn the step's trigger implies. voicingChanged is
// true only on the sample where the harmony driver committed a new chord,
// in which case the chord-voice channels retrigger with voiceGateSamples as
// their held duration (spanning the full chord, not one step).
func (a *Articulator) EmitStep(
	ring *EventRing,
	cfg Config,
	step uint32,
	trig StepTrigger,
	leadPitch, bassPitch uint8,
	voicing Voicing,
	voicingChanged bool,
	voiceGateSamples int64,
	articulationRatio, arousal float64,
	samplesPerStep int64,
	rnd *rng,
) {
	strong := trig.IsStrongBeat
	ghostScale := 1.0
	if trig.Ghost {
		ghostScale = 0.5
	}
	minGate := int64(cfg.MinGateSamples)

	fire := func(ch int, pitch uint8) {
		g := gateDuration(samplesPerStep, articulationRatio, minGate, rnd)
		v := velocityFor(strong, ch, arousal, rnd) * ghostScale
		a.noteOn(ring, ch, pitch, v, g, step)
	}

	if trig.Kick {
		fire(ChKick, pitchKick)
	}
	if trig.Snare {
		fire(ChSnare, pitchSnare)
	}
	if trig.Hat {
		fire(ChHat, pitchHat)
	}
	if trig.Bass {
		fire(ChBass, bassPitch)
	}
	if trig.Lead {
		fire(ChLead, leadPitch)
	}

	if voicingChanged {
		for i := 0; i < voicing.Count; i++ {
			ch := ChVoiceBase + i
			if ch >= numChannels {
				break
			}
			v := velocityFor(strong, ch, arousal, rnd)
			a.noteOn(ring, ch, uint8(clampInt(voicing.Pitches[i], 0, 127)), v, voiceGateSamples, step)
		}
	}
}
