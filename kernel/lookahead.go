package kernel

// Look-ahead simulation (C8, spec §4.8). Clone deep-copies every
// audio-thread-owned piece of state (sequencers, harmony context, melody
// generator, articulator, PRNG) into a brand new Kernel with its own event
// rings, so Simulate can run the pipeline freely without the live kernel
// ever observing it and without mutating anything the live kernel reads.

// Clone returns an independent copy of the kernel's entire audio-thread
// state, suitable for running ahead of the live kernel. It does not copy
// the live target/event/harmony transports by reference: the clone gets its
// own, seeded from the live kernel's current values, so nothing written
// into the clone's rings is visible to the live kernel's consumers.
func (k *Kernel) Clone() *Kernel {
	clone := &Kernel{
		cfg:          k.cfg,
		keyRoot:      k.keyRoot,
		mode:         k.mode,
		directParams: k.directParams,
		forcedKind:   k.forcedKind,
		forcedActive: k.forcedActive,
		stepCounter:  k.stepCounter,
		voicing:      k.voicing,
	}

	clone.morpher = NewMorpher(EngineParams{})
	clone.morpher.Reset(k.morpher.State())

	clone.mapper = NewMapper(k.cfg, 0)
	clone.mapper.SetState(k.mapper.State())

	clone.primary = NewSequencer(true)
	clone.primary.SetState(k.primary.State())
	clone.secondary = NewSequencer(false)
	clone.secondary.SetState(k.secondary.State())

	clone.harmony = NewHarmonyDriver(k.keyRoot)
	clone.harmony.SetState(k.harmony.State())

	clone.rnd = k.rnd.clone()

	// Built empty rather than through NewMelodyGenerator, whose 1/f seeding
	// would draw from clone.rnd and put it out of step with the live rng.
	clone.melody = &MelodyGenerator{}
	clone.melody.SetState(k.melody.State())

	clone.artic = NewArticulator()
	clone.artic.SetState(k.artic.State())

	clone.target = NewTargetBuffer(k.target.Read())
	clone.events = NewEventRing(k.cfg.EventRingCapacity)
	clone.harmonyOut = NewHarmonyRing(k.cfg.HarmonyRingCapacity)

	return clone
}

// Simulate runs a cloned kernel forward nSteps sequencer steps (not
// samples) at the target/MusicalParams frozen at clone time — valid as long
// as no control-plane change happens before the equivalent live blocks play
// out (spec §4.8's guarantee iii is linear time in nSteps; guarantees i/ii
// hold because the clone's transports are never shared with the live
// kernel).
func (k *Kernel) Simulate(nSteps int) []Frame {
	if nSteps <= 0 {
		return nil
	}
	clone := k.Clone()
	clone.stopped.Store(false)

	state := clone.morpher.State()
	mp := clone.currentParams(state)

	frames := make([]Frame, 0, nSteps)
	const maxSamplesSafety = 1 << 24

	for samples := 0; len(frames) < nSteps && samples < maxSamplesSafety; samples++ {
		trig, fired := clone.advanceSample(mp, state)
		pending := drainAll(clone.events)

		if fired {
			frames = append(frames, Frame{
				OffsetInSteps: len(frames),
				Trigger:       trig,
				Events:        pending,
			})
			continue
		}
		if len(pending) > 0 && len(frames) > 0 {
			last := &frames[len(frames)-1]
			last.Events = append(last.Events, pending...)
		}
	}
	return frames
}

// drainAll pops every currently pending event off a ring. Used only by
// Simulate, never on the live audio thread's hot path.
func drainAll(r *EventRing) []AudioEvent {
	var out []AudioEvent
	for {
		e, ok := r.Pop()
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}
