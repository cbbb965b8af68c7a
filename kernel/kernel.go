package kernel

import (
	"fmt"
	"sync/atomic"
)

// ControlMode selects whether MusicalParams comes from the emotion mapper
// (C2) or is supplied directly by the caller (spec §6.2 set_mode).
type ControlMode int

const (
	ModeEmotion ControlMode = iota
	ModeDirect
)

// Telemetry is the read-only counters the control plane/UI polls instead of
// the audio thread ever surfacing an error (spec §7).
type Telemetry struct {
	EventDrops    uint64
	LastInitError error
}

// Kernel wires together every component (C1-C8) into the per-block pipeline.
// Every field below is owned exclusively by the audio thread once New
// returns, except target/events/harmonyOut/stopped, which are the three
// pieces of shared state spec §5 allows.
type Kernel struct {
	cfg     Config
	keyRoot int

	morpher   *Morpher
	mapper    *Mapper
	primary   *Sequencer
	secondary *Sequencer
	harmony   *HarmonyDriver
	melody    *MelodyGenerator
	artic     *Articulator
	rnd       *rng

	target     *TargetBuffer
	events     *EventRing
	harmonyOut *HarmonyRing

	sentinel allocSentinel
	stopped  atomic.Bool

	stepCounter uint32
	voicing     Voicing

	mode         ControlMode
	directParams MusicalParams

	forcedKind   ProgressionKind
	forcedActive bool
}

// New validates cfg and constructs a Kernel. The only failure mode is an
// invalid configuration (spec §7's "initialization failure"); there is no
// audio device to open at this layer, that lives in the downstream backend.
func New(cfg Config) (*Kernel, error) {
	return NewWithKey(cfg, 0)
}

// NewWithKey is New with an explicit global key root (pitch class 0..11).
func NewWithKey(cfg Config, keyRoot int) (*Kernel, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("kernel: invalid sample rate %d", cfg.SampleRate)
	}
	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("kernel: invalid block size %d", cfg.BlockSize)
	}
	if cfg.NVoice <= 0 {
		return nil, fmt.Errorf("kernel: invalid voice count %d", cfg.NVoice)
	}

	initial := EngineParams{Arousal: 0.5, Valence: 0, Density: 0.5, Tension: 0.2}
	keyRoot = pcMod(keyRoot)
	rnd := newRNG(cfg.Seed)

	k := &Kernel{
		cfg:        cfg,
		keyRoot:    keyRoot,
		morpher:    NewMorpher(initial),
		mapper:     NewMapper(cfg, 100),
		primary:    NewSequencer(true),
		secondary:  NewSequencer(false),
		harmony:    NewHarmonyDriver(keyRoot),
		rnd:        rnd,
		target:     NewTargetBuffer(initial),
		events:     NewEventRing(cfg.EventRingCapacity),
		harmonyOut: NewHarmonyRing(cfg.HarmonyRingCapacity),
		artic:      NewArticulator(),
	}
	k.melody = NewMelodyGenerator(rnd, keyRoot)
	return k, nil
}

// SetTarget writes the pending EngineParams snapshot (spec §6.2 set_target
// generalized to the whole struct at once rather than one field, since the
// transport already carries the full value atomically).
func (k *Kernel) SetTarget(p EngineParams) { k.target.Write(p.Clamp()) }

// SetMode switches between mapper-driven and direct MusicalParams sourcing.
func (k *Kernel) SetMode(m ControlMode) { k.mode = m }

// SetDirectParams supplies the MusicalParams used when in ModeDirect.
func (k *Kernel) SetDirectParams(mp MusicalParams) { k.directParams = mp }

// SetAlgorithm changes the rhythm pattern-generation mode.
func (k *Kernel) SetAlgorithm(mode RhythmMode) { k.mapper.SetAlgorithm(mode) }

// SetPolySteps changes the primary sequencer's step count (and, with it,
// the secondary's polymeter ratio).
func (k *Kernel) SetPolySteps(n int) { k.mapper.SetPolySteps(n) }

// SetHarmonyMode forces the harmony driver's progression-kind candidate,
// overriding the mapper's emotion-derived suggestion.
func (k *Kernel) SetHarmonyMode(kind ProgressionKind) {
	k.forcedKind = kind
	k.forcedActive = true
}

// SetHarmonyModeAuto returns progression-kind selection to the mapper.
func (k *Kernel) SetHarmonyModeAuto() { k.forcedActive = false }

// Stop flips the shared stop flag; the next Block call returns silence.
func (k *Kernel) Stop() { k.stopped.Store(true) }

// Telemetry reports the counters spec §7 downgrades errors to instead of
// ever failing the audio thread.
func (k *Kernel) Telemetry() Telemetry {
	return Telemetry{EventDrops: k.events.Drops()}
}

// PopHarmonyState drains one pending harmony snapshot for the UI/control
// thread; returns false once the ring is empty.
func (k *Kernel) PopHarmonyState() (HarmonyState, bool) { return k.harmonyOut.Pop() }

// Snapshot is a read-only view of live sequencer/harmony/derived-parameter
// state for a single-threaded reference shell: this repository's bubbletea
// shell calls Block and Snapshot from the same goroutine, never
// concurrently, so reading sequencer/harmony state directly does not
// violate the audio-thread/control-thread separation of spec §5 the way an
// actual concurrent UI thread racing the audio callback would. A real
// concurrent deployment must rely on the harmony outbox (PopHarmonyState)
// and the look-ahead simulator instead of this method.
type Snapshot struct {
	Params           MusicalParams
	PrimaryPattern   RhythmPattern
	PrimaryStep      int
	SecondaryPattern RhythmPattern
	SecondaryStep    int
	Harmony          HarmonyContext
}

// Snapshot reports the kernel's current derived parameters and sequencer/
// harmony state without mutating anything.
func (k *Kernel) Snapshot() Snapshot {
	state := k.morpher.State()
	saved := k.mapper.State()
	mp := k.currentParams(state)
	k.mapper.SetState(saved)
	primary := k.primary.State()
	secondary := k.secondary.State()
	return Snapshot{
		Params:           mp,
		PrimaryPattern:   primary.Pattern,
		PrimaryStep:      primary.CurrentStep,
		SecondaryPattern: secondary.Pattern,
		SecondaryStep:    secondary.CurrentStep,
		Harmony:          k.harmony.State(),
	}
}

// Block advances one block (cfg.BlockSize samples), then drains up to
// len(out) pending events into it, returning how many were written. This is
// the audio-thread entry point; it never allocates, blocks, or performs I/O
// (spec §5), guarded in debug builds by allocSentinel.
func (k *Kernel) Block(out []AudioEvent) int {
	if k.stopped.Load() {
		return 0
	}

	k.sentinel.begin()
	k.advanceBlock()
	k.sentinel.end()

	n := 0
	for n < len(out) {
		e, ok := k.events.Pop()
		if !ok {
			break
		}
		out[n] = e
		n++
	}
	return n
}

// advanceBlock reads the target once, advances C1, derives MusicalParams
// via C2 (or takes the direct override), then runs the per-sample pipeline
// cfg.BlockSize times.
func (k *Kernel) advanceBlock() {
	target := k.target.Read()
	state := k.morpher.Advance(target)
	mp := k.currentParams(state)

	for i := 0; i < k.cfg.BlockSize; i++ {
		k.advanceSample(mp, state)
	}
}

func (k *Kernel) currentParams(state CurrentState) MusicalParams {
	if k.mode == ModeDirect {
		return k.directParams
	}
	return k.mapper.Map(state)
}

// advanceSample is C3 (both sequencers) -> C4 (harmony, on measure
// boundaries) -> C5 (melody/voicing) -> C6 (articulation/emission), run
// once per sample. It returns the merged trigger and whether any sequencer
// actually landed on a new step this sample, which Simulate uses to group
// events into Frames.
func (k *Kernel) advanceSample(mp MusicalParams, state CurrentState) (StepTrigger, bool) {
	k.artic.TickSample(k.events, k.stepCounter)

	primaryTrig, primaryFired := k.primary.AdvanceSample(mp.RhythmMode, mp.Primary, state.Tension, state.Density, mp.BPM, k.cfg)
	secondaryTrig, secondaryFired := k.secondary.AdvanceSample(mp.RhythmMode, mp.Secondary, state.Tension, state.Density, mp.BPM, k.cfg)

	if !primaryFired && !secondaryFired {
		return StepTrigger{}, false
	}

	trig := mergeTriggers(primaryTrig, secondaryTrig)

	voicingChanged := false
	if trig.MeasureStart && primaryFired {
		candidateKind := k.mapper.ProgressionKind()
		if k.forcedActive {
			candidateKind = k.forcedKind
		}
		hs := k.harmony.AdvanceMeasure(mp, candidateKind, state, k.rnd)
		hs.Step = k.stepCounter
		if k.harmony.State().CycleState == chordCommitted {
			voicingChanged = true
			k.voicing = k.melody.NextVoicing(k.harmony.Chord(), mp.VoicingDensity, k.cfg.NVoice)
		}
		k.harmonyOut.Push(hs)
	}

	var leadPitch, bassPitch uint8
	if trig.Lead {
		leadPitch = k.melody.NextLeadPitch(mp, k.harmony.Chord(), k.harmony.State().PublishedScale, k.keyRoot, trig.IsStrongBeat, k.rnd)
	}
	if trig.Bass {
		bassPitch = k.melody.BassPitch(k.harmony.Chord())
	}

	samplesPerStep := k.primary.State().SamplesPerStep
	voiceGateSamples := samplesPerStep * int64(mp.Primary.Steps) * int64(maxInt(mp.ChordChangeMeasures, 1))

	k.artic.EmitStep(
		k.events, k.cfg, k.stepCounter, trig,
		leadPitch, bassPitch, k.voicing, voicingChanged, voiceGateSamples,
		mp.ArticulationRatio, state.Arousal, samplesPerStep, k.rnd,
	)

	k.stepCounter++
	return trig, true
}
