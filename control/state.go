// Package control is the upstream contract of spec §6.2: it owns the
// kernel instance, the pending EngineParams target, and the wiring to the
// downstream reference consumers (midiout, synth), generalized from the
// teacher's mixer.State, which plays the same role for its own
// audio.Engine/midi.Handler pair.
package control

import (
	"fmt"

	"github.com/bascanada/harmonium/kernel"
	"github.com/bascanada/harmonium/midiout"
	"github.com/bascanada/harmonium/synth"
)

// State is the control-thread-owned wiring between one Kernel and its
// downstream consumers. Every method here runs on the control
// thread/goroutine; only Kernel.SetTarget and the event-ring drains in
// Advance cross into kernel-owned state, and both are safe per spec §5's
// shared-resource policy.
type State struct {
	Kernel      *kernel.Kernel
	Synth       *synth.Engine
	MidiHandler *midiout.Handler

	target   kernel.EngineParams
	eventBuf []kernel.AudioEvent

	lastHarmony kernel.HarmonyState
	haveHarmony bool

	mode        kernel.ControlMode
	harmonyAuto bool
}

// nudgeStep is the per-keypress delta applied to the three [0,1]-ranged
// emotional dimensions; valence spans twice the range so it gets double
// the step.
const nudgeStep = 0.05

// NewState constructs a Kernel and its downstream consumers. The only
// failure modes are the kernel's own config validation and the synth
// engine's audio device initialization (spec §7's "initialization
// failure"); once both succeed, nothing below fails from this point on.
func NewState(cfg kernel.Config) (*State, error) {
	k, err := kernel.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("control: %w", err)
	}

	eng, err := synth.NewEngine(cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("control: %w", err)
	}

	target := kernel.EngineParams{Arousal: 0.5, Valence: 0, Density: 0.5, Tension: 0.2}
	k.SetTarget(target)

	return &State{
		Kernel:      k,
		Synth:       eng,
		MidiHandler: midiout.NewHandler(),
		target:      target,
		eventBuf:    make([]kernel.AudioEvent, cfg.EventRingCapacity),
		mode:        kernel.ModeEmotion,
		harmonyAuto: true,
	}, nil
}

// Target returns the pending EngineParams last written to the kernel.
func (s *State) Target() kernel.EngineParams { return s.target }

func (s *State) setTarget(p kernel.EngineParams) {
	s.target = p.Clamp()
	s.Kernel.SetTarget(s.target)
}

// AdjustArousal nudges the pending arousal target by n steps of nudgeStep.
func (s *State) AdjustArousal(n int) {
	p := s.target
	p.Arousal += float64(n) * nudgeStep
	s.setTarget(p)
}

// AdjustValence nudges the pending valence target.
func (s *State) AdjustValence(n int) {
	p := s.target
	p.Valence += float64(n) * nudgeStep * 2
	s.setTarget(p)
}

// AdjustDensity nudges the pending density target.
func (s *State) AdjustDensity(n int) {
	p := s.target
	p.Density += float64(n) * nudgeStep
	s.setTarget(p)
}

// AdjustTension nudges the pending tension target.
func (s *State) AdjustTension(n int) {
	p := s.target
	p.Tension += float64(n) * nudgeStep
	s.setTarget(p)
}

// SetMode switches between emotion-mapper-driven and direct MusicalParams
// sourcing (spec §6.2 set_mode).
func (s *State) SetMode(m kernel.ControlMode) {
	s.mode = m
	s.Kernel.SetMode(m)
}

// Mode reports the last control mode set via SetMode.
func (s *State) Mode() kernel.ControlMode { return s.mode }

// SetAlgorithm changes the rhythm pattern-generation mode (spec §6.2
// set_algorithm).
func (s *State) SetAlgorithm(mode kernel.RhythmMode) { s.Kernel.SetAlgorithm(mode) }

// SetHarmonyMode forces a progression kind (spec §6.2 set_harmony_mode).
func (s *State) SetHarmonyMode(kind kernel.ProgressionKind) {
	s.harmonyAuto = false
	s.Kernel.SetHarmonyMode(kind)
}

// SetHarmonyModeAuto returns progression-kind selection to the mapper.
func (s *State) SetHarmonyModeAuto() {
	s.harmonyAuto = true
	s.Kernel.SetHarmonyModeAuto()
}

// HarmonyAuto reports whether the harmonic driver is picking its own
// progression kind (true) or pinned to one via SetHarmonyMode (false).
func (s *State) HarmonyAuto() bool { return s.harmonyAuto }

// SetPolySteps changes the primary sequencer's step count (spec §6.2
// set_poly_steps).
func (s *State) SetPolySteps(n int) { s.Kernel.SetPolySteps(n) }

// ApplyCC maps an incoming MIDI CC to a target nudge, the MIDI-controller
// analogue of the slider keys.
func (s *State) ApplyCC(msg midiout.CCMessage) {
	if p, ok := midiout.ApplyCC(msg, s.target); ok {
		s.setTarget(p)
	}
}

// Advance runs nBlocks kernel blocks, forwarding every emitted event to
// both downstream consumers in emission order, then records the most
// recent harmony snapshot (if any) for display. This is the control
// thread's only per-tick interaction with kernel-owned state, and it never
// reaches into sequencer/harmony internals directly (spec's §9 design-note
// warning against "quickly reading" audio-thread state) outside of
// Kernel.Snapshot, whose own doc comment explains why that one read is
// safe in this single-threaded reference shell.
func (s *State) Advance(nBlocks int) {
	for i := 0; i < nBlocks; i++ {
		n := s.Kernel.Block(s.eventBuf)
		events := s.eventBuf[:n]
		s.Synth.PushEvents(events)
		s.MidiHandler.SendEvents(events)
	}
	for {
		hs, ok := s.Kernel.PopHarmonyState()
		if !ok {
			break
		}
		s.lastHarmony = hs
		s.haveHarmony = true
	}
}

// LastHarmony returns the most recently observed harmony snapshot and
// whether one has ever been observed.
func (s *State) LastHarmony() (kernel.HarmonyState, bool) { return s.lastHarmony, s.haveHarmony }

// Snapshot reports the kernel's current derived/sequencer/harmony state for
// display (see kernel.Kernel.Snapshot's doc comment for why this is safe
// here).
func (s *State) Snapshot() kernel.Snapshot { return s.Kernel.Snapshot() }

// Telemetry reports the event-drop counter spec §7 downgrades errors to.
func (s *State) Telemetry() kernel.Telemetry { return s.Kernel.Telemetry() }

// Simulate runs the look-ahead simulator (spec §6.2 simulate) without
// touching the live kernel.
func (s *State) Simulate(nSteps int) []kernel.Frame { return s.Kernel.Simulate(nSteps) }

// Close releases the downstream consumers and stops the kernel.
func (s *State) Close() {
	s.Kernel.Stop()
	s.Synth.Close()
	s.MidiHandler.Close()
}
