package kernel

// Morpher advances CurrentState toward EngineParams by fixed-coefficient
// exponential smoothing, applied once per block (spec §4.1). It never
// allocates and never fails: every read is clamped to its declared range.
type Morpher struct {
	state CurrentState
}

// NewMorpher seeds the lagged state at the given target (no transient on
// the very first block).
func NewMorpher(initial EngineParams) *Morpher {
	initial = initial.Clamp()
	return &Morpher{state: CurrentState{
		Arousal: initial.Arousal,
		Valence: initial.Valence,
		Density: initial.Density,
		Tension: initial.Tension,
	}}
}

// Advance moves the lagged state one block toward target and returns the
// new CurrentState. Each field's absolute change is bounded by
// coefficient * |target-current| (testable property #2).
func (m *Morpher) Advance(target EngineParams) CurrentState {
	target = target.Clamp()
	m.state.Arousal = smoothStep(m.state.Arousal, target.Arousal, smoothArousal)
	m.state.Valence = smoothStep(m.state.Valence, target.Valence, smoothValence)
	m.state.Density = smoothStep(m.state.Density, target.Density, smoothDensity)
	m.state.Tension = smoothStep(m.state.Tension, target.Tension, smoothTension)
	return m.state
}

// State returns the current lagged state without advancing it.
func (m *Morpher) State() CurrentState { return m.state }

// Reset forces the lagged state to an exact value (used by look-ahead
// cloning and by direct-mode parameter injection).
func (m *Morpher) Reset(s CurrentState) { m.state = s }

func smoothStep(current, target, coeff float64) float64 {
	return current + coeff*(target-current)
}
