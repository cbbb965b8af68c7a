package kernel

// Smoothing coefficients (spec §4.1). Illustrative constants from spec.md,
// taken as fixed per-block exponential smoothing factors.
const (
	smoothBPM     = 0.05
	smoothDensity = 0.02
	smoothTension = 0.08
	smoothArousal = 0.06
	smoothValence = 0.05
)

// Hysteresis margin for category-boundary crossings (scale family,
// progression kind), spec §4.2.
const hysteresisMargin = 0.05

// Config holds every buffer-sizing and tuning constant the kernel needs.
// Built once in code and passed to New, the way audio.NewEngine(numChannels)
// and mixer.NewState(numChannels) take constructor parameters rather than
// reading a config file (no example repo in the pack parses one).
type Config struct {
	SampleRate int
	BlockSize  int

	// NVoice is the number of concurrent notes a voicing channel may hold.
	NVoice int

	// SubdivisionsPerBeat defines a "strong beat": step % Subdivisions == 0.
	SubdivisionsPerBeat int

	EventRingCapacity   int
	HarmonyRingCapacity int

	// MinGateSamples is the minimum NoteOn duration, clamped to avoid
	// sub-audible clicks (spec §4.6).
	MinGateSamples int64

	// MaxPulsesEven bounds the Euclidean pulse count at density=1. 11
	// reproduces spec.md's S1 scenario exactly: round(1+0.5*(11-1))=6.
	MaxPulsesEven int

	// MaxPolygons bounds the balanced-polygon mode's superimposed count.
	MaxPolygons int

	Seed uint64
}

// DefaultConfig returns sane defaults for a 48kHz / 256-sample-block engine,
// matching the sample rate used throughout spec.md's test scenarios (S1-S6).
func DefaultConfig() Config {
	return Config{
		SampleRate:          48000,
		BlockSize:           256,
		NVoice:              4,
		SubdivisionsPerBeat: 4,
		EventRingCapacity:   1024,
		HarmonyRingCapacity: 256,
		MinGateSamples:      100,
		MaxPulsesEven:       11,
		MaxPolygons:         3,
		Seed:                0x5EED5EED,
	}
}
