// Package synth is the minimal "synthesis back-end" spec.md §1 calls an
// explicit non-goal of the kernel core: it renders the kernel's abstract
// AudioEvent stream as audible oscillators so the repository is runnable
// end-to-end, the same way the teacher's audio.Engine renders its own
// fixed beat patterns, grounded on its oto.Player/ring-buffer-free
// streaming approach and per-channel envelope/phase state.
package synth

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hajimehoshi/oto/v2"

	"github.com/bascanada/harmonium/kernel"
)

const (
	channelCount = 2
	bitDepth     = 2
	waveformSize = 128
	numChannels  = 16 // mirrors kernel.ChControl+1: every routed channel plus voice slots

	// percDecayPerSample gives percussive channels
	// (kick/snare/hat) a short amplitude tail instead of a hard gate edge,
	// since their "note" is really a one-shot hit rather than a sustained
	// pitch.
	percDecayPerSample = 0.9994
)

// voice is one channel's currently sounding oscillator state: a sustain
// gate (for pitched channels) or a decaying envelope (for percussive
// channels), plus running oscillator phase so consecutive samples are
// continuous across Read() calls.
type voice struct {
	active     bool
	pitch      uint8
	velocity   float64
	remaining  int64
	envelope   float64
	phase      float64
	phase2     float64
}

// Engine is the downstream consumer of kernel.AudioEvent: it owns one oto
// player and numChannels independent oscillator voices, mixed and panned
// per spec's "synthesis back-end" contract (out of the kernel's scope,
// provided here as a thin reference consumer).
type Engine struct {
	ctx        *oto.Context
	player     oto.Player
	sampleRate int

	mu     sync.Mutex
	voices [numChannels]voice
	master float64

	waveformMu  sync.Mutex
	waveformL   []float64
	waveformR   []float64
	waveformIdx int

	running bool
}

type audioStream struct {
	engine *Engine
}

// NewEngine opens an oto playback context at sampleRate and starts
// streaming silence (until events arrive) on a single stereo player.
func NewEngine(sampleRate int) (*Engine, error) {
	ctx, ready, err := oto.NewContext(sampleRate, channelCount, bitDepth)
	if err != nil {
		return nil, err
	}
	<-ready

	e := &Engine{
		ctx:        ctx,
		sampleRate: sampleRate,
		master:     0.8,
		running:    true,
		waveformL:  make([]float64, waveformSize),
		waveformR:  make([]float64, waveformSize),
	}

	e.player = ctx.NewPlayer(&audioStream{engine: e})
	e.player.Play()

	return e, nil
}

// PushEvents applies a batch of kernel.AudioEvents (as drained from one
// Kernel.Block call) to the voice table. Called from the same goroutine
// that calls Kernel.Block, so no event ever races a Read() call for the
// channel it targets more than the mutex already serializes.
func (e *Engine) PushEvents(events []kernel.AudioEvent) {
	if len(events) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range events {
		if int(ev.Channel) >= numChannels {
			continue
		}
		v := &e.voices[ev.Channel]
		switch ev.Kind {
		case kernel.EventNoteOn:
			v.active = true
			v.pitch = ev.Pitch
			v.velocity = float64(ev.Velocity) / 127.0
			v.remaining = int64(ev.DurationSamples)
			v.envelope = 1.0
		case kernel.EventNoteOff:
			if v.pitch == ev.Pitch {
				v.active = false
			}
		}
	}
}

// SetMasterVolume sets the overall output level, 0-127.
func (e *Engine) SetMasterVolume(value uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.master = float64(value) / 127.0
}

// GetWaveform returns the most recent stereo waveform samples for the UI's
// oscilloscope/VU meter, oldest-first.
func (e *Engine) GetWaveform() ([]float64, []float64) {
	e.waveformMu.Lock()
	defer e.waveformMu.Unlock()

	left := make([]float64, waveformSize)
	right := make([]float64, waveformSize)
	for i := 0; i < waveformSize; i++ {
		idx := (e.waveformIdx + i) % waveformSize
		left[i] = e.waveformL[idx]
		right[i] = e.waveformR[idx]
	}
	return left, right
}

// Close stops playback and releases the oto player.
func (e *Engine) Close() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	if e.player != nil {
		e.player.Close()
	}
}

// midiToFreq converts a MIDI pitch to Hz (A4=69=440Hz equal temperament).
func midiToFreq(pitch uint8) float64 {
	return 440.0 * math.Pow(2, (float64(pitch)-69)/12)
}

// renderVoice renders one sample of a voice, with the oscillator shape
// picked by channel role: drums get noise/decaying-sine one-shots, bass a
// sawtooth, lead a sine plus a slightly detuned octave-up sine,
// voicing channels a soft sine pad. This mirrors the teacher's per-channel
// switch in its audioStream.Read, generalized from fixed channel indices
// to the kernel's ChKick..ChVoiceBase+N routing.
func (e *Engine) renderVoice(ch int, v *voice, sampleRate float64) float64 {
	if !v.active && v.envelope <= 0.0001 {
		return 0
	}

	var sample float64
	freq := midiToFreq(v.pitch)

	switch ch {
	case kernel.ChKick:
		kickFreq := 120*v.envelope + 40
		v.phase += 2 * math.Pi * kickFreq / sampleRate
		sample = math.Sin(v.phase) * v.envelope * 1.1

	case kernel.ChSnare:
		v.phase += 0.1
		noise := (rand.Float64()*2 - 1) * 0.6
		tone := math.Sin(v.phase*200) * 0.4
		sample = (noise + tone) * v.envelope

	case kernel.ChHat:
		noise := rand.Float64()*2 - 1
		sample = noise * v.envelope * 0.5

	case kernel.ChBass:
		v.phase += freq / sampleRate
		sample = (2*math.Mod(v.phase, 1) - 1) * 0.7

	case kernel.ChLead:
		v.phase += 2 * math.Pi * freq / sampleRate
		v.phase2 += 2 * math.Pi * freq * 2.01 / sampleRate
		sample = math.Sin(v.phase)*0.5 + math.Sin(v.phase2)*0.25

	default: // voicing channels: soft sine pad
		v.phase += 2 * math.Pi * freq / sampleRate
		sample = math.Sin(v.phase) * 0.28
	}

	sample *= v.velocity

	// Percussive channels decay continuously, even while "active" within
	// their gate, since a kick/snare/hat hit is a one-shot, not a sustain.
	if !v.active || ch <= kernel.ChHat {
		v.envelope *= percDecayPerSample
	}
	if v.remaining > 0 {
		v.remaining--
	} else if ch > kernel.ChHat {
		v.active = false
	}

	return sample
}

func softClip(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return 1.5*x - 0.5*x*x*x
}

// pan spreads channels across the stereo field by channel index so
// simultaneous voices are distinguishable by ear, a fixed layout rather
// than a user-controlled pan knob (the kernel has no pan concept).
func pan(ch int) float64 {
	return math.Mod(float64(ch)*0.37, 2) - 1
}

func (s *audioStream) Read(buf []byte) (int, error) {
	e := s.engine
	samples := len(buf) / 4
	sampleRate := float64(e.sampleRate)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}

	for i := 0; i < samples; i++ {
		var leftSum, rightSum float64

		for ch := 0; ch < numChannels; ch++ {
			v := &e.voices[ch]
			if !v.active && v.envelope <= 0.0001 {
				continue
			}
			sample := e.renderVoice(ch, v, sampleRate)
			angle := (pan(ch) + 1) * math.Pi / 4
			leftSum += sample * math.Cos(angle)
			rightSum += sample * math.Sin(angle)
		}

		leftSum = softClip(leftSum * e.master)
		rightSum = softClip(rightSum * e.master)

		e.waveformMu.Lock()
		e.waveformL[e.waveformIdx] = leftSum
		e.waveformR[e.waveformIdx] = rightSum
		e.waveformIdx = (e.waveformIdx + 1) % waveformSize
		e.waveformMu.Unlock()

		leftInt := int16(leftSum * 32767 * 0.7)
		rightInt := int16(rightSum * 32767 * 0.7)

		idx := i * 4
		buf[idx] = byte(leftInt)
		buf[idx+1] = byte(leftInt >> 8)
		buf[idx+2] = byte(rightInt)
		buf[idx+3] = byte(rightInt >> 8)
	}

	return len(buf), nil
}
