// Package midiout bridges the kernel's AudioEvent stream and an external
// controller to real MIDI: incoming CCs nudge the emotional target, and
// outgoing note events drive hardware/software synths over a MIDI OUT port.
package midiout

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/bascanada/harmonium/kernel"
)

// CCMessage represents an incoming MIDI Control Change message.
type CCMessage struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

// Default CC assignment for nudging the four emotional dimensions from a
// mod wheel / macro knobs on an external controller.
const (
	CCArousal uint8 = 1  // mod wheel
	CCValence uint8 = 21
	CCTension uint8 = 22
	CCDensity uint8 = 23
)

// Handler manages MIDI input/output connections: CC in for emotional
// control, note on/off out for the kernel's event stream.
type Handler struct {
	inPort    drivers.In
	outPort   drivers.Out
	stopFunc  func()
	ccChan    chan CCMessage
	mu        sync.RWMutex
	connected bool
}

// NewHandler creates a new MIDI handler.
func NewHandler() *Handler {
	return &Handler{
		ccChan: make(chan CCMessage, 100),
	}
}

// GetInputPorts returns available MIDI input ports.
func GetInputPorts() []drivers.In { return midi.GetInPorts() }

// GetOutputPorts returns available MIDI output ports.
func GetOutputPorts() []drivers.Out { return midi.GetOutPorts() }

// Connect opens the specified input and output ports.
func (h *Handler) Connect(inPort drivers.In, outPort drivers.Out) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected {
		h.disconnect()
	}

	h.inPort = inPort
	h.outPort = outPort

	if outPort != nil {
		if err := outPort.Open(); err != nil {
			return fmt.Errorf("midiout: open output port: %w", err)
		}
	}

	if inPort != nil {
		stop, err := midi.ListenTo(inPort, h.handleMIDI, midi.UseSysEx())
		if err != nil {
			if outPort != nil {
				outPort.Close()
			}
			return fmt.Errorf("midiout: listen on input port: %w", err)
		}
		h.stopFunc = stop
	}

	h.connected = true
	return nil
}

func (h *Handler) handleMIDI(msg midi.Message, timestampms int32) {
	var ch, cc, val uint8
	if msg.GetControlChange(&ch, &cc, &val) {
		select {
		case h.ccChan <- CCMessage{Channel: ch, Controller: cc, Value: val}:
		default:
			// Input queue full; drop the nudge rather than block the
			// MIDI driver's callback goroutine.
		}
	}
}

// CCChannel returns the channel for receiving incoming CC messages.
func (h *Handler) CCChannel() <-chan CCMessage { return h.ccChan }

// ApplyCC maps a learned CC to an adjustment of the kernel's target
// EngineParams, reading base and writing the nudged result back via set.
func ApplyCC(msg CCMessage, base kernel.EngineParams) (kernel.EngineParams, bool) {
	v := float64(msg.Value) / 127.0
	switch msg.Controller {
	case CCArousal:
		base.Arousal = v
	case CCValence:
		base.Valence = v*2 - 1
	case CCTension:
		base.Tension = v
	case CCDensity:
		base.Density = v
	default:
		return base, false
	}
	return base.Clamp(), true
}

// SendEvents translates a batch of kernel AudioEvents into outbound MIDI
// note messages. Events of any other kind (ControlChange) are ignored here.
func (h *Handler) SendEvents(events []kernel.AudioEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.outPort == nil || !h.connected {
		return
	}
	for _, e := range events {
		switch e.Kind {
		case kernel.EventNoteOn:
			h.outPort.Send(midi.NoteOn(e.Channel, e.Pitch, e.Velocity))
		case kernel.EventNoteOff:
			h.outPort.Send(midi.NoteOff(e.Channel, e.Pitch))
		}
	}
}

// disconnect closes all ports (must be called with lock held).
func (h *Handler) disconnect() {
	if h.stopFunc != nil {
		h.stopFunc()
		h.stopFunc = nil
	}
	if h.outPort != nil {
		h.outPort.Close()
	}
	h.connected = false
}

// Close closes all MIDI connections.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnect()
	close(h.ccChan)
}

// IsConnected returns whether MIDI is connected.
func (h *Handler) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

// InputPortName returns the name of the connected input port.
func (h *Handler) InputPortName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.inPort != nil {
		return h.inPort.String()
	}
	return "None"
}

// OutputPortName returns the name of the connected output port.
func (h *Handler) OutputPortName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.outPort != nil {
		return h.outPort.String()
	}
	return "None"
}
