package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bascanada/harmonium/control"
	"github.com/bascanada/harmonium/kernel"
	"github.com/bascanada/harmonium/midiout"
	"github.com/bascanada/harmonium/ui"
)

// View represents the current screen.
type View int

const (
	ViewEngine View = iota
	ViewDevices
	ViewLookahead
)

// tickInterval is the shell's UI refresh cadence. The kernel itself still
// advances in its own cfg.BlockSize-sample units; blocksPerTick below
// converts this wall-clock interval into however many kernel blocks must
// run per tick to keep sequencer time honest.
const tickInterval = 33 * time.Millisecond

// Model is the main bubbletea application model.
type Model struct {
	state          *control.State
	deviceSelector *ui.DeviceSelector
	currentView    View
	width          int
	height         int
	err            error
	blocksPerTick  int
	lookahead      []kernel.Frame
}

type tickMsg time.Time
type ccMsg midiout.CCMessage

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// listenForCC creates a command that listens for MIDI CC messages nudging
// the emotional target (spec §6.2's upstream contract, realized here over
// MIDI instead of OSC/UI sliders alone).
func listenForCC(h *midiout.Handler) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-h.CCChannel()
		if !ok {
			return nil
		}
		return ccMsg(msg)
	}
}

// Init starts the tick loop and the MIDI CC listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), listenForCC(m.state.MidiHandler))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.state.Advance(m.blocksPerTick)
		return m, tick()

	case ccMsg:
		m.state.ApplyCC(midiout.CCMessage(msg))
		return m, listenForCC(m.state.MidiHandler)

	case error:
		m.err = msg
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewEngine, ViewLookahead:
		return m.handleEngineKeys(msg)
	case ViewDevices:
		return m.handleDeviceKeys(msg)
	}
	return m, nil
}

// handleEngineKeys handles keyboard input in the main engine view: every
// arrow/bracket key nudges one of the four EngineParams targets (spec §6.2
// set_target), generalizing the teacher's per-channel volume/pan nudges to
// the kernel's emotional dimensions.
func (m Model) handleEngineKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.state.Close()
		return m, tea.Quit

	case "up", "k":
		m.state.AdjustArousal(1)
	case "down", "j":
		m.state.AdjustArousal(-1)

	case "left", "h":
		m.state.AdjustValence(-1)
	case "right", "l":
		m.state.AdjustValence(1)

	case "[":
		m.state.AdjustDensity(-1)
	case "]":
		m.state.AdjustDensity(1)

	case "{":
		m.state.AdjustTension(-1)
	case "}":
		m.state.AdjustTension(1)

	case "a":
		m.cycleAlgorithm()

	case "H":
		m.cycleHarmonyMode()
	case "m":
		m.state.SetHarmonyModeAuto()

	case "+", "=":
		snap := m.state.Snapshot()
		m.state.SetPolySteps(snap.Params.Primary.Steps + 4)
	case "-", "_":
		snap := m.state.Snapshot()
		m.state.SetPolySteps(snap.Params.Primary.Steps - 4)

	case "e":
		m.state.SetMode(kernel.ModeEmotion)
	case "E":
		m.state.SetMode(kernel.ModeDirect)

	case "L":
		if m.currentView == ViewLookahead {
			m.currentView = ViewEngine
		} else {
			m.lookahead = m.state.Simulate(96)
			m.currentView = ViewLookahead
		}

	case "d":
		m.deviceSelector = ui.NewDeviceSelector()
		m.currentView = ViewDevices
	}

	return m, nil
}

// algorithmCycle and harmonyCycle give the 'a'/'H' keys a fixed traversal
// order over the kernel's closed rhythm-mode / progression-kind sets (spec
// §9 design notes: "tagged variants with a fixed, closed set").
var algorithmCycle = []kernel.RhythmMode{kernel.RhythmEven, kernel.RhythmBalancedPolygon, kernel.RhythmGroove}
var harmonyCycle = []kernel.ProgressionKind{
	kernel.ProgressionConsonantFunctional,
	kernel.ProgressionDarkModal,
	kernel.ProgressionExtendedDominant,
	kernel.ProgressionNeoRiemannian,
}

func (m *Model) cycleAlgorithm() {
	current := m.state.Snapshot().Params.RhythmMode
	for i, mode := range algorithmCycle {
		if mode == current {
			m.state.SetAlgorithm(algorithmCycle[(i+1)%len(algorithmCycle)])
			return
		}
	}
	m.state.SetAlgorithm(algorithmCycle[0])
}

func (m *Model) cycleHarmonyMode() {
	current := m.state.Snapshot().Harmony.CommittedKind
	for i, kind := range harmonyCycle {
		if kind == current {
			m.state.SetHarmonyMode(harmonyCycle[(i+1)%len(harmonyCycle)])
			return
		}
	}
	m.state.SetHarmonyMode(harmonyCycle[0])
}

// handleDeviceKeys handles keyboard input in device selection view.
func (m Model) handleDeviceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.state.Close()
		return m, tea.Quit

	case "esc":
		m.currentView = ViewEngine

	case "up", "k":
		m.deviceSelector.MoveUp()

	case "down", "j":
		m.deviceSelector.MoveDown()

	case "tab":
		m.deviceSelector.ToggleFocus()

	case "r":
		m.deviceSelector.Refresh()

	case "enter":
		inPort := m.deviceSelector.GetSelectedInput()
		outPort := m.deviceSelector.GetSelectedOutput()
		if err := m.state.MidiHandler.Connect(inPort, outPort); err != nil {
			m.err = err
		}
		m.currentView = ViewEngine
	}

	return m, nil
}

// View renders the current view.
func (m Model) View() string {
	var content string

	switch m.currentView {
	case ViewEngine:
		content = m.renderEngineView()
	case ViewLookahead:
		content = m.renderLookaheadView()
	case ViewDevices:
		content = ui.RenderDeviceSelector(m.deviceSelector)
	}

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

// renderEngineView renders the main emotion/rhythm/harmony/waveform display.
func (m Model) renderEngineView() string {
	var sections []string

	sections = append(sections, ui.TitleStyle.Render("HARMONIUM — reactive procedural music kernel"))

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
		sections = append(sections, errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	sections = append(sections, ui.RenderEmotionPanel(m.state.Target()))

	snap := m.state.Snapshot()
	sections = append(sections, ui.RenderModeBadges(m.state.Mode(), m.state.HarmonyAuto(), snap.Params.RhythmMode))
	sections = append(sections, ui.RenderStepGrid(snap))
	sections = append(sections, ui.RenderHarmonyPanel(snap.Harmony))

	left, right := m.state.Synth.GetWaveform()
	sections = append(sections, ui.RenderWaveform(left, right))
	sections = append(sections, ui.RenderVUMeter(left, right))

	sections = append(sections, ui.RenderStatus(m.state))
	sections = append(sections, ui.RenderHelp())

	return lipgloss.JoinVertical(lipgloss.Center, sections...)
}

// renderLookaheadView renders the offline look-ahead simulation panel (spec
// §4.8, §6.2 simulate).
func (m Model) renderLookaheadView() string {
	var sections []string
	sections = append(sections, ui.TitleStyle.Render("LOOK-AHEAD SIMULATION (96 steps)"))
	sections = append(sections, ui.RenderLookaheadPanel(m.lookahead))
	sections = append(sections, ui.HelpStyle.Render("L: back  Q: quit"))
	return lipgloss.JoinVertical(lipgloss.Center, sections...)
}

func main() {
	cfg := kernel.DefaultConfig()

	state, err := control.NewState(cfg)
	if err != nil {
		fmt.Printf("Error initializing engine: %v\n", err)
		os.Exit(1)
	}

	blocksPerTick := int(tickInterval.Seconds() * float64(cfg.SampleRate) / float64(cfg.BlockSize))
	if blocksPerTick < 1 {
		blocksPerTick = 1
	}

	model := Model{
		state:         state,
		currentView:   ViewEngine,
		blocksPerTick: blocksPerTick,
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
