package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bascanada/harmonium/control"
	"github.com/bascanada/harmonium/kernel"
)

const (
	FaderHeight    = 10 // Number of rows for slider display
	WaveformWidth  = 80
	WaveformHeight = 8
)

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func pcName(pc int) string {
	pc = ((pc % 12) + 12) % 12
	return pitchClassNames[pc]
}

func noteName(pitch uint8) string {
	return fmt.Sprintf("%s%d", pcName(int(pitch)), int(pitch)/12-1)
}

// progressionKindNames gives the harmony driver's committed strategy family
// a display label (spec §4.4).
var progressionKindNames = map[kernel.ProgressionKind]string{
	kernel.ProgressionConsonantFunctional: "consonant functional",
	kernel.ProgressionDarkModal:           "dark modal",
	kernel.ProgressionExtendedDominant:    "extended dominant",
	kernel.ProgressionNeoRiemannian:       "neo-Riemannian",
}

var rhythmModeNames = map[kernel.RhythmMode]string{
	kernel.RhythmEven:            "even-distribution",
	kernel.RhythmBalancedPolygon: "balanced-polygon",
	kernel.RhythmGroove:          "groove-template",
}

// RenderSlider renders a single vertical fader for a [0,1]-normalized value,
// generalizing the teacher's fixed 0-127 RenderFader to the kernel's
// float-valued emotional dimensions.
func RenderSlider(label string, norm float64, displayValue string, height int) string {
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	filled := int(norm * float64(height))

	var lines []string
	lines = append(lines, ChannelNameStyle.Render(label))
	lines = append(lines, "")
	for i := height - 1; i >= 0; i-- {
		if i < filled {
			lines = append(lines, FaderFillStyle.Render("██"))
		} else {
			lines = append(lines, FaderTrackStyle.Render("░░"))
		}
	}
	lines = append(lines, "")
	lines = append(lines, ValueStyle.Render(displayValue))

	return ChannelStyle.Render(strings.Join(lines, "\n"))
}

// RenderEmotionPanel renders the four emotional-dimension sliders that drive
// the emotion->music mapper (spec §3 EngineParams, §4.2).
func RenderEmotionPanel(target kernel.EngineParams) string {
	arousal := RenderSlider("AROUSAL", target.Arousal, fmt.Sprintf("%3.0f%%", target.Arousal*100), FaderHeight)
	valence := RenderSlider("VALENCE", (target.Valence+1)/2, fmt.Sprintf("%+.2f", target.Valence), FaderHeight)
	density := RenderSlider("DENSITY", target.Density, fmt.Sprintf("%3.0f%%", target.Density*100), FaderHeight)
	tension := RenderSlider("TENSION", target.Tension, fmt.Sprintf("%3.0f%%", target.Tension*100), FaderHeight)
	return lipgloss.JoinHorizontal(lipgloss.Top, arousal, valence, density, tension)
}

// renderPatternRow renders one sequencer's onset pattern as a row of
// filled/empty cells with the current step highlighted, generalizing the
// teacher's fixed 16-step BEAT GRID to the kernel's variable-length
// RhythmPattern.
func renderPatternRow(label string, pattern kernel.RhythmPattern, currentStep int) string {
	activeStyle := lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(ColorSurface)
	playheadStyle := lipgloss.NewStyle().Background(ColorFader).Foreground(lipgloss.Color("#000000")).Bold(true)

	var b strings.Builder
	b.WriteString(ChannelNameStyle.Render(label))
	b.WriteString(" ")
	for i, hit := range pattern.Hits {
		char := "·"
		if hit {
			char = "█"
		}
		switch {
		case i == currentStep && hit:
			b.WriteString(playheadStyle.Render(char))
		case i == currentStep:
			b.WriteString(playheadStyle.Render("▪"))
		case hit:
			b.WriteString(activeStyle.Render(char))
		default:
			b.WriteString(inactiveStyle.Render(char))
		}
	}
	return b.String()
}

// RenderStepGrid renders both sequencers' patterns plus the derived tempo/
// scale/mode readout (spec §3 MusicalParams, §4.3).
func RenderStepGrid(snap kernel.Snapshot) string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	var lines []string
	lines = append(lines, headerStyle.Render("┌─ RHYTHM ──────────────────────────────────────────┐"))
	lines = append(lines, renderPatternRow("PRIMARY  ", snap.PrimaryPattern, snap.PrimaryStep))
	lines = append(lines, renderPatternRow("SECONDARY", snap.SecondaryPattern, snap.SecondaryStep))

	info := fmt.Sprintf("bpm=%.1f  key=%s  scale=%s  mode=%s  pulses=%d/%d",
		snap.Params.BPM, pcName(snap.Harmony.KeyRoot), snap.Params.Scale.String(),
		rhythmModeNames[snap.Params.RhythmMode], snap.Params.Primary.Pulses, snap.Params.Primary.Steps)
	lines = append(lines, ValueStyle.Render(info))

	return strings.Join(lines, "\n")
}

// RenderHarmonyPanel renders the current chord, progression kind, and
// measure count (spec §4.4 HarmonyContext).
func RenderHarmonyPanel(h kernel.HarmonyContext) string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	quality := "maj"
	if h.ChordIsMinor {
		quality = "min"
	}

	var tones []string
	for i := 0; i < h.Chord.Count; i++ {
		tones = append(tones, pcName(h.Chord.Tones[i]))
	}

	var lines []string
	lines = append(lines, headerStyle.Render("┌─ HARMONY ─────────────────────────────────────────┐"))
	lines = append(lines, ValueStyle.Render(fmt.Sprintf("chord  %s %s  (%s)", pcName(h.ChordRoot), quality, strings.Join(tones, " "))))
	lines = append(lines, ValueStyle.Render(fmt.Sprintf("progression  %s", progressionKindNames[h.CommittedKind])))
	lines = append(lines, ValueStyle.Render(fmt.Sprintf("measure %d  (%d into chord)", h.MeasureNumber, h.MeasuresIntoChord)))

	return strings.Join(lines, "\n")
}

// RenderLookaheadPanel renders a short textual preview of the events a
// simulate() call (spec §4.8, §6.2) would produce: one line per frame that
// carries NoteOn events, listing only those, for at most six frames.
func RenderLookaheadPanel(frames []kernel.Frame) string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	var lines []string
	lines = append(lines, headerStyle.Render("┌─ LOOK-AHEAD ──────────────────────────────────────┐"))

	shown := 0
	for _, f := range frames {
		if len(f.Events) == 0 {
			continue
		}
		var parts []string
		for _, e := range f.Events {
			if e.Kind != kernel.EventNoteOn {
				continue
			}
			parts = append(parts, fmt.Sprintf("ch%d:%s", e.Channel, noteName(e.Pitch)))
		}
		if len(parts) == 0 {
			continue
		}
		lines = append(lines, ValueStyle.Render(fmt.Sprintf("+%-3d  %s", f.OffsetInSteps, strings.Join(parts, " "))))
		shown++
		if shown >= 6 {
			break
		}
	}
	if shown == 0 {
		lines = append(lines, ValueStyle.Render("(no upcoming onsets in this window)"))
	}

	return strings.Join(lines, "\n")
}

// RenderHelp renders the help bar.
func RenderHelp() string {
	help := "↑/↓: Arousal  ←/→: Valence  [/]: Density  {/}: Tension  " +
		"A: Rhythm mode  H: Harmony mode  M: Auto harmony  +/-: Poly steps  " +
		"L: Look-ahead  D: Devices  Q: Quit"
	return HelpStyle.Render(help)
}

// RenderStatus renders the status bar with MIDI connection and telemetry,
// framed in the teacher's master-channel border since this is the one
// always-visible "master section" of the shell.
func RenderStatus(s *control.State) string {
	inPort := s.MidiHandler.InputPortName()
	outPort := s.MidiHandler.OutputPortName()
	tel := s.Telemetry()

	status := fmt.Sprintf("MIDI In: %s │ MIDI Out: %s │ dropped events: %d", inPort, outPort, tel.EventDrops)
	return StatusFrameStyle.Width(0).Align(lipgloss.Left).Render(StatusStyle.Render(status))
}

// RenderModeBadges renders the control-mode and harmony-auto toggles as
// badges, one per binary mode switch the kernel exposes (spec §6.2
// set_mode, set_harmony_mode/set_harmony_mode_auto). The algorithm name
// gets its own accent-colored tag since it's a reading, not a toggle.
func RenderModeBadges(mode kernel.ControlMode, harmonyAuto bool, algorithm kernel.RhythmMode) string {
	modeLabel := "EMOTION"
	modeStyle := ControlModeEmotionStyle
	if mode == kernel.ModeDirect {
		modeLabel = "DIRECT"
		modeStyle = ControlModeDirectStyle
	}

	harmonyLabel := "AUTO HARMONY"
	harmonyStyle := HarmonyAutoStyle
	if !harmonyAuto {
		harmonyLabel = "MANUAL HARMONY"
		harmonyStyle = HarmonyManualStyle
	}

	algoBadge := AlgorithmTagStyle.Render(rhythmModeNames[algorithm])

	row := lipgloss.JoinHorizontal(lipgloss.Center,
		modeStyle.Render(modeLabel), " ", harmonyStyle.Render(harmonyLabel), " ", algoBadge)
	return BadgeRowStyle.Width(0).Padding(0, 1).Render(row)
}

// Waveform block characters for different amplitudes (unused directly but
// kept for parity with the teacher's waveform rendering vocabulary).
var waveBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// RenderWaveform renders a stereo waveform oscilloscope, unchanged from the
// teacher's implementation since it only depends on raw sample slices.
func RenderWaveform(leftWave, rightWave []float64) string {
	if len(leftWave) == 0 || len(rightWave) == 0 {
		return ""
	}

	width := WaveformWidth
	height := WaveformHeight

	step := len(leftWave) / width
	if step < 1 {
		step = 1
	}

	var lines []string

	headerStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	lines = append(lines, headerStyle.Render("┌─ WAVEFORM ─────────────────────────────────────────────────────────────────┐"))

	display := make([][]string, height)
	for i := range display {
		display[i] = make([]string, width)
		for j := range display[i] {
			display[i][j] = " "
		}
	}

	leftStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	rightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#D946EF"))

	halfHeight := height / 2

	for x := 0; x < width && x*step < len(leftWave); x++ {
		lSample := leftWave[x*step]
		rSample := rightWave[x*step]

		lY := int((1 - lSample) * float64(halfHeight-1))
		rY := halfHeight + int((1-rSample)*float64(halfHeight-1))

		if lY < 0 {
			lY = 0
		}
		if lY >= halfHeight {
			lY = halfHeight - 1
		}
		if rY < halfHeight {
			rY = halfHeight
		}
		if rY >= height {
			rY = height - 1
		}

		display[lY][x] = "L"
		display[rY][x] = "R"
	}

	for y := 0; y < height; y++ {
		var line strings.Builder
		line.WriteString("│")
		for x := 0; x < width; x++ {
			char := display[y][x]
			switch char {
			case "L":
				line.WriteString(leftStyle.Render("█"))
			case "R":
				line.WriteString(rightStyle.Render("█"))
			default:
				if y == halfHeight-1 || y == halfHeight {
					line.WriteString(lipgloss.NewStyle().Foreground(ColorSurface).Render("─"))
				} else {
					line.WriteString(" ")
				}
			}
		}
		line.WriteString("│")
		lines = append(lines, line.String())
	}

	footerStyle := lipgloss.NewStyle().Foreground(ColorTextDim)
	lines = append(lines, footerStyle.Render("└─ ")+leftStyle.Render("■ LEFT")+footerStyle.Render("  ")+rightStyle.Render("■ RIGHT")+footerStyle.Render(" ──────────────────────────────────────────────────────────┘"))

	return strings.Join(lines, "\n")
}

// RenderVUMeter renders a horizontal VU meter from RMS levels.
func RenderVUMeter(leftWave, rightWave []float64) string {
	var leftRMS, rightRMS float64
	for i := range leftWave {
		leftRMS += leftWave[i] * leftWave[i]
		rightRMS += rightWave[i] * rightWave[i]
	}
	if len(leftWave) > 0 {
		leftRMS = math.Sqrt(leftRMS / float64(len(leftWave)))
		rightRMS = math.Sqrt(rightRMS / float64(len(rightWave)))
	}

	width := 40
	leftBars := int(leftRMS * float64(width) * 2)
	rightBars := int(rightRMS * float64(width) * 2)
	if leftBars > width {
		leftBars = width
	}
	if rightBars > width {
		rightBars = width
	}

	greenStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	yellowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308"))
	redStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(ColorSurface)

	renderBar := func(level int) string {
		var bar strings.Builder
		for i := 0; i < width; i++ {
			if i < level {
				if i < width*6/10 {
					bar.WriteString(greenStyle.Render("█"))
				} else if i < width*8/10 {
					bar.WriteString(yellowStyle.Render("█"))
				} else {
					bar.WriteString(redStyle.Render("█"))
				}
			} else {
				bar.WriteString(dimStyle.Render("░"))
			}
		}
		return bar.String()
	}

	leftLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Render("L ")
	rightLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("#D946EF")).Render("R ")

	return leftLabel + renderBar(leftBars) + "\n" + rightLabel + renderBar(rightBars)
}
