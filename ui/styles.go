package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary    = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary  = lipgloss.Color("#10B981") // Green
	ColorAccent     = lipgloss.Color("#F59E0B") // Amber
	ColorAlert      = lipgloss.Color("#EF4444") // Red, for the "emotion" control-mode badge
	ColorHighlight  = lipgloss.Color("#3B82F6") // Blue, for the "auto harmony" badge
	ColorBackground = lipgloss.Color("#1F2937") // Dark gray
	ColorSurface    = lipgloss.Color("#374151") // Medium gray
	ColorText       = lipgloss.Color("#F9FAFB") // Light gray
	ColorTextDim    = lipgloss.Color("#9CA3AF") // Dimmed text
	ColorFader      = lipgloss.Color("#4ADE80") // Bright green
	ColorFaderBg    = lipgloss.Color("#374151") // Fader background
)

// Styles
var (
	// Base styles
	BaseStyle = lipgloss.NewStyle().
			Background(ColorBackground).
			Foreground(ColorText)

	// Title bar
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// Slider/panel container (one emotional dimension, or a pattern panel)
	ChannelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSurface).
			Padding(1).
			Width(10).
			Align(lipgloss.Center)

	// BadgeRowStyle frames the control-mode/harmony-mode/algorithm badge row
	// (spec §6.2 set_mode/set_harmony_mode), the same accent-bordered
	// single-row frame the teacher used for its selected-channel highlight.
	BadgeRowStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1).
			Width(10).
			Align(lipgloss.Center)

	// Slider/panel label
	ChannelNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorText).
				Align(lipgloss.Center)

	// Slider track (background)
	FaderTrackStyle = lipgloss.NewStyle().
			Foreground(ColorFaderBg)

	// Slider fill (active part)
	FaderFillStyle = lipgloss.NewStyle().
			Foreground(ColorFader)

	// Value display
	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Align(lipgloss.Center)

	// HarmonyManualStyle/HarmonyAutoStyle badge the harmonic driver's
	// auto/pinned progression-kind toggle (spec §6.2 set_harmony_mode_auto).
	HarmonyAutoStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorBackground).
				Background(ColorHighlight).
				Padding(0, 1)

	HarmonyManualStyle = lipgloss.NewStyle().
				Foreground(ColorTextDim).
				Padding(0, 1)

	// ControlMode{Emotion,Direct}Style badge whether MusicalParams comes
	// from the emotion mapper or a direct override (spec §6.2 set_mode).
	ControlModeEmotionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorBackground).
				Background(ColorAlert).
				Padding(0, 1)

	ControlModeDirectStyle = lipgloss.NewStyle().
				Foreground(ColorTextDim).
				Padding(0, 1)

	// AlgorithmTagStyle colors the current rhythm pattern-generation mode's
	// name next to the sequencer readout.
	AlgorithmTagStyle = lipgloss.NewStyle().
				Foreground(ColorAccent)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			MarginTop(1)

	// Status bar
	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			MarginTop(1)

	// Device selector styles
	DeviceListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSurface).
			Padding(1).
			Width(50)

	DeviceItemStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 2)

	DeviceSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorBackground).
				Background(ColorPrimary).
				Padding(0, 2)

	// StatusFrameStyle frames the always-visible MIDI/telemetry status bar,
	// the one "master section" of the shell.
	StatusFrameStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(ColorAccent).
				Padding(1).
				Width(12).
				Align(lipgloss.Center)
)
