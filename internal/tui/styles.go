package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Urdu title
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// English subtitle under the title
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginBottom(1)

	// Header style for form titles
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleTranscript = lipgloss.NewStyle().
			Foreground(ColorText)

	// Placeholder shown while the transcript is empty
	StylePlaceholder = lipgloss.NewStyle().
				Foreground(ColorSubtle).
				Italic(true)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Background(ColorBgAlt).
			Padding(0, 1)

	StyleListening = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleHint = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	StyleStartButton = lipgloss.NewStyle().
				Foreground(ColorBg).
				Background(ColorSuccess).
				Bold(true).
				Padding(0, 2)

	StyleStopButton = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorDanger).
			Bold(true).
			Padding(0, 2)
)
