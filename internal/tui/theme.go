package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the urduscribe TUI
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("#5EEAD4") // Teal - title and accents
	ColorSecondary = lipgloss.Color("#2DD4BF") // Deeper teal - listening state

	// Status colors
	ColorSuccess = lipgloss.Color("#14B8A6") // Teal button
	ColorError   = lipgloss.Color("#F87171") // Red text
	ColorDanger  = lipgloss.Color("#DC2626") // Red button

	// Text colors
	ColorText   = lipgloss.Color("#E5E7EB") // Transcript text
	ColorMuted  = lipgloss.Color("#9CA3AF") // Subtitle, idle status
	ColorSubtle = lipgloss.Color("#6B7280") // Placeholder, hints

	// Background colors
	ColorBg    = lipgloss.Color("#111827")
	ColorBgAlt = lipgloss.Color("#1F2937") // Transcript panel
)
